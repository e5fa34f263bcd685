// Package hclcfg is the HCL implementation of config.Loader and
// config.Converter. It discovers *.hcl files, decodes them against
// internal/schema, translates the result into the format-agnostic model, and
// later binds step argument expressions to action input structs.
package hclcfg
