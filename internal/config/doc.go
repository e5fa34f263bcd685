// Package config holds the format-agnostic configuration model and the
// interfaces a concrete loader implements. Nothing outside internal/hclcfg
// should need to know that the on-disk format is HCL.
package config
