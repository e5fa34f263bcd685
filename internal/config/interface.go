package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths (files or directories),
	// translates it into the format-agnostic model, and returns the
	// Converter that can later bind raw argument expressions to Go values.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter bridges raw configuration expressions and the Go structs that
// action handlers consume.
type Converter interface {
	// DecodeArguments evaluates a step's argument expressions in evalCtx and
	// populates target (a pointer to the handler's input struct), applying
	// manifest defaults for arguments the user omitted.
	DecodeArguments(
		ctx context.Context,
		target any,
		args map[string]hcl.Expression,
		defs map[string]*InputDefinition,
		evalCtx *hcl.EvalContext,
	) error

	// ToCtyValue converts a native Go value into its cty equivalent for use
	// in eval contexts and action outputs.
	ToCtyValue(v any) (cty.Value, error)
}
