package hclcfg

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/verigate/verigate/internal/config"
	"github.com/verigate/verigate/internal/ctxlog"
)

// Converter is the HCL-backed implementation of config.Converter.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// DecodeArguments evaluates step arguments in evalCtx and fills target, a
// pointer to the handler's input struct. Omitted arguments fall back to
// manifest defaults; omitted required arguments and arguments the struct has
// no field for are errors.
func (c *Converter) DecodeArguments(
	ctx context.Context,
	target any,
	args map[string]hcl.Expression,
	defs map[string]*config.InputDefinition,
	evalCtx *hcl.EvalContext,
) error {
	logger := ctxlog.From(ctx)

	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer")
	}
	elem := v.Elem()
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("decode target must point to a struct, got %s", elem.Kind())
	}

	known := make(map[string]struct{}, elem.NumField())
	structType := elem.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldVal := elem.Field(i)
		if !fieldVal.CanSet() {
			continue
		}

		name := strings.Split(field.Tag.Get("hcl"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		known[name] = struct{}{}

		var val cty.Value
		if expr, provided := args[name]; provided {
			evaluated, diags := expr.Value(evalCtx)
			if diags.HasErrors() {
				return fmt.Errorf("evaluating argument %q: %w", name, diags)
			}
			val = evaluated
		} else {
			def, declared := defs[name]
			switch {
			case declared && def.Default != nil:
				logger.Debug("Applying manifest default.", "argument", name)
				val = *def.Default
			case declared && !def.Optional:
				return fmt.Errorf("missing required argument %q", name)
			default:
				continue
			}
		}

		if err := assignCty(val, fieldVal); err != nil {
			return fmt.Errorf("argument %q: %w", name, err)
		}
	}

	for name := range args {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("unsupported argument %q", name)
		}
	}

	return nil
}

// assignCty converts val to the field's implied cty type and stores it.
func assignCty(val cty.Value, field reflect.Value) error {
	want, err := gocty.ImpliedType(reflect.Zero(field.Type()).Interface())
	if err != nil {
		return fmt.Errorf("cannot imply cty type for Go type %s: %w", field.Type(), err)
	}
	converted, err := convert.Convert(val, want)
	if err != nil {
		return err
	}
	return gocty.FromCtyValue(converted, field.Addr().Interface())
}

// ToCtyValue converts a native Go value into its cty equivalent. cty values
// pass through; nil becomes NilVal.
func (c *Converter) ToCtyValue(v any) (cty.Value, error) {
	if v == nil {
		return cty.NilVal, nil
	}
	if cv, ok := v.(cty.Value); ok {
		return cv, nil
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot imply cty type for %T: %w", v, err)
	}
	return gocty.ToCtyValue(v, ty)
}
