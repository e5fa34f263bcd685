package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/verigate/verigate/internal/ctxlog"
)

// Validate performs a strict parity check between manifests and Go code.
// Every manifest must name a registered handler, every manifest input must
// have a matching Go struct field, and declared types must line up.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.From(ctx)

	for actionType, def := range r.Definitions {
		handler, ok := r.Handlers[def.Lifecycle.OnRun]
		if !ok {
			errs = append(errs, fmt.Sprintf("action '%s': manifest names handler '%s', which is not registered", actionType, def.Lifecycle.OnRun))
			continue
		}

		if handler.InputType == nil {
			if len(def.Inputs) > 0 {
				errs = append(errs, fmt.Sprintf("action '%s': manifest declares inputs, but Go handler has no input struct", actionType))
			}
			continue
		}

		manifestInputs := make(map[string]struct{})
		for name := range def.Inputs {
			manifestInputs[name] = struct{}{}
		}

		goInputs := make(map[string]reflect.StructField)
		inputType := handler.InputType
		for i := 0; i < inputType.NumField(); i++ {
			field := inputType.Field(i)
			if !field.IsExported() {
				continue
			}
			tag := field.Tag.Get("hcl")
			tagName := strings.Split(tag, ",")[0]
			if tagName != "" && tagName != "-" {
				goInputs[tagName] = field
			}
		}

		// Presence both ways.
		for name := range goInputs {
			if _, ok := manifestInputs[name]; !ok {
				errs = append(errs, fmt.Sprintf("action '%s': Go struct has field for input '%s' which is not declared in manifest", actionType, name))
			}
		}
		for name := range manifestInputs {
			if _, ok := goInputs[name]; !ok {
				errs = append(errs, fmt.Sprintf("action '%s': manifest declares input '%s' which is not found in Go struct", actionType, name))
			}
		}

		// Declared types against the Go fields.
		for name, inputDef := range def.Inputs {
			goField, ok := goInputs[name]
			if !ok {
				continue // already reported by the presence check
			}

			manifestType := inputDef.Type
			if manifestType.Equals(cty.DynamicPseudoType) {
				logger.Warn("Manifest input uses 'type = any', which disables static type checking.", "action", actionType, "input", name)
				continue
			}

			goFieldType, err := gocty.ImpliedType(reflect.Zero(goField.Type).Interface())
			if err != nil {
				errs = append(errs, fmt.Sprintf("action '%s', input '%s': could not imply cty type from Go field type %s: %v", actionType, name, goField.Type, err))
				continue
			}

			if !manifestType.Equals(goFieldType) {
				errs = append(errs, fmt.Sprintf("action '%s', input '%s': type mismatch. Manifest requires '%s' but Go struct field '%s' provides '%s'",
					actionType, name, manifestType.FriendlyName(), goField.Name, goFieldType.FriendlyName()))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}
