// Package print logs a string map, sorted by key. It exists as a cheap
// observable step for workflow debugging and tests.
package print

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/verigate/verigate/internal/ctxlog"
	"github.com/verigate/verigate/internal/registry"
	"github.com/verigate/verigate/internal/workspace"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the print action.
type Input struct {
	Value map[string]string `hcl:"input"`
}

// OnRunPrint logs each key/value pair at Info level.
func OnRunPrint(ctx context.Context, ws *workspace.Workspace, input *Input) (cty.Value, error) {
	logger := ctxlog.From(ctx)

	if len(input.Value) == 0 {
		logger.Info("print: (empty)")
		return cty.NilVal, nil
	}

	// Sort keys for consistent output.
	keys := make([]string, 0, len(input.Value))
	for k := range input.Value {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		logger.Info(fmt.Sprintf("print: %s = %q", k, input.Value[k]))
	}
	return cty.NilVal, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("OnRunPrint", &registry.RegisteredAction{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        OnRunPrint,
	})
}
