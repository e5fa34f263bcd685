package registry

import (
	"fmt"
	"log/slog"
	"reflect"
)

// RegisteredAction holds the compiled Go parts of an action's run handler.
type RegisteredAction struct {
	// NewInput allocates a zero input struct for argument decoding. Nil when
	// the action takes no arguments.
	NewInput func() any

	// InputType is the struct type NewInput allocates, used for manifest
	// parity checks.
	InputType reflect.Type

	// Fn is the handler, with signature
	// func(ctx context.Context, ws *workspace.Workspace, input *T) (cty.Value, error).
	Fn any
}

// RegisterAction registers a Go handler under a lifecycle name. Registering
// the same name twice is a programmer error and panics.
func (r *Registry) RegisterAction(name string, handler *RegisteredAction) {
	if _, exists := r.Handlers[name]; exists {
		panic(fmt.Sprintf("action handler with name '%s' already registered", name))
	}
	slog.Debug("Registering action handler.", "name", name)
	r.Handlers[name] = handler
}
