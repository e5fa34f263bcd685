// Package registry holds the compiled Go side of every action: the handler
// functions, their input struct types, and the manifest definitions loaded at
// startup. Validation cross-checks the two so a drifting manifest fails fast
// instead of misbehaving mid-run.
package registry

import (
	"github.com/verigate/verigate/internal/config"
)

// Module is implemented by every built-in action package so the app can
// register them all in one sweep.
type Module interface {
	Register(r *Registry)
}

// Registry holds the registered handlers and definitions for a single
// application instance.
type Registry struct {
	Handlers    map[string]*RegisteredAction
	Definitions map[string]*config.ActionDefinition
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		Handlers:    make(map[string]*RegisteredAction),
		Definitions: make(map[string]*config.ActionDefinition),
	}
}

// PopulateDefinitionsFromModel copies the loaded action definitions from the
// config model into the registry for lookup during execution.
func (r *Registry) PopulateDefinitionsFromModel(model *config.Model) {
	for key, val := range model.Actions {
		r.Definitions[key] = val
	}
}

// Definition returns the manifest definition for an action type, if loaded.
func (r *Registry) Definition(actionType string) (*config.ActionDefinition, bool) {
	def, ok := r.Definitions[actionType]
	return def, ok
}

// Handler returns the Go handler registered under a lifecycle name.
func (r *Registry) Handler(name string) (*RegisteredAction, bool) {
	h, ok := r.Handlers[name]
	return h, ok
}
