// Package watch implements daemon mode: a filesystem watcher that turns
// working-tree changes into push events, and a scheduler that fires interval
// triggers. Both feed the app's dispatch loop through Trigger values.
package watch

import (
	"github.com/verigate/verigate/internal/event"
)

// Trigger pairs a synthesized event with an optional workflow scope. A scoped
// trigger runs only the named workflow; an unscoped one runs every workflow
// whose surface matches the event.
type Trigger struct {
	Event    event.Event
	Workflow string
}
