package engine

import (
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/verigate/verigate/internal/runstore"
)

// Result is the outcome of one run.
type Result struct {
	RunID    string
	Workflow string
	Steps    []StepResult
	Err      error
}

// Failed reports whether the run ended in failure.
func (r Result) Failed() bool { return r.Err != nil }

// StepResult is the outcome of one step within a run.
type StepResult struct {
	Name     string
	Action   string
	Status   runstore.Status
	Output   cty.Value
	Err      error
	Duration time.Duration
}
