package config

import (
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of everything loaded
// at startup: action definitions from manifests and the workflows to run.
type Model struct {
	Actions   map[string]*ActionDefinition
	Workflows []*Workflow
}

// Workflow is one gate definition: a trigger surface plus an ordered, linear
// list of steps. Env is applied process-wide to every subprocess a step
// spawns.
type Workflow struct {
	Name          string
	DefaultBranch string
	Env           map[string]string
	Trigger       *Trigger
	Steps         []*Step

	// Source is the file the workflow was loaded from, for diagnostics.
	Source string
}

// Trigger is the translated `on` block.
type Trigger struct {
	Push        *PushRule
	Tag         *TagRule
	PullRequest bool
	Dispatch    bool
	Schedules   []*ScheduleRule
}

// PushRule matches branch pushes. Empty Branches means default branch only.
type PushRule struct {
	Branches []string
}

// TagRule matches tag pushes against glob patterns, optionally requiring
// valid semver.
type TagRule struct {
	Patterns []string
	Semver   bool
}

// ScheduleRule is an evenly spaced series of firing instants. A zero Starting
// anchors the series at daemon startup; a zero Until leaves it open-ended.
type ScheduleRule struct {
	Every     time.Duration
	Starting  time.Time
	Until     time.Time
	Inclusive bool
}

// Step is the format-agnostic representation of a `step` block. Argument
// expressions remain unevaluated until the engine runs the step.
type Step struct {
	ActionType string
	Name       string
	Arguments  map[string]hcl.Expression
}

// --- Action manifest models ---

// ActionDefinition is the format-agnostic representation of an action's
// manifest.
type ActionDefinition struct {
	Type        string
	Description string
	Lifecycle   *Lifecycle
	Inputs      map[string]*InputDefinition
	Outputs     map[string]*OutputDefinition
}

// Lifecycle maps an action's run event to a Go handler name.
type Lifecycle struct {
	OnRun string
}

// InputDefinition describes one action input. Optional is true exactly when
// a usable default exists.
type InputDefinition struct {
	Name        string
	Type        cty.Type
	Description string
	Default     *cty.Value
	Optional    bool
}

// OutputDefinition describes one action output.
type OutputDefinition struct {
	Name        string
	Type        cty.Type
	Description string
}
