// Package schema defines the HCL shapes of user-facing configuration: the
// workflow files a repository carries and the manifest files that describe
// compiled-in actions. These structs are decode targets only; the rest of the
// program works with the format-agnostic model in internal/config.
package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// --- Workflow files ---

// StepArgs holds the raw body of a step's 'arguments' block. Expressions stay
// unevaluated until the engine builds the run's eval context.
type StepArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// Step is one `step "<action>" "<name>"` block inside a workflow.
type Step struct {
	ActionType string    `hcl:"action_type,label"`
	Name       string    `hcl:"instance_name,label"`
	Arguments  *StepArgs `hcl:"arguments,block"`
}

// PushTrigger fires on branch pushes. An empty Branches list means the
// workflow's default branch only.
type PushTrigger struct {
	Branches []string `hcl:"branches,optional"`
}

// TagTrigger fires on tag pushes. Patterns are shell globs; Semver
// additionally requires the tag to parse as semantic version.
type TagTrigger struct {
	Patterns []string `hcl:"patterns,optional"`
	Semver   bool     `hcl:"semver,optional"`
}

// PullRequestTrigger fires on any pull request event.
type PullRequestTrigger struct{}

// DispatchTrigger fires on manual dispatch.
type DispatchTrigger struct{}

// ScheduleTrigger fires on an evenly spaced time series. Starting and Until
// bound the series (RFC 3339); both optional for an open-ended schedule.
type ScheduleTrigger struct {
	Every     string `hcl:"every"`
	Starting  string `hcl:"starting,optional"`
	Until     string `hcl:"until,optional"`
	Inclusive bool   `hcl:"inclusive,optional"`
}

// OnBlock is a workflow's trigger surface.
type OnBlock struct {
	Push        *PushTrigger        `hcl:"push,block"`
	Tag         *TagTrigger         `hcl:"tag,block"`
	PullRequest *PullRequestTrigger `hcl:"pull_request,block"`
	Dispatch    *DispatchTrigger    `hcl:"dispatch,block"`
	Schedules   []*ScheduleTrigger  `hcl:"schedule,block"`
}

// Workflow is a top-level `workflow "<name>"` block.
type Workflow struct {
	Name          string            `hcl:"name,label"`
	DefaultBranch string            `hcl:"default_branch,optional"`
	On            *OnBlock          `hcl:"on,block"`
	Env           map[string]string `hcl:"env,optional"`
	Steps         []*Step           `hcl:"step,block"`
}

// --- Action manifests ---

// Lifecycle maps an action's run event to a registered Go handler name.
type Lifecycle struct {
	OnRun string `hcl:"on_run"`
}

// InputDefinition declares one input an action accepts. Type stays an
// expression ("string", "number", ...) and is resolved during translation.
type InputDefinition struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
	Default     *cty.Value     `hcl:"default,optional"`
}

// OutputDefinition declares one value an action emits.
type OutputDefinition struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
}

// ActionDefinition is a top-level `action "<type>"` block from a manifest.
type ActionDefinition struct {
	Type        string              `hcl:"type,label"`
	Description string              `hcl:"description,optional"`
	Lifecycle   *Lifecycle          `hcl:"lifecycle,block"`
	Inputs      []*InputDefinition  `hcl:"input,block"`
	Outputs     []*OutputDefinition `hcl:"output,block"`
}

// FileRoot decodes any configuration file: workflow files and manifests may
// live side by side, the loader sorts out which blocks appeared where.
type FileRoot struct {
	Workflows []*Workflow         `hcl:"workflow,block"`
	Actions   []*ActionDefinition `hcl:"action,block"`
	Remain    hcl.Body            `hcl:",remain"`
}
