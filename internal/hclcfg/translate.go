package hclcfg

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/verigate/verigate/internal/config"
	"github.com/verigate/verigate/internal/schema"
)

// defaultBranch is assumed when a workflow does not name one.
const defaultBranch = "master"

// translateWorkflow converts a decoded workflow block into the agnostic
// model, resolving durations and timestamps along the way.
func (l *Loader) translateWorkflow(s *schema.Workflow, source string) (*config.Workflow, error) {
	if s.On == nil {
		return nil, fmt.Errorf("workflow %q has no 'on' block", s.Name)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("workflow %q declares no steps", s.Name)
	}

	trigger, err := translateTrigger(s.On)
	if err != nil {
		return nil, fmt.Errorf("workflow %q: %w", s.Name, err)
	}

	if err := validateEnv(s.Env); err != nil {
		return nil, fmt.Errorf("workflow %q: %w", s.Name, err)
	}

	branch := s.DefaultBranch
	if branch == "" {
		branch = defaultBranch
	}

	wf := &config.Workflow{
		Name:          s.Name,
		DefaultBranch: branch,
		Env:           s.Env,
		Trigger:       trigger,
		Source:        source,
	}

	for _, step := range s.Steps {
		args, err := extractArguments(step.Arguments)
		if err != nil {
			return nil, fmt.Errorf("workflow %q, step %q: %w", s.Name, step.Name, err)
		}
		wf.Steps = append(wf.Steps, &config.Step{
			ActionType: step.ActionType,
			Name:       step.Name,
			Arguments:  args,
		})
	}

	return wf, nil
}

func translateTrigger(on *schema.OnBlock) (*config.Trigger, error) {
	t := &config.Trigger{
		PullRequest: on.PullRequest != nil,
		Dispatch:    on.Dispatch != nil,
	}

	if on.Push != nil {
		if err := validatePatterns(on.Push.Branches); err != nil {
			return nil, fmt.Errorf("push trigger: %w", err)
		}
		t.Push = &config.PushRule{Branches: on.Push.Branches}
	}
	if on.Tag != nil {
		if err := validatePatterns(on.Tag.Patterns); err != nil {
			return nil, fmt.Errorf("tag trigger: %w", err)
		}
		t.Tag = &config.TagRule{Patterns: on.Tag.Patterns, Semver: on.Tag.Semver}
	}

	for _, s := range on.Schedules {
		rule, err := translateSchedule(s)
		if err != nil {
			return nil, err
		}
		t.Schedules = append(t.Schedules, rule)
	}

	if t.Push == nil && t.Tag == nil && !t.PullRequest && !t.Dispatch && len(t.Schedules) == 0 {
		return nil, fmt.Errorf("'on' block declares no triggers")
	}

	return t, nil
}

func translateSchedule(s *schema.ScheduleTrigger) (*config.ScheduleRule, error) {
	every, err := time.ParseDuration(s.Every)
	if err != nil {
		return nil, fmt.Errorf("schedule: bad 'every' %q: %w", s.Every, err)
	}
	if every <= 0 {
		return nil, fmt.Errorf("schedule: 'every' must be positive, got %q", s.Every)
	}

	rule := &config.ScheduleRule{Every: every, Inclusive: s.Inclusive}

	if s.Starting != "" {
		rule.Starting, err = time.Parse(time.RFC3339, s.Starting)
		if err != nil {
			return nil, fmt.Errorf("schedule: bad 'starting' %q: %w", s.Starting, err)
		}
	}
	if s.Until != "" {
		rule.Until, err = time.Parse(time.RFC3339, s.Until)
		if err != nil {
			return nil, fmt.Errorf("schedule: bad 'until' %q: %w", s.Until, err)
		}
	}
	if !rule.Starting.IsZero() && !rule.Until.IsZero() && rule.Until.Before(rule.Starting) {
		return nil, fmt.Errorf("schedule: 'until' precedes 'starting'")
	}

	return rule, nil
}

// validatePatterns rejects glob patterns path.Match cannot compile, so typos
// fail at load time instead of silently never matching.
func validatePatterns(patterns []string) error {
	for _, p := range patterns {
		if _, err := path.Match(p, "probe"); err != nil {
			return fmt.Errorf("bad pattern %q: %w", p, err)
		}
	}
	return nil
}

// validateEnv rejects keys the process environment cannot represent.
func validateEnv(env map[string]string) error {
	for key := range env {
		if key == "" {
			return fmt.Errorf("env: empty variable name")
		}
		if strings.ContainsAny(key, "=\x00") {
			return fmt.Errorf("env: invalid variable name %q", key)
		}
	}
	return nil
}

// extractArguments flattens an arguments block into name→expression. The
// expressions stay unevaluated; the engine supplies the eval context later.
func extractArguments(block *schema.StepArgs) (map[string]hcl.Expression, error) {
	if block == nil || block.Body == nil {
		return nil, nil
	}
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid arguments block: %w", diags)
	}
	if len(attrs) == 0 {
		return nil, nil
	}
	args := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		args[name] = attr.Expr
	}
	return args, nil
}

// translateAction converts a decoded action manifest into the agnostic model.
// Input types are resolved here so registry validation can compare them with
// the compiled Go structs.
func (l *Loader) translateAction(s *schema.ActionDefinition) (*config.ActionDefinition, error) {
	if s.Lifecycle == nil || s.Lifecycle.OnRun == "" {
		return nil, fmt.Errorf("action %q: manifest declares no on_run handler", s.Type)
	}

	def := &config.ActionDefinition{
		Type:        s.Type,
		Description: s.Description,
		Lifecycle:   &config.Lifecycle{OnRun: s.Lifecycle.OnRun},
		Inputs:      make(map[string]*config.InputDefinition),
		Outputs:     make(map[string]*config.OutputDefinition),
	}

	for _, in := range s.Inputs {
		ty, err := resolveTypeExpr(in.Type)
		if err != nil {
			return nil, fmt.Errorf("action %q, input %q: %w", s.Type, in.Name, err)
		}

		input := &config.InputDefinition{
			Name:        in.Name,
			Type:        ty,
			Description: in.Description,
		}

		// A usable default makes the input optional. Null defaults are
		// ignored, matching what authors mean by "default = null": nothing.
		if in.Default != nil && !in.Default.IsNull() {
			converted, err := convert.Convert(*in.Default, ty)
			if err != nil {
				return nil, fmt.Errorf("action %q, input %q: default does not fit declared type: %w",
					s.Type, in.Name, err)
			}
			input.Default = &converted
			input.Optional = true
		}

		def.Inputs[in.Name] = input
	}

	for _, out := range s.Outputs {
		ty, err := resolveTypeExpr(out.Type)
		if err != nil {
			return nil, fmt.Errorf("action %q, output %q: %w", s.Type, out.Name, err)
		}
		def.Outputs[out.Name] = &config.OutputDefinition{
			Name:        out.Name,
			Type:        ty,
			Description: out.Description,
		}
	}

	return def, nil
}

func resolveTypeExpr(expr hcl.Expression) (cty.Type, error) {
	if expr == nil {
		return cty.DynamicPseudoType, nil
	}
	ty, diags := typeexpr.TypeConstraint(expr)
	if diags.HasErrors() {
		return cty.NilType, fmt.Errorf("bad type expression: %w", diags)
	}
	return ty, nil
}
