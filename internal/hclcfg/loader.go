package hclcfg

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/verigate/verigate/internal/config"
	"github.com/verigate/verigate/internal/ctxlog"
	"github.com/verigate/verigate/internal/fsutil"
	"github.com/verigate/verigate/internal/schema"
)

// Loader is the HCL-backed implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load discovers every .hcl file under the given paths, decodes workflow and
// action blocks from any of them, and merges the result into a single model.
// Any parse, decode, or consistency failure is fatal.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.From(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := &config.Model{
		Actions: make(map[string]*config.ActionDefinition),
	}

	files, err := fsutil.CollectByExtension(paths, ".hcl")
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse %s: %w", file, diags)
		}

		var root schema.FileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode %s: %w", file, diags)
		}

		for _, action := range root.Actions {
			def, err := l.translateAction(action)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", file, err)
			}
			if _, exists := model.Actions[def.Type]; exists {
				return nil, nil, fmt.Errorf("%s: action %q defined more than once", file, def.Type)
			}
			model.Actions[def.Type] = def
		}

		for _, wf := range root.Workflows {
			translated, err := l.translateWorkflow(wf, file)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", file, err)
			}
			model.Workflows = append(model.Workflows, translated)
		}
	}

	if err := validateModel(model); err != nil {
		return nil, nil, err
	}

	logger.Debug("HCL loading complete.",
		"actions", len(model.Actions), "workflows", len(model.Workflows))
	return model, NewConverter(), nil
}

// validateModel enforces cross-file consistency: unique workflow names,
// unique step names per workflow, and steps referencing known action types.
func validateModel(model *config.Model) error {
	seenWorkflows := make(map[string]string)
	for _, wf := range model.Workflows {
		if prev, dup := seenWorkflows[wf.Name]; dup {
			return fmt.Errorf("workflow %q defined in both %s and %s", wf.Name, prev, wf.Source)
		}
		seenWorkflows[wf.Name] = wf.Source

		seenSteps := make(map[string]struct{})
		for _, step := range wf.Steps {
			if _, dup := seenSteps[step.Name]; dup {
				return fmt.Errorf("workflow %q: duplicate step name %q", wf.Name, step.Name)
			}
			seenSteps[step.Name] = struct{}{}

			if _, known := model.Actions[step.ActionType]; !known {
				return fmt.Errorf("workflow %q: step %q uses unknown action type %q",
					wf.Name, step.Name, step.ActionType)
			}
		}
	}
	return nil
}
