// Package checkout clones a git repository into the run workspace and checks
// out the event's revision. It shells out to the git binary; any git failure
// is fatal to the run.
package checkout

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/verigate/verigate/internal/ctxlog"
	"github.com/verigate/verigate/internal/registry"
	"github.com/verigate/verigate/internal/subproc"
	"github.com/verigate/verigate/internal/workspace"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the checkout action.
type Input struct {
	Repo string `hcl:"repo"`
	Ref  string `hcl:"ref,optional"`
}

// OnRunCheckout clones the repository into the workspace root and detaches
// onto the requested revision. The clone is a full clone so any commit,
// branch, or tag resolves.
func OnRunCheckout(ctx context.Context, ws *workspace.Workspace, input *Input) (cty.Value, error) {
	logger := ctxlog.From(ctx)

	if input.Repo == "" {
		return cty.NilVal, fmt.Errorf("checkout requires a repo")
	}
	ref := input.Ref
	if ref == "" {
		ref = "HEAD"
	}

	logger.Info("Cloning repository.", "repo", input.Repo, "ref", ref)
	if _, err := subproc.Run(ctx, subproc.Spec{
		Name: "git",
		Args: []string{"clone", input.Repo, ws.Dir},
		Env:  ws.Environ(),
	}); err != nil {
		return cty.NilVal, fmt.Errorf("cloning %s: %w", input.Repo, err)
	}

	if _, err := subproc.Run(ctx, subproc.Spec{
		Name: "git",
		Args: []string{"checkout", "--detach", ref},
		Dir:  ws.Dir,
		Env:  ws.Environ(),
	}); err != nil {
		return cty.NilVal, fmt.Errorf("checking out %s: %w", ref, err)
	}

	res, err := subproc.Run(ctx, subproc.Spec{
		Name: "git",
		Args: []string{"rev-parse", "HEAD"},
		Dir:  ws.Dir,
		Env:  ws.Environ(),
	})
	if err != nil {
		return cty.NilVal, fmt.Errorf("resolving HEAD: %w", err)
	}
	commit := strings.TrimSpace(res.Stdout)

	logger.Info("Checked out sources.", "commit", commit, "dir", ws.Dir)
	return cty.ObjectVal(map[string]cty.Value{
		"dir":    cty.StringVal(ws.Dir),
		"commit": cty.StringVal(commit),
	}), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("OnRunCheckout", &registry.RegisteredAction{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        OnRunCheckout,
	})
}
