// Package verify invokes the external formal verifier on the checked-out
// sources. In codegen-only mode the argv gets exactly the verifier's
// restricted-mode flag appended; no property-checking flag is ever added.
// A non-zero exit fails the run, with no retry.
package verify

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/verigate/verigate/internal/ctxlog"
	"github.com/verigate/verigate/internal/registry"
	"github.com/verigate/verigate/internal/subproc"
	"github.com/verigate/verigate/internal/workspace"
)

// codegenOnlyFlag is the verifier's restricted mode: compile and generate
// code, prove nothing.
const codegenOnlyFlag = "--only-codegen"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the verify action.
type Input struct {
	Command     string   `hcl:"command"`
	Args        []string `hcl:"args,optional"`
	CodegenOnly bool     `hcl:"codegen_only,optional"`
	Dir         string   `hcl:"dir,optional"`
}

// OnRunVerify runs the verifier with the workflow environment applied,
// streaming its output into the log.
func OnRunVerify(ctx context.Context, ws *workspace.Workspace, input *Input) (cty.Value, error) {
	logger := ctxlog.From(ctx)

	if input.Command == "" {
		return cty.NilVal, fmt.Errorf("verify requires a command")
	}

	dir := ws.Dir
	if input.Dir != "" {
		dir = input.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(ws.Dir, dir)
		}
	}

	args := append([]string(nil), input.Args...)
	if input.CodegenOnly {
		args = append(args, codegenOnlyFlag)
	}

	logger.Info("Invoking verifier.", "command", input.Command, "args", args, "codegen_only", input.CodegenOnly)
	started := time.Now()
	res, err := subproc.Run(ctx, subproc.Spec{
		Name:   input.Command,
		Args:   args,
		Dir:    dir,
		Env:    ws.Environ(),
		Stream: true,
	})
	if err != nil {
		return cty.NilVal, fmt.Errorf("verifier failed: %w", err)
	}

	logger.Info("Verifier passed.", "command", input.Command, "duration", time.Since(started).Round(time.Millisecond))
	return cty.ObjectVal(map[string]cty.Value{
		"command":   cty.StringVal(input.Command),
		"exit_code": cty.NumberIntVal(int64(res.ExitCode)),
	}), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("OnRunVerify", &registry.RegisteredAction{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        OnRunVerify,
	})
}
