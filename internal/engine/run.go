package engine

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/verigate/verigate/internal/config"
	"github.com/verigate/verigate/internal/ctxlog"
	"github.com/verigate/verigate/internal/event"
	"github.com/verigate/verigate/internal/runstore"
	"github.com/verigate/verigate/internal/workspace"
)

// executeRun runs one workflow against one event on a fresh workspace.
func (e *Engine) executeRun(ctx context.Context, wf *config.Workflow, ev event.Event) Result {
	runID := uuid.NewString()
	logger := ctxlog.From(ctx).With("run", runID[:8], "workflow", wf.Name)
	ctx = ctxlog.With(ctx, logger)

	logger.Info("🚀 Run starting.", "event", ev.String())

	res := Result{RunID: runID, Workflow: wf.Name, Steps: make([]StepResult, len(wf.Steps))}
	seeds := make([]runstore.StepSeed, len(wf.Steps))
	for i, step := range wf.Steps {
		res.Steps[i] = StepResult{Name: step.Name, Action: step.ActionType, Status: runstore.StatusPending}
		seeds[i] = runstore.StepSeed{Name: step.Name, Action: step.ActionType}
	}
	e.store.Begin(runID, wf.Name, ev.String(), seeds)

	ws, err := workspace.Provision(ctx, runID, workspace.Options{
		Keep: e.keepWorkspace,
		Env:  wf.Env,
	})
	if err != nil {
		res.Err = err
		for i := range res.Steps {
			res.Steps[i].Status = runstore.StatusSkipped
			res.Steps[i].Err = fmt.Errorf("skipped: %w", err)
			e.store.StepFinished(runID, res.Steps[i].Name, runstore.StatusSkipped, res.Steps[i].Err, 0)
		}
		e.store.Finish(runID, runstore.StatusFailed, err)
		logger.Error("🏁 Run failed.", "error", err)
		return res
	}

	evalCtx := buildEvalContext(ev, ws)

	var failedStep string
	for i, step := range wf.Steps {
		sr := &res.Steps[i]

		if res.Err != nil {
			sr.Status = runstore.StatusSkipped
			sr.Err = fmt.Errorf("skipped due to failure of '%s'", failedStep)
			logger.Warn("Skipping step due to earlier failure.", "step", step.Name, "failed_step", failedStep)
			e.store.StepFinished(runID, step.Name, runstore.StatusSkipped, sr.Err, 0)
			continue
		}
		if ctx.Err() != nil {
			sr.Status = runstore.StatusFailed
			sr.Err = ctx.Err()
			res.Err = ctx.Err()
			failedStep = step.Name
			logger.Warn("Context canceled, aborting run.", "step", step.Name)
			e.store.StepFinished(runID, step.Name, runstore.StatusFailed, ctx.Err(), 0)
			continue
		}

		logger.Info("▶️ Starting step.", "step", step.Name, "action", step.ActionType)
		e.store.StepStarted(runID, step.Name)

		started := time.Now()
		output, err := e.executeStep(ctx, ws, step, evalCtx)
		sr.Duration = time.Since(started)

		if err != nil {
			sr.Status = runstore.StatusFailed
			sr.Err = err
			res.Err = fmt.Errorf("step '%s' failed: %w", step.Name, err)
			failedStep = step.Name
			logger.Error("🔥 Step failed.", "step", step.Name, "error", err)
			e.store.StepFinished(runID, step.Name, runstore.StatusFailed, err, sr.Duration)
			continue
		}

		sr.Status = runstore.StatusSucceeded
		sr.Output = output
		logger.Info("✅ Finished step.", "step", step.Name, "duration", sr.Duration.Round(time.Millisecond))
		e.store.StepFinished(runID, step.Name, runstore.StatusSucceeded, nil, sr.Duration)
	}

	if err := ws.Close(ctx); err != nil {
		logger.Error("Workspace cleanup failed.", "error", err)
	}

	if res.Err != nil {
		e.store.Finish(runID, runstore.StatusFailed, res.Err)
		logger.Error("🏁 Run failed.", "error", res.Err)
	} else {
		e.store.Finish(runID, runstore.StatusSucceeded, nil)
		logger.Info("🏁 Run succeeded.")
	}
	return res
}

// executeStep resolves the action, decodes arguments, and calls the handler.
func (e *Engine) executeStep(ctx context.Context, ws *workspace.Workspace, step *config.Step, evalCtx *hcl.EvalContext) (cty.Value, error) {
	logger := ctxlog.From(ctx)

	def, ok := e.reg.Definition(step.ActionType)
	if !ok {
		return cty.NilVal, fmt.Errorf("unknown action type '%s'", step.ActionType)
	}
	handler, ok := e.reg.Handler(def.Lifecycle.OnRun)
	if !ok {
		return cty.NilVal, fmt.Errorf("handler '%s' not registered", def.Lifecycle.OnRun)
	}

	var inputStruct any
	if handler.NewInput != nil {
		logger.Debug("Decoding step arguments.", "step", step.Name)
		inputStruct = handler.NewInput()
		if err := e.conv.DecodeArguments(ctx, inputStruct, step.Arguments, def.Inputs, evalCtx); err != nil {
			return cty.NilVal, err
		}
	}

	logger.Debug("Calling action handler.", "handler", def.Lifecycle.OnRun)
	handlerFunc := reflect.ValueOf(handler.Fn)
	callArgs := []reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(ws)}
	if inputStruct == nil {
		callArgs = append(callArgs, reflect.Zero(handlerFunc.Type().In(2)))
	} else {
		callArgs = append(callArgs, reflect.ValueOf(inputStruct))
	}

	results := handlerFunc.Call(callArgs)
	outputVal, errResult := results[0].Interface(), results[1].Interface()
	if errResult != nil {
		return cty.NilVal, errResult.(error)
	}

	output, ok := outputVal.(cty.Value)
	if !ok {
		return cty.NilVal, fmt.Errorf("handler for action '%s' returned non-cty.Value type: %T", step.ActionType, outputVal)
	}
	return output, nil
}

// buildEvalContext exposes the triggering event and the workspace to argument
// expressions.
func buildEvalContext(ev event.Event, ws *workspace.Workspace) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"event": cty.ObjectVal(map[string]cty.Value{
				"id":       cty.StringVal(ev.ID),
				"kind":     cty.StringVal(string(ev.Kind)),
				"ref":      cty.StringVal(ev.Ref),
				"revision": cty.StringVal(ev.Revision),
				"repo":     cty.StringVal(ev.Repo),
			}),
			"workspace": cty.ObjectVal(map[string]cty.Value{
				"dir": cty.StringVal(ws.Dir),
			}),
		},
	}
}
