// Package engine executes workflow runs. Matching workflows fan out across a
// bounded worker pool; inside a run, steps execute strictly in declaration
// order and the first failure skips everything behind it.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/verigate/verigate/internal/config"
	"github.com/verigate/verigate/internal/ctxlog"
	"github.com/verigate/verigate/internal/event"
	"github.com/verigate/verigate/internal/registry"
	"github.com/verigate/verigate/internal/runstore"
)

// Options tune engine behavior.
type Options struct {
	// Workers bounds how many runs execute concurrently. Values below 1 are
	// treated as 1.
	Workers int

	// KeepWorkspace leaves run directories on disk for inspection.
	KeepWorkspace bool
}

// Engine turns matched workflows into runs and executes them.
type Engine struct {
	reg           *registry.Registry
	conv          config.Converter
	store         *runstore.Store
	workers       int
	keepWorkspace bool
}

// New creates an engine. A nil store gets replaced with a fresh one.
func New(reg *registry.Registry, conv config.Converter, store *runstore.Store, opts Options) *Engine {
	if store == nil {
		store = runstore.New()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		reg:           reg,
		conv:          conv,
		store:         store,
		workers:       workers,
		keepWorkspace: opts.KeepWorkspace,
	}
}

// Store exposes the run records, for the status endpoint.
func (e *Engine) Store() *runstore.Store { return e.store }

// Run dispatches the event against every workflow in the model, executes the
// matches, and returns one result per run. The returned error aggregates run
// failures; an event matching nothing returns an empty slice and no error.
func (e *Engine) Run(ctx context.Context, model *config.Model, ev event.Event) ([]Result, error) {
	logger := ctxlog.From(ctx)

	var matched []*config.Workflow
	for _, wf := range model.Workflows {
		if event.Matches(wf, ev) {
			matched = append(matched, wf)
		}
	}
	if len(matched) == 0 {
		logger.Info("No workflow matches event.", "event", ev.String())
		return nil, nil
	}
	logger.Debug("Matched workflows for event.", "event", ev.String(), "count", len(matched))

	type job struct {
		idx int
		wf  *config.Workflow
	}
	jobs := make(chan job)
	results := make([]Result, len(matched))

	workers := min(e.workers, len(matched))
	logger.Debug("Starting run worker pool.", "workers", workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.idx] = e.executeRun(ctx, j.wf, ev)
			}
		}()
	}
	for i, wf := range matched {
		jobs <- job{idx: i, wf: wf}
	}
	close(jobs)
	wg.Wait()

	var failed []string
	var rootCause error
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res.Workflow)
			if rootCause == nil {
				rootCause = res.Err
			}
		}
	}
	if rootCause != nil {
		return results, fmt.Errorf("execution failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}
	return results, nil
}
