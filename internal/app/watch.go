package app

import (
	"context"
	"sync"

	"github.com/verigate/verigate/internal/config"
	"github.com/verigate/verigate/internal/watch"
)

// runWatch turns the process into a long-running gate daemon: a filesystem
// watcher and the schedule rules both feed the trigger loop, and every
// trigger dispatches through the engine. A failed run is logged and the
// daemon keeps going.
func (a *App) runWatch(ctx context.Context) error {
	watcher, err := watch.NewWatcher(a.cfg.Repo, a.cfg.Debounce)
	if err != nil {
		return err
	}
	defer watcher.Close()
	scheduler := watch.NewScheduler(a.model, a.cfg.Repo)

	triggers := make(chan watch.Trigger, 16)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := watcher.Run(ctx, triggers); err != nil {
			a.logger.Error("Watcher stopped unexpectedly.", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		_ = scheduler.Run(ctx, triggers)
	}()

	a.logger.Info("🚀 Watch mode started.", "repo", a.cfg.Repo)
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("🏁 Watch mode stopping.")
			wg.Wait()
			return nil
		case trig := <-triggers:
			model := a.model
			if trig.Workflow != "" {
				model = scopedModel(a.model, trig.Workflow)
			}
			if _, err := a.engine.Run(ctx, model, trig.Event); err != nil {
				a.logger.Error("Triggered run failed.", "event", trig.Event.String(), "error", err)
			}
		}
	}
}

// scopedModel narrows the model to a single workflow so a trigger scoped by
// the scheduler never starts a sibling workflow that happens to share the
// same trigger surface.
func scopedModel(model *config.Model, workflow string) *config.Model {
	scoped := &config.Model{Actions: model.Actions}
	for _, wf := range model.Workflows {
		if wf.Name == workflow {
			scoped.Workflows = append(scoped.Workflows, wf)
		}
	}
	return scoped
}
