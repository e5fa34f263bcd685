package app

import (
	"context"
	"fmt"

	"github.com/verigate/verigate/internal/ctxlog"
	"github.com/verigate/verigate/internal/event"
)

// Run executes the application in the configured mode and blocks until it
// finishes. One-shot mode dispatches a single event and returns; watch mode
// runs until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.With(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.cfg.HealthcheckPort > 0 {
		a.startHealthcheck(a.cfg.HealthcheckPort)
		defer a.stopHealthcheck()
	}

	if a.cfg.Watch {
		return a.runWatch(ctx)
	}
	return a.runOnce(ctx)
}

// runOnce builds the event from the CLI surface and dispatches it exactly
// once.
func (a *App) runOnce(ctx context.Context) error {
	ev, err := a.buildEvent()
	if err != nil {
		return err
	}
	a.logger.Info("🔔 Dispatching event.", "event", ev.String(), "repo", ev.Repo)

	results, err := a.engine.Run(ctx, a.model, ev)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		a.logger.Warn("Event matched no workflow, nothing to run.", "event", ev.String())
		return nil
	}
	a.logger.Info("🏁 All runs finished.", "count", len(results))
	return nil
}

// buildEvent merges the optional payload file with the explicit flags, flags
// winning, and validates the result.
func (a *App) buildEvent() (event.Event, error) {
	var payload event.Payload
	if a.cfg.EventFile != "" {
		p, err := event.LoadPayload(a.cfg.EventFile)
		if err != nil {
			return event.Event{}, fmt.Errorf("reading event payload: %w", err)
		}
		payload = p
	}
	payload = payload.Merge(a.cfg.EventKind, a.cfg.Ref, a.cfg.Revision, a.cfg.Repo)
	return payload.Event()
}
