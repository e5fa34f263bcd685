package watch

import (
	"context"
	"sync"
	"time"

	"github.com/verigate/verigate/internal/config"
	"github.com/verigate/verigate/internal/ctxlog"
	"github.com/verigate/verigate/internal/event"
	"github.com/verigate/verigate/internal/tick"
)

// Scheduler fires schedule events for every workflow that declares a schedule
// rule. Each rule runs on its own goroutine so a long interval on one
// workflow never delays another.
type Scheduler struct {
	model *config.Model
	repo  string
}

// NewScheduler builds a scheduler over the loaded model. The repo path is
// stamped onto every synthesized event.
func NewScheduler(model *config.Model, repo string) *Scheduler {
	return &Scheduler{model: model, repo: repo}
}

// Run blocks until the context ends, emitting one scoped Trigger per firing
// instant. Workflows without schedule rules are skipped.
func (s *Scheduler) Run(ctx context.Context, out chan<- Trigger) error {
	logger := ctxlog.From(ctx)
	now := time.Now()

	var wg sync.WaitGroup
	for _, wf := range s.model.Workflows {
		if wf.Trigger == nil {
			continue
		}
		for _, rule := range wf.Trigger.Schedules {
			logger.Info("⏰ Schedule armed.", "workflow", wf.Name, "every", rule.Every)
			wg.Add(1)
			go func(name string, rule *config.ScheduleRule) {
				defer wg.Done()
				s.runRule(ctx, out, name, rule, now)
			}(wf.Name, rule)
		}
	}
	wg.Wait()
	return nil
}

// runRule sleeps until each firing instant of one rule and emits a Trigger
// scoped to the owning workflow.
func (s *Scheduler) runRule(ctx context.Context, out chan<- Trigger, workflow string, rule *config.ScheduleRule, now time.Time) {
	logger := ctxlog.From(ctx)
	next := fires(rule, now)
	for {
		at, ok := next()
		if !ok {
			logger.Info("Schedule exhausted.", "workflow", workflow)
			return
		}
		timer := time.NewTimer(time.Until(at))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		ev, err := event.New(event.KindSchedule, "", "", s.repo)
		if err != nil {
			logger.Error("Could not synthesize schedule event.", "error", err)
			continue
		}
		logger.Info("⏰ Schedule fired.", "workflow", workflow)
		select {
		case out <- Trigger{Event: ev, Workflow: workflow}:
		case <-ctx.Done():
			return
		}
	}
}

// fires returns an iterator over the rule's firing instants that land after
// now. Open-ended rules skip past instants arithmetically and never stop;
// bounded rules walk the underlying series to its end.
func fires(rule *config.ScheduleRule, now time.Time) func() (time.Time, bool) {
	start := rule.Starting
	if start.IsZero() {
		start = now
	}

	if rule.Until.IsZero() {
		next := start
		if !start.After(now) {
			k := int64(now.Sub(start)/rule.Every) + 1
			next = start.Add(time.Duration(k) * rule.Every)
		}
		return func() (time.Time, bool) {
			at := next
			next = next.Add(rule.Every)
			return at, true
		}
	}

	var series *tick.Series
	var err error
	if rule.Inclusive {
		series, err = tick.Inclusive(start, rule.Until, rule.Every)
	} else {
		series, err = tick.Exclusive(start, rule.Until, rule.Every)
	}
	if err != nil {
		return func() (time.Time, bool) { return time.Time{}, false }
	}
	return func() (time.Time, bool) {
		for {
			at, ok := series.Next()
			if !ok {
				return time.Time{}, false
			}
			if at.After(now) {
				return at, true
			}
		}
	}
}
