// Package tick produces evenly spaced firing instants for schedule triggers.
// A Series is inclusive on its start and, depending on the constructor,
// inclusive or exclusive on its end.
package tick

import (
	"fmt"
	"time"
)

// Series is an iterator over a sequence of evenly spaced instants.
type Series struct {
	start time.Time
	end   time.Time
	step  time.Duration
	cur   time.Time
	incl  bool
}

// Exclusive returns a series inclusive on start and exclusive on end.
// A 12-hour span with a 2-hour step yields 6 instants.
func Exclusive(start, end time.Time, step time.Duration) (*Series, error) {
	return newSeries(start, end, step, false)
}

// Inclusive returns a series inclusive on both start and end.
// A 12-hour span with a 2-hour step yields 7 instants.
func Inclusive(start, end time.Time, step time.Duration) (*Series, error) {
	return newSeries(start, end, step, true)
}

func newSeries(start, end time.Time, step time.Duration, incl bool) (*Series, error) {
	if step <= 0 {
		return nil, fmt.Errorf("series step must be positive, got %s", step)
	}
	// Park one step before start so Next only ever moves forward.
	return &Series{
		start: start,
		end:   end,
		step:  step,
		cur:   start.Add(-step),
		incl:  incl,
	}, nil
}

// Next returns the next instant in the series, or false when exhausted.
func (s *Series) Next() (time.Time, bool) {
	next := s.cur.Add(s.step)
	if (!s.incl && !next.Before(s.end)) || (s.incl && next.After(s.end)) {
		return time.Time{}, false
	}
	s.cur = next
	return next, true
}

// Len returns the total number of instants the series yields, regardless of
// how many have already been consumed.
func (s *Series) Len() int {
	span := s.end.Sub(s.start)
	if span < 0 {
		return 0
	}
	if s.incl {
		return int(span/s.step) + 1
	}
	// Exclusive: count of k >= 0 with k*step strictly below the span.
	if span == 0 {
		return 0
	}
	return int((span + s.step - 1) / s.step)
}

// Step returns the series spacing.
func (s *Series) Step() time.Duration { return s.step }

// Start returns the first instant the series yields.
func (s *Series) Start() time.Time { return s.start }
