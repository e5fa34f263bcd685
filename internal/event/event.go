// Package event models the occurrences that can schedule a workflow run:
// branch pushes, tag pushes, pull requests, manual dispatches, and schedule
// ticks. Events arrive from the command line, from a YAML payload file, or
// synthesized by watch mode.
package event

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an event.
type Kind string

const (
	KindPush        Kind = "push"
	KindTag         Kind = "tag"
	KindPullRequest Kind = "pull_request"
	KindDispatch    Kind = "dispatch"
	KindSchedule    Kind = "schedule"
)

// Kinds lists every valid kind, in the order usage text shows them.
func Kinds() []Kind {
	return []Kind{KindPush, KindTag, KindPullRequest, KindDispatch, KindSchedule}
}

// ParseKind validates a user-supplied kind string.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindPush, KindTag, KindPullRequest, KindDispatch, KindSchedule:
		return k, nil
	default:
		return "", fmt.Errorf("unknown event kind %q (valid: %s)", s, kindList())
	}
}

func kindList() string {
	parts := make([]string, 0, len(Kinds()))
	for _, k := range Kinds() {
		parts = append(parts, string(k))
	}
	return strings.Join(parts, ", ")
}

// Event is one occurrence presented to the trigger surface.
type Event struct {
	ID       string
	Kind     Kind
	Ref      string // branch or tag, short or fully qualified form
	Revision string // commit-ish to check out; defaults to Ref
	Repo     string // path or URL of the repository to gate
	Time     time.Time
}

// New builds a validated event. Push and tag events carry the branch or tag
// they happened on; a missing revision falls back to the ref, and a missing
// ref to HEAD.
func New(kind Kind, ref, revision, repo string) (Event, error) {
	switch kind {
	case KindPush:
		if ref == "" {
			return Event{}, fmt.Errorf("push event requires a ref (branch)")
		}
	case KindTag:
		if ref == "" {
			return Event{}, fmt.Errorf("tag event requires a ref (tag name)")
		}
	case KindPullRequest, KindDispatch, KindSchedule:
		// ref optional
	default:
		return Event{}, fmt.Errorf("unknown event kind %q", kind)
	}

	if revision == "" {
		revision = ref
	}
	if revision == "" {
		revision = "HEAD"
	}

	return Event{
		ID:       uuid.NewString(),
		Kind:     kind,
		Ref:      ref,
		Revision: revision,
		Repo:     repo,
		Time:     time.Now(),
	}, nil
}

// Branch returns the short branch name for push events, stripping a
// fully-qualified refs/heads/ prefix if present.
func (e Event) Branch() string {
	return strings.TrimPrefix(e.Ref, "refs/heads/")
}

// Tag returns the short tag name for tag events.
func (e Event) Tag() string {
	return strings.TrimPrefix(e.Ref, "refs/tags/")
}

// String renders a compact identity for logs.
func (e Event) String() string {
	if e.Ref == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s(%s)", e.Kind, e.Ref)
}
