package event

import (
	"path"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/verigate/verigate/internal/config"
)

// Matches reports whether a workflow's trigger surface accepts the event.
// The decision is purely declarative; the engine is responsible for anything
// that happens after a match.
func Matches(wf *config.Workflow, ev Event) bool {
	t := wf.Trigger
	if t == nil {
		return false
	}

	switch ev.Kind {
	case KindPush:
		if t.Push == nil {
			return false
		}
		return matchBranch(t.Push, wf.DefaultBranch, ev.Branch())
	case KindTag:
		if t.Tag == nil {
			return false
		}
		return matchTag(t.Tag, ev.Tag())
	case KindPullRequest:
		return t.PullRequest
	case KindDispatch:
		return t.Dispatch
	case KindSchedule:
		return len(t.Schedules) > 0
	default:
		return false
	}
}

// matchBranch applies push rules. With no branch globs configured, only the
// workflow's default branch matches.
func matchBranch(rule *config.PushRule, defaultBranch, branch string) bool {
	if branch == "" {
		return false
	}
	if len(rule.Branches) == 0 {
		return branch == defaultBranch
	}
	for _, pattern := range rule.Branches {
		if ok, err := path.Match(pattern, branch); err == nil && ok {
			return true
		}
	}
	return false
}

// matchTag applies tag rules: glob patterns first (no patterns means any
// tag), then the optional semver requirement.
func matchTag(rule *config.TagRule, tag string) bool {
	if tag == "" {
		return false
	}
	if len(rule.Patterns) > 0 {
		hit := false
		for _, pattern := range rule.Patterns {
			if ok, err := path.Match(pattern, tag); err == nil && ok {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if rule.Semver && !semver.IsValid(canonicalTag(tag)) {
		return false
	}
	return true
}

// canonicalTag normalizes a tag into the "v"-prefixed form x/mod's semver
// package expects, so both "1.2.3" and "v1.2.3" validate.
func canonicalTag(tag string) string {
	if strings.HasPrefix(tag, "v") {
		return tag
	}
	return "v" + tag
}
