package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/verigate/verigate/internal/ctxlog"
	"github.com/verigate/verigate/internal/event"
)

// Watcher observes a repository working tree and synthesizes a push event for
// the current branch after each burst of changes settles.
type Watcher struct {
	repo     string
	debounce time.Duration
	fw       *fsnotify.Watcher
}

// NewWatcher starts watching the tree rooted at repo. Git internals are
// excluded, except the metadata that moves when commits land (HEAD and the
// branch refs), so committing is noticed without the object-store noise.
func NewWatcher(repo string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}
	w := &Watcher{repo: repo, debounce: debounce, fw: fw}
	if err := w.addRecursive(repo); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fw.Close()
}

// Run pumps filesystem events until the context ends, sending one Trigger per
// settled burst.
func (w *Watcher) Run(ctx context.Context, out chan<- Trigger) error {
	logger := ctxlog.From(ctx)
	logger.Info("👀 Watching repository for changes.", "repo", w.repo, "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if w.ignored(evt.Name) {
				continue
			}
			if evt.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(evt.Name); err != nil {
						logger.Warn("Could not watch new directory.", "path", evt.Name, "error", err)
					}
				}
			}
			logger.Debug("Filesystem change noticed.", "path", evt.Name, "op", evt.Op.String())
			if armed && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			armed = true

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			logger.Error("Filesystem watcher error.", "error", err)

		case <-timer.C:
			armed = false
			trig, err := w.synthesize()
			if err != nil {
				logger.Error("Could not synthesize push event.", "error", err)
				continue
			}
			logger.Info("🔔 Change burst settled, dispatching push event.", "ref", trig.Event.Ref)
			select {
			case out <- trig:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// addRecursive watches root and every directory below it. The .git directory
// itself and its branch refs are watched; everything else under it is
// skipped.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			_ = w.fw.Add(path)
			_ = w.fw.Add(filepath.Join(path, "refs", "heads"))
			return filepath.SkipDir
		}
		if err := w.fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// ignored filters git-internal churn and lock files, keeping only the ref
// metadata that signals a commit or branch switch.
func (w *Watcher) ignored(name string) bool {
	if strings.HasSuffix(name, ".lock") {
		return true
	}
	rel, err := filepath.Rel(w.repo, name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".git" || strings.HasPrefix(rel, ".git/") {
		switch {
		case rel == ".git/HEAD", rel == ".git/packed-refs":
			return false
		case strings.HasPrefix(rel, ".git/refs/"):
			return false
		default:
			return true
		}
	}
	return false
}

// synthesize builds the push event for the tree's current branch.
func (w *Watcher) synthesize() (Trigger, error) {
	ref, revision := headRef(w.repo)
	ev, err := event.New(event.KindPush, ref, revision, w.repo)
	if err != nil {
		return Trigger{}, err
	}
	return Trigger{Event: ev}, nil
}

// headRef resolves the current branch from .git/HEAD. Trees that are not git
// repositories fall back to the conventional default branch; a detached HEAD
// reports the bare commit as the revision.
func headRef(repo string) (ref, revision string) {
	data, err := os.ReadFile(filepath.Join(repo, ".git", "HEAD"))
	if err != nil {
		return "refs/heads/master", ""
	}
	head := strings.TrimSpace(string(data))
	if target, ok := strings.CutPrefix(head, "ref: "); ok {
		return target, ""
	}
	return "HEAD", head
}
