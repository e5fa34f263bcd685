// Package workspace provisions the scratch directory a run operates in and
// the environment its subprocesses inherit. Every run gets a fresh directory;
// actions register teardown hooks on a LIFO cleanup stack that Close drains
// before the directory is removed.
package workspace

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/verigate/verigate/internal/ctxlog"
)

// Options adjust how a workspace is provisioned.
type Options struct {
	// Keep leaves the directory on disk after Close, for post-mortem digging.
	Keep bool

	// Env holds workflow-level KEY=VALUE pairs merged over the process
	// environment for every subprocess spawned inside the workspace.
	Env map[string]string
}

// Workspace is one run's working area.
type Workspace struct {
	RunID string
	Dir   string

	keep bool
	env  []string

	cleanupMutex sync.Mutex
	cleanupStack []func()
}

// Provision creates the scratch directory for a run.
func Provision(ctx context.Context, runID string, opts Options) (*Workspace, error) {
	dir, err := os.MkdirTemp("", "verigate-"+shortID(runID)+"-")
	if err != nil {
		return nil, fmt.Errorf("provisioning workspace: %w", err)
	}
	ctxlog.From(ctx).Debug("Provisioned workspace.", "runID", runID, "dir", dir)

	return &Workspace{
		RunID: runID,
		Dir:   dir,
		keep:  opts.Keep,
		env:   flattenEnv(opts.Env),
	}, nil
}

func shortID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}

// flattenEnv renders the env map as sorted KEY=VALUE pairs so Environ is
// deterministic.
func flattenEnv(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	pairs := make([]string, 0, len(env))
	for k, v := range env {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return pairs
}

// Environ returns the full subprocess environment: the parent process
// environment with the workflow pairs appended, so workflow values win.
func (w *Workspace) Environ() []string {
	return append(os.Environ(), w.env...)
}

// PushCleanup adds a function to the LIFO cleanup stack.
func (w *Workspace) PushCleanup(f func()) {
	w.cleanupMutex.Lock()
	defer w.cleanupMutex.Unlock()
	w.cleanupStack = append(w.cleanupStack, f)
}

// Close runs all registered cleanup functions in LIFO order, then removes the
// directory unless the workspace was provisioned with Keep.
func (w *Workspace) Close(ctx context.Context) error {
	logger := ctxlog.From(ctx)

	w.cleanupMutex.Lock()
	stack := w.cleanupStack
	w.cleanupStack = nil
	w.cleanupMutex.Unlock()

	for i := len(stack) - 1; i >= 0; i-- {
		stack[i]()
	}

	if w.keep {
		logger.Info("Keeping workspace on disk.", "runID", w.RunID, "dir", w.Dir)
		return nil
	}
	if err := os.RemoveAll(w.Dir); err != nil {
		return fmt.Errorf("removing workspace %s: %w", w.Dir, err)
	}
	logger.Debug("Removed workspace.", "runID", w.RunID, "dir", w.Dir)
	return nil
}
