package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verigate/verigate/internal/event"
)

// newRepoDir lays out a minimal working tree with just enough .git metadata
// for branch resolution.
func newRepoDir(t *testing.T, head string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "refs", "heads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte(head), 0o644))
	return dir
}

func startWatcher(t *testing.T, dir string, debounce time.Duration) <-chan Trigger {
	t.Helper()
	w, err := NewWatcher(dir, debounce)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		w.Close()
	})
	out := make(chan Trigger, 8)
	go func() { _ = w.Run(ctx, out) }()
	return out
}

func waitTrigger(t *testing.T, out <-chan Trigger, within time.Duration) Trigger {
	t.Helper()
	select {
	case tr := <-out:
		return tr
	case <-time.After(within):
		t.Fatalf("no trigger arrived within %v", within)
		return Trigger{}
	}
}

func requireQuiet(t *testing.T, out <-chan Trigger, within time.Duration) {
	t.Helper()
	select {
	case tr := <-out:
		t.Fatalf("unexpected trigger %s", tr.Event)
	case <-time.After(within):
	}
}

func TestWatcher_EmitsUnscopedPushForCurrentBranch(t *testing.T) {
	// Arrange
	dir := newRepoDir(t, "ref: refs/heads/main\n")
	out := startWatcher(t, dir, 50*time.Millisecond)

	// Act
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[package]\n"), 0o644))

	// Assert
	tr := waitTrigger(t, out, 3*time.Second)
	require.Equal(t, event.KindPush, tr.Event.Kind)
	require.Equal(t, "refs/heads/main", tr.Event.Ref)
	require.Equal(t, dir, tr.Event.Repo)
	require.Empty(t, tr.Workflow, "filesystem triggers are not scoped to one workflow")
}

func TestWatcher_CoalescesABurstIntoOneTrigger(t *testing.T) {
	// Arrange
	dir := newRepoDir(t, "ref: refs/heads/main\n")
	out := startWatcher(t, dir, 150*time.Millisecond)

	// Act: several writes land well inside one debounce window.
	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, fmt.Sprintf("src_%d.rs", i))
		require.NoError(t, os.WriteFile(name, []byte("fn main() {}\n"), 0o644))
	}

	// Assert
	waitTrigger(t, out, 3*time.Second)
	requireQuiet(t, out, 400*time.Millisecond)
}

func TestWatcher_BranchRefUpdateDispatches(t *testing.T) {
	// Arrange: only the ref metadata moves, as it does when a commit lands.
	dir := newRepoDir(t, "ref: refs/heads/main\n")
	out := startWatcher(t, dir, 50*time.Millisecond)

	// Act
	refPath := filepath.Join(dir, ".git", "refs", "heads", "main")
	require.NoError(t, os.WriteFile(refPath, []byte("0123456789abcdef\n"), 0o644))

	// Assert
	tr := waitTrigger(t, out, 3*time.Second)
	require.Equal(t, "refs/heads/main", tr.Event.Ref)
}

func TestWatcher_WatchesDirectoriesCreatedLater(t *testing.T) {
	// Arrange
	dir := newRepoDir(t, "ref: refs/heads/main\n")
	out := startWatcher(t, dir, 50*time.Millisecond)

	// Act: creating the directory is itself a change and settles first.
	sub := filepath.Join(dir, "src")
	require.NoError(t, os.Mkdir(sub, 0o755))
	waitTrigger(t, out, 3*time.Second)

	// A write inside the new directory must also be noticed.
	require.NoError(t, os.WriteFile(filepath.Join(sub, "lib.rs"), []byte("\n"), 0o644))

	// Assert
	waitTrigger(t, out, 3*time.Second)
}

func TestWatcher_IgnoredPaths(t *testing.T) {
	w := &Watcher{repo: "/repo"}

	cases := []struct {
		name    string
		path    string
		ignored bool
	}{
		{"working tree file", "/repo/src/main.rs", false},
		{"head pointer", "/repo/.git/HEAD", false},
		{"branch ref", "/repo/.git/refs/heads/main", false},
		{"packed refs", "/repo/.git/packed-refs", false},
		{"index churn", "/repo/.git/index", true},
		{"object store", "/repo/.git/objects/ab/cdef", true},
		{"lock file", "/repo/.git/HEAD.lock", true},
		{"working tree lock", "/repo/Cargo.toml.lock", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.ignored, w.ignored(tc.path))
		})
	}
}

func TestHeadRef_SymbolicRef(t *testing.T) {
	dir := newRepoDir(t, "ref: refs/heads/feature/gate\n")

	ref, revision := headRef(dir)

	require.Equal(t, "refs/heads/feature/gate", ref)
	require.Empty(t, revision)
}

func TestHeadRef_DetachedHead(t *testing.T) {
	dir := newRepoDir(t, "a94a8fe5ccb19ba61c4c0873d391e987982fbbd3\n")

	ref, revision := headRef(dir)

	require.Equal(t, "HEAD", ref)
	require.Equal(t, "a94a8fe5ccb19ba61c4c0873d391e987982fbbd3", revision)
}

func TestHeadRef_NotARepositoryFallsBack(t *testing.T) {
	ref, revision := headRef(t.TempDir())

	require.Equal(t, "refs/heads/master", ref)
	require.Empty(t, revision)
}
