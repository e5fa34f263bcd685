// Package testutil provides the integration test harness: it materializes a
// fixture tree of workflow and manifest files, boots a complete app, and
// dispatches one event through it.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verigate/verigate/internal/app"
	"github.com/verigate/verigate/internal/hclcfg"
	"github.com/verigate/verigate/internal/registry"
	"github.com/verigate/verigate/internal/runstore"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// Options describe one harness invocation.
type Options struct {
	// Files maps relative paths, e.g. "workflows/gate.hcl" or
	// "actions/patch/manifest.hcl", to file contents.
	Files map[string]string

	// Event surface for the one-shot dispatch.
	EventKind string
	Ref       string
	Revision  string
	Repo      string
	EventFile string

	// Modules defaults to the compiled-in actions when empty.
	Modules []registry.Module

	Workers       int
	KeepWorkspace bool
}

// RunIntegrationTest runs the harness with a background context.
func RunIntegrationTest(t *testing.T, opts Options) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, opts)
}

// RunIntegrationTestWithContext materializes the fixture tree, boots the app,
// and dispatches the configured event exactly once. Startup panics are
// captured into Err so tests can assert on fatal configuration problems.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, opts Options) *HarnessResult {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", ".tmp-integration-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	workflowsDir := filepath.Join(tmpDir, "workflows")
	actionsDir := filepath.Join(tmpDir, "actions")
	require.NoError(t, os.Mkdir(workflowsDir, 0o755))
	require.NoError(t, os.Mkdir(actionsDir, 0o755))

	// Relative fixture paths create the subdirectory structure on their own.
	for name, content := range opts.Files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	workers := opts.Workers
	if workers == 0 {
		workers = 4
	}
	cfg := &app.Config{
		WorkflowPaths: []string{workflowsDir},
		ActionsPath:   actionsDir,
		EventKind:     opts.EventKind,
		Ref:           opts.Ref,
		Revision:      opts.Revision,
		Repo:          opts.Repo,
		EventFile:     opts.EventFile,
		LogLevel:      "debug",
		LogFormat:     "text",
		Workers:       workers,
		KeepWorkspace: opts.KeepWorkspace,
	}

	logBuffer := &app.SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.New(logBuffer, cfg, hclcfg.NewLoader(), opts.Modules...)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}

	runErr := testApp.Run(ctx)

	if os.Getenv("VERIGATE_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
}

// Runs returns the recorded runs, empty when startup never finished.
func (r *HarnessResult) Runs() []runstore.RunRecord {
	if r.App == nil {
		return nil
	}
	return r.App.Store().Snapshot()
}
