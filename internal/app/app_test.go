package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verigate/verigate/internal/config"
	"github.com/verigate/verigate/internal/runstore"
)

func TestValidate_RequiresWorkflowPath(t *testing.T) {
	_, err := Validate(Config{EventKind: "dispatch"})

	require.Error(t, err)
	require.Contains(t, err.Error(), "workflow path")
}

func TestValidate_OneShotRequiresAnEvent(t *testing.T) {
	_, err := Validate(Config{WorkflowPaths: []string{"gate.hcl"}})

	require.Error(t, err)
	require.Contains(t, err.Error(), "an event is required")
}

func TestValidate_EventFileAloneIsEnough(t *testing.T) {
	cfg, err := Validate(Config{
		WorkflowPaths: []string{"gate.hcl"},
		EventFile:     "payload.yaml",
	})

	require.NoError(t, err)
	require.Equal(t, "payload.yaml", cfg.EventFile)
}

func TestValidate_WatchRequiresRepo(t *testing.T) {
	_, err := Validate(Config{WorkflowPaths: []string{"gate.hcl"}, Watch: true})

	require.Error(t, err)
	require.Contains(t, err.Error(), "watch mode requires -repo")
}

func TestValidate_WatchNeedsNoEvent(t *testing.T) {
	_, err := Validate(Config{
		WorkflowPaths: []string{"gate.hcl"},
		Watch:         true,
		Repo:          "/srv/repo",
	})

	require.NoError(t, err)
}

func TestValidate_RejectsNegativeDebounce(t *testing.T) {
	_, err := Validate(Config{
		WorkflowPaths: []string{"gate.hcl"},
		Watch:         true,
		Repo:          "/srv/repo",
		Debounce:      -time.Second,
	})

	require.Error(t, err)
}

const watchGateWorkflow = `
workflow "gate" {
  on {
    push {
      branches = ["*"]
    }
  }

  step "print" "announce" {
    arguments {
      input = {
        ref = event.ref
      }
    }
  }
}
`

const watchPrintManifest = `
action "print" {
  lifecycle {
    on_run = "OnRunPrint"
  }

  input "input" {
    type    = map(string)
    default = {}
  }
}
`

func TestRun_WatchModeDispatchesOnWorkingTreeChanges(t *testing.T) {
	// Arrange: a fake working tree on branch main plus the gate fixtures.
	tmp := t.TempDir()
	workflowsDir := filepath.Join(tmp, "workflows")
	actionsDir := filepath.Join(tmp, "actions")
	repoDir := filepath.Join(tmp, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repoDir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, ".git", "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))
	require.NoError(t, os.Mkdir(workflowsDir, 0o755))
	require.NoError(t, os.Mkdir(actionsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(workflowsDir, "gate.hcl"), []byte(watchGateWorkflow), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(actionsDir, "print.hcl"), []byte(watchPrintManifest), 0o644))

	cfg, err := Validate(Config{
		WorkflowPaths: []string{workflowsDir},
		ActionsPath:   actionsDir,
		Watch:         true,
		Repo:          repoDir,
		Debounce:      50 * time.Millisecond,
		LogFormat:     "text",
		Workers:       1,
	})
	require.NoError(t, err)

	gate, logs := SetupAppTest(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gate.Run(ctx) }()

	// Act: keep touching the tree until a run lands. Early writes can race
	// the watcher arming, so the touch repeats until one is noticed.
	deadline := time.After(10 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var runs []runstore.RunRecord
wait:
	for {
		select {
		case <-deadline:
			t.Fatalf("no run dispatched before the deadline; logs:\n%s", logs.String())
		case <-ticker.C:
			require.NoError(t, os.WriteFile(filepath.Join(repoDir, "Cargo.toml"), []byte(time.Now().String()), 0o644))
			if runs = gate.Store().Snapshot(); len(runs) > 0 && runs[0].Status != runstore.StatusRunning {
				break wait
			}
		}
	}
	cancel()
	require.NoError(t, <-done)

	// Assert
	require.Equal(t, "gate", runs[0].Workflow)
	require.Equal(t, runstore.StatusSucceeded, runs[0].Status)
	require.Contains(t, logs.String(), "🔔 Change burst settled")
}

func TestScopedModel_NarrowsToTheNamedWorkflow(t *testing.T) {
	// Arrange
	model := &config.Model{
		Actions: map[string]*config.ActionDefinition{"print": {Type: "print"}},
		Workflows: []*config.Workflow{
			{Name: "gate"},
			{Name: "nightly"},
		},
	}

	// Act
	scoped := scopedModel(model, "nightly")

	// Assert
	require.Len(t, scoped.Workflows, 1)
	require.Equal(t, "nightly", scoped.Workflows[0].Name)
	require.Equal(t, model.Actions, scoped.Actions, "action definitions must remain visible")
}
