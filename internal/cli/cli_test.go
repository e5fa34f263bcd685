package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse_HelpExitsCleanly(t *testing.T) {
	out := &bytes.Buffer{}

	cfg, shouldExit, err := Parse([]string{"-h"}, out)

	require.NoError(t, err)
	require.True(t, shouldExit)
	require.Nil(t, cfg)
	require.Contains(t, out.String(), "Usage:")
}

func TestParse_NoWorkflowPathShowsUsage(t *testing.T) {
	out := &bytes.Buffer{}

	cfg, shouldExit, err := Parse([]string{"-event", "dispatch"}, out)

	require.NoError(t, err)
	require.True(t, shouldExit)
	require.Nil(t, cfg)
	require.Contains(t, out.String(), "WORKFLOW_PATH")
}

func TestParse_UnknownFlagIsUsageError(t *testing.T) {
	out := &bytes.Buffer{}

	_, _, err := Parse([]string{"--no-such-flag"}, out)

	require.Error(t, err)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok, "expected an ExitError, got %T", err)
	require.Equal(t, 2, exitErr.Code)
}

func TestParse_InvalidLogFormat(t *testing.T) {
	out := &bytes.Buffer{}

	_, _, err := Parse([]string{"-event", "dispatch", "-log-format", "xml", "gate.hcl"}, out)

	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid log-format")
}

func TestParse_InvalidLogLevel(t *testing.T) {
	out := &bytes.Buffer{}

	_, _, err := Parse([]string{"-event", "dispatch", "-log-level", "loud", "gate.hcl"}, out)

	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid log-level")
}

func TestParse_MissingEventIsUsageError(t *testing.T) {
	out := &bytes.Buffer{}

	_, _, err := Parse([]string{"gate.hcl"}, out)

	require.Error(t, err)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok)
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, exitErr.Message, "an event is required")
}

func TestParse_OneShotSurface(t *testing.T) {
	out := &bytes.Buffer{}

	cfg, shouldExit, err := Parse([]string{
		"-event", "tag",
		"-ref", "refs/tags/v4.1.2",
		"-repo", "https://example.com/acme.git",
		"-workers", "2",
		"gate.hcl", "extra.hcl",
	}, out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	require.Equal(t, []string{"gate.hcl", "extra.hcl"}, cfg.WorkflowPaths)
	require.Equal(t, "tag", cfg.EventKind)
	require.Equal(t, "refs/tags/v4.1.2", cfg.Ref)
	require.Equal(t, "https://example.com/acme.git", cfg.Repo)
	require.Equal(t, 2, cfg.Workers)
	require.False(t, cfg.Watch)
}

func TestParse_WorkflowsFlagWins(t *testing.T) {
	out := &bytes.Buffer{}

	cfg, _, err := Parse([]string{"-workflows", "flows/", "-event", "dispatch"}, out)

	require.NoError(t, err)
	require.Equal(t, []string{"flows/"}, cfg.WorkflowPaths)
}

func TestParse_ShorthandWorkflowFlag(t *testing.T) {
	out := &bytes.Buffer{}

	cfg, _, err := Parse([]string{"-w", "gate.hcl", "-event", "dispatch"}, out)

	require.NoError(t, err)
	require.Equal(t, []string{"gate.hcl"}, cfg.WorkflowPaths)
}

func TestParse_WatchSurface(t *testing.T) {
	out := &bytes.Buffer{}

	cfg, shouldExit, err := Parse([]string{
		"-watch",
		"-repo", "/srv/checkout",
		"-debounce", "2s",
		"-healthcheck-port", "8099",
		"gate.hcl",
	}, out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	require.True(t, cfg.Watch)
	require.Equal(t, "/srv/checkout", cfg.Repo)
	require.Equal(t, 2*time.Second, cfg.Debounce)
	require.Equal(t, 8099, cfg.HealthcheckPort)
}

func TestParse_Defaults(t *testing.T) {
	out := &bytes.Buffer{}

	cfg, _, err := Parse([]string{"-event", "dispatch", "gate.hcl"}, out)

	require.NoError(t, err)
	require.Equal(t, "actions", cfg.ActionsPath)
	require.Equal(t, 500*time.Millisecond, cfg.Debounce)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 4, cfg.Workers)
	require.Zero(t, cfg.HealthcheckPort)
	require.False(t, cfg.KeepWorkspace)
}
