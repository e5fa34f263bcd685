package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/verigate/verigate/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app config,
// a boolean indicating the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("verigate", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Verigate - a verification gate runner for repository events.

Usage:
  verigate [options] [WORKFLOW_PATH...]

Arguments:
  WORKFLOW_PATH
    Path to a single .hcl workflow file or a directory containing them.

Options:
`)
		flagSet.PrintDefaults()
	}

	workflowsFlag := flagSet.String("workflows", "", "Path to the workflow file or directory.")
	wFlag := flagSet.String("w", "", "Path to the workflow file or directory (shorthand).")
	actionsPathFlag := flagSet.String("actions-path", "actions", "Path to the directory containing action manifests.")
	eventFlag := flagSet.String("event", "", "Event kind to dispatch: push, tag, pull_request, dispatch, or schedule.")
	refFlag := flagSet.String("ref", "", "Branch or tag the event happened on.")
	revFlag := flagSet.String("rev", "", "Commit to check out; defaults to the ref.")
	repoFlag := flagSet.String("repo", "", "Path or URL of the repository to gate.")
	eventFileFlag := flagSet.String("event-file", "", "YAML file describing the event; explicit flags override its fields.")
	watchFlag := flagSet.Bool("watch", false, "Keep running and dispatch events from filesystem changes and schedules.")
	debounceFlag := flagSet.Duration("debounce", 500*time.Millisecond, "How long a change burst must stay quiet before watch mode dispatches.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 4, "Number of workflow runs allowed to execute concurrently.")
	keepWorkspaceFlag := flagSet.Bool("keep-workspace", false, "Keep run workspaces on disk for inspection.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var paths []string
	if *workflowsFlag != "" {
		paths = append(paths, *workflowsFlag)
	} else if *wFlag != "" {
		paths = append(paths, *wFlag)
	}
	paths = append(paths, flagSet.Args()...)
	slog.Debug("Workflow paths determined.", "paths", paths)

	if len(paths) == 0 {
		slog.Debug("No workflow path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.Validate(app.Config{
		WorkflowPaths:   paths,
		ActionsPath:     *actionsPathFlag,
		EventKind:       *eventFlag,
		Ref:             *refFlag,
		Revision:        *revFlag,
		Repo:            *repoFlag,
		EventFile:       *eventFileFlag,
		Watch:           *watchFlag,
		Debounce:        *debounceFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		Workers:         *workersFlag,
		KeepWorkspace:   *keepWorkspaceFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return config, false, nil
}
