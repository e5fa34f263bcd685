package app

import (
	"errors"
	"fmt"
	"time"
)

// Config holds everything an App instance needs to run.
type Config struct {
	// WorkflowPaths are .hcl files or directories containing workflow blocks.
	WorkflowPaths []string
	// ActionsPath is the directory containing action manifests.
	ActionsPath string

	// One-shot event surface. EventFile is a YAML payload; the explicit
	// fields override whatever the file carries.
	EventKind string
	Ref       string
	Revision  string
	Repo      string
	EventFile string

	// Watch turns the process into a long-running gate daemon over Repo.
	Watch    bool
	Debounce time.Duration

	HealthcheckPort int
	LogFormat       string
	LogLevel        string
	Workers         int
	KeepWorkspace   bool
}

// Validate rejects configurations that cannot possibly run before any
// loading happens.
func Validate(cfg Config) (*Config, error) {
	if len(cfg.WorkflowPaths) == 0 {
		return nil, errors.New("at least one workflow path is required")
	}
	if cfg.Watch {
		if cfg.Repo == "" {
			return nil, errors.New("watch mode requires -repo pointing at a local working tree")
		}
	} else if cfg.EventKind == "" && cfg.EventFile == "" {
		return nil, errors.New("an event is required: pass -event or -event-file, or run with -watch")
	}
	if cfg.Debounce < 0 {
		return nil, fmt.Errorf("debounce must not be negative, got %s", cfg.Debounce)
	}
	return &cfg, nil
}
