package config

import (
	"errors"
	"fmt"
)

// Naming modes accepted by Validate.
const (
	NamingPrompt  = "prompt"
	NamingCounter = "counter"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Remote.HoldThresholdMs <= 0 {
		errs = append(errs, fmt.Errorf("remote.hold_threshold_ms must be positive, got %d", c.Remote.HoldThresholdMs))
	}
	if c.Timeline.StackWindowMs <= 0 {
		errs = append(errs, fmt.Errorf("timeline.stack_window_ms must be positive, got %d", c.Timeline.StackWindowMs))
	}
	if c.Timeline.MaxTracks < 0 {
		errs = append(errs, fmt.Errorf("timeline.max_tracks must not be negative, got %d", c.Timeline.MaxTracks))
	}

	switch c.Session.Naming {
	case NamingPrompt, NamingCounter:
	default:
		errs = append(errs, fmt.Errorf("session.naming must be %q or %q, got %q", NamingPrompt, NamingCounter, c.Session.Naming))
	}
	if c.Session.EndCommand == "" && c.Session.TerminatorCode == 0 {
		errs = append(errs, errors.New("session needs an end_command, a terminator_code, or both"))
	}
	if c.Session.SaveGraceMs < 0 {
		errs = append(errs, fmt.Errorf("session.save_grace_ms must not be negative, got %d", c.Session.SaveGraceMs))
	}

	if c.Storage.Dir == "" {
		errs = append(errs, errors.New("storage.dir must not be empty"))
	}
	if c.Storage.PrefsPath == "" {
		errs = append(errs, errors.New("storage.prefs_path must not be empty"))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not a known level", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not a known format", c.Logging.Format))
	}
	if c.Logging.Output == "file" && c.Logging.FilePath == "" {
		errs = append(errs, errors.New("logging.file_path required for file output"))
	}

	return errors.Join(errs...)
}
