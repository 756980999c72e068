// Package config handles configuration loading, validation, and management
// for cliplogd.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete daemon configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Remote configures infrared decoding and classification.
	Remote RemoteConfig `toml:"remote" json:"remote" yaml:"remote"`

	// Timeline configures track allocation.
	Timeline TimelineConfig `toml:"timeline" json:"timeline" yaml:"timeline"`

	// Session configures the recording session state machine.
	Session SessionConfig `toml:"session" json:"session" yaml:"session"`

	// Storage configures the clip-log store and preferences database.
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`

	// Console configures the operator console.
	Console ConsoleConfig `toml:"console" json:"console" yaml:"console"`

	// Keyboard configures the media keyboard emulator.
	Keyboard KeyboardConfig `toml:"keyboard" json:"keyboard" yaml:"keyboard"`

	// Logging configures daemon diagnostics.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// RemoteConfig holds infrared decoder and classifier configuration.
type RemoteConfig struct {
	// DecoderPath is the serial device or FIFO the decoder bridge writes
	// decoded events to, one per line.
	DecoderPath string `toml:"decoder_path" json:"decoder_path" yaml:"decoder_path"`

	// KeymapPath points at a JSON keymap replacing the built-in table.
	// Empty selects the built-in table.
	KeymapPath string `toml:"keymap_path" json:"keymap_path" yaml:"keymap_path"`

	// HoldThresholdMs is the repeat window for timing-based hold detection.
	HoldThresholdMs int `toml:"hold_threshold_ms" json:"hold_threshold_ms" yaml:"hold_threshold_ms"`
}

// TimelineConfig holds track-allocation configuration.
type TimelineConfig struct {
	// StackWindowMs is the gap under which consecutive clips stack on
	// successive tracks.
	StackWindowMs int `toml:"stack_window_ms" json:"stack_window_ms" yaml:"stack_window_ms"`

	// MaxTracks clamps track growth during rapid bursts. 0 means unbounded.
	MaxTracks int `toml:"max_tracks" json:"max_tracks" yaml:"max_tracks"`
}

// SessionConfig holds session state machine configuration.
type SessionConfig struct {
	// Naming selects how session files are named: "prompt" asks the
	// operator for a name, "counter" derives one from the persisted base
	// and a counter.
	Naming string `toml:"naming" json:"naming" yaml:"naming"`

	// EndCommand is the console word that terminates an active session.
	EndCommand string `toml:"end_command" json:"end_command" yaml:"end_command"`

	// TerminatorCode is a reserved remote code that also terminates the
	// session. 0 disables the button terminator.
	TerminatorCode uint32 `toml:"terminator_code" json:"terminator_code" yaml:"terminator_code"`

	// SaveGraceMs is the post-save window for returning to the menu before
	// the next name prompt.
	SaveGraceMs int `toml:"save_grace_ms" json:"save_grace_ms" yaml:"save_grace_ms"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	// Dir is the clip-log store root directory.
	Dir string `toml:"dir" json:"dir" yaml:"dir"`

	// PrefsPath is the preferences database file.
	PrefsPath string `toml:"prefs_path" json:"prefs_path" yaml:"prefs_path"`
}

// ConsoleConfig holds operator console configuration.
type ConsoleConfig struct {
	// Listen is a Unix socket path serving the console to one client at a
	// time. Empty binds the console to stdin/stdout.
	Listen string `toml:"listen" json:"listen" yaml:"listen"`
}

// KeyboardConfig holds media keyboard emulator configuration.
type KeyboardConfig struct {
	// Enabled determines whether the emulator is available at all.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// SessionKey is the media key sent at session start and end.
	SessionKey string `toml:"session_key" json:"session_key" yaml:"session_key"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is "stdout", "stderr", or "file".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file path when Output is "file".
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dir := DataDir()

	return &Config{
		Version: Version,
		Remote: RemoteConfig{
			DecoderPath:     "",
			KeymapPath:      "",
			HoldThresholdMs: 700,
		},
		Timeline: TimelineConfig{
			StackWindowMs: 1000,
			MaxTracks:     0,
		},
		Session: SessionConfig{
			Naming:         "prompt",
			EndCommand:     "end",
			TerminatorCode: 0,
			SaveGraceMs:    3000,
		},
		Storage: StorageConfig{
			Dir:       filepath.Join(dir, "clips"),
			PrefsPath: filepath.Join(dir, "prefs.db"),
		},
		Console: ConsoleConfig{
			Listen: "",
		},
		Keyboard: KeyboardConfig{
			Enabled:    true,
			SessionKey: "volume_up",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "file",
			FilePath: filepath.Join(dir, "cliplogd.log"),
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// Load reads configuration from the specified path. A missing file yields
// the defaults. TOML, JSON, and YAML are selected by file extension.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// ApplyEnvOverrides applies CLIPLOGD_* environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CLIPLOGD_STORAGE_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("CLIPLOGD_PREFS_PATH"); v != "" {
		c.Storage.PrefsPath = v
	}
	if v := os.Getenv("CLIPLOGD_DECODER_PATH"); v != "" {
		c.Remote.DecoderPath = v
	}
	if v := os.Getenv("CLIPLOGD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CLIPLOGD_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("CLIPLOGD_CONSOLE_LISTEN"); v != "" {
		c.Console.Listen = v
	}
}

// EnsureDirectories creates all directories the daemon needs.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Storage.Dir,
		filepath.Dir(c.Storage.PrefsPath),
	}
	if c.Logging.Output == "file" && c.Logging.FilePath != "" {
		dirs = append(dirs, filepath.Dir(c.Logging.FilePath))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DataDir returns the base cliplogd data directory, honoring the
// CLIPLOGD_DATA_DIR override.
func DataDir() string {
	if envDir := os.Getenv("CLIPLOGD_DATA_DIR"); envDir != "" {
		return envDir
	}

	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "cliplogd")
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		return filepath.Join(appData, "cliplogd")
	default:
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, "cliplogd")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "cliplogd")
	}
}
