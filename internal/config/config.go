package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "~/.config/kspace-explorer/config.yaml"
	envConfigPath     = "KSPACE_EXPLORER_CONFIG"
)

// Config holds user-editable settings for the explorer.
type Config struct {
	Logging Logging `yaml:"logging"`
	Engine  Engine  `yaml:"engine"`
	Server  Server  `yaml:"server"`
	Session Session `yaml:"session"`
}

// Logging controls verbosity and output format.
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Engine tunes the transform and reconstruction pipeline.
type Engine struct {
	// MaxDim is the largest image edge handed to the transform.
	MaxDim int `yaml:"maxDim"`
	// QueueSize is the reconstruction request queue capacity.
	QueueSize int `yaml:"queueSize"`
	// DebounceMS is the mask commit debounce while dragging, in
	// milliseconds.
	DebounceMS int `yaml:"debounceMs"`
}

// Debounce returns the commit debounce as a duration.
func (e Engine) Debounce() time.Duration {
	return time.Duration(e.DebounceMS) * time.Millisecond
}

// Server configures the web interface.
type Server struct {
	Addr string `yaml:"addr"`
	// WatchDir, when set, is scanned for new images to load
	// automatically.
	WatchDir string `yaml:"watchDir"`
}

// Session configures the session journal.
type Session struct {
	DatabasePath string `yaml:"databasePath"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Engine: Engine{
			MaxDim:     256,
			QueueSize:  32,
			DebounceMS: 150,
		},
		Server: Server{
			Addr: ":8080",
		},
		Session: Session{
			DatabasePath: filepath.Join(os.TempDir(), "kspace-explorer.db"),
		},
	}
}

// DefaultPath resolves the configuration file location: the
// KSPACE_EXPLORER_CONFIG environment variable when set, otherwise the
// default location under the user's config directory.
func DefaultPath() string {
	if path := os.Getenv(envConfigPath); path != "" {
		return path
	}
	return defaultConfigPath
}

// Load reads the configuration from path. An empty path falls back to
// DefaultPath; a missing file yields the defaults. The result is
// validated before it is returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	expanded, err := expandUser(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := Default()
	data, err := os.ReadFile(expanded)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", expanded, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories as
// needed.
func Save(cfg *Config, path string) error {
	expanded, err := expandUser(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(expanded, data, 0o644); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Validate checks for values the explorer cannot run with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unsupported logging level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unsupported logging format %q", c.Logging.Format)
	}
	if c.Engine.MaxDim < 1 {
		return fmt.Errorf("config: engine maxDim must be at least 1, got %d", c.Engine.MaxDim)
	}
	if c.Engine.QueueSize < 1 {
		return fmt.Errorf("config: engine queueSize must be at least 1, got %d", c.Engine.QueueSize)
	}
	if c.Engine.DebounceMS < 0 {
		return fmt.Errorf("config: engine debounceMs must not be negative, got %d", c.Engine.DebounceMS)
	}
	if c.Server.Addr == "" {
		return errors.New("config: server addr must not be empty")
	}
	return nil
}

func expandUser(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
