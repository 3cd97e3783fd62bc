// Package config loads arbor's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour/styles"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up from the working directory upwards.
const FileName = ".arbor.yaml"

// Source kinds.
const (
	SourceMock   = "mock"
	SourceSQLite = "sqlite"
	SourceStatic = "static"
)

// Config represents an arbor configuration file (.arbor.yaml)
type Config struct {
	// Seed is a JSON file with the initial tree (default: built-in demo)
	Seed string `yaml:"seed,omitempty"`

	// Watch reloads the tree when the seed file changes
	Watch bool `yaml:"watch,omitempty"`

	Source SourceConfig `yaml:"source,omitempty"`
	Log    LogConfig    `yaml:"log,omitempty"`
	UI     UIConfig     `yaml:"ui,omitempty"`

	// dir is where the file was loaded from; relative paths resolve against it.
	dir string
}

// SourceConfig selects where lazily loaded children come from
type SourceConfig struct {
	// Kind is one of mock, sqlite, static (default: mock)
	Kind string `yaml:"kind,omitempty"`

	// DSN is the SQLite database path, required for kind sqlite
	DSN string `yaml:"dsn,omitempty"`

	// Latency is the simulated round trip of the mock source (default: 800ms)
	Latency time.Duration `yaml:"latency,omitempty"`

	// FailRate is the fraction of mock fetches that fail, 0 to 1
	FailRate float64 `yaml:"fail_rate,omitempty"`

	// RandSeed makes the mock source reproducible; 0 picks one at random
	RandSeed uint64 `yaml:"rand_seed,omitempty"`
}

// LogConfig controls the log file. The terminal belongs to the UI.
type LogConfig struct {
	// Path is the log file; empty disables logging
	Path string `yaml:"path,omitempty"`

	// Level is a logrus level name (default: info)
	Level string `yaml:"level,omitempty"`
}

// UIConfig tweaks the terminal UI
type UIConfig struct {
	// Mouse enables mouse reporting
	Mouse bool `yaml:"mouse,omitempty"`

	// AltScreen runs full-screen (default: true)
	AltScreen *bool `yaml:"alt_screen,omitempty"`

	// GlamourStyle names the glamour standard style of the outline preview
	// (default: dark)
	GlamourStyle string `yaml:"glamour_style,omitempty"`
}

// AltScreenEnabled returns whether the UI should use the alternate screen
func (u UIConfig) AltScreenEnabled() bool {
	if u.AltScreen == nil {
		return true
	}
	return *u.AltScreen
}

// Default returns the configuration used when no file is found
func Default() Config {
	return Config{
		Source: SourceConfig{
			Kind:    SourceMock,
			Latency: 800 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceMock, SourceStatic:
	case SourceSQLite:
		if c.Source.DSN == "" {
			return fmt.Errorf("source.dsn is required for source kind %q", SourceSQLite)
		}
	default:
		return fmt.Errorf("source.kind: unknown kind %q (want mock, sqlite or static)", c.Source.Kind)
	}

	if c.Source.Latency < 0 {
		return fmt.Errorf("source.latency must not be negative, got %s", c.Source.Latency)
	}
	if c.Source.FailRate < 0 || c.Source.FailRate > 1 {
		return fmt.Errorf("source.fail_rate must be between 0 and 1, got %v", c.Source.FailRate)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Watch && c.Seed == "" {
		return fmt.Errorf("watch requires a seed file")
	}
	if c.UI.GlamourStyle != "" {
		if _, ok := styles.DefaultStyles[c.UI.GlamourStyle]; !ok {
			return fmt.Errorf("ui.glamour_style: unknown style %q", c.UI.GlamourStyle)
		}
	}
	return nil
}

// Load reads a configuration file, filling unset fields from Default
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	// yaml leaves explicitly empty values in place
	if config.Source.Kind == "" {
		config.Source.Kind = SourceMock
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	config.dir = filepath.Dir(path)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &config, nil
}

// Resolve makes a path from the config file absolute. Paths from flags or
// the default config are returned as given (after ~ expansion).
func (c *Config) Resolve(p string) string {
	if p == "" {
		return ""
	}
	p = expandHome(p)
	if filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Dir returns the directory the config was loaded from, if any.
func (c *Config) Dir() string {
	return c.dir
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
