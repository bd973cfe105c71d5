package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Makepad-fr/todomvc/internal/model"
)

// Config holds everything the todo binary can be tuned with.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	UI      UIConfig      `yaml:"ui"`
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig picks the Model backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // json, sqlite, memory
	Path    string `yaml:"path"`    // empty: backend default in the working directory
	Watch   bool   `yaml:"watch"`   // json only: refresh the TUI on external edits
}

type UIConfig struct {
	Theme  string `yaml:"theme"`  // classic, neon, mono
	Filter string `yaml:"filter"` // "", active, completed
	Group  bool   `yaml:"group"`  // ls: group by pending/done
	Color  string `yaml:"color"`  // auto, always, never
}

type LoggingConfig struct {
	Verbose bool   `yaml:"verbose"`
	File    string `yaml:"file"` // empty: stderr for commands, discarded in the TUI
}

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{Backend: BackendJSON, Watch: true},
		UI:    UIConfig{Theme: "classic", Color: "auto"},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/todo/config.yaml, falling back to ~/.config.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "todo", "config.yaml")
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error. The result is not validated so callers can
// layer flags on top before calling Validate.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes cfg as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("TODO_STORE")); v != "" {
		c.Store.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv("TODO_PATH")); v != "" {
		c.Store.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("TODO_THEME")); v != "" {
		c.UI.Theme = v
	}
	if os.Getenv("NO_COLOR") != "" {
		c.UI.Color = "never"
	}
}

// Validate normalises case and rejects unknown enum values.
func (c *Config) Validate() error {
	c.Store.Backend = strings.ToLower(c.Store.Backend)
	switch c.Store.Backend {
	case BackendJSON, BackendSQLite, BackendMemory:
	case "":
		c.Store.Backend = BackendJSON
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}

	c.UI.Color = strings.ToLower(c.UI.Color)
	switch c.UI.Color {
	case "auto", "always", "never":
	case "":
		c.UI.Color = "auto"
	default:
		return fmt.Errorf("ui.color: want auto, always or never, got %q", c.UI.Color)
	}

	name := strings.ToLower(strings.Trim(c.UI.Filter, "#/ "))
	if name == "all" {
		c.UI.Filter, name = "", ""
	}
	if f := model.ParseFilter(name); string(f) != name {
		return fmt.Errorf("ui.filter: unknown filter %q", c.UI.Filter)
	}
	return nil
}
