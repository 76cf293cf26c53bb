// Package config loads the piep configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marcelocantos/piep/internal/logger"
	"github.com/marcelocantos/piep/internal/rules"
	"github.com/marcelocantos/piep/internal/shell"
)

// Config holds the global piep configuration.
type Config struct {
	// Join separates the members of list and tuple elements on output.
	Join    string        `yaml:"join"`
	Log     logger.Config `yaml:"log"`
	Shell   ShellConfig   `yaml:"shell"`
	Audit   AuditConfig   `yaml:"audit"`
	Prelude []string      `yaml:"prelude"`
	Imports []string      `yaml:"imports"`
}

// ShellConfig controls commands run by sh() and spawn().
type ShellConfig struct {
	// Timeout bounds every command, e.g. "30s". Empty means no limit.
	Timeout string `yaml:"timeout" validate:"omitempty,duration"`
	// Check is the default failure policy: default, always or never.
	Check string `yaml:"check" validate:"omitempty,oneof=default always never"`
	// Deny lists command names that may not be run.
	Deny  []string                           `yaml:"deny" validate:"dive,required,excludesall=/"`
	Rules map[string]rules.CommandRuleConfig `yaml:"rules"`
}

// AuditConfig controls the run history.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Join: " ",
		Log: logger.Config{
			Level:  "warn",
			Format: "console",
		},
		Audit: AuditConfig{
			Enabled: true,
			Path:    filepath.Join(home, ".local", "share", "piep", "history.jsonl"),
		},
	}
}

// ConfigPath returns the standard config file path.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "piep", "config.yaml")
}

// Load reads the config from the standard location (~/.config/piep/config.yaml).
// If the file doesn't exist, returns the default config.
func Load() (*Config, error) {
	if _, err := os.UserHomeDir(); err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config from the given path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	cfg.Audit.Path = expandHome(cfg.Audit.Path)
	for i, p := range cfg.Prelude {
		cfg.Prelude[i] = expandHome(p)
	}
	return cfg, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}

// TimeoutDuration parses the configured command timeout. Zero means none.
func (s *ShellConfig) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(s.Timeout)
}

// Options returns the default command options the config describes.
func (s *ShellConfig) Options() (shell.Options, error) {
	check, err := shell.ParseCheck(s.Check)
	if err != nil {
		return shell.Options{}, err
	}
	timeout, err := s.TimeoutDuration()
	if err != nil {
		return shell.Options{}, err
	}
	return shell.Options{Check: check, Timeout: timeout}, nil
}

// RuleSet builds the command rules: the hardcoded safety rules, which
// always apply, followed by the configured deny list and per-command
// rules, which --trust skips.
func (c *Config) RuleSet() *rules.RuleSet {
	rs := rules.NewRuleSet(rules.Hardcoded()...)
	if len(c.Shell.Deny) > 0 {
		rs.AddConfig(rules.DenyCommands(c.Shell.Deny...))
	}
	for name, rule := range c.Shell.Rules {
		for _, fn := range rules.CompileCommandRule(name, rule) {
			rs.AddConfig(fn)
		}
	}
	return rs
}
