package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hireflow/intake-engine/internal/domain"
)

// SessionConfig holds the defaults given to new chat sessions. Zero caps mean
// unlimited.
type SessionConfig struct {
	SoftCap      int    `json:"soft_cap" yaml:"soft_cap"`
	HardCap      int    `json:"hard_cap" yaml:"hard_cap"`
	DefaultAgent string `json:"default_agent" yaml:"default_agent"`
}

// Config holds the intake engine's runtime configuration.
type Config struct {
	DBPath    string        `json:"db_path" yaml:"db_path"`
	LogLevel  string        `json:"log_level" yaml:"log_level"`
	LogFormat string        `json:"log_format" yaml:"log_format"`
	Session   SessionConfig `json:"session" yaml:"session"`
}

// Default returns a validated configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a config file, applies defaults, and validates. Files ending in
// .yaml or .yml are parsed as YAML, anything else as JSON.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config JSON: %w", err)
		}
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DBPath == "" {
		c.DBPath = "intake.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.Session.DefaultAgent == "" {
		c.Session.DefaultAgent = string(domain.AgentInterviewer)
	}
}

func (c *Config) validate() error {
	var problems []string

	if c.Session.SoftCap < 0 {
		problems = append(problems, "session.soft_cap must not be negative")
	}
	if c.Session.HardCap < 0 {
		problems = append(problems, "session.hard_cap must not be negative")
	}
	if c.Session.SoftCap > 0 && c.Session.HardCap > 0 && c.Session.HardCap < c.Session.SoftCap {
		problems = append(problems, "session.hard_cap must not be below session.soft_cap")
	}
	if _, err := domain.ParseAgentType(c.Session.DefaultAgent); err != nil {
		problems = append(problems, fmt.Sprintf("session.default_agent %q is not an agent", c.Session.DefaultAgent))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		problems = append(problems, fmt.Sprintf("log_format %q must be text or json", c.LogFormat))
	}

	if len(problems) > 0 {
		return domain.Withf(domain.ErrConfigInvalid, "%v", problems)
	}
	return nil
}

// Caps returns the default turn caps for new sessions.
func (c *Config) Caps() domain.Caps {
	return domain.Caps{Soft: c.Session.SoftCap, Hard: c.Session.HardCap}
}

// Agent returns the default agent for new sessions.
func (c *Config) Agent() domain.AgentType {
	agent, err := domain.ParseAgentType(c.Session.DefaultAgent)
	if err != nil {
		return domain.AgentInterviewer
	}
	return agent
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level %q must be debug, info, warn or error", s)
}

// NewLogger builds the process logger from the log settings.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
