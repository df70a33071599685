// Package config loads pipeline configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tjfontaine/drydock/internal/lint"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Build   BuildConfig   `koanf:"build"`
	Checks  ChecksConfig  `koanf:"checks"`
	Probe   ProbeConfig   `koanf:"probe"`
	System  SystemConfig  `koanf:"system"`
	Storage StorageConfig `koanf:"storage"`
}

// ServerConfig addresses the service under verification. The system stage
// publishes this port, so it is also where a port conflict surfaces.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

type BuildConfig struct {
	// Root is the source tree to build and check.
	Root string `koanf:"root"`
	// Descriptor is the build descriptor path relative to Root.
	Descriptor string `koanf:"descriptor"`
	// Tag overrides the digest-derived image tag.
	Tag string `koanf:"tag"`
}

type ChecksConfig struct {
	RuleSet       string   `koanf:"rule_set"` // formatting, standard, strict
	MaxLineLength int      `koanf:"max_line_length"`
	Extensions    []string `koanf:"extensions"`
}

type ProbeConfig struct {
	Attempts int    `koanf:"attempts"`
	Backoff  string `koanf:"backoff"` // Duration string like "500ms"
}

// BackoffDuration parses the configured backoff.
func (p ProbeConfig) BackoffDuration() (time.Duration, error) {
	if p.Backoff == "" {
		return 500 * time.Millisecond, nil
	}
	d, err := time.ParseDuration(p.Backoff)
	if err != nil {
		return 0, fmt.Errorf("parse probe backoff %q: %w", p.Backoff, err)
	}
	return d, nil
}

type SystemConfig struct {
	// Required makes a skipped system stage block the verdict.
	Required bool `koanf:"required"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, memory, none
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// Load reads the config file at path (or drydock.yaml when empty; a missing
// file is fine) and applies DRYDOCK_ environment overrides, double
// underscore mapping to nesting: DRYDOCK_SERVER__PORT=9090.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if path == "" {
		path = "drydock.yaml"
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("DRYDOCK_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "DRYDOCK_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	defaults := map[string]any{
		"server.host":         "127.0.0.1",
		"server.port":         8080,
		"build.root":          ".",
		"build.descriptor":    "Dockerfile",
		"checks.rule_set":     string(lint.RuleSetStandard),
		"probe.attempts":      10,
		"probe.backoff":       "500ms",
		"storage.type":        "sqlite",
		"storage.sqlite.path": "drydock.db",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no component could act on.
func (c *Config) Validate() error {
	if !lint.RuleSet(c.Checks.RuleSet).Valid() {
		return fmt.Errorf("unknown rule set %q", c.Checks.RuleSet)
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Probe.Attempts <= 0 {
		return fmt.Errorf("probe attempts must be positive, got %d", c.Probe.Attempts)
	}
	if _, err := c.Probe.BackoffDuration(); err != nil {
		return err
	}
	switch c.Storage.Type {
	case "sqlite", "memory", "none":
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	return nil
}
