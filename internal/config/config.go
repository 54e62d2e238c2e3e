// Package config provides configuration loading for sift.
//
// Precedence, highest to lowest: environment variables (SIFT_*), YAML
// config file, hardcoded defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/sift/internal/logging"
	"github.com/fyrsmithlabs/sift/internal/telemetry"
)

const (
	envPrefix         = "SIFT_"
	maxConfigFileSize = 1 << 20
)

// Config is the top-level sift configuration.
type Config struct {
	// Vault is the notes directory to scan.
	Vault string `koanf:"vault"`

	// Since is the default lookback window when no explicit threshold
	// is given, e.g. "168h".
	Since time.Duration `koanf:"since"`

	// Workers bounds concurrent document resolves.
	Workers int `koanf:"workers"`

	// MaxCacheEntries bounds the result cache.
	MaxCacheEntries int `koanf:"max_cache_entries"`

	Logging   logging.Config   `koanf:"logging"`
	Telemetry telemetry.Config `koanf:"telemetry"`
}

// Default returns the hardcoded defaults.
func Default() *Config {
	return &Config{
		Since:           7 * 24 * time.Hour,
		Workers:         4,
		MaxCacheEntries: 1024,
		Logging:         *logging.DefaultConfig(),
		Telemetry:       *telemetry.DefaultConfig(),
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Vault == "" {
		return fmt.Errorf("vault directory is required")
	}
	if c.Since <= 0 {
		return fmt.Errorf("since must be positive, got %s", c.Since)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return nil
}

// Load reads configuration from the YAML file at path (skipped when empty
// or absent), then overrides with SIFT_* environment variables.
//
// Environment variables map underscores to nesting after the prefix:
// SIFT_WORKERS -> workers, SIFT_LOGGING_LEVEL -> logging.level.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		raw, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if raw != nil {
			if err := k.Load(rawbytes.Provider(raw), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// envTransform maps SIFT_LOGGING_LEVEL to logging.level.
func envTransform(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)

	// Two-level keys only: the first underscore separates the section.
	for _, section := range []string{"logging_", "telemetry_"} {
		if strings.HasPrefix(s, section) {
			return strings.TrimSuffix(section, "_") + "." + strings.TrimPrefix(s, section)
		}
	}
	return s
}

// readConfigFile returns the file's bytes, or nil when it does not exist.
func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes", info.Size())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return raw, nil
}
