// Package config loads fisdef settings from an optional YAML file, the
// environment and a local .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"fisdef/internal/decay"
	"fisdef/internal/decay/remote"
	"fisdef/internal/distribution"
	"fisdef/internal/spectrum"
	"fisdef/internal/steps"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "fisdef.yaml"

// Config holds all fisdef configuration.
type Config struct {
	// What to build
	Source SourceConfig `yaml:"source"`

	// Where decay data comes from
	Data DataConfig `yaml:"data"`

	// Which artifacts to write
	Output OutputConfig `yaml:"output"`

	// Execution settings
	Execution ExecutionConfig `yaml:"execution"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// SourceConfig selects steps, radiation and ordering.
type SourceConfig struct {
	Steps     string `yaml:"steps"`     // "all", "3", "0-4" or "1 3 5"
	Radiation string `yaml:"radiation"` // alpha, beta-plus, beta-minus, gamma, electron, xray
	Sort      string `yaml:"sort"`      // energy, intensity
	StartID   int    `yaml:"start_id"`  // first MCNP distribution number
}

// OutputConfig controls the written artifacts.
type OutputConfig struct {
	Prefix string `yaml:"prefix"` // files are <prefix>_<index>.<ext>
	Text   bool   `yaml:"text"`
	JSON   bool   `yaml:"json"`
	MCNP   bool   `yaml:"mcnp"`
}

// Any reports whether at least one artifact is requested.
func (c OutputConfig) Any() bool {
	return c.Text || c.JSON || c.MCNP
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Steps:     "all",
			Radiation: decay.Gamma.String(),
			Sort:      spectrum.ByEnergy.String(),
			StartID:   distribution.DefaultStartID,
		},

		Data: DataConfig{
			Fetch:        false,
			DatabasePath: "data/decay.db",
			Remote: RemoteConfig{
				BaseURL:   remote.DefaultBaseURL,
				Timeout:   "30s",
				Retries:   2,
				Backoff:   "500ms",
				RateLimit: 5,
			},
		},

		Output: OutputConfig{
			Prefix: "step",
		},

		Execution: ExecutionConfig{
			Workers: 1,
		},

		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. A .env file in the working directory is read first, and
// environment variables override both.
func Load(path string) (*Config, error) {
	// Optional; the environment may already be set.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		// Defaults only
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Override with environment variables
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	// Database path from environment
	if path := os.Getenv("FISDEF_DB"); path != "" {
		c.Data.DatabasePath = path
	}

	if url := os.Getenv("FISDEF_REMOTE_URL"); url != "" {
		c.Data.Remote.BaseURL = url
	}

	if v := os.Getenv("FISDEF_FETCH"); v != "" {
		fetch, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid FISDEF_FETCH %q: %w", v, err)
		}
		c.Data.Fetch = fetch
	}

	if v := os.Getenv("FISDEF_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FISDEF_WORKERS %q: %w", v, err)
		}
		c.Execution.Workers = n
	}

	return nil
}

// RadiationType returns the configured radiation, gamma when unparseable.
func (c *Config) RadiationType() decay.RadiationType {
	r, _ := decay.ParseRadiationType(c.Source.Radiation)
	return r
}

// SortKey returns the configured ordering, energy when unparseable.
func (c *Config) SortKey() spectrum.SortKey {
	k, _ := spectrum.ParseSortKey(c.Source.Sort)
	return k
}

// GetRemoteTimeout returns the per-request timeout as a duration.
func (c *Config) GetRemoteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Data.Remote.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetRemoteBackoff returns the first retry delay as a duration.
func (c *Config) GetRemoteBackoff() time.Duration {
	d, err := time.ParseDuration(c.Data.Remote.Backoff)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := decay.ParseRadiationType(c.Source.Radiation); err != nil {
		return err
	}
	if _, err := spectrum.ParseSortKey(c.Source.Sort); err != nil {
		return err
	}
	// Only the syntax matters here; the step count is unknown until the
	// inventory is read.
	if _, err := steps.Resolve(c.Source.Steps, 0); err != nil {
		return err
	}
	if c.Source.StartID < 1 {
		return fmt.Errorf("start id must be positive, got %d", c.Source.StartID)
	}
	if c.Execution.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Execution.Workers)
	}
	if err := c.Data.validate(); err != nil {
		return err
	}
	if c.Output.Any() && c.Output.Prefix == "" {
		return fmt.Errorf("output prefix must not be empty")
	}
	return nil
}
