package config

import (
	"fmt"
	"time"

	"fisdef/internal/decay/remote"
)

// DataConfig selects and tunes the decay data source.
type DataConfig struct {
	// Fetch queries the remote API instead of the local table.
	Fetch bool `yaml:"fetch"`

	// Local SQLite decay table
	DatabasePath string `yaml:"database_path"`

	Remote RemoteConfig `yaml:"remote"`
}

// RemoteConfig configures the LiveChart client.
type RemoteConfig struct {
	BaseURL   string  `yaml:"base_url"`
	Timeout   string  `yaml:"timeout"`    // per request
	Retries   int     `yaml:"retries"`    // after a transient failure
	Backoff   string  `yaml:"backoff"`    // first retry delay, doubled each time
	RateLimit float64 `yaml:"rate_limit"` // requests per second, 0 = unlimited
}

func (c *DataConfig) validate() error {
	if !c.Fetch && c.DatabasePath == "" {
		return fmt.Errorf("data.database_path must be set when fetch is off")
	}
	if c.Remote.Retries < 0 {
		return fmt.Errorf("data.remote.retries must not be negative, got %d", c.Remote.Retries)
	}
	if c.Remote.RateLimit < 0 {
		return fmt.Errorf("data.remote.rate_limit must not be negative, got %g", c.Remote.RateLimit)
	}
	for name, v := range map[string]string{"timeout": c.Remote.Timeout, "backoff": c.Remote.Backoff} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("data.remote.%s must be a positive duration, got %q", name, v)
		}
	}
	return nil
}

// RemoteClientConfig converts the settings for remote.New.
func (c *Config) RemoteClientConfig() remote.Config {
	return remote.Config{
		BaseURL:   c.Data.Remote.BaseURL,
		Timeout:   c.GetRemoteTimeout(),
		Retries:   c.Data.Remote.Retries,
		Backoff:   c.GetRemoteBackoff(),
		RateLimit: c.Data.Remote.RateLimit,
	}
}
