package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fisdef/internal/decay"
	"fisdef/internal/spectrum"
)

// =============================================================================
// UNIFIED CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Source.Steps != "all" {
		t.Errorf("expected Steps=all, got %s", cfg.Source.Steps)
	}
	if cfg.RadiationType() != decay.Gamma {
		t.Errorf("expected gamma, got %s", cfg.RadiationType())
	}
	if cfg.SortKey() != spectrum.ByEnergy {
		t.Errorf("expected energy sort, got %s", cfg.SortKey())
	}
	if cfg.Source.StartID != 100 {
		t.Errorf("expected StartID=100, got %d", cfg.Source.StartID)
	}
	if cfg.Data.Fetch {
		t.Error("expected the local table by default")
	}
	if cfg.Output.Any() {
		t.Error("expected no artifacts by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	// Ensure no env vars interfere
	t.Setenv("FISDEF_DB", "")
	t.Setenv("FISDEF_FETCH", "")
	t.Setenv("FISDEF_WORKERS", "")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "fisdef.yaml")

	cfg := DefaultConfig()
	cfg.Source.Radiation = "xray"
	cfg.Source.Steps = "1-3"
	cfg.Output.MCNP = true
	cfg.Execution.Workers = 4

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assert.Equal(t, decay.XRay, loaded.RadiationType())
	assert.Equal(t, "1-3", loaded.Source.Steps)
	assert.True(t, loaded.Output.MCNP)
	assert.Equal(t, 4, loaded.Execution.Workers)
	assert.Equal(t, cfg.Data, loaded.Data)
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	t.Setenv("FISDEF_DB", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fisdef.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source:\n  sort: intensity\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, spectrum.ByIntensity, cfg.SortKey())
	assert.Equal(t, "all", cfg.Source.Steps)
	assert.Equal(t, 100, cfg.Source.StartID)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fisdef.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source: [\n"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestConfig_Validate(t *testing.T) {
	tests := map[string]func(*Config){
		"radiation":        func(c *Config) { c.Source.Radiation = "neutron" },
		"sort":             func(c *Config) { c.Source.Sort = "halflife" },
		"steps":            func(c *Config) { c.Source.Steps = "one-two" },
		"start id":         func(c *Config) { c.Source.StartID = 0 },
		"workers":          func(c *Config) { c.Execution.Workers = 0 },
		"database":         func(c *Config) { c.Data.DatabasePath = "" },
		"retries":          func(c *Config) { c.Data.Remote.Retries = -1 },
		"rate limit":       func(c *Config) { c.Data.Remote.RateLimit = -2 },
		"timeout":          func(c *Config) { c.Data.Remote.Timeout = "soon" },
		"negative backoff": func(c *Config) { c.Data.Remote.Backoff = "-1s" },
		"prefix":           func(c *Config) { c.Output.Text, c.Output.Prefix = true, "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("fetch without database", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Data.Fetch = true
		cfg.Data.DatabasePath = ""
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfig_Helpers(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Second, cfg.GetRemoteTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.GetRemoteBackoff())

	cfg.Data.Remote.Timeout = "bogus"
	cfg.Data.Remote.Backoff = "2s"
	assert.Equal(t, 30*time.Second, cfg.GetRemoteTimeout(), "falls back on parse errors")
	assert.Equal(t, 2*time.Second, cfg.GetRemoteBackoff())

	rc := cfg.RemoteClientConfig()
	assert.Equal(t, cfg.Data.Remote.BaseURL, rc.BaseURL)
	assert.Equal(t, 2, rc.Retries)
	assert.Equal(t, 2*time.Second, rc.Backoff)
	assert.Equal(t, 5.0, rc.RateLimit)
}

func TestLoggingConfig_Options(t *testing.T) {
	lc := LoggingConfig{Level: "warn", Format: "json"}

	assert.Equal(t, "warn", lc.Options(0, false).Level)
	assert.Equal(t, "info", lc.Options(1, false).Level)
	assert.Equal(t, "debug", lc.Options(2, false).Level)
	assert.Equal(t, "json", lc.Options(0, false).Format)
	assert.True(t, lc.Options(3, true).Quiet)

	debug := LoggingConfig{Level: "debug"}
	assert.Equal(t, "debug", debug.Options(1, false).Level)
}
