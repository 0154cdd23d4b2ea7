package config

import "fisdef/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level,omitempty"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format,omitempty"` // json, text
}

// Options converts the settings for logging.Initialize. verbosity counts -v
// flags and raises the level; quiet silences everything.
func (c LoggingConfig) Options(verbosity int, quiet bool) logging.Options {
	level := c.Level
	switch {
	case verbosity >= 2:
		level = "debug"
	case verbosity == 1 && level != "debug":
		level = "info"
	}
	return logging.Options{Level: level, Format: c.Format, Quiet: quiet}
}
