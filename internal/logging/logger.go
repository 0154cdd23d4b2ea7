// Package logging provides categorized structured logging for fisdef.
// Every subsystem asks for its own named logger with Get; the root logger is
// configured once at startup by Initialize and defaults to a no-op.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot         Category = "boot"         // Startup, configuration
	CategoryInput        Category = "input"        // Activation inventory reading
	CategorySteps        Category = "steps"        // Step selection
	CategoryDecay        Category = "decay"        // Decay data lookups (local and remote)
	CategorySpectrum     Category = "spectrum"     // Composite spectrum assembly
	CategoryDistribution Category = "distribution" // Source distribution building
	CategoryOutput       Category = "output"       // Artifact writing
	CategoryPipeline     Category = "pipeline"     // Per-step orchestration
)

// Options controls how the root logger is built.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console, json
	Quiet  bool   // discard everything
}

var (
	root    = zap.NewNop()
	loggers = make(map[Category]*zap.SugaredLogger)
	mu      sync.RWMutex
)

// Initialize builds the root logger. Loggers handed out before the call are
// replaced, so callers should fetch them after startup rather than caching
// them in package variables.
func Initialize(opts Options) error {
	if opts.Quiet {
		set(zap.NewNop())
		return nil
	}

	level, err := parseLevel(opts.Level)
	if err != nil {
		return err
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(opts.Format) {
	case "", "console", "text":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return fmt.Errorf("unknown log format %q", opts.Format)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	set(zap.New(core))

	Get(CategoryBoot).Debugf("logging initialized (level=%s)", level)
	return nil
}

// Get returns (or creates) the logger for the given category.
func Get(category Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}
	l := root.Named(string(category)).Sugar()
	loggers[category] = l
	return l
}

// Sync flushes any buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}

func set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	root = l
	loggers = make(map[Category]*zap.SugaredLogger)
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug", "trace":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}
