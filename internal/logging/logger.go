// Package logging provides categorized logging for pageindex on top of zap.
// Every subsystem logs through its own category so that noisy areas (parsing,
// summaries) can be silenced from config without touching the others.
// Until Initialize or Use is called, all loggers are no-ops.
package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup and config loading
	CategoryIndex   Category = "index"   // Tree building pipeline
	CategoryParse   Category = "parse"   // Language parsers
	CategorySummary Category = "summary" // LLM summaries and descriptions
	CategoryStore   Category = "store"   // SQLite persistence
	CategoryWatch   Category = "watch"   // Filesystem watcher
	CategoryCLI     Category = "cli"     // Command handlers
)

// AllCategories lists every known category in a stable order.
var AllCategories = []Category{
	CategoryBoot,
	CategoryIndex,
	CategoryParse,
	CategorySummary,
	CategoryStore,
	CategoryWatch,
	CategoryCLI,
}

// IsKnownCategory reports whether name is one of AllCategories.
func IsKnownCategory(name string) bool {
	for _, c := range AllCategories {
		if string(c) == name {
			return true
		}
	}
	return false
}

// Config controls how loggers are built.
type Config struct {
	Level      string          // debug, info, warn, error
	JSONFormat bool            // JSON encoder instead of console
	Categories map[string]bool // missing categories are enabled
	OutputPath string          // defaults to stderr
}

// Logger is a printf-style logger bound to one category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
	enabled  bool
}

var (
	mu         sync.RWMutex
	base       = zap.NewNop()
	categories map[string]bool
	loggers    = make(map[Category]*Logger)
)

// Initialize builds the process-wide zap logger from cfg.
func Initialize(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Sampling = nil
	if !cfg.JSONFormat {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	out := cfg.OutputPath
	if out == "" {
		out = "stderr"
	}
	zcfg.OutputPaths = []string{out}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	install(logger, cfg.Categories)
	Get(CategoryBoot).Debug("logging initialized (level=%s, json=%v)", level, cfg.JSONFormat)
	return nil
}

// Use installs an existing zap logger, e.g. one built by the CLI or an
// observer core in tests.
func Use(logger *zap.Logger, enabled map[string]bool) {
	if logger == nil {
		logger = zap.NewNop()
	}
	install(logger, enabled)
}

func install(logger *zap.Logger, enabled map[string]bool) {
	mu.Lock()
	defer mu.Unlock()
	base = logger
	categories = enabled
	loggers = make(map[Category]*Logger)
}

// ParseLevel maps a config level string to a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// IsCategoryEnabled reports whether a category produces output.
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabled(category)
}

func categoryEnabled(category Category) bool {
	if categories == nil {
		return true
	}
	enabled, ok := categories[string(category)]
	return !ok || enabled
}

// Get returns the logger for a category.
func Get(category Category) *Logger {
	mu.RLock()
	l, ok := loggers[category]
	mu.RUnlock()
	if ok {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l = &Logger{
		category: category,
		sugar:    base.Named(string(category)).Sugar(),
		enabled:  categoryEnabled(category),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.enabled {
		l.sugar.Debugf(format, args...)
	}
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.enabled {
		l.sugar.Infof(format, args...)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.enabled {
		l.sugar.Warnf(format, args...)
	}
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	if l.enabled {
		l.sugar.Errorf(format, args...)
	}
}

// With returns a logger that attaches key/value pairs to every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		category: l.category,
		sugar:    l.sugar.With(keysAndValues...),
		enabled:  l.enabled,
	}
}

// Zap returns the installed zap logger for callers that log structured
// fields directly.
func Zap() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Sync flushes buffered entries.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sync()
}

// =============================================================================
// Category shortcuts
// =============================================================================

func Boot(format string, args ...interface{})         { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{})    { Get(CategoryBoot).Debug(format, args...) }
func Index(format string, args ...interface{})        { Get(CategoryIndex).Info(format, args...) }
func IndexDebug(format string, args ...interface{})   { Get(CategoryIndex).Debug(format, args...) }
func ParseDebug(format string, args ...interface{})   { Get(CategoryParse).Debug(format, args...) }
func Summary(format string, args ...interface{})      { Get(CategorySummary).Info(format, args...) }
func SummaryDebug(format string, args ...interface{}) { Get(CategorySummary).Debug(format, args...) }
func Store(format string, args ...interface{})        { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{})   { Get(CategoryStore).Debug(format, args...) }
func Watch(format string, args ...interface{})        { Get(CategoryWatch).Info(format, args...) }
func WatchDebug(format string, args ...interface{})   { Get(CategoryWatch).Debug(format, args...) }
