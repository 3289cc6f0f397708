// Package logging provides config-driven categorized logging for beeno.
// Logs are written to .beeno/logs/beeno.log through zap, one named logger per category.
// Logging is controlled by debug_mode - when false, nothing is written unless the
// console sink has been enabled with --verbose.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem
type Category string

const (
	CategoryBoot       Category = "boot"       // Startup, config resolution
	CategoryPerception Category = "perception" // Classification and translation
	CategoryPolicy     Category = "policy"     // Risk analysis, syntax gate
	CategoryContext    Category = "context"    // Session summary updates
	CategoryCore       Category = "core"       // Orchestration, tagged-block rewriting
	CategoryTactile    Category = "tactile"    // Permission checks, one-shot execution
	CategoryServer     Category = "server"     // Dev server lifecycle
	CategoryWatch      Category = "watch"      // Source file watching
	CategoryStore      Category = "store"      // Audit journal
)

// Config mirrors config.LoggingConfig to avoid an import cycle.
type Config struct {
	DebugMode  bool
	Level      string
	JSONFormat bool
	Categories map[string]bool
}

// Logger is a category-scoped view over the shared zap core.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu        sync.RWMutex
	cfg       Config
	root      = zap.NewNop()
	logFile   *os.File
	logsDir   string
	console   bool
	loggers   = make(map[Category]*Logger)
	noopSugar = zap.NewNop().Sugar()
)

// Initialize sets up file logging under <workspace>/.beeno/logs.
// Should be called once at startup; calling it again replaces the previous sinks.
func Initialize(workspace string, c Config) error {
	if workspace == "" {
		return fmt.Errorf("workspace path required")
	}

	CloseAll()

	mu.Lock()
	cfg = c
	if !c.DebugMode {
		mu.Unlock()
		return nil
	}

	dir := filepath.Join(workspace, ".beeno", "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		mu.Unlock()
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "beeno.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		mu.Unlock()
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	logsDir = dir

	var enc zapcore.Encoder
	if c.JSONFormat {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewConsoleEncoder(ec)
	}
	fileCore := zapcore.NewCore(enc, zapcore.AddSync(f), parseLevel(c.Level))
	root = zap.New(zapcore.NewTee(root.Core(), fileCore))
	mu.Unlock()

	boot := Get(CategoryBoot)
	boot.Info("=== beeno logging initialized ===")
	boot.Info("Workspace: %s", workspace)
	boot.Info("Logs directory: %s", dir)
	boot.Info("Log level: %s", c.Level)
	return nil
}

// EnableConsole tees a human-readable stderr sink into every category logger.
func EnableConsole(level string) error {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(parseLevel(level))
	zc.DisableStacktrace = true
	l, err := zc.Build()
	if err != nil {
		return fmt.Errorf("build console logger: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	root = zap.New(zapcore.NewTee(root.Core(), l.Core()))
	console = true
	loggers = make(map[Category]*Logger)
	return nil
}

func parseLevel(s string) zapcore.Level {
	if s == "warning" {
		return zapcore.WarnLevel
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// IsDebugMode returns whether file logging is enabled
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return cfg.DebugMode
}

// LogsDir returns the active log directory, or "" when file logging is off.
func LogsDir() string {
	mu.RLock()
	defer mu.RUnlock()
	return logsDir
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabledLocked(category)
}

func categoryEnabledLocked(category Category) bool {
	if !cfg.DebugMode && !console {
		return false
	}
	if cfg.Categories == nil {
		return true
	}
	enabled, exists := cfg.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if logging is off or the category is disabled.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	enabled := categoryEnabledLocked(category)
	mu.RUnlock()

	if !enabled {
		return &Logger{category: category, sugar: noopSugar}
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := &Logger{category: category, sugar: root.Named(string(category)).Sugar()}
	loggers[category] = l
	return l
}

// With returns a child logger carrying structured key/value fields.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// CloseAll flushes and closes all sinks and resets to no-op logging.
func CloseAll() {
	mu.Lock()
	defer mu.Unlock()
	_ = root.Sync()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	root = zap.NewNop()
	logsDir = ""
	console = false
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// CONVENIENCE FUNCTIONS
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }
func BootWarn(format string, args ...interface{})  { Get(CategoryBoot).Warn(format, args...) }

func Perception(format string, args ...interface{}) { Get(CategoryPerception).Info(format, args...) }
func PerceptionDebug(format string, args ...interface{}) {
	Get(CategoryPerception).Debug(format, args...)
}
func PerceptionWarn(format string, args ...interface{}) {
	Get(CategoryPerception).Warn(format, args...)
}
func PerceptionError(format string, args ...interface{}) {
	Get(CategoryPerception).Error(format, args...)
}

func Policy(format string, args ...interface{})      { Get(CategoryPolicy).Info(format, args...) }
func PolicyDebug(format string, args ...interface{}) { Get(CategoryPolicy).Debug(format, args...) }
func PolicyWarn(format string, args ...interface{})  { Get(CategoryPolicy).Warn(format, args...) }

func ContextDebug(format string, args ...interface{}) { Get(CategoryContext).Debug(format, args...) }

func Core(format string, args ...interface{})      { Get(CategoryCore).Info(format, args...) }
func CoreDebug(format string, args ...interface{}) { Get(CategoryCore).Debug(format, args...) }
func CoreWarn(format string, args ...interface{})  { Get(CategoryCore).Warn(format, args...) }

func Tactile(format string, args ...interface{})      { Get(CategoryTactile).Info(format, args...) }
func TactileDebug(format string, args ...interface{}) { Get(CategoryTactile).Debug(format, args...) }
func TactileWarn(format string, args ...interface{})  { Get(CategoryTactile).Warn(format, args...) }
func TactileError(format string, args ...interface{}) { Get(CategoryTactile).Error(format, args...) }

func Server(format string, args ...interface{})      { Get(CategoryServer).Info(format, args...) }
func ServerDebug(format string, args ...interface{}) { Get(CategoryServer).Debug(format, args...) }
func ServerWarn(format string, args ...interface{})  { Get(CategoryServer).Warn(format, args...) }

func Watch(format string, args ...interface{})      { Get(CategoryWatch).Info(format, args...) }
func WatchDebug(format string, args ...interface{}) { Get(CategoryWatch).Debug(format, args...) }
func WatchWarn(format string, args ...interface{})  { Get(CategoryWatch).Warn(format, args...) }

func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }
func StoreError(format string, args ...interface{}) { Get(CategoryStore).Error(format, args...) }

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning if the duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
