package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

var (
	currentLevel LogLevel
	levelOnce    sync.Once

	loggerMu sync.RWMutex
	base     *zap.Logger
	sugar    *zap.SugaredLogger
	// printer backs Printf. It never filters below info, whatever LOG_LEVEL says.
	printer *zap.SugaredLogger
)

// initLevel initializes the log level from environment variables
func initLevel() {
	levelOnce.Do(func() {
		// Check DEBUG environment variable first
		if debug := os.Getenv("DEBUG"); debug != "" {
			switch strings.ToLower(debug) {
			case "1", "true", "yes", "on":
				currentLevel = LevelDebug
				return
			}
		}

		currentLevel = ParseLevel(os.Getenv("LOG_LEVEL"))
	})
}

// ParseLevel converts a level name to a LogLevel. Unknown names map to LevelInfo.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	initLevel()
	return currentLevel
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

// ResolveFormat maps "auto" to "console" when fd is a terminal and to
// "json" otherwise. Other values are returned lower-cased.
func ResolveFormat(format string, fd int) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "auto" {
		return format
	}
	if term.IsTerminal(fd) {
		return "console"
	}
	return "json"
}

// Init builds the process logger. format is "json", "console" or "auto".
// It overrides any level derived from the environment.
func Init(level LogLevel, format string) error {
	return initLogger(level, format)
}

func initLogger(level LogLevel, format string, opts ...zap.Option) error {
	initLevel()

	cfg := zap.NewProductionConfig()
	if ResolveFormat(format, int(os.Stderr.Fd())) == "console" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level.zapLevel())
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(opts...)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	p := l
	if level > LevelInfo {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		if p, err = cfg.Build(opts...); err != nil {
			return fmt.Errorf("failed to build access logger: %w", err)
		}
	}

	currentLevel = level
	setLoggers(l, p)
	return nil
}

// SetLogger replaces the backing zap logger. Tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) {
	setLoggers(l, l)
}

func setLoggers(l, p *zap.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	base = l
	sugar = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
	printer = p.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Sync flushes buffered log entries.
func Sync() {
	loggerMu.RLock()
	l := base
	loggerMu.RUnlock()
	if l != nil {
		_ = l.Sync()
	}
}

func logger() *zap.SugaredLogger {
	loggerMu.RLock()
	s := sugar
	loggerMu.RUnlock()
	if s != nil {
		return s
	}

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if sugar == nil {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(GetLevel().zapLevel())
		cfg.DisableStacktrace = true
		l, err := cfg.Build()
		if err != nil {
			l = zap.NewNop()
		}
		p := l
		if GetLevel() > LevelInfo {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
			if p, err = cfg.Build(); err != nil {
				p = zap.NewNop()
			}
		}
		base = l
		sugar = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
		printer = p.WithOptions(zap.AddCallerSkip(1)).Sugar()
	}
	return sugar
}

func printLogger() *zap.SugaredLogger {
	logger()
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return printer
}

// With returns a structured logger carrying the given key/value pairs.
func With(keysAndValues ...interface{}) *zap.SugaredLogger {
	logger()
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return base.Sugar().With(keysAndValues...)
}

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug)
func Debug(format string, args ...interface{}) {
	if GetLevel() <= LevelDebug {
		logger().Debugf(format, args...)
	}
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	if GetLevel() <= LevelInfo {
		logger().Infof(format, args...)
	}
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	if GetLevel() <= LevelWarn {
		logger().Warnf(format, args...)
	}
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	if GetLevel() <= LevelError {
		logger().Errorf(format, args...)
	}
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	logger().Fatalf(format, args...)
}

// Printf logs at info level without the LOG_LEVEL gate. Access logs and
// the startup route listing use it.
func Printf(format string, args ...interface{}) {
	printLogger().Infof(format, args...)
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
