package observability

import (
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// LoggerConfig contains logger configuration
type LoggerConfig struct {
	Level LogLevel
	// Output defaults to stderr so that reports written to stdout stay clean.
	Output   io.Writer
	Encoding string // "json" or "console"
	Service  string
	Version  string
}

// Logger is a structured logger backed by zap.
type Logger struct {
	base  *zap.Logger
	level zap.AtomicLevel
}

// NewLogger creates a new logger instance
func NewLogger(config LoggerConfig) *Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if config.Encoding == "console" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	level := zap.NewAtomicLevelAt(config.Level.zapLevel())
	core := zapcore.NewCore(encoder, zapcore.AddSync(config.Output), level)
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	if config.Service != "" {
		base = base.With(zap.String("service", config.Service))
	}
	if config.Version != "" {
		base = base.With(zap.String("version", config.Version))
	}

	return &Logger{base: base, level: level}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{base: zap.NewNop(), level: zap.NewAtomicLevel()}
}

// WithField returns a child logger carrying key=value on every entry.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{base: l.base.With(zap.Any(key, value)), level: l.level}
}

// WithFields returns a child logger carrying all of fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{base: l.base.With(toZapFields(fields)...), level: l.level}
}

func toZapFields(fields map[string]interface{}) []zap.Field {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

func (l *Logger) Debug(msg string) {
	l.base.Debug(msg)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.base.Sugar().Debugf(format, args...)
}

func (l *Logger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.base.Debug(msg, toZapFields(fields)...)
}

func (l *Logger) Info(msg string) {
	l.base.Info(msg)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.base.Sugar().Infof(format, args...)
}

func (l *Logger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.base.Info(msg, toZapFields(fields)...)
}

func (l *Logger) Warn(msg string) {
	l.base.Warn(msg)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.base.Sugar().Warnf(format, args...)
}

func (l *Logger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.base.Warn(msg, toZapFields(fields)...)
}

func (l *Logger) Error(msg string) {
	l.base.Error(msg)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.base.Sugar().Errorf(format, args...)
}

func (l *Logger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.base.Error(msg, toZapFields(fields)...)
}

// SetLevel changes the minimum level for this logger and all of its children.
func (l *Logger) SetLevel(level LogLevel) {
	l.level.SetLevel(level.zapLevel())
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.base.Sync()
}

// Zap exposes the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	return l.base
}

// LogLevelFromString converts a string to LogLevel
func LogLevelFromString(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

var (
	defaultLogger *Logger
	defaultMu     sync.RWMutex
)

// SetDefaultLogger sets the default logger instance
func SetDefaultLogger(logger *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// GetDefaultLogger returns the default logger, creating an info-level one on first use.
func GetDefaultLogger() *Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(LoggerConfig{Level: InfoLevel, Encoding: "console", Service: "flarewatch"})
	}
	return defaultLogger
}
