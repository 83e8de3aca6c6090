package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the logging interface
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
	With(key string, value interface{}) Logger
	WithError(err error) Logger
	Sync() error
}

// logger implements the Logger interface on top of zap
type logger struct {
	sugar *zap.SugaredLogger
}

// Options controls how the zap backend is built
type Options struct {
	Environment string // production switches to the production encoder config
	Level       string
	Format      string // json, console
}

// New creates a new logger instance for the given level
func New(level string) Logger {
	l, err := NewWithOptions(Options{Level: level, Format: "console"})
	if err != nil {
		return NewNop()
	}
	return l
}

// NewWithOptions builds a zap backed logger
func NewWithOptions(opts Options) (Logger, error) {
	var config zap.Config

	if opts.Environment == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.DisableStacktrace = true
		config.Sampling = &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		}
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.Level = zap.NewAtomicLevelAt(parseLevel(opts.Level))

	if opts.Format == "json" {
		config.Encoding = "json"
		config.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	} else {
		config.Encoding = "console"
	}

	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	base, err := config.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &logger{sugar: base.Sugar()}, nil
}

// NewNop returns a logger that discards everything
func NewNop() Logger {
	return &logger{sugar: zap.NewNop().Sugar()}
}

// FromZap wraps an existing zap logger
func FromZap(z *zap.Logger) Logger {
	return &logger{sugar: z.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *logger) Debug(msg string, args ...interface{}) {
	l.sugar.Debugf(msg, args...)
}

func (l *logger) Info(msg string, args ...interface{}) {
	l.sugar.Infof(msg, args...)
}

func (l *logger) Warn(msg string, args ...interface{}) {
	l.sugar.Warnf(msg, args...)
}

func (l *logger) Error(msg string, args ...interface{}) {
	l.sugar.Errorf(msg, args...)
}

// Fatal logs a fatal message and exits
func (l *logger) Fatal(msg string, args ...interface{}) {
	l.sugar.Fatalf(msg, args...)
}

// With adds a key-value pair to the logger context
func (l *logger) With(key string, value interface{}) Logger {
	return &logger{sugar: l.sugar.With(key, value)}
}

// WithError adds an error to the logger context
func (l *logger) WithError(err error) Logger {
	return &logger{sugar: l.sugar.With(zap.Error(err))}
}

// Sync flushes buffered entries
func (l *logger) Sync() error {
	return l.sugar.Sync()
}

// Global logger instance
var globalLogger Logger = NewNop()

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(l Logger) {
	globalLogger = l
}

// Get returns the global logger
func Get() Logger {
	return globalLogger
}

// Debug logs a debug message using the global logger
func Debug(msg string, args ...interface{}) {
	globalLogger.Debug(msg, args...)
}

// Info logs an info message using the global logger
func Info(msg string, args ...interface{}) {
	globalLogger.Info(msg, args...)
}

// Warn logs a warning message using the global logger
func Warn(msg string, args ...interface{}) {
	globalLogger.Warn(msg, args...)
}

// Error logs an error message using the global logger
func Error(msg string, args ...interface{}) {
	globalLogger.Error(msg, args...)
}

// Fatal logs a fatal message using the global logger and exits
func Fatal(msg string, args ...interface{}) {
	globalLogger.Fatal(msg, args...)
}
