package log

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Logger defines the logging interface used by the authenticator, transport and CLI.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// Config selects the level and output format of a logger.
type Config struct {
	Level  string `enum:"trace,debug,info,warn,error" default:"info" env:"LOG_LEVEL" help:"Log level. One of: [trace, debug, info, warn, error]"`
	Format string `enum:"text,json" default:"text" env:"LOG_FORMAT" help:"Log format. One of: [text, json]"`
}

// DefaultLogger is a Logger backed by a logrus entry.
type DefaultLogger struct {
	entry *logrus.Entry
}

// NewDefaultLogger creates a text logger at info level writing to stderr.
func NewDefaultLogger() *DefaultLogger {
	return New(Config{Level: "info", Format: FormatText})
}

// NewLoggerWithLevel creates a text logger with the given level, falling back to info.
func NewLoggerWithLevel(level string) *DefaultLogger {
	return New(Config{Level: level, Format: FormatText})
}

// New builds a logger from cfg. Unknown levels fall back to info, unknown formats to text.
func New(cfg Config) *DefaultLogger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	switch strings.ToLower(cfg.Format) {
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	lvl, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return &DefaultLogger{entry: logrus.NewEntry(logger)}
}

// NewNopLogger returns a logger that discards everything. Used by tests and
// by constructors that receive a nil logger.
func NewNopLogger() *DefaultLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &DefaultLogger{entry: logrus.NewEntry(logger)}
}

func (l *DefaultLogger) Debug(args ...interface{}) {
	l.entry.Debug(args...)
}

func (l *DefaultLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *DefaultLogger) Info(args ...interface{}) {
	l.entry.Info(args...)
}

func (l *DefaultLogger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *DefaultLogger) Warn(args ...interface{}) {
	l.entry.Warn(args...)
}

func (l *DefaultLogger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *DefaultLogger) Error(args ...interface{}) {
	l.entry.Error(args...)
}

func (l *DefaultLogger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// WithField returns a child logger that adds key=value to every entry.
func (l *DefaultLogger) WithField(key string, value interface{}) Logger {
	return &DefaultLogger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a child logger carrying all of fields.
func (l *DefaultLogger) WithFields(fields map[string]interface{}) Logger {
	if len(fields) == 0 {
		return l
	}
	return &DefaultLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// SetLevel changes the level of the underlying logger; invalid levels are ignored.
func (l *DefaultLogger) SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return
	}
	l.entry.Logger.SetLevel(lvl)
}

// GetLogrus returns the underlying logrus logger for advanced configuration.
func (l *DefaultLogger) GetLogrus() *logrus.Logger {
	return l.entry.Logger
}
