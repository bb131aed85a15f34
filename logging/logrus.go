// Package logging backs the edu Logger interface with logrus.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/goliatone/go-edu"
	"github.com/sirupsen/logrus"
)

// Config holds logger configuration
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output io.Writer
}

// Provider hands out named loggers sharing one logrus instance.
type Provider struct {
	root *logrus.Logger
}

var _ edu.LoggerProvider = (*Provider)(nil)

// NewProvider builds a logrus logger. Unknown levels fall back to info,
// format "json" selects the JSON formatter and anything else text.
func NewProvider(cfg Config) *Provider {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	if cfg.Output != nil {
		logger.SetOutput(cfg.Output)
	} else {
		logger.SetOutput(os.Stdout)
	}

	return &Provider{root: logger}
}

// Logrus exposes the underlying logger.
func (p *Provider) Logrus() *logrus.Logger {
	return p.root
}

// GetLogger returns a logger tagging every entry with component=name.
func (p *Provider) GetLogger(name string) edu.Logger {
	return &Logger{entry: p.root.WithField("component", name)}
}

// Logger adapts a logrus entry to edu.Logger
type Logger struct {
	entry *logrus.Entry
}

var _ edu.Logger = (*Logger)(nil)

func (l *Logger) Debug(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...any) { l.entry.Errorf(format, args...) }

// With returns a logger carrying an extra field.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}
