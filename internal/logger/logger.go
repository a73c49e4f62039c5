// Package logger holds the shared logrus logger.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. main replaces its level from config.
var Log = New("info")

// New creates a text logger writing to stderr. Unknown levels fall back to info.
func New(level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	SetLevel(l, level)
	return l
}

// SetLevel parses level and applies it, keeping info on parse errors.
func SetLevel(l *logrus.Logger, level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		l.WithField("level", level).Warn("Unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
}

// Component returns an entry tagged with the component name.
func Component(l *logrus.Logger, name string) *logrus.Entry {
	if l == nil {
		l = Log
	}
	return l.WithField("component", name)
}
