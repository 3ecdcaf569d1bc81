// Package ftllog provides the shared structured logger used across the FTL
// core. It is a thin wrapper around a package-level logrus.Logger so the
// orchestrator's allocator, GC, and flash layer can all log with consistent fields
// without each owning their own logger instance.
package ftllog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the package-wide logger. Tests may swap its output or level; the
// simulator leaves it at Info by default so GC activity is visible without
// drowning out a multi-million-op run.
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: false,
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel adjusts the shared logger's verbosity, e.g. to logrus.WarnLevel
// for large synthetic benchmarks where per-round GC lines are just noise.
func SetLevel(level logrus.Level) {
	Log.SetLevel(level)
}

// WithField is a convenience wrapper returning an entry seeded with one field.
func WithField(key string, value interface{}) *logrus.Entry {
	return Log.WithField(key, value)
}
