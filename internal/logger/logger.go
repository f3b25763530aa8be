// Package logger builds the zap logger shared by the whole service.
package logger

import (
	"go.uber.org/zap"
)

type Logger struct {
	Log *zap.Logger
}

// New returns a Logger that discards everything until Init is called.
func New() *Logger {
	return &Logger{
		Log: zap.NewNop(),
	}
}

// Init replaces the no-op logger with a production JSON logger at level.
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.Sampling = nil

	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	l.Log = zl.Named("shortener")
	return nil
}

// Sync flushes buffered entries. The error from syncing stderr on some
// platforms is not actionable and is dropped.
func (l *Logger) Sync() {
	_ = l.Log.Sync()
}
