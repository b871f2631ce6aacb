// Package loggertest provides graphop loggers writing through testing.TB.
package loggertest

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/syssam/graphop"
	"github.com/syssam/graphop/logger"
)

// New returns a debug logger writing to tb.
func New(tb testing.TB) graphop.Logger {
	tb.Helper()
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000000")
	z := zap.New(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(cfg),
			zaptest.NewTestingWriter(tb),
			zapcore.DebugLevel,
		),
	)
	return logger.Sugared(z.Sugar())
}

// NewObserved returns a logger for tb whose entries at or above lvl are
// also recorded in the returned ObservedLogs.
func NewObserved(tb testing.TB, lvl zapcore.Level) (graphop.Logger, *observer.ObservedLogs) {
	tb.Helper()
	core, logs := observer.New(lvl)
	observe := zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, core)
	})
	return logger.Sugared(zaptest.NewLogger(tb, zaptest.WrapOptions(observe)).Sugar()), logs
}
