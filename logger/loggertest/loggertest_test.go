package loggertest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/syssam/graphop/logger/loggertest"
)

func TestNew(t *testing.T) {
	l := loggertest.New(t)
	l.Debug("written to the test log", "k", "v")
	l.Error("also written")
}

func TestNewObserved(t *testing.T) {
	l, logs := loggertest.NewObserved(t, zapcore.DebugLevel)
	l.Debug("one", "k", "v")
	l.Info("two")
	l.Error("three", "err", "boom")

	require.Equal(t, 3, logs.Len())
	entries := logs.All()
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "v", entries[0].ContextMap()["k"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "boom", entries[2].ContextMap()["err"])
}

func TestNewObservedLevel(t *testing.T) {
	l, logs := loggertest.NewObserved(t, zapcore.ErrorLevel)
	l.Info("not observed")
	l.Error("observed")
	assert.Equal(t, 1, logs.FilterMessage("observed").Len())
	assert.Zero(t, logs.FilterMessage("not observed").Len())
}
