package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)
	return &Logger{SugaredLogger: base.Sugar(), base: base}, logs
}

func TestProviderError(t *testing.T) {
	log, logs := newObserved()

	log.ProviderError("lxd", "connect", errors.New("tls: bad certificate"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "lxd", fields["provider"])
	assert.Equal(t, "connect", fields["operation"])
	assert.Equal(t, "tls: bad certificate", fields["error"])
}

func TestNodeActionLevel(t *testing.T) {
	log, logs := newObserved()

	log.NodeAction("start", "c1", "n1", true)
	log.NodeAction("stop", "c1", "n1", false)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "stop", entries[1].ContextMap()["action"])
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	log := NewLogger("verbose", "json")
	assert.True(t, log.Zap().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Zap().Core().Enabled(zapcore.DebugLevel))
}
