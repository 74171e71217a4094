package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.SugaredLogger
	base *zap.Logger
}

func NewLogger(level, format string) *Logger {
	// level
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		lvl = zapcore.InfoLevel
	}

	// format
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	// output
	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), lvl)
	base := zap.New(core, zap.AddCaller())

	return &Logger{SugaredLogger: base.Sugar(), base: base}
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() *Logger {
	base := zap.NewNop()
	return &Logger{SugaredLogger: base.Sugar(), base: base}
}

func (l *Logger) Zap() *zap.Logger {
	return l.base
}

func (l *Logger) ConnectionAttempt(providerType, connectionID string) {
	l.With(
		"type", "cloud_connection",
		"provider", providerType,
		"connection_id", connectionID,
	).Info("connecting to provider")
}

func (l *Logger) ProviderError(providerType, operation string, err error) {
	l.With(
		"type", "provider",
		"provider", providerType,
		"operation", operation,
		"error", err.Error(),
	).Error("provider operation failed")
}

func (l *Logger) NodeAction(action, connectionID, nodeID string, ok bool) {
	entry := l.With(
		"type", "node_action",
		"action", action,
		"connection_id", connectionID,
		"node_id", nodeID,
	)
	if ok {
		entry.Info("node action succeeded")
		return
	}
	entry.Warn("node action failed")
}
