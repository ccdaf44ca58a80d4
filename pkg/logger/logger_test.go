package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	log := New("debug", "json")
	require.NotNil(t, log)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log = New("not-a-level", "console")
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestContextLogger_WithContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cl := NewContextLogger(zap.New(core))

	ctx := WithRequestID(context.Background(), "req_1")
	ctx = WithUserID(ctx, "user-42")

	cl.WithContext(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req_1", fields["request_id"])
	assert.Equal(t, "user-42", fields["user_id"])
	assert.Equal(t, "req_1", RequestIDFromContext(ctx))
}

func TestContextLogger_LogRequestLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cl := NewContextLogger(zap.New(core))
	ctx := context.Background()

	cl.LogRequest(ctx, "GET", "/cameras", 200, 3)
	cl.LogRequest(ctx, "GET", "/cameras", 401, 1)
	cl.LogRequest(ctx, "POST", "/alerts", 500, 9)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestContextLogger_LogError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cl := NewContextLogger(zap.New(core))

	cl.LogError(context.Background(), errors.New("boom"), "store failed", zap.String("op", "create"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "store failed", entry.Message)
	assert.Equal(t, "boom", entry.ContextMap()["error"])
	assert.Equal(t, "create", entry.ContextMap()["op"])
}
