package server

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan ConsoleMessage) ConsoleMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for console message")
		return ConsoleMessage{}
	}
}

func TestConsoleLogger_BasicLogging(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewConsoleLogger(messageChan, slog.LevelInfo, nil)

	logger.Info("frame finished", "frame", 3, "hits", 120)

	msg := receive(t, messageChan)
	assert.Equal(t, "frame finished frame=3 hits=120", msg.Message)
	assert.Equal(t, "info", msg.Level)
	assert.WithinDuration(t, time.Now(), msg.Timestamp, time.Second)
}

func TestConsoleLogger_Levels(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewConsoleLogger(messageChan, slog.LevelInfo, nil)

	logger.Debug("hidden")
	logger.Warn("skipped lights")
	logger.Error("worker fault")

	assert.Equal(t, "warning", receive(t, messageChan).Level)
	assert.Equal(t, "error", receive(t, messageChan).Level)
	assert.Empty(t, messageChan, "debug is below the console level")
}

func TestConsoleLogger_AttrsAndGroups(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewConsoleLogger(messageChan, slog.LevelInfo, nil).
		With("renderer", "obj").
		WithGroup("tile").
		With("id", 7)

	logger.Info("shaded", "pixels", 64)

	assert.Equal(t, "shaded renderer=obj tile.id=7 tile.pixels=64", receive(t, messageChan).Message)
}

func TestConsoleLogger_ChannelFull(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 1)
	logger := NewConsoleLogger(messageChan, slog.LevelInfo, nil)

	// Must not block once the channel is full
	logger.Info("message 1")
	logger.Info("message 2")
	logger.Info("message 3")

	assert.Equal(t, "message 1", receive(t, messageChan).Message)
	assert.Empty(t, messageChan)
}

func TestConsoleLogger_NilChannel(t *testing.T) {
	logger := NewConsoleLogger(nil, slog.LevelInfo, nil)
	assert.NotPanics(t, func() { logger.Info("nobody listening") })
}

func TestConsoleLogger_ForwardsToNext(t *testing.T) {
	var buf bytes.Buffer
	next := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewConsoleLogger(messageChan, slog.LevelWarn, next)

	logger.Debug("server only", "k", "v")
	logger.Warn("both")

	require.Equal(t, "both", receive(t, messageChan).Message)
	assert.Empty(t, messageChan)
	assert.Contains(t, buf.String(), "server only")
	assert.Contains(t, buf.String(), "k=v")
	assert.Contains(t, buf.String(), "both")
}
