package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warning", "error"
}

// consoleHandler is a slog.Handler that forwards records to a render's web
// console and to the server's own handler
type consoleHandler struct {
	consoleChan chan<- ConsoleMessage
	level       slog.Level
	next        slog.Handler // Server log; may be nil
	attrs       []slog.Attr
	group       string
}

// NewConsoleLogger creates a logger that sends every record at or above level
// to consoleChan, dropping records when the channel is full. Records are also
// passed to next when it is not nil.
func NewConsoleLogger(consoleChan chan<- ConsoleMessage, level slog.Level, next slog.Handler) *slog.Logger {
	return slog.New(&consoleHandler{consoleChan: consoleChan, level: level, next: next})
}

func (h *consoleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level || (h.next != nil && h.next.Enabled(ctx, level))
}

func (h *consoleHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= h.level && h.consoleChan != nil {
		select {
		case h.consoleChan <- ConsoleMessage{
			Message:   h.format(record),
			Timestamp: record.Time,
			Level:     consoleLevel(record.Level),
		}:
		default:
			// Channel full, skip (don't block)
		}
	}
	if h.next != nil && h.next.Enabled(ctx, record.Level) {
		return h.next.Handle(ctx, record)
	}
	return nil
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(clone.attrs[:len(clone.attrs):len(clone.attrs)], h.qualify(attrs)...)
	if h.next != nil {
		clone.next = h.next.WithAttrs(attrs)
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = h.group + name + "."
	if h.next != nil {
		clone.next = h.next.WithGroup(name)
	}
	return &clone
}

// qualify prefixes attribute keys with the current group
func (h *consoleHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.group + a.Key, Value: a.Value}
	}
	return out
}

// format renders the message followed by its attributes as key=value pairs
func (h *consoleHandler) format(record slog.Record) string {
	var b strings.Builder
	b.WriteString(record.Message)
	write := func(a slog.Attr) {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Resolve())
	}
	for _, a := range h.attrs {
		write(a)
	}
	record.Attrs(func(a slog.Attr) bool {
		write(slog.Attr{Key: h.group + a.Key, Value: a.Value})
		return true
	})
	return b.String()
}

func consoleLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warning"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
