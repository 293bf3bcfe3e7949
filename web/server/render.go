package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/df07/go-tile-raytracer/pkg/demo"
	"github.com/df07/go-tile-raytracer/pkg/renderer"
)

// FrameUpdate represents one accumulated frame sent via SSE
type FrameUpdate struct {
	Frame       int        `json:"frame"` // 1-based
	TotalFrames int        `json:"totalFrames"`
	ImageData   string     `json:"imageData"` // Base64 encoded PNG of the accumulated image
	Stats       FrameStats `json:"stats"`
	IsComplete  bool       `json:"isComplete"`
	ElapsedMs   int64      `json:"elapsedMs"`
}

// FrameStats represents the statistics of one frame
type FrameStats struct {
	Tiles         int   `json:"tiles"`
	TilesFaulted  int   `json:"tilesFaulted"`
	Pixels        int   `json:"pixels"`
	Hits          int   `json:"hits"`
	Misses        int   `json:"misses"`
	TraceFailures int   `json:"traceFailures"`
	ShadeFailures int   `json:"shadeFailures"`
	DurationMs    int64 `json:"durationMs"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "frame", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// handleRender renders the requested frames and streams each accumulated
// image via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	ctx := r.Context()

	// A single writer goroutine owns w; it drains events until they are closed
	events := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(ctx, w, events)
	}()
	defer func() {
		close(events)
		<-writerDone
	}()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		events <- SSEEvent{Type: "error", Data: fmt.Sprintf("Invalid request: %v", err)}
		return
	}

	// Renderer logs go to the browser console as well as the server log
	consoleChan := make(chan ConsoleMessage, 50)
	stopConsole := make(chan struct{})
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(consoleChan, stopConsole, events)
	}()
	defer func() {
		close(stopConsole)
		<-consoleDone
	}()
	logger := NewConsoleLogger(consoleChan, slog.LevelInfo, s.logger.Handler())

	raytracer, err := demo.New(req.Renderer, demo.Options{Scene: req.Scene}, renderer.Config{
		NumWorkers: s.workers,
		Logger:     logger,
	})
	if err != nil {
		events <- SSEEvent{Type: "error", Data: err.Error()}
		return
	}
	defer raytracer.Close()

	fb, err := renderer.NewFramebuffer(req.Width, req.Height, req.TileSize)
	if err != nil {
		events <- SSEEvent{Type: "error", Data: err.Error()}
		return
	}

	if err := s.renderFrames(ctx, raytracer, fb, req, events); err != nil {
		events <- SSEEvent{Type: "error", Data: fmt.Sprintf("Rendering failed: %v", err)}
		return
	}
	events <- SSEEvent{Type: "complete", Data: "Rendering completed"}
}

// renderFrames accumulates req.Frames frames into fb, sending an update after
// each. Worker faults are reported but do not stop the render.
func (s *Server) renderFrames(ctx context.Context, r *renderer.Renderer, fb *renderer.Framebuffer, req *RenderRequest, events chan<- SSEEvent) error {
	startTime := time.Now()
	for frame := 0; frame < req.Frames; frame++ {
		stats, err := r.RenderFrame(ctx, fb)
		if ctx.Err() != nil {
			// Client disconnected
			return ctx.Err()
		}
		if err != nil {
			events <- SSEEvent{Type: "error", Data: fmt.Sprintf("Frame %d: %v", frame+1, err)}
		}

		imageData, err := imageToBase64PNG(fb.Image())
		if err != nil {
			return fmt.Errorf("failed to encode image: %w", err)
		}

		data, err := json.Marshal(FrameUpdate{
			Frame:       frame + 1,
			TotalFrames: req.Frames,
			ImageData:   imageData,
			Stats: FrameStats{
				Tiles:         stats.Tiles,
				TilesFaulted:  stats.TilesFaulted,
				Pixels:        stats.Pixels,
				Hits:          stats.Hits,
				Misses:        stats.Misses,
				TraceFailures: stats.TraceFailures,
				ShadeFailures: stats.ShadeFailures,
				DurationMs:    stats.Duration.Milliseconds(),
			},
			IsComplete: frame == req.Frames-1,
			ElapsedMs:  time.Since(startTime).Milliseconds(),
		})
		if err != nil {
			return err
		}
		events <- SSEEvent{Type: "frame", Data: string(data)}
	}
	return nil
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents writes events until the channel is closed. After the client
// disconnects events are still drained so senders never block.
func (s *Server) writeSSEEvents(ctx context.Context, w http.ResponseWriter, events <-chan SSEEvent) {
	flusher, _ := w.(http.Flusher)
	for event := range events {
		if ctx.Err() != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			continue
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// streamConsoleMessages forwards console messages as SSE events until stop is
// closed, then forwards whatever is still queued
func (s *Server) streamConsoleMessages(consoleChan <-chan ConsoleMessage, stop <-chan struct{}, events chan<- SSEEvent) {
	send := func(msg ConsoleMessage) {
		data, err := json.Marshal(msg)
		if err != nil {
			s.logger.Warn("marshal console message", "error", err)
			return
		}
		select {
		case events <- SSEEvent{Type: "console", Data: string(data)}:
		default:
			// Channel full, skip message to avoid blocking
		}
	}

	for {
		select {
		case msg := <-consoleChan:
			send(msg)
		case <-stop:
			for {
				select {
				case msg := <-consoleChan:
					send(msg)
				default:
					return
				}
			}
		}
	}
}
