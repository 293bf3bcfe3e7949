// Package server streams tile renders to a browser over Server-Sent Events.
package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/demo"
)

// Request limits
const (
	minSize     = 16
	maxSize     = 2000
	maxFrames   = 1000
	maxTileSize = 256
)

// renderers lists the renderer variants a request may name
var renderers = []string{"principled", "obj"}

// Server handles web requests for the tile raytracer
type Server struct {
	port    int
	workers int
	logger  *slog.Logger
}

// NewServer creates a new web server. workers is the pool size of every
// render (0 = use CPU count).
func NewServer(port, workers int, logger *slog.Logger) *Server {
	return &Server{port: port, workers: workers, logger: core.LoggerOrNop(logger)}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Renderer string `json:"renderer"` // "principled" or "obj"
	Scene    string `json:"scene"`    // Scene name (e.g., "checker")
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	TileSize int    `json:"tileSize"` // Power of two
	Frames   int    `json:"frames"`   // Number of accumulated frames
}

// URL returns the address the server listens on
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting web server", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the scenes and renderers with the request limits
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"scenes":    demo.Names(),
		"renderers": renderers,
		"defaults": RenderRequest{
			Renderer: renderers[0],
			Scene:    "default",
			Width:    400,
			Height:   225,
			TileSize: 32,
			Frames:   8,
		},
		"limits": map[string]any{
			"width":    map[string]int{"min": minSize, "max": maxSize},
			"height":   map[string]int{"min": minSize, "max": maxSize},
			"tileSize": map[string]int{"min": 1, "max": maxTileSize},
			"frames":   map[string]int{"min": 1, "max": maxFrames},
		},
	})
}

// parseCommonSceneParams parses the parameters shared by render and inspect requests
func (s *Server) parseCommonSceneParams(r *http.Request, req *RenderRequest) error {
	query := r.URL.Query()

	req.Renderer = query.Get("renderer")
	if req.Renderer == "" {
		req.Renderer = renderers[0]
	}
	if !slices.Contains(renderers, req.Renderer) {
		return fmt.Errorf("unknown renderer: %s", req.Renderer)
	}

	req.Scene = query.Get("scene")
	if req.Scene == "" {
		req.Scene = "default"
	}
	if !slices.Contains(demo.Names(), req.Scene) {
		return fmt.Errorf("unknown scene: %s", req.Scene)
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 400, minSize, maxSize); err != nil {
		return err
	}
	if req.Height, err = parseIntParam(query, "height", 225, minSize, maxSize); err != nil {
		return err
	}
	return nil
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, req); err != nil {
		return nil, err
	}

	var err error
	if req.TileSize, err = parseIntParam(r.URL.Query(), "tileSize", 32, 1, maxTileSize); err != nil {
		return nil, err
	}
	if req.TileSize&(req.TileSize-1) != 0 {
		return nil, fmt.Errorf("tileSize must be a power of two, got: %d", req.TileSize)
	}
	if req.Frames, err = parseIntParam(r.URL.Query(), "frames", 8, 1, maxFrames); err != nil {
		return nil, err
	}

	// Performance warning
	if req.Width*req.Height > 800*600 && req.Frames > 100 {
		s.logger.Warn("large image with many frames may render slowly",
			"width", req.Width, "height", req.Height, "frames", req.Frames)
	}
	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
