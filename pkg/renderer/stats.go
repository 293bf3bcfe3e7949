package renderer

import "time"

// TileStats counts what happened while shading one tile
type TileStats struct {
	Pixels        int
	Hits          int // Camera rays that hit a surface
	Misses        int // Camera rays that escaped to the background
	TraceFailures int // Camera rays the tracer rejected
	ShadeFailures int // Hits whose shading panicked; the pixel shows the background
}

// Add accumulates other into s
func (s *TileStats) Add(other TileStats) {
	s.Pixels += other.Pixels
	s.Hits += other.Hits
	s.Misses += other.Misses
	s.TraceFailures += other.TraceFailures
	s.ShadeFailures += other.ShadeFailures
}

// FrameStats contains statistics about one dispatched frame
type FrameStats struct {
	Tiles           int // Tiles in the frame
	TilesDispatched int // Tiles handed to the pool
	TilesCompleted  int // Tiles a worker shaded without fault
	TilesSkipped    int // Tiles not started because the frame was cancelled
	TilesFaulted    int // Tiles whose shading failed or panicked
	TileStats
	Duration time.Duration
}
