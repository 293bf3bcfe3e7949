package renderer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// ErrSchedulerClosed is returned by Dispatch after Close
var ErrSchedulerClosed = errors.New("scheduler closed")

// WorkerFault reports a tile whose shading failed or panicked. Sibling
// tiles are unaffected; the faulted tile is filled with the background.
type WorkerFault struct {
	TileID   int
	WorkerID int
	Err      error
}

func (f *WorkerFault) Error() string {
	return fmt.Sprintf("tile %d (worker %d): %v", f.TileID, f.WorkerID, f.Err)
}

func (f *WorkerFault) Unwrap() error { return f.Err }

// Scheduler dispatches the tiles of a render job to a worker pool
type Scheduler struct {
	pool   *WorkerPool
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewScheduler creates a scheduler and starts its workers. numWorkers <= 0
// uses the CPU count.
func NewScheduler(numWorkers int, logger *slog.Logger) *Scheduler {
	logger = core.LoggerOrNop(logger)
	pool := NewWorkerPool(numWorkers, logger)
	pool.Start()
	return &Scheduler{pool: pool, logger: logger}
}

// NumWorkers returns the size of the worker pool
func (s *Scheduler) NumWorkers() int {
	return s.pool.NumWorkers()
}

// Dispatch shades every tile of job and blocks until all dispatched tiles
// have returned. No tile starts once ctx is cancelled; tiles already running
// finish. If any tile was skipped the error includes ctx.Err(). Worker
// faults are returned joined as *WorkerFault errors.
func (s *Scheduler) Dispatch(ctx context.Context, job *RenderJob, shader TileShader) (FrameStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return FrameStats{}, ErrSchedulerClosed
	}

	start := time.Now()
	stats := FrameStats{Tiles: len(job.Tiles)}
	results := make(chan tileResult, len(job.Tiles))

	// Submit tiles until cancelled
	for _, tile := range job.Tiles {
		if ctx.Err() != nil {
			break
		}
		s.pool.Submit(tileTask{ctx: ctx, job: job, shader: shader, tile: tile, results: results})
		stats.TilesDispatched++
	}

	// Barrier: one result per dispatched tile
	var faults []error
	for i := 0; i < stats.TilesDispatched; i++ {
		result := <-results
		stats.TileStats.Add(result.stats)

		switch {
		case result.skipped:
			stats.TilesSkipped++
		case result.err != nil:
			stats.TilesFaulted++
			faults = append(faults, result.err)
			s.logger.Error("tile faulted", "job", job.ID, "tile", result.tileID, "error", result.err)
		default:
			stats.TilesCompleted++
		}
	}
	stats.TilesSkipped += stats.Tiles - stats.TilesDispatched
	stats.Duration = time.Since(start)

	// Only an incomplete frame reports the cancellation
	if stats.TilesSkipped > 0 {
		return stats, errors.Join(append([]error{ctx.Err()}, faults...)...)
	}
	return stats, errors.Join(faults...)
}

// Close stops the workers. Dispatches in progress finish first.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.pool.Stop()
}
