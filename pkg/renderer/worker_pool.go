package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sync"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// WorkerContext is the per-worker state handed to a TileShader. Random is
// re-seeded for every tile from the tile and frame, so output does not
// depend on which worker shades a tile. Sampler draws from Random.
type WorkerContext struct {
	WorkerID int
	Random   *rand.Rand
	Sampler  core.Sampler
	Logger   *slog.Logger
	Stats    TileStats // Reset before every tile
}

// TileShader shades every pixel of a tile. Implementations read only from
// the job and write only to the tile.
type TileShader interface {
	ShadeTile(wc *WorkerContext, job *RenderJob, tile *Tile) error
}

// TileShaderFunc adapts a function to TileShader
type TileShaderFunc func(wc *WorkerContext, job *RenderJob, tile *Tile) error

// ShadeTile implements TileShader
func (f TileShaderFunc) ShadeTile(wc *WorkerContext, job *RenderJob, tile *Tile) error {
	return f(wc, job, tile)
}

// tileTask represents one tile of one dispatched frame
type tileTask struct {
	ctx     context.Context
	job     *RenderJob
	shader  TileShader
	tile    *Tile
	results chan<- tileResult
}

// tileResult contains the outcome of a tile task
type tileResult struct {
	tileID  int
	skipped bool
	stats   TileStats
	err     error
}

// WorkerPool runs tile tasks on a fixed set of goroutines
type WorkerPool struct {
	taskQueue  chan tileTask
	workers    []*worker
	numWorkers int
	wg         sync.WaitGroup
}

// worker handles individual tile tasks
type worker struct {
	ctx       WorkerContext
	sampler   *core.RandomSampler
	taskQueue <-chan tileTask
}

// NewWorkerPool creates a worker pool. numWorkers <= 0 uses the CPU count.
func NewWorkerPool(numWorkers int, logger *slog.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	logger = core.LoggerOrNop(logger)

	wp := &WorkerPool{
		taskQueue:  make(chan tileTask, numWorkers*2),
		numWorkers: numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		random := rand.New(rand.NewSource(int64(i + 42)))
		sampler := core.NewRandomSampler(random)
		wp.workers = append(wp.workers, &worker{
			ctx: WorkerContext{
				WorkerID: i,
				Random:   random,
				Sampler:  sampler,
				Logger:   logger.With("worker", i),
			},
			sampler:   sampler,
			taskQueue: wp.taskQueue,
		})
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, w := range wp.workers {
		wp.wg.Add(1)
		go w.run(&wp.wg)
	}
}

// Stop shuts down all workers after the queued tasks drain
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
}

// Submit queues a task, blocking while the queue is full
func (wp *WorkerPool) Submit(task tileTask) {
	wp.taskQueue <- task
}

// NumWorkers returns the number of workers in the pool
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		task.results <- w.execute(task)
	}
}

// execute shades one tile. A cancelled context skips the tile; a shader
// error or panic faults it and the tile shows the background instead.
func (w *worker) execute(task tileTask) (result tileResult) {
	result.tileID = task.tile.ID
	if task.ctx.Err() != nil {
		result.skipped = true
		return result
	}

	w.ctx.Stats = TileStats{}
	w.sampler.Reseed(tileSeed(task.tile.ID, task.job.Frame))

	defer func() {
		if r := recover(); r != nil {
			result.err = &WorkerFault{TileID: task.tile.ID, WorkerID: w.ctx.WorkerID, Err: fmt.Errorf("panic: %v", r)}
		}
		if result.err != nil {
			fillFaulted(task.job, task.tile)
		}
		result.stats = w.ctx.Stats
	}()

	if err := task.shader.ShadeTile(&w.ctx, task.job, task.tile); err != nil {
		result.err = &WorkerFault{TileID: task.tile.ID, WorkerID: w.ctx.WorkerID, Err: err}
	}
	return result
}

// fillFaulted paints a faulted tile with the background, or black if even
// that fails
func fillFaulted(job *RenderJob, tile *Tile) {
	defer func() {
		if recover() != nil {
			clear(tile.pixels)
		}
	}()
	job.fillBackground(tile)
}
