// Package renderer turns a scene into a framebuffer: it snapshots the scene
// into a render job, partitions the framebuffer into tiles and shades the
// tiles in parallel on a worker pool.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/lights"
	"github.com/df07/go-tile-raytracer/pkg/material"
	"github.com/df07/go-tile-raytracer/pkg/scene"
	"github.com/df07/go-tile-raytracer/pkg/texture"
)

// Config contains configuration shared by all renderer variants
type Config struct {
	NumWorkers int              // Number of parallel workers (0 = use CPU count)
	Textures   texture.Resolver // Resolves texture refs in material parameters
	Logger     *slog.Logger
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		NumWorkers: 0, // Auto-detect CPU count
	}
}

// Renderer owns everything a frame needs besides the framebuffer: the scene,
// the material and light registries, the bound materials and the cached
// light list. Scene and material edits must go through Update so they never
// overlap a frame.
type Renderer struct {
	name            string
	scene           scene.Scene
	materialTypes   *material.Registry
	lightTypes      *lights.Registry
	defaultMaterial string
	shader          TileShader
	env             material.Env
	scheduler       *Scheduler
	logger          *slog.Logger

	mu            sync.Mutex   // Held for the whole of a frame and by Update
	matMu         sync.RWMutex // Guards materials; may be taken under mu
	materials     []material.Material
	lightList     *lights.LightList
	lightsVersion uint64
	lightsBuilt   bool
}

// variant describes what distinguishes one renderer from another
type variant struct {
	name            string
	materialTypes   *material.Registry
	lightTypes      *lights.Registry
	defaultMaterial string
	shade           surfaceShader
}

func newRenderer(s scene.Scene, config Config, v variant) *Renderer {
	logger := core.LoggerOrNop(config.Logger).With("renderer", v.name)
	return &Renderer{
		name:            v.name,
		scene:           s,
		materialTypes:   v.materialTypes,
		lightTypes:      v.lightTypes,
		defaultMaterial: v.defaultMaterial,
		shader:          pixelLoop(v.shade),
		env:             material.Env{Textures: config.Textures, Logger: logger},
		scheduler:       NewScheduler(config.NumWorkers, logger),
		logger:          logger,
	}
}

// NewOBJRenderer creates a renderer for Wavefront-style OBJ materials lit by
// point, directional and ambient lights with Blinn-Phong shading
func NewOBJRenderer(s scene.Scene, config Config) *Renderer {
	materials := material.NewRegistry()
	materials.Register(material.TypeOBJ, func() material.Material { return material.NewOBJ() })
	materials.Register("default", func() material.Material { return material.NewOBJ() })

	lightTypes := lights.NewRegistry()
	lightTypes.Register(string(lights.LightTypePoint), lights.NewPointLightFromParams)
	lightTypes.Register(string(lights.LightTypeDirectional), lights.NewDirectionalLightFromParams)
	lightTypes.Register("distant", lights.NewDirectionalLightFromParams)
	lightTypes.Register(string(lights.LightTypeAmbient), lights.NewAmbientLightFromParams)

	return newRenderer(s, config, variant{
		name:            "obj",
		materialTypes:   materials,
		lightTypes:      lightTypes,
		defaultMaterial: material.TypeOBJ,
		shade:           shadeOBJ,
	})
}

// NewPrincipledRenderer creates a renderer for principled and OBJ materials
// with every built-in light type and metallic/roughness shading
func NewPrincipledRenderer(s scene.Scene, config Config) *Renderer {
	return newRenderer(s, config, variant{
		name:            "principled",
		materialTypes:   material.NewDefaultRegistry(),
		lightTypes:      lights.NewDefaultRegistry(),
		defaultMaterial: material.TypePrincipled,
		shade:           shadePrincipled,
	})
}

// New creates the renderer variant called name ("obj" or "principled")
func New(name string, s scene.Scene, config Config) (*Renderer, error) {
	switch name {
	case "obj":
		return NewOBJRenderer(s, config), nil
	case "principled", "":
		return NewPrincipledRenderer(s, config), nil
	}
	return nil, fmt.Errorf("unknown renderer %q", name)
}

// Name returns the renderer variant name
func (r *Renderer) Name() string { return r.name }

// Scene returns the scene the renderer traces
func (r *Renderer) Scene() scene.Scene { return r.scene }

// NumWorkers returns the size of the worker pool
func (r *Renderer) NumWorkers() int { return r.scheduler.NumWorkers() }

// CreateMaterial creates a material of the named type and binds it to a new
// material ID. An unknown type is replaced by the renderer's default
// material; the returned error then wraps material.ErrUnknownMaterialType
// while the ID and material are still usable.
func (r *Renderer) CreateMaterial(typeName string) (int, material.Material, error) {
	r.matMu.Lock()
	defer r.matMu.Unlock()

	m, err := r.materialTypes.Create(typeName)
	if err != nil {
		r.logger.Warn("unknown material type, using default", "type", typeName, "default", r.defaultMaterial)
		var defErr error
		if m, defErr = r.materialTypes.Create(r.defaultMaterial); defErr != nil {
			return -1, nil, errors.Join(err, defErr)
		}
	}

	r.materials = append(r.materials, m)
	return len(r.materials) - 1, m, err
}

// Material returns the material bound to id, or nil
func (r *Renderer) Material(id int) material.Material {
	r.matMu.RLock()
	defer r.matMu.RUnlock()
	if id < 0 || id >= len(r.materials) {
		return nil
	}
	return r.materials[id]
}

// Update runs fn while no frame is in progress. Scene and material parameter
// edits belong in fn; Material and CreateMaterial may be called from it.
func (r *Renderer) Update(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn()
}

// CreateRenderJob snapshots the current scene state for one frame of fb
func (r *Renderer) CreateRenderJob(fb *Framebuffer) (*RenderJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createRenderJob(fb)
}

func (r *Renderer) createRenderJob(fb *Framebuffer) (*RenderJob, error) {
	if fb == nil {
		return nil, fmt.Errorf("%w: nil framebuffer", ErrInvalidFramebuffer)
	}

	// Commit dirty materials
	r.matMu.RLock()
	shadings := make([]material.Shading, len(r.materials))
	for id, m := range r.materials {
		if m.NeedsCommit() {
			m.Commit(r.env)
		}
		shadings[id] = m.Shading()
	}
	r.matMu.RUnlock()

	// Rebuild the light list when the scene's lights changed
	if version := r.scene.LightsVersion(); !r.lightsBuilt || version != r.lightsVersion {
		records := r.scene.LightRecords()
		list, err := lights.Build(records, r.lightTypes)
		if err != nil {
			r.logger.Warn("skipped lights", "declared", len(records), "built", list.Len(), "error", err)
		}
		r.lightList, r.lightsVersion, r.lightsBuilt = list, version, true
	}

	return &RenderJob{
		ID:       uuid.New(),
		Frame:    fb.Frames(),
		Width:    fb.Width(),
		Height:   fb.Height(),
		Scene:    r.scene,
		Camera:   r.scene.Camera(),
		Lights:   r.lightList,
		Tiles:    NewTileGrid(fb.Width(), fb.Height(), fb.TileSize()),
		shadings: shadings,
	}, nil
}

// Dispatch shades every tile of job with the renderer's shading routine and
// blocks until all of them have returned. It holds the frame lock, so Update
// waits for the barrier. Accumulating the tiles is left to the caller.
func (r *Renderer) Dispatch(ctx context.Context, job *RenderJob) (FrameStats, error) {
	if job == nil {
		return FrameStats{}, errors.New("dispatch: nil render job")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dispatch(ctx, job)
}

func (r *Renderer) dispatch(ctx context.Context, job *RenderJob) (FrameStats, error) {
	r.logger.Info("frame started", "job", job.ID, "frame", job.Frame,
		"tiles", len(job.Tiles), "lights", job.Lights.Len(), "workers", r.scheduler.NumWorkers())

	stats, err := r.scheduler.Dispatch(ctx, job, r.shader)
	if stats.TilesSkipped > 0 {
		r.logger.Info("frame cancelled", "job", job.ID, "frame", job.Frame, "skipped", stats.TilesSkipped)
	}
	return stats, err
}

// RenderFrame renders one frame and accumulates it into fb. The frame is
// only accumulated once every tile has returned; a cancelled frame is
// discarded. Worker faults are returned, but the frame still accumulates
// with the faulted tiles showing the background.
func (r *Renderer) RenderFrame(ctx context.Context, fb *Framebuffer) (FrameStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, err := r.createRenderJob(fb)
	if err != nil {
		return FrameStats{}, err
	}

	stats, err := r.dispatch(ctx, job)
	if stats.TilesSkipped > 0 {
		return stats, err
	}

	fb.Accumulate(job.Tiles)

	r.logger.Info("frame finished", "job", job.ID, "frame", job.Frame, "duration", stats.Duration,
		"hits", stats.Hits, "misses", stats.Misses, "shade_failures", stats.ShadeFailures,
		"faulted", stats.TilesFaulted)
	return stats, err
}

// Close stops the worker pool
func (r *Renderer) Close() {
	r.scheduler.Close()
}
