package renderer

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/lights"
	"github.com/df07/go-tile-raytracer/pkg/material"
	"github.com/df07/go-tile-raytracer/pkg/scene"
	"github.com/df07/go-tile-raytracer/pkg/texture"
)

// newDemoRenderer builds the default world with four principled materials
func newDemoRenderer(t *testing.T, workers int) (*Renderer, *scene.World) {
	t.Helper()
	ids := scene.DefaultMaterials{Ground: 0, Center: 1, Left: 2, Right: 3}
	world := scene.NewDefaultWorld(ids)
	r := NewPrincipledRenderer(world, Config{NumWorkers: workers})
	t.Cleanup(r.Close)

	for want := 0; want < 4; want++ {
		id, _, err := r.CreateMaterial(material.TypePrincipled)
		require.NoError(t, err)
		require.Equal(t, want, id)
	}

	require.NoError(t, r.Update(func() error {
		r.Material(ids.Ground).Params().Set("baseColor", core.NewVec3(0.5, 0.5, 0.3))
		r.Material(ids.Center).Params().Set("baseColor", core.NewVec3(0.7, 0.2, 0.1)).Set("coat", 1.0)
		r.Material(ids.Left).Params().Set("metallic", 1.0).Set("roughness", 0.2)
		r.Material(ids.Right).Params().Set("transmission", 0.6).Set("opacity", 0.8)
		return nil
	}))

	return r, world
}

func renderFrames(t *testing.T, r *Renderer, frames int) []uint8 {
	t.Helper()
	fb, err := NewFramebuffer(48, 32, 16)
	require.NoError(t, err)
	for i := 0; i < frames; i++ {
		_, err := r.RenderFrame(context.Background(), fb)
		require.NoError(t, err)
	}
	assert.Equal(t, frames, fb.Frames())
	return fb.Image().Pix
}

func TestRenderer_DeterministicAcrossWorkerCounts(t *testing.T) {
	single, _ := newDemoRenderer(t, 1)
	many, _ := newDemoRenderer(t, 4)
	again, _ := newDemoRenderer(t, 4)

	want := renderFrames(t, single, 3)
	assert.Equal(t, want, renderFrames(t, many, 3))
	assert.Equal(t, want, renderFrames(t, again, 3))
}

func TestRenderer_FrameStats(t *testing.T) {
	r, _ := newDemoRenderer(t, 2)
	fb, err := NewFramebuffer(48, 32, 16)
	require.NoError(t, err)

	stats, err := r.RenderFrame(context.Background(), fb)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Tiles)
	assert.Equal(t, 6, stats.TilesCompleted)
	assert.Equal(t, 48*32, stats.Pixels)
	assert.Equal(t, stats.Pixels, stats.Hits+stats.Misses)
	assert.Positive(t, stats.Hits)
}

func TestRenderer_CancelledFrameNotAccumulated(t *testing.T) {
	r, _ := newDemoRenderer(t, 2)
	fb, err := NewFramebuffer(48, 32, 16)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.RenderFrame(ctx, fb)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, fb.Frames())
}

// failingScene rejects every ray
type failingScene struct {
	*scene.World
}

func (failingScene) Trace(core.Ray) (scene.Hit, bool, error) {
	return scene.Hit{}, false, scene.ErrDegenerateRay
}

func TestRenderer_TraceFailureShowsBackground(t *testing.T) {
	world := scene.NewWorld(nil)
	world.SetBackground(scene.SolidBackground(core.Splat(0.5)))
	world.AddSphere(core.NewVec3(0, 0.5, -1), 0.5, 0)

	r := NewOBJRenderer(failingScene{world}, Config{NumWorkers: 2})
	defer r.Close()

	fb, err := NewFramebuffer(16, 16, 8)
	require.NoError(t, err)
	stats, err := r.RenderFrame(context.Background(), fb)
	require.NoError(t, err)

	assert.Equal(t, 16*16, stats.TraceFailures)
	assert.Zero(t, stats.Hits)
	assert.Equal(t, core.Splat(0.5), fb.Color(8, 8))
}

func TestRenderer_CreateMaterialUnknownType(t *testing.T) {
	tests := []struct {
		name     string
		create   func(scene.Scene, Config) *Renderer
		typeName string
		want     string
	}{
		{"obj renderer substitutes obj", NewOBJRenderer, "glass", material.TypeOBJ},
		{"obj renderer has no principled", NewOBJRenderer, "principled", material.TypeOBJ},
		{"principled renderer substitutes principled", NewPrincipledRenderer, "velvet", material.TypePrincipled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.create(scene.NewWorld(nil), DefaultConfig())
			defer r.Close()

			id, m, err := r.CreateMaterial(tt.typeName)
			assert.True(t, errors.Is(err, material.ErrUnknownMaterialType))
			require.NotNil(t, m)
			assert.Equal(t, tt.want, m.Type())
			assert.Same(t, m, r.Material(id))
		})
	}
}

func TestRenderer_CreateMaterialCaseInsensitive(t *testing.T) {
	r := NewPrincipledRenderer(scene.NewWorld(nil), DefaultConfig())
	defer r.Close()

	_, m, err := r.CreateMaterial("Principled")
	require.NoError(t, err)
	assert.Equal(t, material.TypePrincipled, m.Type())
	assert.Nil(t, r.Material(42))
}

func TestRenderer_RecommitsEditedMaterials(t *testing.T) {
	world := scene.NewWorld(nil)
	r := NewPrincipledRenderer(world, DefaultConfig())
	defer r.Close()

	id, m, err := r.CreateMaterial(material.TypePrincipled)
	require.NoError(t, err)
	assert.False(t, m.Committed())

	fb, err := NewFramebuffer(8, 8, 8)
	require.NoError(t, err)

	job, err := r.CreateRenderJob(fb)
	require.NoError(t, err)
	assert.True(t, m.Committed())
	point := material.SurfacePoint{Normal: core.NewVec3(0, 0, 1)}
	assert.InDelta(t, 0.8, job.Shading(id).Resolve(point).Diffuse.X, 1e-12)

	require.NoError(t, r.Update(func() error {
		m.Params().Set("baseColor", core.NewVec3(0.1, 0.2, 0.3))
		return nil
	}))
	assert.True(t, m.NeedsCommit())

	next, err := r.CreateRenderJob(fb)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, next.Shading(id).Resolve(point).Diffuse.X, 1e-12)

	// The earlier job keeps its snapshot
	assert.InDelta(t, 0.8, job.Shading(id).Resolve(point).Diffuse.X, 1e-12)
	assert.NotEqual(t, job.ID, next.ID)

	// Unbound IDs fall back to the default shading
	assert.Same(t, material.DefaultShading, next.Shading(99))
	assert.Same(t, material.DefaultShading, next.Shading(-1))
}

func TestRenderer_LightListRebuiltOnChange(t *testing.T) {
	world := scene.NewWorld(nil)
	world.AddLight(lights.NewRecord("point", nil))
	world.AddLight(lights.NewRecord("spot", nil)) // Not supported by the OBJ renderer
	world.AddLight(lights.NewRecord("ambient", nil))

	r := NewOBJRenderer(world, DefaultConfig())
	defer r.Close()

	fb, err := NewFramebuffer(8, 8, 8)
	require.NoError(t, err)

	job, err := r.CreateRenderJob(fb)
	require.NoError(t, err)
	assert.Equal(t, 2, job.Lights.Len())
	assert.Equal(t, 2, job.Lights.DeclaredCount())

	same, err := r.CreateRenderJob(fb)
	require.NoError(t, err)
	assert.Same(t, job.Lights, same.Lights, "unchanged lights reuse the list")

	require.NoError(t, r.Update(func() error {
		world.AddLight(lights.NewRecord("directional", nil))
		return nil
	}))
	rebuilt, err := r.CreateRenderJob(fb)
	require.NoError(t, err)
	assert.Equal(t, 3, rebuilt.Lights.Len())
	assert.Equal(t, 2, job.Lights.Len(), "old snapshot untouched")
}

func TestRenderer_MissingTextureFallsBackToFactor(t *testing.T) {
	world := scene.NewWorld(nil)
	r := NewOBJRenderer(world, Config{Textures: texture.NewLibrary()})
	defer r.Close()

	id, m, err := r.CreateMaterial(material.TypeOBJ)
	require.NoError(t, err)
	m.Params().Set("Kd", core.NewVec3(0.3, 0.3, 0.3)).Set("map_Kd", texture.Ref("missing.png"))

	fb, err := NewFramebuffer(8, 8, 8)
	require.NoError(t, err)
	job, err := r.CreateRenderJob(fb)
	require.NoError(t, err)

	surf := job.Shading(id).Resolve(material.SurfacePoint{UV: core.NewVec2(0.3, 0.7), Normal: core.NewVec3(0, 1, 0)})
	assert.Equal(t, core.NewVec3(0.3, 0.3, 0.3), surf.Diffuse)
}

func TestRenderer_EmissiveWithoutLights(t *testing.T) {
	world := scene.NewWorld(scene.NewLookAtCamera(scene.CameraConfig{
		LookFrom: core.NewVec3(0, 0, 3),
		LookAt:   core.Vec3{},
		Up:       core.NewVec3(0, 1, 0),
		VFov:     20,
	}))
	world.SetBackground(scene.SolidBackground(core.Vec3{}))
	r := NewPrincipledRenderer(world, Config{NumWorkers: 2})
	defer r.Close()

	id, _, err := r.CreateMaterial(material.TypeEmissive)
	require.NoError(t, err)
	require.NoError(t, r.Update(func() error {
		r.Material(id).Params().Set("emission", core.NewVec3(0.5, 0.25, 0))
		world.AddSphere(core.Vec3{}, 0.5, id)
		return nil
	}))

	fb, err := NewFramebuffer(8, 8, 8)
	require.NoError(t, err)
	_, err = r.RenderFrame(context.Background(), fb)
	require.NoError(t, err)

	assert.Equal(t, core.NewVec3(0.5, 0.25, 0), fb.Color(4, 4), "sphere center emits")
	assert.Equal(t, core.Vec3{}, fb.Color(0, 0), "corner sees the black background")
}

func TestNew(t *testing.T) {
	for _, name := range []string{"obj", "principled"} {
		r, err := New(name, scene.NewWorld(nil), DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, name, r.Name())
		r.Close()
	}

	_, err := New("pathtracer", scene.NewWorld(nil), DefaultConfig())
	assert.Error(t, err)
}

func TestCreateRenderJob_NilFramebuffer(t *testing.T) {
	r := NewOBJRenderer(scene.NewWorld(nil), DefaultConfig())
	defer r.Close()

	_, err := r.CreateRenderJob(nil)
	assert.True(t, errors.Is(err, ErrInvalidFramebuffer))
}

func TestRenderer_DispatchMatchesRenderFrame(t *testing.T) {
	r, _ := newDemoRenderer(t, 3)

	rendered, err := NewFramebuffer(48, 32, 16)
	require.NoError(t, err)
	_, err = r.RenderFrame(context.Background(), rendered)
	require.NoError(t, err)

	dispatched, err := NewFramebuffer(48, 32, 16)
	require.NoError(t, err)
	job, err := r.CreateRenderJob(dispatched)
	require.NoError(t, err)
	stats, err := r.Dispatch(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, len(job.Tiles), stats.TilesCompleted)
	assert.Equal(t, 0, dispatched.Frames(), "dispatch leaves accumulation to the caller")

	dispatched.Accumulate(job.Tiles)
	assert.Equal(t, rendered.Image().Pix, dispatched.Image().Pix)
}

func TestRenderer_DispatchNilJob(t *testing.T) {
	r := NewOBJRenderer(scene.NewWorld(nil), DefaultConfig())
	defer r.Close()

	_, err := r.Dispatch(context.Background(), nil)
	assert.Error(t, err)
}

// frontCamera looks down -Z at the origin from z = 3
func frontCamera() *scene.LookAtCamera {
	return scene.NewLookAtCamera(scene.CameraConfig{
		LookFrom: core.NewVec3(0, 0, 3),
		LookAt:   core.Vec3{},
		Up:       core.NewVec3(0, 1, 0),
		VFov:     20,
	})
}

func TestRenderer_ShadingPanicStaysInItsPixel(t *testing.T) {
	textures := texture.NewLibrary()
	textures.Add("right-half-broken", texture.Func(func(uv core.Vec2) core.Vec3 {
		if uv.X > 0.5 {
			panic("bad texel")
		}
		return core.Splat(1)
	}))

	world := scene.NewWorld(frontCamera())
	world.SetBackground(scene.SolidBackground(core.Splat(0.5)))
	r := NewPrincipledRenderer(world, Config{NumWorkers: 2, Textures: textures})
	defer r.Close()

	id, m, err := r.CreateMaterial(material.TypePrincipled)
	require.NoError(t, err)
	require.NoError(t, r.Update(func() error {
		m.Params().Set("map_baseColor", texture.Ref("right-half-broken"))
		world.AddQuad(core.NewVec3(-1, -1, 0), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0), id)
		return nil
	}))

	fb, err := NewFramebuffer(16, 16, 16)
	require.NoError(t, err)
	stats, err := r.RenderFrame(context.Background(), fb)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TilesCompleted)
	assert.Zero(t, stats.TilesFaulted)
	assert.Equal(t, 16*8, stats.Hits, "left half shades")
	assert.Equal(t, 16*8, stats.ShadeFailures, "right half fails per pixel")
	assert.Zero(t, stats.Misses)

	assert.Equal(t, core.Vec3{}, fb.Color(2, 8), "unlit left half is black")
	assert.Equal(t, core.Splat(0.5), fb.Color(13, 8), "failed pixels show the background")
}

func TestRenderer_TransmissionAbsorption(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   core.Vec3
	}{
		{
			name:   "solid absorbs over the chord",
			params: map[string]any{"transmissionDepth": 1.0},
			want:   core.NewVec3(0.5, 1, 1),
		},
		{
			name:   "deeper medium absorbs less",
			params: map[string]any{"transmissionDepth": 2.0},
			want:   core.NewVec3(math.Sqrt(0.5), 1, 1),
		},
		{
			name:   "thin filters at both faces",
			params: map[string]any{"thin": true, "thickness": 1.0},
			want:   core.NewVec3(0.25, 1, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := scene.NewWorld(frontCamera())
			world.SetBackground(scene.SolidBackground(core.Splat(1)))
			r := NewPrincipledRenderer(world, Config{NumWorkers: 1})
			defer r.Close()

			id, m, err := r.CreateMaterial(material.TypePrincipled)
			require.NoError(t, err)
			require.NoError(t, r.Update(func() error {
				m.Params().Set("transmission", 1.0).Set("transmissionColor", core.NewVec3(0.5, 1, 1))
				for k, v := range tt.params {
					m.Params().Set(k, v)
				}
				world.AddSphere(core.Vec3{}, 0.5, id)
				return nil
			}))

			// The center pixel of an odd framebuffer looks straight through the sphere
			fb, err := NewFramebuffer(9, 9, 16)
			require.NoError(t, err)
			_, err = r.RenderFrame(context.Background(), fb)
			require.NoError(t, err)

			got := fb.Color(4, 4)
			assert.InDelta(t, tt.want.X, got.X, 1e-6)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-6)
			assert.InDelta(t, tt.want.Z, got.Z, 1e-6)
		})
	}
}
