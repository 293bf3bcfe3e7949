package demo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/renderer"
	"github.com/df07/go-tile-raytracer/pkg/scene"
	"github.com/df07/go-tile-raytracer/pkg/texture"
)

const trianglePLY = `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
-1 0 0
1 0 0
0 2 0
3 0 1 2
`

func TestNew_Scenes(t *testing.T) {
	for _, rendererName := range []string{"obj", "principled"} {
		for _, name := range Names() {
			t.Run(rendererName+"/"+name, func(t *testing.T) {
				r, err := New(rendererName, Options{Scene: name}, renderer.Config{NumWorkers: 2})
				require.NoError(t, err)
				defer r.Close()

				assert.Equal(t, rendererName, r.Name())
				for id := 0; id < 4; id++ {
					assert.NotNil(t, r.Material(id), "material %d", id)
				}

				fb, err := renderer.NewFramebuffer(16, 16, 8)
				require.NoError(t, err)
				stats, err := r.RenderFrame(context.Background(), fb)
				require.NoError(t, err)
				assert.Equal(t, 256, stats.Pixels)
				assert.Positive(t, stats.Hits)
			})
		}
	}
}

func TestNew_WithMesh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.ply")
	require.NoError(t, os.WriteFile(path, []byte(trianglePLY), 0o644))

	r, err := New("principled", Options{Scene: "default", Mesh: path, MeshScale: 0.5}, renderer.Config{NumWorkers: 1})
	require.NoError(t, err)
	defer r.Close()

	assert.NotNil(t, r.Material(4), "mesh material")
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name     string
		renderer string
		opts     Options
	}{
		{"unknown scene", "principled", Options{Scene: "cornell"}},
		{"unknown renderer", "pathtracer", Options{Scene: "default"}},
		{"missing texture", "obj", Options{Scene: "default", Texture: "missing.png"}},
		{"missing mesh", "obj", Options{Scene: "default", Mesh: "missing.ply"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.renderer, tt.opts, renderer.Config{NumWorkers: 1})
			assert.Error(t, err)
		})
	}
}

func TestBuild_CheckerAddsGroundTexture(t *testing.T) {
	world := scene.NewWorld(nil)
	textures := texture.NewLibrary()
	r := renderer.NewOBJRenderer(world, renderer.Config{NumWorkers: 1, Textures: textures})
	defer r.Close()

	require.NoError(t, Build(r, world, textures, "checker", nil, 0))

	_, err := textures.Resolve(GroundTexture)
	assert.NoError(t, err)
	v, ok := r.Material(0).Params().Value("map_Kd")
	require.True(t, ok)
	assert.Equal(t, GroundTexture, v)
	assert.Len(t, world.LightRecords(), 4)

	// Above the spheres the back wall is hit
	hit, ok, err := world.Trace(core.NewRay(core.NewVec3(0, 1.2, 0), core.NewVec3(0, 0, -1)))
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 3.0, hit.T, 1e-9)
	assert.Equal(t, 0, hit.MaterialID)
}

func TestBuild_DefaultIsUntextured(t *testing.T) {
	world := scene.NewWorld(nil)
	textures := texture.NewLibrary()
	r := renderer.NewPrincipledRenderer(world, renderer.Config{NumWorkers: 1, Textures: textures})
	defer r.Close()

	require.NoError(t, Build(r, world, textures, "default", nil, 0))
	assert.False(t, r.Material(0).Params().Has("map_baseColor"))

	_, ok, err := world.Trace(core.NewRay(core.NewVec3(0, 1.2, 0), core.NewVec3(0, 0, -1)))
	require.NoError(t, err)
	assert.False(t, ok, "no back wall")
}
