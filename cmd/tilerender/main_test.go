package main

import (
	"context"
	"flag"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-tile-raytracer/pkg/config"
	"github.com/df07/go-tile-raytracer/pkg/core"
)

func TestParseFlags_Defaults(t *testing.T) {
	cfg, opts, err := parseFlags(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.False(t, opts.watch)
}

func TestParseFlags_FlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.toml")
	require.NoError(t, os.WriteFile(path, []byte("width = 64\nheight = 32\nrenderer = \"obj\"\n"), 0o644))

	cfg, _, err := parseFlags(flag.NewFlagSet("test", flag.ContinueOnError),
		[]string{"-config", path, "-height", "48", "-frames", "2"})
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Width, "from file")
	assert.Equal(t, "obj", cfg.Renderer, "from file")
	assert.Equal(t, 48, cfg.Height, "flag wins")
	assert.Equal(t, 2, cfg.Frames, "flag wins")
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"watch without config", []string{"-watch"}},
		{"invalid tile", []string{"-tile", "20"}},
		{"unknown renderer", []string{"-renderer", "pathtracer"}},
		{"missing config", []string{"-config", "does-not-exist.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseFlags(flag.NewFlagSet("test", flag.ContinueOnError), tt.args)
			assert.Error(t, err)
		})
	}
}

func TestRun_WritesPNG(t *testing.T) {
	for _, rendererName := range []string{"obj", "principled"} {
		t.Run(rendererName, func(t *testing.T) {
			cfg := config.Default()
			cfg.Width, cfg.Height, cfg.TileSize, cfg.Frames = 32, 24, 8, 2
			cfg.Renderer = rendererName
			cfg.Scene = "checker"
			cfg.Output = filepath.Join(t.TempDir(), "out", "render.png")

			require.NoError(t, run(context.Background(), cfg, core.NopLogger()))

			f, err := os.Open(cfg.Output)
			require.NoError(t, err)
			defer f.Close()
			img, err := png.Decode(f)
			require.NoError(t, err)
			assert.Equal(t, 32, img.Bounds().Dx())
			assert.Equal(t, 24, img.Bounds().Dy())
		})
	}
}

func TestRun_Errors(t *testing.T) {
	cfg := config.Default()
	cfg.Width, cfg.Height, cfg.Frames = 16, 16, 1
	cfg.Output = filepath.Join(t.TempDir(), "render.png")

	bad := cfg
	bad.Scene = "cornell"
	assert.Error(t, run(context.Background(), bad, core.NopLogger()))

	bad = cfg
	bad.Texture = filepath.Join(t.TempDir(), "missing.png")
	assert.Error(t, run(context.Background(), bad, core.NopLogger()))

	bad = cfg
	bad.Mesh = filepath.Join(t.TempDir(), "missing.ply")
	assert.Error(t, run(context.Background(), bad, core.NopLogger()))
}

func TestRun_WithMesh(t *testing.T) {
	dir := t.TempDir()
	mesh := filepath.Join(dir, "quad.ply")
	require.NoError(t, os.WriteFile(mesh, []byte(`ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
-1 0 0
1 0 0
1 1 0
-1 1 0
4 0 1 2 3
`), 0o644))

	cfg, _, err := parseFlags(flag.NewFlagSet("test", flag.ContinueOnError), []string{
		"-width", "16", "-height", "16", "-tile", "8", "-frames", "1",
		"-mesh", mesh, "-mesh-scale", "0.5", "-out", filepath.Join(dir, "mesh.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.MeshScale)

	require.NoError(t, run(context.Background(), cfg, core.NopLogger()))
	assert.FileExists(t, cfg.Output)
}

func TestRun_Cancelled(t *testing.T) {
	cfg := config.Default()
	cfg.Width, cfg.Height, cfg.Frames = 16, 16, 1
	cfg.Output = filepath.Join(t.TempDir(), "render.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, cfg, core.NopLogger())
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, cfg.Output)
}
