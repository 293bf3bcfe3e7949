package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	level, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"tile not power of two", func(c *Config) { c.TileSize = 24 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"no frames", func(c *Config) { c.Frames = 0 }},
		{"unknown renderer", func(c *Config) { c.Renderer = "pathtracer" }},
		{"negative mesh scale", func(c *Config) { c.MeshScale = -2 }},
		{"no output", func(c *Config) { c.Output = "" }},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			assert.True(t, errors.Is(c.Validate(), ErrInvalidConfig))
		})
	}
}

func TestValidate_JoinsAllErrors(t *testing.T) {
	c := Default()
	c.Width = 0
	c.Frames = 0

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size")
	assert.Contains(t, err.Error(), "frames")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "render.toml", `
width = 128
height = 64
tile_size = 16
renderer = "obj"
log_level = "debug"
mesh = "bunny.ply"
mesh_scale = 2.5
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 128, c.Width)
	assert.Equal(t, 64, c.Height)
	assert.Equal(t, 16, c.TileSize)
	assert.Equal(t, "obj", c.Renderer)
	assert.Equal(t, "bunny.ply", c.Mesh)
	assert.Equal(t, 2.5, c.MeshScale)
	assert.Equal(t, Default().Frames, c.Frames, "unset keys keep defaults")

	level, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_YAML(t *testing.T) {
	for _, ext := range []string{".yaml", ".yml"} {
		path := writeFile(t, "render"+ext, "width: 32\nheight: 32\nframes: 2\ntexture: ground.png\n")

		c, err := Load(path)
		require.NoError(t, err, ext)
		assert.Equal(t, 32, c.Width)
		assert.Equal(t, 2, c.Frames)
		assert.Equal(t, "ground.png", c.Texture)
		assert.Equal(t, "principled", c.Renderer)
	}
}

func TestLoad_EmptyYAMLUsesDefaults(t *testing.T) {
	c, err := Load(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"unsupported extension", func(t *testing.T) string { return writeFile(t, "render.json", "{}") }},
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.toml") }},
		{"unknown toml key", func(t *testing.T) string { return writeFile(t, "render.toml", "colour = 1\n") }},
		{"unknown yaml key", func(t *testing.T) string { return writeFile(t, "render.yaml", "colour: 1\n") }},
		{"invalid values", func(t *testing.T) string { return writeFile(t, "render.toml", "tile_size = 12\n") }},
		{"malformed toml", func(t *testing.T) string { return writeFile(t, "render.toml", "width = = 3\n") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			assert.Error(t, err)
		})
	}
}

func TestRead(t *testing.T) {
	c, err := Read(strings.NewReader("workers = 3\n"), TOML)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Workers)
}
