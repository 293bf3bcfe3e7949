package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/texture"
)

func TestLambertian(t *testing.T) {
	m := NewLambertian()
	assert.Equal(t, TypeLambertian, m.Type())

	surface := m.Commit(Env{}).Resolve(surfaceAt(0.5, 0.5))
	assert.Equal(t, core.Splat(0.5), surface.Diffuse)
	assert.Equal(t, core.Vec3{}, surface.Specular)
	assert.Equal(t, 1.0, surface.Opacity)
	assert.Equal(t, core.NewVec3(0, 1, 0), surface.Normal)

	lib := texture.NewLibrary()
	lib.Add("checker", texture.NewCheckerboard(2, 2, 1, core.Splat(1), core.Splat(0)))
	m.Params().Set("albedo", core.NewVec3(1, 0.5, 0)).Set("map_albedo", texture.Ref("checker"))
	require.True(t, m.NeedsCommit())

	s := m.Commit(Env{Textures: lib})
	assert.Equal(t, core.NewVec3(1, 0.5, 0), s.Resolve(surfaceAt(0.25, 0.75)).Diffuse)
	assert.Equal(t, core.Splat(0), s.Resolve(surfaceAt(0.75, 0.75)).Diffuse)
}

func TestMetal(t *testing.T) {
	m := NewMetal()
	surface := m.Commit(Env{}).Resolve(surfaceAt(0, 0))
	assert.Equal(t, core.Splat(0.9), surface.Specular)
	assert.Equal(t, core.Vec3{}, surface.Diffuse)
	assert.Equal(t, 1.0, surface.Metallic)
	assert.Equal(t, 0.0, surface.Roughness)

	m.Params().Set("albedo", core.NewVec3(0.8, 0.6, 0.2)).Set("fuzz", 3.0)
	surface = m.Commit(Env{}).Resolve(surfaceAt(0, 0))
	assert.Equal(t, core.NewVec3(0.8, 0.6, 0.2), surface.Specular)
	assert.Equal(t, 1.0, surface.Roughness, "fuzz is clamped")
}

func TestDielectric(t *testing.T) {
	m := NewDielectric()
	surface := m.Commit(Env{}).Resolve(surfaceAt(0, 0))
	assert.Equal(t, 1.0, surface.Transmission)
	assert.Equal(t, 1.5, surface.IOR)
	assert.Equal(t, core.Splat(1), surface.TransmissionColor)
	assert.Equal(t, 1.0, surface.TransmissionDepth, "color is reached after one unit inside")
	assert.False(t, surface.Thin)
	assert.InDelta(t, 0.04, surface.Specular.X, 1e-12)
	assert.Equal(t, core.Vec3{}, surface.Diffuse)

	m.Params().Set("ior", 1.0).Set("color", core.NewVec3(0.5, 1, 0.5))
	surface = m.Commit(Env{}).Resolve(surfaceAt(0, 0))
	assert.Equal(t, 0.0, surface.Specular.X, "matched index reflects nothing")
	assert.Equal(t, core.NewVec3(0.5, 1, 0.5), surface.TransmissionColor)
}

func TestEmissive(t *testing.T) {
	m := NewEmissive()
	assert.Equal(t, core.Splat(1), m.Commit(Env{}).Resolve(surfaceAt(0, 0)).Emission)

	m.Params().Set("emission", core.NewVec3(1, 0.5, 0.25)).Set("intensity", 4.0)
	surface := m.Commit(Env{}).Resolve(surfaceAt(0, 0))
	assert.Equal(t, core.NewVec3(4, 2, 1), surface.Emission)
	assert.Equal(t, core.Vec3{}, surface.Diffuse)
}
