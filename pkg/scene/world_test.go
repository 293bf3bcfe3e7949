package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/lights"
)

func TestWorld_TraceClosest(t *testing.T) {
	w := NewWorld(nil)
	w.AddPlane(core.Vec3{}, core.NewVec3(0, 1, 0), 1, 1)
	w.AddSphere(core.NewVec3(0, 1, -5), 1, 2)

	ray := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, 0, -1))
	hit, ok, err := w.Trace(ray)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, hit.MaterialID)
	assert.InDelta(t, 4.0, hit.T, 1e-9)
	assert.True(t, hit.FrontFace)
	assert.InDelta(t, 1.0, hit.Normal.Z, 1e-9)

	down := core.NewRay(core.NewVec3(3, 1, 0), core.NewVec3(0, -1, 0))
	hit, ok, err = w.Trace(down)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, hit.MaterialID)
	assert.InDelta(t, 1.0, hit.T, 1e-9)
}

func TestWorld_TraceMiss(t *testing.T) {
	w := NewWorld(nil)
	w.AddSphere(core.NewVec3(0, 0, -5), 1, 0)

	_, ok, err := w.Trace(core.NewRay(core.Vec3{}, core.NewVec3(0, 1, 0)))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWorld_DegenerateRay(t *testing.T) {
	w := NewWorld(nil)

	tests := []struct {
		name string
		ray  core.Ray
	}{
		{"zero direction", core.NewRay(core.Vec3{}, core.Vec3{})},
		{"nan direction", core.NewRay(core.Vec3{}, core.NewVec3(math.NaN(), 0, 1))},
		{"inf origin", core.NewRay(core.NewVec3(math.Inf(1), 0, 0), core.NewVec3(0, 0, 1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := w.Trace(tt.ray)
			assert.False(t, ok)
			assert.True(t, errors.Is(err, ErrDegenerateRay))
			assert.False(t, w.Occluded(tt.ray, 10))
		})
	}
}

func TestWorld_Occluded(t *testing.T) {
	w := NewWorld(nil)
	w.AddSphere(core.NewVec3(0, 0, -5), 1, 0)

	ray := core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1))
	assert.True(t, w.Occluded(ray, 10))
	assert.False(t, w.Occluded(ray, 3.5), "blocker beyond maxDist")
}

func TestWorld_ManySpheresUseBVH(t *testing.T) {
	w := NewWorld(nil)
	for i := 0; i < 50; i++ {
		w.AddSphere(core.NewVec3(float64(i)*3, 0, -10), 1, i)
	}

	for _, i := range []int{0, 17, 49} {
		ray := core.NewRay(core.NewVec3(float64(i)*3, 0, 0), core.NewVec3(0, 0, -1))
		hit, ok, err := w.Trace(ray)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, i, hit.MaterialID)
	}
}

func TestSphere_UVAndFrame(t *testing.T) {
	s := NewSphere(core.Vec3{}, 1, 0)

	hit, ok := s.Intersect(core.NewRay(core.NewVec3(5, 0, 0), core.NewVec3(-1, 0, 0)), Epsilon, math.Inf(1))
	require.True(t, ok)
	assert.InDelta(t, 0.5, hit.UV.X, 1e-9)
	assert.InDelta(t, 0.5, hit.UV.Y, 1e-9)

	// Tangent frame is orthonormal and right-handed around the outward normal
	assert.InDelta(t, 0.0, hit.Tangent.Dot(hit.Normal), 1e-9)
	assert.InDelta(t, 0.0, hit.Bitangent.Dot(hit.Normal), 1e-9)
	assert.InDelta(t, 1.0, hit.Tangent.Length(), 1e-9)
	assert.InDelta(t, 1.0, hit.Bitangent.Y, 1e-9, "+V points to the top pole")

	top, ok := s.Intersect(core.NewRay(core.NewVec3(0, 5, 0), core.NewVec3(0, -1, 0)), Epsilon, math.Inf(1))
	require.True(t, ok)
	assert.InDelta(t, 1.0, top.UV.Y, 1e-9)
	assert.InDelta(t, 1.0, top.Tangent.Length(), 1e-9)
}

func TestPlane_UV(t *testing.T) {
	p := NewPlane(core.Vec3{}, core.NewVec3(0, 1, 0), 2, 0)
	hit, ok := p.Intersect(core.NewRay(core.NewVec3(0, 1, 4), core.NewVec3(0, -1, 0)), Epsilon, math.Inf(1))
	require.True(t, ok)
	assert.InDelta(t, 2.0, hit.UV.X, 1e-9)
	assert.InDelta(t, 0.0, hit.UV.Y, 1e-9)

	_, ok = p.Intersect(core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(1, 0, 0)), Epsilon, math.Inf(1))
	assert.False(t, ok, "parallel ray")
}

func TestWorld_LightsVersion(t *testing.T) {
	w := NewWorld(nil)
	v0 := w.LightsVersion()

	i := w.AddLight(lights.NewRecord("point", nil))
	v1 := w.LightsVersion()
	assert.Greater(t, v1, v0)

	w.LightRecords()[i].Params.Set("intensity", 2.0)
	v2 := w.LightsVersion()
	assert.Greater(t, v2, v1, "editing shared params changes the version")

	require.NoError(t, w.SetLight(i, lights.NewRecord("ambient", nil)))
	v3 := w.LightsVersion()
	assert.Greater(t, v3, v2)

	require.NoError(t, w.RemoveLight(i))
	assert.Greater(t, w.LightsVersion(), v3)
	assert.Empty(t, w.LightRecords())

	assert.Error(t, w.RemoveLight(0))
	assert.Error(t, w.SetLight(3, lights.Record{}))
}

func TestBackgrounds(t *testing.T) {
	bg := GradientBackground(core.NewVec3(0, 0, 1), core.NewVec3(1, 0, 0))
	assert.Equal(t, core.NewVec3(0, 0, 1), bg(core.NewRay(core.Vec3{}, core.NewVec3(0, 1, 0))))
	assert.Equal(t, core.NewVec3(1, 0, 0), bg(core.NewRay(core.Vec3{}, core.NewVec3(0, -1, 0))))

	w := NewWorld(nil)
	w.SetBackground(SolidBackground(core.Splat(0.25)))
	assert.Equal(t, core.Splat(0.25), w.Background(core.NewRay(core.Vec3{}, core.NewVec3(1, 0, 0))))
}

func TestLookAtCamera_CenterRay(t *testing.T) {
	cam := NewLookAtCamera(CameraConfig{
		LookFrom: core.Vec3{},
		LookAt:   core.NewVec3(0, 0, -1),
		Up:       core.NewVec3(0, 1, 0),
		VFov:     90,
	})

	center := cam.GetRay(50, 25, 100, 50)
	assert.InDelta(t, -1.0, center.Direction.Z, 1e-9)

	// Top-left corner: +Y up, -X left, 2:1 aspect
	corner := cam.GetRay(0, 0, 100, 50)
	assert.Less(t, corner.Direction.X, 0.0)
	assert.Greater(t, corner.Direction.Y, 0.0)
	assert.InDelta(t, 2.0, corner.Direction.X/-corner.Direction.Y, 1e-9)
}

func TestNewDefaultWorld(t *testing.T) {
	w := NewDefaultWorld(DefaultMaterials{Ground: 0, Center: 1, Left: 2, Right: 3})
	assert.Len(t, w.LightRecords(), 4)

	list, err := lights.Build(w.LightRecords(), lights.NewDefaultRegistry())
	require.NoError(t, err)
	assert.Equal(t, 4, list.Len())

	ray := w.Camera().GetRay(200, 112, 400, 225)
	_, ok, err := w.Trace(ray)
	require.NoError(t, err)
	assert.True(t, ok)
}
