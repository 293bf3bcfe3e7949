package scene

import (
	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/lights"
)

// DefaultMaterials binds the surfaces of the default scene to material IDs
type DefaultMaterials struct {
	Ground int
	Center int
	Left   int
	Right  int
}

// NewDefaultWorld creates the default scene: three spheres on a ground plane
// lit by a sun, a warm point light, a spot and a little ambient
func NewDefaultWorld(m DefaultMaterials, cameraOverrides ...CameraConfig) *World {
	cameraConfig := DefaultCameraConfig()
	if len(cameraOverrides) > 0 {
		cameraConfig = cameraOverrides[0]
	}
	w := NewWorld(NewLookAtCamera(cameraConfig))

	w.AddPlane(core.Vec3{}, core.NewVec3(0, 1, 0), 0.5, m.Ground)
	w.AddSphere(core.NewVec3(0, 0.5, -1), 0.5, m.Center)
	w.AddSphere(core.NewVec3(-1, 0.5, -1), 0.5, m.Left)
	w.AddSphere(core.NewVec3(1, 0.5, -1), 0.5, m.Right)

	w.AddLight(lights.NewRecord("directional", map[string]any{
		"direction": core.NewVec3(-0.4, -1, -0.6),
		"color":     core.NewVec3(1.0, 0.95, 0.9),
		"intensity": 1.2,
	}))
	w.AddLight(lights.NewRecord("point", map[string]any{
		"position":  core.NewVec3(2, 2.5, 1),
		"color":     core.NewVec3(1.0, 0.8, 0.6),
		"intensity": 6.0,
	}))
	w.AddLight(lights.NewRecord("spot", map[string]any{
		"position":      core.NewVec3(0, 3, -1),
		"direction":     core.NewVec3(0, -1, 0),
		"openingAngle":  35.0,
		"penumbraAngle": 8.0,
		"intensity":     4.0,
	}))
	w.AddLight(lights.NewRecord("ambient", map[string]any{
		"color":     core.NewVec3(0.5, 0.7, 1.0),
		"intensity": 0.15,
	}))

	return w
}
