package scene

import (
	"math"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// CameraConfig positions a look-at pinhole camera
type CameraConfig struct {
	LookFrom core.Vec3
	LookAt   core.Vec3
	Up       core.Vec3
	VFov     float64 // Vertical field of view in degrees
}

// DefaultCameraConfig returns a camera looking down -Z from slightly above the origin
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		LookFrom: core.NewVec3(0, 0.75, 2),
		LookAt:   core.NewVec3(0, 0.5, -1),
		Up:       core.NewVec3(0, 1, 0),
		VFov:     40,
	}
}

// LookAtCamera is a pinhole camera. The aspect ratio follows the framebuffer
// passed to GetRay.
type LookAtCamera struct {
	origin     core.Vec3
	forward    core.Vec3
	right      core.Vec3
	up         core.Vec3
	halfHeight float64
}

// NewLookAtCamera creates a camera from config
func NewLookAtCamera(config CameraConfig) *LookAtCamera {
	forward := config.LookAt.Subtract(config.LookFrom).Normalize()
	right := forward.Cross(config.Up).Normalize()
	up := right.Cross(forward)

	return &LookAtCamera{
		origin:     config.LookFrom,
		forward:    forward,
		right:      right,
		up:         up,
		halfHeight: math.Tan(config.VFov * math.Pi / 360),
	}
}

// GetRay implements Camera
func (c *LookAtCamera) GetRay(px, py float64, width, height int) core.Ray {
	aspect := float64(width) / float64(height)
	halfWidth := aspect * c.halfHeight

	// Normalized device coordinates in [-1, 1], +Y up
	s := 2*px/float64(width) - 1
	t := 1 - 2*py/float64(height)

	direction := c.forward.
		Add(c.right.Multiply(s * halfWidth)).
		Add(c.up.Multiply(t * c.halfHeight))

	return core.NewRay(c.origin, direction.Normalize())
}
