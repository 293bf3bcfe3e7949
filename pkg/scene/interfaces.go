// Package scene is the tracing boundary of the renderer: cameras, ray
// intersection, background and the scene-side light records.
package scene

import (
	"errors"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/lights"
)

// ErrDegenerateRay is returned by Trace for rays that cannot be traced
// (zero-length or non-finite direction, non-finite origin)
var ErrDegenerateRay = errors.New("degenerate ray")

// Hit contains information about a ray-surface intersection
type Hit struct {
	T          float64   // Parameter t along the ray
	Point      core.Vec3 // Point of intersection
	Normal     core.Vec3 // Shading normal, facing the incoming ray
	Tangent    core.Vec3 // Surface tangent along +U
	Bitangent  core.Vec3 // Surface tangent along +V
	UV         core.Vec2 // Surface texture coordinates
	MaterialID int       // Renderer-side material binding
	FrontFace  bool      // Whether the ray hit the outward face
}

// setFaceNormal sets the normal and determines front/back face
func (h *Hit) setFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
}

// Camera generates primary rays
type Camera interface {
	// GetRay returns the ray through pixel-space position (px, py), where
	// integer coordinates are pixel corners and y grows downwards
	GetRay(px, py float64, width, height int) core.Ray
}

// Tracer answers intersection queries. Implementations must be safe for
// concurrent use by tile workers.
type Tracer interface {
	// Trace returns the closest hit along ray. ok is false on a miss.
	Trace(ray core.Ray) (hit Hit, ok bool, err error)

	// Occluded reports whether anything blocks ray before maxDist
	Occluded(ray core.Ray, maxDist float64) bool
}

// Scene is everything the renderer needs from the outside world
type Scene interface {
	Tracer
	Camera() Camera
	Background(ray core.Ray) core.Vec3
	LightRecords() []lights.Record
	LightsVersion() uint64
}

// Shape is a traceable primitive
type Shape interface {
	Intersect(ray core.Ray, tMin, tMax float64) (Hit, bool)
	Bounds() AABB
}
