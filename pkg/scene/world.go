package scene

import (
	"fmt"
	"math"
	"slices"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/lights"
)

// Epsilon offsets secondary rays off the surface they start on
const Epsilon = 1e-4

// Background returns the radiance seen along rays that hit nothing
type Background func(ray core.Ray) core.Vec3

// SolidBackground returns a background of a single color
func SolidBackground(color core.Vec3) Background {
	return func(core.Ray) core.Vec3 { return color }
}

// GradientBackground blends from bottom to top by the ray's Y direction
func GradientBackground(top, bottom core.Vec3) Background {
	return func(ray core.Ray) core.Vec3 {
		t := 0.5 * (ray.Direction.Normalize().Y + 1)
		return bottom.Lerp(top, t)
	}
}

// World is the concrete Scene: spheres and planes, a camera, a background and
// the light records. It is mutated only between frames.
type World struct {
	camera     Camera
	background Background

	shapes []Shape // Bounded shapes, indexed by the BVH
	planes []*Plane
	bvh    *BVH

	lights        []lights.Record
	lightsVersion uint64
}

// NewWorld creates an empty world with the given camera
func NewWorld(camera Camera) *World {
	if camera == nil {
		camera = NewLookAtCamera(DefaultCameraConfig())
	}
	return &World{
		camera:     camera,
		background: GradientBackground(core.NewVec3(0.5, 0.7, 1.0), core.NewVec3(1, 1, 1)),
		bvh:        NewBVH(nil),
	}
}

// SetCamera replaces the camera
func (w *World) SetCamera(camera Camera) { w.camera = camera }

// SetBackground replaces the background
func (w *World) SetBackground(bg Background) { w.background = bg }

// AddShape adds a bounded shape and rebuilds the BVH
func (w *World) AddShape(shapes ...Shape) {
	w.shapes = append(w.shapes, shapes...)
	w.bvh = NewBVH(w.shapes)
}

// AddSphere adds a sphere bound to materialID
func (w *World) AddSphere(center core.Vec3, radius float64, materialID int) *Sphere {
	s := NewSphere(center, radius, materialID)
	w.AddShape(s)
	return s
}

// AddQuad adds a parallelogram bound to materialID
func (w *World) AddQuad(corner, u, v core.Vec3, materialID int) *Quad {
	q := NewQuad(corner, u, v, materialID)
	w.AddShape(q)
	return q
}

// AddPlane adds an infinite plane bound to materialID
func (w *World) AddPlane(point, normal core.Vec3, uvScale float64, materialID int) *Plane {
	p := NewPlane(point, normal, uvScale, materialID)
	w.planes = append(w.planes, p)
	return p
}

// AddLight appends a light record and returns its index
func (w *World) AddLight(rec lights.Record) int {
	w.lights = append(w.lights, rec)
	w.lightsVersion++
	return len(w.lights) - 1
}

// SetLight replaces the light record at index i
func (w *World) SetLight(i int, rec lights.Record) error {
	if i < 0 || i >= len(w.lights) {
		return fmt.Errorf("light index %d out of range [0, %d)", i, len(w.lights))
	}
	w.lightsVersion += 1 + w.lights[i].Params.Version()
	w.lights[i] = rec
	return nil
}

// RemoveLight deletes the light record at index i
func (w *World) RemoveLight(i int) error {
	if i < 0 || i >= len(w.lights) {
		return fmt.Errorf("light index %d out of range [0, %d)", i, len(w.lights))
	}
	// Fold the removed record's version in so LightsVersion never repeats
	w.lightsVersion += 1 + w.lights[i].Params.Version()
	w.lights = slices.Delete(w.lights, i, i+1)
	return nil
}

// Camera implements Scene
func (w *World) Camera() Camera { return w.camera }

// Background implements Scene
func (w *World) Background(ray core.Ray) core.Vec3 {
	if w.background == nil {
		return core.Vec3{}
	}
	return w.background(ray)
}

// LightRecords implements Scene. The returned slice is a copy; the parameter
// sets are shared.
func (w *World) LightRecords() []lights.Record {
	return slices.Clone(w.lights)
}

// LightsVersion implements Scene. It changes whenever a record is added,
// replaced or removed, or any record's parameters are edited.
func (w *World) LightsVersion() uint64 {
	v := w.lightsVersion
	for _, rec := range w.lights {
		v += rec.Params.Version()
	}
	return v
}

// Trace implements Tracer
func (w *World) Trace(ray core.Ray) (Hit, bool, error) {
	if err := validateRay(ray); err != nil {
		return Hit{}, false, err
	}
	hit, ok := w.closest(ray, Epsilon, math.Inf(1))
	return hit, ok, nil
}

// Occluded implements Tracer
func (w *World) Occluded(ray core.Ray, maxDist float64) bool {
	if validateRay(ray) != nil {
		return false
	}
	_, ok := w.closest(ray, Epsilon, maxDist-Epsilon)
	return ok
}

func (w *World) closest(ray core.Ray, tMin, tMax float64) (Hit, bool) {
	closest, found := w.bvh.Intersect(ray, tMin, tMax)
	if found {
		tMax = closest.T
	}
	for _, p := range w.planes {
		if hit, ok := p.Intersect(ray, tMin, tMax); ok {
			closest, found, tMax = hit, true, hit.T
		}
	}
	return closest, found
}

func validateRay(ray core.Ray) error {
	if !ray.Origin.IsFinite() || !ray.Direction.IsFinite() || ray.Direction.LengthSquared() == 0 {
		return fmt.Errorf("%w: origin %v direction %v", ErrDegenerateRay, ray.Origin, ray.Direction)
	}
	return nil
}
