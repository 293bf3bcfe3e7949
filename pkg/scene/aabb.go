package scene

import (
	"math"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min core.Vec3
	Max core.Vec3
}

// NewAABB creates a new AABB from min and max points
func NewAABB(min, max core.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// Hit tests if a ray intersects this AABB using the slab method
func (b AABB) Hit(ray core.Ray, tMin, tMax float64) bool {
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}
	origin := [3]float64{ray.Origin.X, ray.Origin.Y, ray.Origin.Z}
	dir := [3]float64{ray.Direction.X, ray.Direction.Y, ray.Direction.Z}

	for axis := 0; axis < 3; axis++ {
		// Parallel to this slab
		if math.Abs(dir[axis]) < 1e-8 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return false
			}
			continue
		}

		inv := 1.0 / dir[axis]
		t1 := (lo[axis] - origin[axis]) * inv
		t2 := (hi[axis] - origin[axis]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}
	return true
}

// Union returns an AABB that bounds both boxes
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: core.NewVec3(math.Min(b.Min.X, other.Min.X), math.Min(b.Min.Y, other.Min.Y), math.Min(b.Min.Z, other.Min.Z)),
		Max: core.NewVec3(math.Max(b.Max.X, other.Max.X), math.Max(b.Max.Y, other.Max.Y), math.Max(b.Max.Z, other.Max.Z)),
	}
}

// Center returns the center point of the box
func (b AABB) Center() core.Vec3 {
	return b.Min.Add(b.Max).Multiply(0.5)
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the longest extent
func (b AABB) LongestAxis() int {
	size := b.Max.Subtract(b.Min)
	if size.X > size.Y && size.X > size.Z {
		return 0
	}
	if size.Y > size.Z {
		return 1
	}
	return 2
}

func axisValue(v core.Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
