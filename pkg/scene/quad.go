package scene

import (
	"math"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// Quad is a parallelogram defined by a corner and two edge vectors.
// UV runs from (0,0) at the corner to (1,1) at corner+U+V.
type Quad struct {
	Corner     core.Vec3
	U          core.Vec3
	V          core.Vec3
	MaterialID int

	normal core.Vec3
	d      float64   // Plane equation constant: normal · p = d
	w      core.Vec3 // Cached vector for the planar coordinates
}

// NewQuad creates a quad from a corner point and two edge vectors
func NewQuad(corner, u, v core.Vec3, materialID int) *Quad {
	cross := u.Cross(v)
	normal := cross.Normalize()
	return &Quad{
		Corner:     corner,
		U:          u,
		V:          v,
		MaterialID: materialID,
		normal:     normal,
		d:          normal.Dot(corner),
		w:          cross.Multiply(1.0 / cross.Dot(cross)),
	}
}

// Intersect tests if a ray intersects the quad
func (q *Quad) Intersect(ray core.Ray, tMin, tMax float64) (Hit, bool) {
	denominator := ray.Direction.Dot(q.normal)

	// Parallel to the quad
	if math.Abs(denominator) < 1e-8 {
		return Hit{}, false
	}

	t := (q.d - ray.Origin.Dot(q.normal)) / denominator
	if t <= tMin || t >= tMax {
		return Hit{}, false
	}

	point := ray.At(t)
	planar := point.Subtract(q.Corner)
	alpha := q.w.Dot(planar.Cross(q.V))
	beta := q.w.Dot(q.U.Cross(planar))
	if alpha < 0 || alpha > 1 || beta < 0 || beta > 1 {
		return Hit{}, false
	}

	hit := Hit{
		T:          t,
		Point:      point,
		UV:         core.NewVec2(alpha, beta),
		Tangent:    q.U.Normalize(),
		Bitangent:  q.V.Normalize(),
		MaterialID: q.MaterialID,
	}
	hit.setFaceNormal(ray, q.normal)
	return hit, true
}

// Bounds returns the bounding box of the quad, padded so flat quads have volume
func (q *Quad) Bounds() AABB {
	corners := []core.Vec3{q.Corner, q.Corner.Add(q.U), q.Corner.Add(q.V), q.Corner.Add(q.U).Add(q.V)}
	b := NewAABB(corners[0], corners[0])
	for _, c := range corners[1:] {
		b = b.Union(NewAABB(c, c))
	}
	b.Min = b.Min.Subtract(core.Splat(1e-4))
	b.Max = b.Max.Add(core.Splat(1e-4))
	return b
}
