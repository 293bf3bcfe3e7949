package scene

import (
	"math"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// Triangle is a single triangle with per-vertex texture coordinates
type Triangle struct {
	V0, V1, V2    core.Vec3
	UV0, UV1, UV2 core.Vec2
	MaterialID    int

	normal    core.Vec3 // Cached geometric normal
	tangent   core.Vec3 // Cached +U direction
	bitangent core.Vec3 // Cached +V direction
	bounds    AABB
}

// NewTriangle creates a triangle with barycentric UVs (0,0), (1,0), (0,1)
func NewTriangle(v0, v1, v2 core.Vec3, materialID int) *Triangle {
	return NewTriangleUV(v0, v1, v2, core.NewVec2(0, 0), core.NewVec2(1, 0), core.NewVec2(0, 1), materialID)
}

// NewTriangleUV creates a triangle with explicit vertex UVs
func NewTriangleUV(v0, v1, v2 core.Vec3, uv0, uv1, uv2 core.Vec2, materialID int) *Triangle {
	t := &Triangle{V0: v0, V1: v1, V2: v2, UV0: uv0, UV1: uv1, UV2: uv2, MaterialID: materialID}

	edge1 := v1.Subtract(v0)
	edge2 := v2.Subtract(v0)
	t.normal = edge1.Cross(edge2).Normalize()
	t.tangent, t.bitangent = uvTangents(edge1, edge2, uv1.Subtract(uv0), uv2.Subtract(uv0), t.normal)

	t.bounds = NewAABB(v0, v0).Union(NewAABB(v1, v1)).Union(NewAABB(v2, v2))
	// Axis-aligned triangles get a little thickness so the slab test can hit them
	t.bounds.Min = t.bounds.Min.Subtract(core.Splat(1e-6))
	t.bounds.Max = t.bounds.Max.Add(core.Splat(1e-6))

	return t
}

// uvTangents solves for the surface directions of increasing U and V,
// falling back to an arbitrary frame when the UV mapping is degenerate
func uvTangents(edge1, edge2 core.Vec3, duv1, duv2 core.Vec2, normal core.Vec3) (core.Vec3, core.Vec3) {
	det := duv1.X*duv2.Y - duv2.X*duv1.Y
	if math.Abs(det) < 1e-12 {
		return core.OrthonormalBasis(normal)
	}
	r := 1 / det
	tangent := edge1.Multiply(duv2.Y * r).Subtract(edge2.Multiply(duv1.Y * r))

	// Gram-Schmidt against the normal
	tangent = tangent.Subtract(normal.Multiply(normal.Dot(tangent)))
	if tangent.LengthSquared() < 1e-18 {
		return core.OrthonormalBasis(normal)
	}
	tangent = tangent.Normalize()

	bitangent := normal.Cross(tangent)
	if bitangent.Dot(edge2.Multiply(duv1.X*r).Subtract(edge1.Multiply(duv2.X*r))) < 0 {
		bitangent = bitangent.Negate()
	}
	return tangent, bitangent
}

// Intersect tests if a ray intersects the triangle using the Möller-Trumbore algorithm
func (t *Triangle) Intersect(ray core.Ray, tMin, tMax float64) (Hit, bool) {
	const epsilon = 1e-8

	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// Ray lies in the plane of the triangle
	if a > -epsilon && a < epsilon {
		return Hit{}, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return Hit{}, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return Hit{}, false
	}

	tHit := f * edge2.Dot(q)
	if tHit <= tMin || tHit >= tMax {
		return Hit{}, false
	}

	w := 1 - u - v
	hit := Hit{
		T:          tHit,
		Point:      ray.At(tHit),
		MaterialID: t.MaterialID,
		Tangent:    t.tangent,
		Bitangent:  t.bitangent,
		UV: core.NewVec2(
			w*t.UV0.X+u*t.UV1.X+v*t.UV2.X,
			w*t.UV0.Y+u*t.UV1.Y+v*t.UV2.Y,
		),
	}
	hit.setFaceNormal(ray, t.normal)
	return hit, true
}

// Bounds returns the bounding box of the triangle
func (t *Triangle) Bounds() AABB {
	return t.bounds
}
