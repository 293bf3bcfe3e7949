package scene

import (
	"math"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// Plane represents an infinite plane defined by a point and normal, with
// planar UVs repeating every UVScale world units
type Plane struct {
	Point      core.Vec3
	Normal     core.Vec3
	UVScale    float64
	MaterialID int

	tangent   core.Vec3
	bitangent core.Vec3
}

// NewPlane creates a new plane
func NewPlane(point, normal core.Vec3, uvScale float64, materialID int) *Plane {
	n := normal.Normalize()
	t, b := core.OrthonormalBasis(n)
	if uvScale <= 0 {
		uvScale = 1
	}
	return &Plane{Point: point, Normal: n, UVScale: uvScale, MaterialID: materialID, tangent: t, bitangent: b}
}

// Intersect tests if a ray intersects the plane
func (p *Plane) Intersect(ray core.Ray, tMin, tMax float64) (Hit, bool) {
	denominator := ray.Direction.Dot(p.Normal)

	// Parallel to the plane
	if math.Abs(denominator) < 1e-8 {
		return Hit{}, false
	}

	t := p.Point.Subtract(ray.Origin).Dot(p.Normal) / denominator
	if t <= tMin || t >= tMax {
		return Hit{}, false
	}

	hit := Hit{T: t, Point: ray.At(t), MaterialID: p.MaterialID, Tangent: p.tangent, Bitangent: p.bitangent}
	hit.setFaceNormal(ray, p.Normal)

	local := hit.Point.Subtract(p.Point)
	hit.UV = core.NewVec2(local.Dot(p.tangent)/p.UVScale, local.Dot(p.bitangent)/p.UVScale)

	return hit, true
}
