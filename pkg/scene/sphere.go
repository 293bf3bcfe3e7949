package scene

import (
	"math"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// Sphere represents a sphere shape with spherical UV mapping.
// U wraps around the Y axis, V runs from 0 at the bottom pole to 1 at the top.
type Sphere struct {
	Center     core.Vec3
	Radius     float64
	MaterialID int
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64, materialID int) *Sphere {
	return &Sphere{Center: center, Radius: radius, MaterialID: materialID}
}

// Intersect tests if a ray intersects the sphere
func (s *Sphere) Intersect(ray core.Ray, tMin, tMax float64) (Hit, bool) {
	// Quadratic equation coefficients: at² + bt + c = 0
	oc := ray.Origin.Subtract(s.Center)
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return Hit{}, false
	}

	// Try the closer root first
	sqrtD := math.Sqrt(discriminant)
	root := (-halfB - sqrtD) / a
	if root <= tMin || root >= tMax {
		root = (-halfB + sqrtD) / a
		if root <= tMin || root >= tMax {
			return Hit{}, false
		}
	}

	hit := Hit{T: root, Point: ray.At(root), MaterialID: s.MaterialID}
	outward := hit.Point.Subtract(s.Center).Multiply(1.0 / s.Radius)
	hit.setFaceNormal(ray, outward)
	hit.UV, hit.Tangent, hit.Bitangent = sphereFrame(outward)

	return hit, true
}

// sphereFrame returns the UV and the +U/+V tangents for a unit outward normal
func sphereFrame(n core.Vec3) (core.Vec2, core.Vec3, core.Vec3) {
	phi := math.Atan2(n.Z, n.X)
	theta := math.Acos(math.Max(-1, math.Min(1, n.Y)))
	uv := core.NewVec2(phi/(2*math.Pi)+0.5, 1-theta/math.Pi)

	tangent := core.NewVec3(-n.Z, 0, n.X)
	if tangent.LengthSquared() < 1e-12 {
		// Poles: any frame will do
		t, b := core.OrthonormalBasis(n)
		return uv, t, b
	}
	tangent = tangent.Normalize()
	return uv, tangent, tangent.Cross(n)
}

// Bounds returns the bounding box of the sphere
func (s *Sphere) Bounds() AABB {
	r := core.Splat(math.Abs(s.Radius))
	return NewAABB(s.Center.Subtract(r), s.Center.Add(r))
}
