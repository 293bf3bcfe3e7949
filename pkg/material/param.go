package material

import (
	"math"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/texture"
	"github.com/go-gl/mathgl/mgl64"
)

// Affine2 is a 2D affine transform applied to UV coordinates before sampling.
// It is stored as a homogeneous 3x3 matrix; the zero value is not valid, use
// IdentityAffine2.
type Affine2 struct {
	M mgl64.Mat3
}

// IdentityAffine2 returns the identity UV transform
func IdentityAffine2() Affine2 {
	return Affine2{M: mgl64.Ident3()}
}

// Translate2 returns a UV translation
func Translate2(tx, ty float64) Affine2 {
	return Affine2{M: mgl64.Translate2D(tx, ty)}
}

// Scale2 returns a UV scale
func Scale2(sx, sy float64) Affine2 {
	return Affine2{M: mgl64.Scale2D(sx, sy)}
}

// Rotate2 returns a counter-clockwise UV rotation by angle radians about the origin
func Rotate2(angle float64) Affine2 {
	return Affine2{M: mgl64.HomogRotate2D(angle)}
}

// Then returns the transform applying a first and then next
func (a Affine2) Then(next Affine2) Affine2 {
	return Affine2{M: next.M.Mul3(a.M)}
}

// Apply transforms uv
func (a Affine2) Apply(uv core.Vec2) core.Vec2 {
	p := a.M.Mul3x1(mgl64.Vec3{uv.X, uv.Y, 1})
	return core.NewVec2(p[0], p[1])
}

// Linear returns the linear (upper-left 2x2) part of the transform
func (a Affine2) Linear() Linear2 {
	return Linear2{M: mgl64.Mat2{a.M[0], a.M[1], a.M[3], a.M[4]}}
}

// Linear2 is a 2x2 linear transform applied to tangent-space perturbations
type Linear2 struct {
	M mgl64.Mat2
}

// IdentityLinear2 returns the identity linear transform
func IdentityLinear2() Linear2 {
	return Linear2{M: mgl64.Ident2()}
}

// Apply transforms (x, y)
func (l Linear2) Apply(x, y float64) (float64, float64) {
	p := l.M.Mul2x1(mgl64.Vec2{x, y})
	return p[0], p[1]
}

// Orthogonal returns the rotation-only part of l, dropping scale and shear
func (l Linear2) Orthogonal() Linear2 {
	c0 := mgl64.Vec2{l.M[0], l.M[1]}
	if c0.Len() == 0 {
		return IdentityLinear2()
	}
	c0 = c0.Normalize()
	c1 := mgl64.Vec2{-c0[1], c0[0]}
	if l.M.Det() < 0 {
		c1 = c1.Mul(-1)
	}
	return Linear2{M: mgl64.Mat2{c0[0], c0[1], c1[0], c1[1]}}
}

// Transposed returns the transpose, which inverts a rotation
func (l Linear2) Transposed() Linear2 {
	return Linear2{M: l.M.Transpose()}
}

// Param1f is a scalar shading input: factor, optionally modulated by the red
// channel of a texture sampled at Transform(uv)
type Param1f struct {
	Factor    float64
	Map       texture.Texture
	Transform Affine2
}

// Resolve returns the parameter value at uv
func (p Param1f) Resolve(uv core.Vec2) float64 {
	if p.Map == nil {
		return p.Factor
	}
	s, ok := p.Map.Sample(p.Transform.Apply(uv))
	if !ok {
		return p.Factor
	}
	return p.Factor * s.X
}

// Param3f is a color shading input: factor, optionally multiplied
// component-wise by a texture sampled at Transform(uv)
type Param3f struct {
	Factor    core.Vec3
	Map       texture.Texture
	Transform Affine2
}

// Resolve returns the parameter value at uv
func (p Param3f) Resolve(uv core.Vec2) core.Vec3 {
	if p.Map == nil {
		return p.Factor
	}
	s, ok := p.Map.Sample(p.Transform.Apply(uv))
	if !ok {
		return p.Factor
	}
	return p.Factor.MultiplyVec(s)
}

// Frame is an orthonormal shading frame
type Frame struct {
	Tangent   core.Vec3
	Bitangent core.Vec3
	Normal    core.Vec3
}

// NormalParam is a normal-map input. Strength scales the tangent-space
// perturbation; Rotation undoes the UV rotation so perturbations stay aligned
// with the surface tangents.
type NormalParam struct {
	Strength  float64
	Map       texture.Texture
	Transform Affine2
	Rotation  Linear2
}

// Resolve returns the shading normal at uv for the given frame
func (p NormalParam) Resolve(uv core.Vec2, frame Frame) core.Vec3 {
	if p.Map == nil {
		return frame.Normal
	}
	s, ok := p.Map.Sample(p.Transform.Apply(uv))
	if !ok {
		return frame.Normal
	}

	// Decode [0,1] texel to a [-1,1] tangent-space direction
	x, y := p.Rotation.Apply(2*s.X-1, 2*s.Y-1)
	z := 2*s.Z - 1

	n := frame.Tangent.Multiply(x * p.Strength).
		Add(frame.Bitangent.Multiply(y * p.Strength)).
		Add(frame.Normal.Multiply(z))
	n = n.Normalize()
	if n.LengthSquared() == 0 || !n.IsFinite() {
		return frame.Normal
	}
	return n
}

// textureTransform composes the UV transform for a texture parameter: scale
// and rotation about the UV center (0.5, 0.5), then translation.
func textureTransform(scale core.Vec2, rotationDegrees float64, translation core.Vec2) Affine2 {
	sx, sy := scale.X, scale.Y
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return Translate2(-0.5, -0.5).
		Then(Scale2(sx, sy)).
		Then(Rotate2(rotationDegrees * math.Pi / 180)).
		Then(Translate2(0.5, 0.5)).
		Then(Translate2(translation.X, translation.Y))
}
