package material

import (
	"github.com/df07/go-tile-raytracer/pkg/core"
)

// Registry names of the single-lobe materials
const (
	TypeLambertian = "lambertian"
	TypeMetal      = "metal"
	TypeDielectric = "dielectric"
	TypeEmissive   = "emissive"
)

// Lambertian is a purely diffuse material: albedo (textureable, default 0.5)
type Lambertian struct {
	Base
}

// NewLambertian creates an uncommitted lambertian material
func NewLambertian() *Lambertian {
	return &Lambertian{Base: newBase(TypeLambertian)}
}

// LambertianShading is the committed form of a Lambertian
type LambertianShading struct {
	Albedo Param3f
}

// Commit implements Material
func (m *Lambertian) Commit(env Env) Shading {
	g := newGatherer(&m.Base, env)
	s := &LambertianShading{Albedo: g.param3f("albedo", core.Splat(0.5))}
	m.publish(s)
	return s
}

// Resolve implements Shading
func (s *LambertianShading) Resolve(p SurfacePoint) Surface {
	return Surface{
		Diffuse:   s.Albedo.Resolve(p.UV),
		Roughness: 1,
		Shininess: roughnessToShininess(1),
		Opacity:   1,
		Normal:    p.Normal,
		IOR:       1,
	}
}

// Metal is a specular conductor: albedo tints the reflection, fuzz (0 =
// mirror, 1 = very rough) sets the roughness
type Metal struct {
	Base
}

// NewMetal creates an uncommitted metal material
func NewMetal() *Metal {
	return &Metal{Base: newBase(TypeMetal)}
}

// MetalShading is the committed form of a Metal
type MetalShading struct {
	Albedo Param3f
	Fuzz   Param1f
}

// Commit implements Material. Defaults: albedo 0.9, fuzz 0.
func (m *Metal) Commit(env Env) Shading {
	g := newGatherer(&m.Base, env)
	s := &MetalShading{
		Albedo: g.param3f("albedo", core.Splat(0.9)),
		Fuzz:   g.param1f("fuzz", 0),
	}
	m.publish(s)
	return s
}

// Resolve implements Shading
func (s *MetalShading) Resolve(p SurfacePoint) Surface {
	// Fuzz is clamped like the roughness it stands for
	fuzz := clamp01(s.Fuzz.Resolve(p.UV))
	return Surface{
		Specular:  s.Albedo.Resolve(p.UV),
		Roughness: fuzz,
		Shininess: roughnessToShininess(fuzz),
		Metallic:  1,
		Opacity:   1,
		Normal:    p.Normal,
		IOR:       1,
	}
}

// Dielectric is clear glass: fully transmissive with Fresnel reflectance
// from ior (default 1.5) and an optional transmission tint
type Dielectric struct {
	Base
}

// NewDielectric creates an uncommitted dielectric material
func NewDielectric() *Dielectric {
	return &Dielectric{Base: newBase(TypeDielectric)}
}

// DielectricShading is the committed form of a Dielectric
type DielectricShading struct {
	IOR   float64
	Color core.Vec3
}

// Commit implements Material
func (m *Dielectric) Commit(env Env) Shading {
	g := newGatherer(&m.Base, env)
	s := &DielectricShading{
		IOR:   g.float("ior", 1.5),
		Color: g.vec3("color", core.Splat(1)),
	}
	m.publish(s)
	return s
}

// Resolve implements Shading
func (s *DielectricShading) Resolve(p SurfacePoint) Surface {
	return Surface{
		Specular:          core.Splat(fresnelF0(s.IOR, 1)),
		Shininess:         roughnessToShininess(0),
		Opacity:           1,
		Normal:            p.Normal,
		Transmission:      1,
		TransmissionColor: s.Color,
		TransmissionDepth: 1,
		IOR:               s.IOR,
	}
}

// Emissive is a surface that only emits: emission (textureable, default 1)
// scaled by intensity (default 1)
type Emissive struct {
	Base
}

// NewEmissive creates an uncommitted emissive material
func NewEmissive() *Emissive {
	return &Emissive{Base: newBase(TypeEmissive)}
}

// EmissiveShading is the committed form of an Emissive
type EmissiveShading struct {
	Emission  Param3f
	Intensity float64
}

// Commit implements Material
func (m *Emissive) Commit(env Env) Shading {
	g := newGatherer(&m.Base, env)
	s := &EmissiveShading{
		Emission:  g.param3f("emission", core.Splat(1)),
		Intensity: g.float("intensity", 1),
	}
	m.publish(s)
	return s
}

// Resolve implements Shading
func (s *EmissiveShading) Resolve(p SurfacePoint) Surface {
	return Surface{
		Emission: s.Emission.Resolve(p.UV).Multiply(s.Intensity),
		Opacity:  1,
		Normal:   p.Normal,
		IOR:      1,
	}
}
