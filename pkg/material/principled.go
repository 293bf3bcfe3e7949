package material

import (
	"math"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// TypePrincipled is the registry name of the principled material
const TypePrincipled = "principled"

// Principled is a physically based material covering dielectrics, metals,
// transmission and a clear coat in one parameterization
type Principled struct {
	Base
}

// NewPrincipled creates an uncommitted principled material
func NewPrincipled() *Principled {
	return &Principled{Base: newBase(TypePrincipled)}
}

// PrincipledShading is the committed form of a Principled material
type PrincipledShading struct {
	BaseColor         Param3f
	EdgeColor         Param3f
	Metallic          Param1f
	Specular          Param1f
	IOR               Param1f
	Transmission      Param1f
	TransmissionColor Param3f
	TransmissionDepth float64
	Roughness         Param1f
	Normal            NormalParam

	Coat          Param1f
	CoatIOR       Param1f
	CoatColor     Param3f
	CoatThickness Param1f
	CoatRoughness Param1f
	CoatNormal    NormalParam

	Opacity   Param1f
	Thin      bool
	Thickness Param1f

	OutsideIOR               float64
	OutsideTransmissionColor core.Vec3
	OutsideTransmissionDepth float64
}

// Commit implements Material. Defaults:
//
//	baseColor 0.8, edgeColor 1, metallic 0, specular 1, ior 1.52,
//	transmission 0, transmissionColor 1, transmissionDepth 1, roughness 0.5,
//	normal 1, coat 0, coatIor 1.5, coatColor 1, coatThickness 1,
//	coatRoughness 0, coatNormal 1, opacity 1, thin false, thickness 1,
//	outsideIor 1, outsideTransmissionColor 1, outsideTransmissionDepth 1
func (m *Principled) Commit(env Env) Shading {
	g := newGatherer(&m.Base, env)

	s := &PrincipledShading{
		BaseColor:         g.param3f("baseColor", core.Splat(0.8)),
		EdgeColor:         g.param3f("edgeColor", core.Splat(1)),
		Metallic:          g.param1f("metallic", 0),
		Specular:          g.param1f("specular", 1),
		IOR:               g.param1f("ior", 1.52),
		Transmission:      g.param1f("transmission", 0),
		TransmissionColor: g.param3f("transmissionColor", core.Splat(1)),
		TransmissionDepth: g.float("transmissionDepth", 1),
		Roughness:         g.param1f("roughness", 0.5),
		Normal:            g.normal("normal", 1),

		Coat:          g.param1f("coat", 0),
		CoatIOR:       g.param1f("coatIor", 1.5),
		CoatColor:     g.param3f("coatColor", core.Splat(1)),
		CoatThickness: g.param1f("coatThickness", 1),
		CoatRoughness: g.param1f("coatRoughness", 0),
		CoatNormal:    g.normal("coatNormal", 1),

		Opacity:   g.param1f("opacity", 1),
		Thin:      g.bool("thin", false),
		Thickness: g.param1f("thickness", 1),

		OutsideIOR:               g.float("outsideIor", 1),
		OutsideTransmissionColor: g.vec3("outsideTransmissionColor", core.Splat(1)),
		OutsideTransmissionDepth: g.float("outsideTransmissionDepth", 1),
	}

	m.publish(s)
	return s
}

// Resolve implements Shading
func (s *PrincipledShading) Resolve(p SurfacePoint) Surface {
	uv := p.UV
	frame := p.Frame()

	base := s.BaseColor.Resolve(uv)
	edge := s.EdgeColor.Resolve(uv)
	metallic := clamp01(s.Metallic.Resolve(uv))
	transmission := clamp01(s.Transmission.Resolve(uv))
	roughness := clamp01(s.Roughness.Resolve(uv))
	ior := s.IOR.Resolve(uv)

	// Dielectric reflectance at normal incidence, scaled by specular
	f0 := fresnelF0(ior, s.OutsideIOR) * max(0, s.Specular.Resolve(uv))
	metalSpecular := base.Lerp(edge, 0.5*(1-roughness)).MultiplyVec(base)
	specular := core.Splat(f0).Lerp(metalSpecular, metallic)

	// A thin surface absorbs across its thickness at the interface and has
	// no inside medium
	transmissionColor := s.TransmissionColor.Resolve(uv)
	transmissionDepth := s.TransmissionDepth
	if s.Thin {
		transmissionColor = Attenuation(transmissionColor, transmissionDepth, s.Thickness.Resolve(uv))
		transmissionDepth = 0
	}

	return Surface{
		Diffuse:   base.Multiply((1 - metallic) * (1 - transmission)),
		Specular:  specular,
		Shininess: roughnessToShininess(roughness),
		Roughness: roughness,
		Metallic:  metallic,
		Opacity:   clamp01(s.Opacity.Resolve(uv)),
		Normal:    s.Normal.Resolve(uv, frame),

		Coat:          clamp01(s.Coat.Resolve(uv)),
		CoatColor:     Attenuation(s.CoatColor.Resolve(uv), 1, s.CoatThickness.Resolve(uv)),
		CoatIOR:       s.CoatIOR.Resolve(uv),
		CoatRoughness: clamp01(s.CoatRoughness.Resolve(uv)),
		CoatNormal:    s.CoatNormal.Resolve(uv, frame),

		Transmission:      transmission,
		TransmissionColor: transmissionColor,
		TransmissionDepth: transmissionDepth,
		IOR:               ior,
		Thin:              s.Thin,

		OutsideTransmissionColor: s.OutsideTransmissionColor,
		OutsideTransmissionDepth: s.OutsideTransmissionDepth,
	}
}

// Attenuation is the Beer-Lambert transmittance over distance through a
// medium that reaches color after depth. A depth <= 0 is a clear medium.
func Attenuation(color core.Vec3, depth, distance float64) core.Vec3 {
	if depth <= 0 || distance <= 0 {
		return core.Splat(1)
	}
	k := distance / depth
	return core.NewVec3(
		math.Pow(max(0, color.X), k),
		math.Pow(max(0, color.Y), k),
		math.Pow(max(0, color.Z), k),
	)
}

func fresnelF0(ior, outsideIOR float64) float64 {
	sum := ior + outsideIOR
	if sum == 0 {
		return 0
	}
	r := (ior - outsideIOR) / sum
	return r * r
}

// roughnessToShininess maps roughness to a Blinn-Phong exponent
func roughnessToShininess(roughness float64) float64 {
	alpha := max(roughness*roughness, 1e-4)
	return math.Min(2/(alpha*alpha)-2, 1e4)
}

// shininessToRoughness inverts roughnessToShininess
func shininessToRoughness(shininess float64) float64 {
	return math.Sqrt(math.Sqrt(2 / (max(shininess, 0) + 2)))
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
