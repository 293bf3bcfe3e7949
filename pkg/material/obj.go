package material

import (
	"github.com/df07/go-tile-raytracer/pkg/core"
)

// TypeOBJ is the registry name of the Wavefront-style material
const TypeOBJ = "obj"

// OBJ is the Wavefront .mtl material: diffuse Kd, specular Ks with exponent
// Ns, emission Ke, dissolve d, transmission filter Tf and an optional bump map
type OBJ struct {
	Base
}

// NewOBJ creates an uncommitted OBJ material
func NewOBJ() *OBJ {
	return &OBJ{Base: newBase(TypeOBJ)}
}

// OBJShading is the committed form of an OBJ material
type OBJShading struct {
	Kd   Param3f
	Ks   Param3f
	Ns   Param1f
	Ke   Param3f
	D    Param1f
	Tf   core.Vec3
	Bump NormalParam
}

// Commit implements Material. Defaults: Kd 0.8, Ks 0, Ns 10, Ke 0, d 1,
// Tf 0, bump strength 1.
func (m *OBJ) Commit(env Env) Shading {
	g := newGatherer(&m.Base, env)

	s := &OBJShading{
		Kd:   g.param3f("Kd", core.Splat(0.8)),
		Ks:   g.param3f("Ks", core.Splat(0)),
		Ns:   g.param1f("Ns", 10),
		Ke:   g.param3f("Ke", core.Splat(0)),
		D:    g.param1f("d", 1),
		Tf:   g.vec3("Tf", core.Splat(0)),
		Bump: g.normal("Bump", 1),
	}

	m.publish(s)
	return s
}

// Resolve implements Shading
func (s *OBJShading) Resolve(p SurfacePoint) Surface {
	uv := p.UV
	shininess := max(0, s.Ns.Resolve(uv))
	normal := s.Bump.Resolve(uv, p.Frame())

	return Surface{
		Diffuse:           s.Kd.Resolve(uv),
		Specular:          s.Ks.Resolve(uv),
		Shininess:         shininess,
		Roughness:         shininessToRoughness(shininess),
		Opacity:           clamp01(s.D.Resolve(uv)),
		Normal:            normal,
		Emission:          s.Ke.Resolve(uv),
		CoatNormal:        normal,
		Transmission:      clamp01(s.Tf.Luminance()),
		TransmissionColor: s.Tf,
		IOR:               1,
	}
}

// DefaultShading is used for hits whose material has no committed shading
var DefaultShading Shading = NewOBJ().Commit(Env{})
