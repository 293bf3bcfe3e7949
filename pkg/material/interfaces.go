// Package material holds the material parameter model and the material
// variants that commit scene-authored parameters into shading-ready form.
package material

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/params"
	"github.com/df07/go-tile-raytracer/pkg/registry"
	"github.com/df07/go-tile-raytracer/pkg/texture"
)

// ErrUnknownMaterialType is returned when no constructor is registered for a type name
var ErrUnknownMaterialType = errors.New("unknown material type")

// Material turns a scene-authored parameter set into a shading-ready
// representation. A material starts uncommitted; Commit re-derives the
// shading from scratch every time it is called.
type Material interface {
	// Type returns the registered type name
	Type() string

	// Params returns the scene-authored parameters read on commit
	Params() *params.Set

	// Committed reports whether Commit has run at least once
	Committed() bool

	// NeedsCommit reports whether the parameters changed since the last commit
	NeedsCommit() bool

	// Commit gathers all parameters, falling back to documented defaults, and
	// publishes the resulting shading. It never fails: unresolvable textures
	// are logged and the plain factor is used.
	Commit(env Env) Shading

	// Shading returns the last committed shading, or nil before the first commit
	Shading() Shading
}

// Env carries the collaborators a commit needs
type Env struct {
	Textures texture.Resolver
	Logger   *slog.Logger
}

// Shading is the immutable, committed form of a material. It is safe for
// concurrent use by any number of shading routines.
type Shading interface {
	Resolve(p SurfacePoint) Surface
}

// SurfacePoint is the hit information a shading needs
type SurfacePoint struct {
	UV        core.Vec2
	Normal    core.Vec3 // Geometric normal, unit length, facing the incoming ray
	Tangent   core.Vec3 // Optional; derived from Normal when zero
	Bitangent core.Vec3
}

// Frame returns an orthonormal frame around the point's normal
func (p SurfacePoint) Frame() Frame {
	if p.Tangent.LengthSquared() == 0 || p.Bitangent.LengthSquared() == 0 {
		t, b := core.OrthonormalBasis(p.Normal)
		return Frame{Tangent: t, Bitangent: b, Normal: p.Normal}
	}
	return Frame{Tangent: p.Tangent, Bitangent: p.Bitangent, Normal: p.Normal}
}

// Surface is a shading resolved at one surface point
type Surface struct {
	Diffuse   core.Vec3 // Diffuse albedo
	Specular  core.Vec3 // Specular reflectance at normal incidence
	Shininess float64   // Phong exponent equivalent of Roughness
	Roughness float64
	Metallic  float64
	Opacity   float64
	Normal    core.Vec3 // Shading normal
	Emission  core.Vec3 // Radiance emitted toward every direction

	Coat          float64
	CoatColor     core.Vec3
	CoatIOR       float64
	CoatRoughness float64
	CoatNormal    core.Vec3

	Transmission      float64
	TransmissionColor core.Vec3 // Interface filter when Thin, else the color of the medium inside
	TransmissionDepth float64   // Distance at which the inside medium reaches TransmissionColor; 0 is clear
	IOR               float64
	Thin              bool

	OutsideTransmissionColor core.Vec3
	OutsideTransmissionDepth float64 // 0 is clear
}

// Base implements the bookkeeping shared by all material variants
type Base struct {
	typeName         string
	params           *params.Set
	shading          Shading
	committed        bool
	committedVersion uint64
}

func newBase(typeName string) Base {
	return Base{typeName: typeName, params: params.New()}
}

// Type implements Material
func (b *Base) Type() string { return b.typeName }

// Params implements Material
func (b *Base) Params() *params.Set { return b.params }

// Committed implements Material
func (b *Base) Committed() bool { return b.committed }

// NeedsCommit implements Material
func (b *Base) NeedsCommit() bool {
	return !b.committed || b.params.Version() != b.committedVersion
}

// Shading implements Material
func (b *Base) Shading() Shading { return b.shading }

func (b *Base) publish(s Shading) {
	b.shading = s
	b.committed = true
	b.committedVersion = b.params.Version()
}

// gatherer reads material parameters, collecting texture resolution failures
type gatherer struct {
	material string
	params   *params.Set
	env      Env
}

func newGatherer(b *Base, env Env) *gatherer {
	env.Logger = core.LoggerOrNop(env.Logger)
	return &gatherer{material: b.typeName, params: b.params, env: env}
}

func (g *gatherer) float(name string, def float64) float64 {
	return g.params.Float(name, def)
}

func (g *gatherer) vec3(name string, def core.Vec3) core.Vec3 {
	return g.params.Vec3(name, def)
}

func (g *gatherer) bool(name string, def bool) bool {
	return g.params.Bool(name, def)
}

func (g *gatherer) param1f(name string, def float64) Param1f {
	tex, xform := g.texture(name)
	return Param1f{Factor: g.params.Float(name, def), Map: tex, Transform: xform}
}

func (g *gatherer) param3f(name string, def core.Vec3) Param3f {
	tex, xform := g.texture(name)
	return Param3f{Factor: g.params.Vec3(name, def), Map: tex, Transform: xform}
}

func (g *gatherer) normal(name string, def float64) NormalParam {
	tex, xform := g.texture(name)
	return NormalParam{
		Strength:  g.params.Float(name, def),
		Map:       tex,
		Transform: xform,
		Rotation:  xform.Linear().Orthogonal().Transposed(),
	}
}

// texture resolves map_<name> and its transform. Failures are logged and
// leave the parameter untextured.
func (g *gatherer) texture(name string) (texture.Texture, Affine2) {
	key := "map_" + name
	tex, err := g.params.Texture(key, g.env.Textures)
	if err != nil {
		g.env.Logger.Warn("texture unavailable, using constant factor",
			"material", g.material, "param", name, "error", err)
		tex = nil
	}

	if g.params.Has(key + ".transform") {
		return tex, Affine2{M: g.params.Mat3(key+".transform", IdentityAffine2().M)}
	}
	return tex, textureTransform(
		g.params.Vec2(key+".scale", core.NewVec2(1, 1)),
		g.params.Float(key+".rotation", 0),
		g.params.Vec2(key+".translation", core.NewVec2(0, 0)),
	)
}

// Constructor creates an uncommitted material
type Constructor func() Material

// Registry maps material type names to constructors
type Registry struct {
	types *registry.Registry[Constructor]
}

// NewRegistry creates an empty material registry
func NewRegistry() *Registry {
	return &Registry{types: registry.New[Constructor]()}
}

// NewDefaultRegistry creates a registry with every built-in material
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(TypePrincipled, func() Material { return NewPrincipled() })
	r.Register(TypeOBJ, func() Material { return NewOBJ() })
	r.Register("default", func() Material { return NewOBJ() })
	r.Register(TypeLambertian, func() Material { return NewLambertian() })
	r.Register(TypeMetal, func() Material { return NewMetal() })
	r.Register(TypeDielectric, func() Material { return NewDielectric() })
	r.Register(TypeEmissive, func() Material { return NewEmissive() })
	return r
}

// Register binds name to ctor
func (r *Registry) Register(name string, ctor Constructor) {
	r.types.Register(name, ctor)
}

// Names returns the registered type names
func (r *Registry) Names() []string {
	return r.types.Names()
}

// Create instantiates a material of the named type
func (r *Registry) Create(name string) (Material, error) {
	ctor, ok := r.types.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMaterialType, name)
	}
	return ctor(), nil
}
