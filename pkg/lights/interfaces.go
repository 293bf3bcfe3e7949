// Package lights defines the light capability the shading loop evaluates,
// the built-in light types, and the flattened per-frame light list.
package lights

import (
	"errors"
	"fmt"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/params"
	"github.com/df07/go-tile-raytracer/pkg/registry"
)

var (
	// ErrUnknownLightType is returned when no factory is registered for a light record's type
	ErrUnknownLightType = errors.New("unknown light type")

	// ErrInvalidLight is returned when a factory rejects a record's parameters
	ErrInvalidLight = errors.New("invalid light")
)

type LightType string

const (
	LightTypePoint       LightType = "point"
	LightTypeDirectional LightType = "directional"
	LightTypeSpot        LightType = "spot"
	LightTypeAmbient     LightType = "ambient"
)

// Light is evaluated for incident radiance at a surface point. Lights are
// immutable once built and safe for concurrent use.
type Light interface {
	Type() LightType

	// Illuminate returns the light arriving at point. Direction points FROM
	// the shading point TO the light.
	Illuminate(point, normal core.Vec3) Sample
}

// Sample is the contribution of one light at one shading point
type Sample struct {
	Direction core.Vec3 // Unit direction toward the light
	Distance  float64   // Distance to the light, +Inf for lights at infinity
	Radiance  core.Vec3 // Incident radiance, attenuation applied
	Ambient   bool      // Non-directional; no shadow test or cosine term
}

// Record is the scene-side description of a light: a type tag plus parameters
type Record struct {
	Type   string
	Params *params.Set
}

// NewRecord creates a light record
func NewRecord(lightType string, values map[string]any) Record {
	return Record{Type: lightType, Params: params.FromMap(values)}
}

// Factory builds a light from its parameters
type Factory func(p *params.Set) (Light, error)

// Registry maps light type names to factories
type Registry struct {
	types *registry.Registry[Factory]
}

// NewRegistry creates an empty light registry
func NewRegistry() *Registry {
	return &Registry{types: registry.New[Factory]()}
}

// NewDefaultRegistry creates a registry with every built-in light type
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(string(LightTypePoint), NewPointLightFromParams)
	r.Register(string(LightTypeDirectional), NewDirectionalLightFromParams)
	r.Register("distant", NewDirectionalLightFromParams)
	r.Register(string(LightTypeSpot), NewSpotLightFromParams)
	r.Register(string(LightTypeAmbient), NewAmbientLightFromParams)
	return r
}

// Register binds name to factory
func (r *Registry) Register(name string, factory Factory) {
	r.types.Register(name, factory)
}

// Names returns the registered type names
func (r *Registry) Names() []string {
	return r.types.Names()
}

// Create builds the light described by rec
func (r *Registry) Create(rec Record) (Light, error) {
	factory, ok := r.types.Lookup(rec.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLightType, rec.Type)
	}
	light, err := factory(rec.Params)
	if err != nil {
		return nil, fmt.Errorf("%s light: %w", rec.Type, err)
	}
	if light == nil {
		return nil, fmt.Errorf("%s light: factory returned nil: %w", rec.Type, ErrInvalidLight)
	}
	return light, nil
}

// lightColor reads the shared color * intensity parameters
func lightColor(p *params.Set) core.Vec3 {
	return p.Vec3("color", core.Splat(1)).Multiply(p.Float("intensity", 1))
}
