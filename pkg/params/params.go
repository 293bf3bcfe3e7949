// Package params holds scene-authored parameter sets: named, loosely typed
// values read back through typed getters that each carry a default.
package params

import (
	"fmt"
	"maps"
	"slices"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/texture"
	"github.com/go-gl/mathgl/mgl64"
)

// Set is a named parameter collection. It is not safe for concurrent
// mutation; edit it between frames only.
type Set struct {
	values  map[string]any
	version uint64
}

// New creates an empty parameter set
func New() *Set {
	return &Set{values: make(map[string]any)}
}

// FromMap creates a parameter set holding a copy of values
func FromMap(values map[string]any) *Set {
	s := New()
	for name, v := range values {
		s.values[name] = v
	}
	s.version = 1
	return s
}

// Set stores value under name and returns the set for chaining
func (s *Set) Set(name string, value any) *Set {
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[name] = value
	s.version++
	return s
}

// Delete removes name from the set
func (s *Set) Delete(name string) {
	if _, ok := s.values[name]; ok {
		delete(s.values, name)
		s.version++
	}
}

// Version increments on every mutation
func (s *Set) Version() uint64 {
	if s == nil {
		return 0
	}
	return s.version
}

// Has reports whether name is present
func (s *Set) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.values[name]
	return ok
}

// Value returns the raw value stored under name
func (s *Set) Value(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[name]
	return v, ok
}

// Names returns the parameter names in sorted order
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.values))
}

// Clone returns an independent copy of the set
func (s *Set) Clone() *Set {
	c := New()
	if s != nil {
		maps.Copy(c.values, s.values)
		c.version = s.version
	}
	return c
}

// Float returns a scalar parameter or def
func (s *Set) Float(name string, def float64) float64 {
	v, ok := s.Value(name)
	if !ok {
		return def
	}
	if f, ok := toFloat(v); ok {
		return f
	}
	return def
}

// Int returns an integer parameter or def. Booleans read as 0 or 1.
func (s *Set) Int(name string, def int) int {
	v, ok := s.Value(name)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case float64:
		return int(x)
	case bool:
		if x {
			return 1
		}
		return 0
	}
	return def
}

// Bool returns a flag parameter or def. Integers read as true when non-zero.
func (s *Set) Bool(name string, def bool) bool {
	v, ok := s.Value(name)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case bool:
		return x
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	}
	return def
}

// String returns a string parameter or def
func (s *Set) String(name string, def string) string {
	v, ok := s.Value(name)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case string:
		return x
	case texture.Ref:
		return string(x)
	}
	return def
}

// Vec2 returns a 2D parameter or def
func (s *Set) Vec2(name string, def core.Vec2) core.Vec2 {
	v, ok := s.Value(name)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case core.Vec2:
		return x
	case mgl64.Vec2:
		return core.NewVec2(x[0], x[1])
	case [2]float64:
		return core.NewVec2(x[0], x[1])
	case []float64:
		if len(x) == 2 {
			return core.NewVec2(x[0], x[1])
		}
	}
	if f, ok := toFloat(v); ok {
		return core.NewVec2(f, f)
	}
	return def
}

// Vec3 returns a vector or color parameter or def. Scalars broadcast.
func (s *Set) Vec3(name string, def core.Vec3) core.Vec3 {
	v, ok := s.Value(name)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case core.Vec3:
		return x
	case mgl64.Vec3:
		return core.NewVec3(x[0], x[1], x[2])
	case [3]float64:
		return core.NewVec3(x[0], x[1], x[2])
	case []float64:
		if len(x) == 3 {
			return core.NewVec3(x[0], x[1], x[2])
		}
	}
	if f, ok := toFloat(v); ok {
		return core.Splat(f)
	}
	return def
}

// Mat3 returns a 3x3 matrix parameter or def
func (s *Set) Mat3(name string, def mgl64.Mat3) mgl64.Mat3 {
	v, ok := s.Value(name)
	if !ok {
		return def
	}
	if m, ok := v.(mgl64.Mat3); ok {
		return m
	}
	return def
}

// Texture returns the texture bound to name. A missing name yields (nil, nil);
// references are resolved through resolver.
func (s *Set) Texture(name string, resolver texture.Resolver) (texture.Texture, error) {
	v, ok := s.Value(name)
	if !ok || v == nil {
		return nil, nil
	}

	var ref texture.Ref
	switch x := v.(type) {
	case texture.Texture:
		return x, nil
	case texture.Ref:
		ref = x
	case string:
		ref = texture.Ref(x)
	default:
		return nil, fmt.Errorf("parameter %q holds %T: %w", name, v, texture.ErrInvalidTextureHandle)
	}

	if resolver == nil {
		return nil, fmt.Errorf("parameter %q references %q without a texture library: %w", name, ref, texture.ErrInvalidTextureHandle)
	}
	tex, err := resolver.Resolve(ref)
	if err != nil {
		return nil, fmt.Errorf("parameter %q: %w", name, err)
	}
	return tex, nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}
