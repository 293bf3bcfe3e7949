package lights

import (
	"fmt"
	"math"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/params"
)

// DirectionalLight is a light at infinity, such as the sun
type DirectionalLight struct {
	Direction core.Vec3 // Unit direction the light travels
	Radiance  core.Vec3
}

// NewDirectionalLight creates a directional light traveling along direction
func NewDirectionalLight(direction, radiance core.Vec3) *DirectionalLight {
	return &DirectionalLight{Direction: direction.Normalize(), Radiance: radiance}
}

// NewDirectionalLightFromParams reads direction, color and intensity
func NewDirectionalLightFromParams(p *params.Set) (Light, error) {
	direction := p.Vec3("direction", core.NewVec3(0, 0, 1))
	if direction.LengthSquared() == 0 || !direction.IsFinite() {
		return nil, fmt.Errorf("direction %v: %w", direction, ErrInvalidLight)
	}
	return NewDirectionalLight(direction, lightColor(p)), nil
}

// Type implements Light
func (l *DirectionalLight) Type() LightType { return LightTypeDirectional }

// Illuminate implements Light
func (l *DirectionalLight) Illuminate(point, normal core.Vec3) Sample {
	return Sample{
		Direction: l.Direction.Negate(),
		Distance:  math.Inf(1),
		Radiance:  l.Radiance,
	}
}
