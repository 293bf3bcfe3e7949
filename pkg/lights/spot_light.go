package lights

import (
	"fmt"
	"math"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/params"
)

// SpotLight is a point light restricted to a cone with a soft edge
type SpotLight struct {
	position        core.Vec3 // Light position in world space
	direction       core.Vec3 // Normalized cone axis
	emission        core.Vec3 // Light intensity/color
	cosTotalWidth   float64   // Cosine of the outer cone half-angle
	cosFalloffStart float64   // Cosine of the inner cone half-angle
}

// NewSpotLight creates a spot light at position aimed along direction.
// openingAngle is the full cone angle in degrees; penumbraAngle the width of
// the soft edge inside it.
func NewSpotLight(position, direction, emission core.Vec3, openingAngle, penumbraAngle float64) *SpotLight {
	halfAngle := math.Min(openingAngle, 180) * 0.5
	penumbra := math.Max(0, math.Min(penumbraAngle, halfAngle))

	return &SpotLight{
		position:        position,
		direction:       direction.Normalize(),
		emission:        emission,
		cosTotalWidth:   math.Cos(halfAngle * math.Pi / 180),
		cosFalloffStart: math.Cos((halfAngle - penumbra) * math.Pi / 180),
	}
}

// NewSpotLightFromParams reads position, direction, openingAngle,
// penumbraAngle, color and intensity
func NewSpotLightFromParams(p *params.Set) (Light, error) {
	direction := p.Vec3("direction", core.NewVec3(0, 0, 1))
	if direction.LengthSquared() == 0 || !direction.IsFinite() {
		return nil, fmt.Errorf("direction %v: %w", direction, ErrInvalidLight)
	}
	return NewSpotLight(
		p.Vec3("position", core.Vec3{}),
		direction,
		lightColor(p),
		p.Float("openingAngle", 180),
		p.Float("penumbraAngle", 5),
	), nil
}

// Type implements Light
func (l *SpotLight) Type() LightType { return LightTypeSpot }

// Illuminate implements Light
func (l *SpotLight) Illuminate(point, normal core.Vec3) Sample {
	toLight := l.position.Subtract(point)
	distance := toLight.Length()
	if distance == 0 {
		return Sample{Direction: normal, Distance: 0}
	}
	toLight = toLight.Multiply(1 / distance)

	cosAngle := l.direction.Dot(toLight.Negate())
	attenuation := l.falloff(cosAngle) / (distance * distance)

	return Sample{
		Direction: toLight,
		Distance:  distance,
		Radiance:  l.emission.Multiply(attenuation),
	}
}

// falloff computes the smooth transition between the inner and outer cone
func (l *SpotLight) falloff(cosAngle float64) float64 {
	if cosAngle < l.cosTotalWidth {
		return 0
	}
	if cosAngle >= l.cosFalloffStart {
		return 1
	}
	delta := (cosAngle - l.cosTotalWidth) / (l.cosFalloffStart - l.cosTotalWidth)
	return delta * delta * (3 - 2*delta)
}
