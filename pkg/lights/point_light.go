package lights

import (
	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/params"
)

// PointLight emits uniformly in all directions from a single point
type PointLight struct {
	Position core.Vec3
	Emission core.Vec3 // Radiant intensity (color * intensity)
}

// NewPointLight creates a point light
func NewPointLight(position, emission core.Vec3) *PointLight {
	return &PointLight{Position: position, Emission: emission}
}

// NewPointLightFromParams reads position, color and intensity
func NewPointLightFromParams(p *params.Set) (Light, error) {
	return NewPointLight(p.Vec3("position", core.Vec3{}), lightColor(p)), nil
}

// Type implements Light
func (l *PointLight) Type() LightType { return LightTypePoint }

// Illuminate implements Light with inverse-square falloff
func (l *PointLight) Illuminate(point, normal core.Vec3) Sample {
	toLight := l.Position.Subtract(point)
	distance := toLight.Length()
	if distance == 0 {
		return Sample{Direction: normal, Distance: 0}
	}
	return Sample{
		Direction: toLight.Multiply(1 / distance),
		Distance:  distance,
		Radiance:  l.Emission.Multiply(1 / (distance * distance)),
	}
}
