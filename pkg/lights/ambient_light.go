package lights

import (
	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/params"
)

// AmbientLight adds constant, unshadowed light from every direction
type AmbientLight struct {
	Radiance core.Vec3
}

// NewAmbientLightFromParams reads color and intensity
func NewAmbientLightFromParams(p *params.Set) (Light, error) {
	return &AmbientLight{Radiance: lightColor(p)}, nil
}

// Type implements Light
func (l *AmbientLight) Type() LightType { return LightTypeAmbient }

// Illuminate implements Light
func (l *AmbientLight) Illuminate(point, normal core.Vec3) Sample {
	return Sample{Direction: normal, Radiance: l.Radiance, Ambient: true}
}
