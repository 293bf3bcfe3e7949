package renderer

import (
	"fmt"
	"math"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/lights"
	"github.com/df07/go-tile-raytracer/pkg/material"
	"github.com/df07/go-tile-raytracer/pkg/scene"
)

// maxTransparencyDepth bounds how many partially transparent surfaces a
// camera ray continues through
const maxTransparencyDepth = 8

// surfaceShader computes the radiance leaving a hit toward the viewer.
// depth counts the transparent surfaces passed so far.
type surfaceShader func(job *RenderJob, ray core.Ray, hit scene.Hit, depth int) core.Vec3

// pixelLoop returns the TileShader shared by all renderer variants: one
// camera ray per pixel, jittered after the first frame, shaded on hit and
// showing the background on miss, trace failure or shading failure
func pixelLoop(shade surfaceShader) TileShader {
	return TileShaderFunc(func(wc *WorkerContext, job *RenderJob, tile *Tile) error {
		var firstFailure any
		b := tile.Bounds
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				jitter := core.NewVec2(0.5, 0.5)
				if job.Frame > 0 {
					jitter = wc.Sampler.Get2D()
				}
				ray := job.PixelRay(float64(x)+jitter.X, float64(y)+jitter.Y)

				c, failure := shadePixel(wc, job, ray, shade)
				if failure != nil && firstFailure == nil {
					firstFailure = failure
				}

				tile.Set(x-b.Min.X, y-b.Min.Y, c)
				wc.Stats.Pixels++
			}
		}

		if firstFailure != nil {
			wc.Logger.Warn("pixels failed to shade", "tile", tile.ID,
				"count", wc.Stats.ShadeFailures, "first", fmt.Sprint(firstFailure))
		}
		return nil
	})
}

// shadePixel traces ray and shades what it hits. A panic while shading is
// contained to this pixel: it shows the background and the recovered value
// is returned as failure.
func shadePixel(wc *WorkerContext, job *RenderJob, ray core.Ray, shade surfaceShader) (c core.Vec3, failure any) {
	hit, ok, err := job.Scene.Trace(ray)
	switch {
	case err != nil:
		wc.Stats.TraceFailures++
		return job.Background(ray), nil
	case !ok:
		wc.Stats.Misses++
		return job.Background(ray), nil
	}

	defer func() {
		if r := recover(); r != nil {
			wc.Stats.ShadeFailures++
			c, failure = job.Background(ray), r
		}
	}()

	c = shade(job, ray, hit, 0)
	wc.Stats.Hits++
	return c, nil
}

// continueThrough traces the ray onward from hit, for transparency. It
// returns the radiance arriving from behind and the distance it travelled,
// which is infinite when nothing was hit.
func continueThrough(job *RenderJob, ray core.Ray, hit scene.Hit, depth int, shade surfaceShader) (core.Vec3, float64) {
	next := core.NewRay(hit.Point, ray.Direction)
	if depth+1 >= maxTransparencyDepth {
		return job.Background(next), math.Inf(1)
	}
	behind, ok, err := job.Scene.Trace(next)
	if err != nil || !ok {
		return job.Background(next), math.Inf(1)
	}
	return shade(job, next, behind, depth+1), behind.Point.Subtract(hit.Point).Length()
}

// mediumAttenuation is the absorption along the segment behind a
// transmissive hit: inside the surface's medium when entering a solid,
// the outside medium otherwise
func mediumAttenuation(surf material.Surface, hit scene.Hit, distance float64) core.Vec3 {
	if !surf.Thin && hit.FrontFace {
		return material.Attenuation(surf.TransmissionColor, surf.TransmissionDepth, distance)
	}
	return material.Attenuation(surf.OutsideTransmissionColor, surf.OutsideTransmissionDepth, distance)
}

// visible returns the light sample at point if it is unshadowed and above the surface
func visible(job *RenderJob, point, normal core.Vec3, light lights.Light) (lights.Sample, bool) {
	s := light.Illuminate(point, normal)
	if s.Ambient {
		return s, true
	}
	if s.Distance <= 0 || normal.Dot(s.Direction) <= 0 {
		return s, false
	}
	shadow := core.NewRay(point.Add(normal.Multiply(scene.Epsilon)), s.Direction)
	return s, !job.Scene.Occluded(shadow, s.Distance)
}

func surfacePoint(hit scene.Hit) material.SurfacePoint {
	return material.SurfacePoint{UV: hit.UV, Normal: hit.Normal, Tangent: hit.Tangent, Bitangent: hit.Bitangent}
}

// faceForward flips n to the side of the geometric normal
func faceForward(n, geometric core.Vec3) core.Vec3 {
	if n.Dot(geometric) < 0 {
		return n.Negate()
	}
	return n
}

// shadeOBJ is Blinn-Phong direct lighting with shadows, opacity and a
// transmission filter
func shadeOBJ(job *RenderJob, ray core.Ray, hit scene.Hit, depth int) core.Vec3 {
	surf := job.Shading(hit.MaterialID).Resolve(surfacePoint(hit))
	n := faceForward(surf.Normal, hit.Normal)
	view := ray.Direction.Normalize().Negate()

	radiance := surf.Emission
	for _, light := range job.Lights.All() {
		s, ok := visible(job, hit.Point, hit.Normal, light)
		if !ok {
			continue
		}
		if s.Ambient {
			radiance = radiance.Add(surf.Diffuse.MultiplyVec(s.Radiance))
			continue
		}

		cosTheta := n.Dot(s.Direction)
		if cosTheta <= 0 {
			continue
		}
		half := s.Direction.Add(view).Normalize()
		specular := surf.Specular.Multiply(math.Pow(max(0, n.Dot(half)), surf.Shininess))
		radiance = radiance.Add(surf.Diffuse.Multiply(cosTheta).Add(specular).MultiplyVec(s.Radiance))
	}

	// d < 1 lets the surface behind through; Tf filters what passes
	transparency := 1 - surf.Opacity
	if transparency > 0 || surf.Transmission > 0 {
		behind, _ := continueThrough(job, ray, hit, depth, shadeOBJ)
		radiance = radiance.Multiply(surf.Opacity).
			Add(behind.Multiply(transparency)).
			Add(behind.MultiplyVec(surf.TransmissionColor).Multiply(surf.Opacity))
	}

	return radiance
}

// shadePrincipled is metallic/roughness direct lighting: a Lambertian base,
// a GGX specular lobe and an optional clear coat, with shadows. Transmission
// filters thin surfaces at the interface and absorbs inside solid ones.
func shadePrincipled(job *RenderJob, ray core.Ray, hit scene.Hit, depth int) core.Vec3 {
	surf := job.Shading(hit.MaterialID).Resolve(surfacePoint(hit))
	n := faceForward(surf.Normal, hit.Normal)
	coatN := faceForward(surf.CoatNormal, hit.Normal)
	view := ray.Direction.Normalize().Negate()
	coatF0 := schlickF0(surf.CoatIOR)

	radiance := surf.Emission
	for _, light := range job.Lights.All() {
		s, ok := visible(job, hit.Point, hit.Normal, light)
		if !ok {
			continue
		}
		if s.Ambient {
			radiance = radiance.Add(surf.Diffuse.Add(surf.Specular.Multiply(0.5 * (1 - surf.Roughness))).MultiplyVec(s.Radiance))
			continue
		}

		cosTheta := n.Dot(s.Direction)
		if cosTheta <= 0 {
			continue
		}

		base := surf.Diffuse.Add(ggxSpecular(n, view, s.Direction, surf.Specular, surf.Roughness).Multiply(math.Pi))

		// The coat reflects its own lobe and tints what it lets through
		if surf.Coat > 0 {
			coatCos := max(0, coatN.Dot(s.Direction))
			coatFresnel := schlick(coatF0, max(0, coatN.Dot(view)))
			coatSpec := ggxSpecular(coatN, view, s.Direction, core.Splat(coatF0), surf.CoatRoughness).Multiply(math.Pi * coatCos / cosTheta)
			through := core.Splat(1).Lerp(surf.CoatColor, surf.Coat).Multiply(1 - surf.Coat*coatFresnel)
			base = base.MultiplyVec(through).Add(coatSpec.Multiply(surf.Coat))
		}

		radiance = radiance.Add(base.Multiply(cosTheta).MultiplyVec(s.Radiance))
	}

	transparency := 1 - surf.Opacity
	if transparency > 0 || surf.Transmission > 0 {
		behind, distance := continueThrough(job, ray, hit, depth, shadePrincipled)
		filter := mediumAttenuation(surf, hit, distance)
		if surf.Thin {
			filter = filter.MultiplyVec(surf.TransmissionColor)
		}
		transmitted := behind.MultiplyVec(filter).Multiply(surf.Transmission * (1 - surf.Metallic))
		radiance = radiance.Multiply(surf.Opacity).
			Add(behind.Multiply(transparency)).
			Add(transmitted.Multiply(surf.Opacity))
	}

	return radiance
}

// ggxSpecular evaluates the GGX microfacet BRDF with Schlick Fresnel and the
// Smith-Schlick shadowing term
func ggxSpecular(n, view, toLight, f0 core.Vec3, roughness float64) core.Vec3 {
	nDotL := n.Dot(toLight)
	nDotV := n.Dot(view)
	if nDotL <= 0 || nDotV <= 0 {
		return core.Vec3{}
	}

	half := toLight.Add(view).Normalize()
	nDotH := max(0, n.Dot(half))
	vDotH := max(0, view.Dot(half))

	alpha := max(roughness*roughness, 1e-3)
	a2 := alpha * alpha
	d := nDotH*nDotH*(a2-1) + 1
	distribution := a2 / (math.Pi * d * d)

	k := alpha / 2
	geometry := (nDotL / (nDotL*(1-k) + k)) * (nDotV / (nDotV*(1-k) + k))

	weight := math.Pow(1-vDotH, 5)
	fresnel := f0.Add(core.Splat(1).Subtract(f0).Multiply(weight))

	return fresnel.Multiply(distribution * geometry / (4 * nDotL * nDotV))
}

func schlickF0(ior float64) float64 {
	r := (ior - 1) / (ior + 1)
	return r * r
}

func schlick(f0, cosTheta float64) float64 {
	return f0 + (1-f0)*math.Pow(1-cosTheta, 5)
}
