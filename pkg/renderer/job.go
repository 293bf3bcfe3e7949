package renderer

import (
	"github.com/google/uuid"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/lights"
	"github.com/df07/go-tile-raytracer/pkg/material"
	"github.com/df07/go-tile-raytracer/pkg/scene"
)

// RenderJob is the immutable per-frame snapshot the workers read from.
// Everything it references is frozen until the frame's dispatch returns.
type RenderJob struct {
	ID     uuid.UUID
	Frame  int // Index of the frame in the accumulation sequence
	Width  int
	Height int
	Scene  scene.Scene
	Camera scene.Camera
	Lights *lights.LightList
	Tiles  []*Tile

	shadings []material.Shading // Indexed by material ID
}

// Shading returns the committed shading bound to materialID, or the default
// shading for IDs without one
func (j *RenderJob) Shading(materialID int) material.Shading {
	if materialID >= 0 && materialID < len(j.shadings) && j.shadings[materialID] != nil {
		return j.shadings[materialID]
	}
	return material.DefaultShading
}

// Background returns the background radiance along ray
func (j *RenderJob) Background(ray core.Ray) core.Vec3 {
	return j.Scene.Background(ray)
}

// PixelRay returns the camera ray through framebuffer position (px, py)
func (j *RenderJob) PixelRay(px, py float64) core.Ray {
	return j.Camera.GetRay(px, py, j.Width, j.Height)
}

// fillBackground overwrites tile with the background seen through each pixel center
func (j *RenderJob) fillBackground(tile *Tile) {
	tile.Fill(func(x, y int) core.Vec3 {
		return j.Background(j.PixelRay(float64(x)+0.5, float64(y)+0.5))
	})
}
