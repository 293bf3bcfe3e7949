package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/demo"
	"github.com/df07/go-tile-raytracer/pkg/material"
	"github.com/df07/go-tile-raytracer/pkg/renderer"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool              `json:"hit"`
	MaterialID   int               `json:"materialId"`
	MaterialType string            `json:"materialType"`
	Point        [3]float64        `json:"point"`
	Normal       [3]float64        `json:"normal"`
	UV           [2]float64        `json:"uv"`
	Distance     float64           `json:"distance"`
	FrontFace    bool              `json:"frontFace"`
	Lights       int               `json:"lights"`     // Lights built for the frame
	Parameters   map[string]string `json:"parameters"` // Scene-authored material parameters
	Surface      SurfaceInfo       `json:"surface"`    // Committed shading resolved at the hit
}

// SurfaceInfo is the resolved shading at an inspected point
type SurfaceInfo struct {
	Diffuse       [3]float64 `json:"diffuse"`
	Specular      [3]float64 `json:"specular"`
	Roughness     float64    `json:"roughness"`
	Metallic      float64    `json:"metallic"`
	Opacity       float64    `json:"opacity"`
	Coat          float64    `json:"coat"`
	Transmission  float64    `json:"transmission"`
	IOR           float64    `json:"ior"`
	DiffuseColor  string     `json:"diffuseColor"`
	ShadingNormal [3]float64 `json:"shadingNormal"`
}

func vec3Array(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func hexColor(v core.Vec3) string {
	c := v.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}

// inspectPixel commits the renderer's materials, casts a ray through the
// center of pixel (x, y) and describes the first surface hit
func inspectPixel(r *renderer.Renderer, width, height, x, y int) (InspectResponse, error) {
	fb, err := renderer.NewFramebuffer(width, height, 64)
	if err != nil {
		return InspectResponse{}, err
	}
	job, err := r.CreateRenderJob(fb)
	if err != nil {
		return InspectResponse{}, err
	}

	ray := job.PixelRay(float64(x)+0.5, float64(y)+0.5)
	hit, ok, err := job.Scene.Trace(ray)
	if err != nil {
		return InspectResponse{}, err
	}
	if !ok {
		return InspectResponse{Hit: false, Lights: job.Lights.Len()}, nil
	}

	response := InspectResponse{
		Hit:        true,
		MaterialID: hit.MaterialID,
		Point:      vec3Array(hit.Point),
		Normal:     vec3Array(hit.Normal),
		UV:         [2]float64{hit.UV.X, hit.UV.Y},
		Distance:   hit.T,
		FrontFace:  hit.FrontFace,
		Lights:     job.Lights.Len(),
		Parameters: map[string]string{},
	}
	if m := r.Material(hit.MaterialID); m != nil {
		response.MaterialType = m.Type()
		for _, name := range m.Params().Names() {
			v, _ := m.Params().Value(name)
			response.Parameters[name] = fmt.Sprint(v)
		}
	}

	surface := job.Shading(hit.MaterialID).Resolve(material.SurfacePoint{
		UV:        hit.UV,
		Normal:    hit.Normal,
		Tangent:   hit.Tangent,
		Bitangent: hit.Bitangent,
	})
	response.Surface = SurfaceInfo{
		Diffuse:       vec3Array(surface.Diffuse),
		Specular:      vec3Array(surface.Specular),
		Roughness:     surface.Roughness,
		Metallic:      surface.Metallic,
		Opacity:       surface.Opacity,
		Coat:          surface.Coat,
		Transmission:  surface.Transmission,
		IOR:           surface.IOR,
		DiffuseColor:  hexColor(surface.Diffuse),
		ShadingNormal: vec3Array(surface.Normal),
	}
	return response, nil
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	inspectReq := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, inspectReq); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}
	if pixelX < 0 || pixelX >= inspectReq.Width || pixelY < 0 || pixelY >= inspectReq.Height {
		writeJSONError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	raytracer, err := demo.New(inspectReq.Renderer, demo.Options{Scene: inspectReq.Scene}, renderer.Config{
		NumWorkers: 1,
		Logger:     s.logger,
	})
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer raytracer.Close()

	response, err := inspectPixel(raytracer, inspectReq.Width, inspectReq.Height, pixelX, pixelY)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response)
}
