// Package demo builds the named demo scenes shared by the tilerender CLI
// and the web preview server.
package demo

import (
	"fmt"
	"slices"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/renderer"
	"github.com/df07/go-tile-raytracer/pkg/scene"
	"github.com/df07/go-tile-raytracer/pkg/texture"
)

// GroundTexture is the library name of the texture mapped onto the ground
const GroundTexture texture.Ref = "ground"

// scenes lists the scene names Build accepts
var scenes = []string{"default", "checker"}

// Options select the scene and its optional assets
type Options struct {
	Scene     string
	Texture   string  // Image file mapped onto the ground
	Mesh      string  // PLY file placed behind the spheres
	MeshScale float64 // 0 means 1
}

// Names returns the available scene names
func Names() []string {
	return slices.Clone(scenes)
}

// New loads the assets named by opts, creates the named renderer over a
// fresh world and builds the scene. The caller must Close the renderer.
func New(rendererName string, opts Options, config renderer.Config) (*renderer.Renderer, error) {
	if !slices.Contains(scenes, opts.Scene) {
		return nil, fmt.Errorf("unknown scene %q", opts.Scene)
	}

	textures := texture.NewLibrary()
	if opts.Texture != "" {
		img, err := texture.LoadImage(opts.Texture)
		if err != nil {
			return nil, err
		}
		textures.Add(GroundTexture, img)
	}

	var mesh *scene.Mesh
	if opts.Mesh != "" {
		var err error
		if mesh, err = scene.LoadPLY(opts.Mesh); err != nil {
			return nil, err
		}
	}

	world := scene.NewWorld(nil)
	config.Textures = textures
	r, err := renderer.New(rendererName, world, config)
	if err != nil {
		return nil, err
	}

	if err := Build(r, world, textures, opts.Scene, mesh, opts.MeshScale); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// Build creates the named scene in world and binds its materials on r. The
// checker scene adds a back wall and a checkerboard ground texture.
// The ground is textured when textures holds GroundTexture; mesh may be nil.
func Build(r *renderer.Renderer, world *scene.World, textures *texture.Library, name string, mesh *scene.Mesh, meshScale float64) error {
	if !slices.Contains(scenes, name) {
		return fmt.Errorf("unknown scene %q", name)
	}
	if name == "checker" && textures.Len() == 0 {
		textures.Add(GroundTexture, texture.NewCheckerboard(64, 64, 8, core.Splat(0.9), core.Splat(0.2)))
	}
	_, err := textures.Resolve(GroundTexture)
	textured := err == nil

	var ids scene.DefaultMaterials
	for _, id := range []*int{&ids.Ground, &ids.Center, &ids.Left, &ids.Right} {
		if *id, _, err = r.CreateMaterial(r.Name()); err != nil {
			return err
		}
	}
	meshID := -1
	if mesh != nil {
		if meshID, _, err = r.CreateMaterial(r.Name()); err != nil {
			return err
		}
	}
	if meshScale == 0 {
		meshScale = 1
	}

	return r.Update(func() error {
		if r.Name() == "obj" {
			setOBJMaterials(r, ids, textured)
		} else {
			setPrincipledMaterials(r, ids, textured)
		}
		next := scene.NewDefaultWorld(ids)
		if name == "checker" {
			// Back wall sharing the ground's checkerboard
			next.AddQuad(core.NewVec3(-2, 0, -3), core.NewVec3(4, 0, 0), core.NewVec3(0, 1.5, 0), ids.Ground)
		}
		if mesh != nil {
			r.Material(meshID).Params().Set(baseColorParam(r.Name()), core.NewVec3(0.3, 0.6, 0.3))
			if err := next.AddMesh(mesh, meshID, meshScale, core.NewVec3(0, 0, -2.5)); err != nil {
				return err
			}
		}
		*world = *next
		return nil
	})
}

// baseColorParam names the diffuse color parameter of the renderer's default material
func baseColorParam(rendererName string) string {
	if rendererName == "obj" {
		return "Kd"
	}
	return "baseColor"
}

func setOBJMaterials(r *renderer.Renderer, ids scene.DefaultMaterials, textured bool) {
	ground := r.Material(ids.Ground).Params().Set("Kd", core.NewVec3(0.8, 0.8, 0.6))
	if textured {
		ground.Set("map_Kd", GroundTexture).Set("map_Kd.scale", core.NewVec2(0.25, 0.25))
	}
	r.Material(ids.Center).Params().Set("Kd", core.NewVec3(0.65, 0.25, 0.2)).Set("Ks", core.Splat(0.4)).Set("Ns", 60.0)
	r.Material(ids.Left).Params().Set("Kd", core.Splat(0.1)).Set("Ks", core.Splat(0.9)).Set("Ns", 400.0)
	r.Material(ids.Right).Params().Set("Kd", core.NewVec3(0.1, 0.2, 0.5)).Set("d", 0.6)
}

func setPrincipledMaterials(r *renderer.Renderer, ids scene.DefaultMaterials, textured bool) {
	ground := r.Material(ids.Ground).Params().Set("baseColor", core.NewVec3(0.8, 0.8, 0.6)).Set("roughness", 0.9)
	if textured {
		ground.Set("map_baseColor", GroundTexture).
			Set("map_baseColor.scale", core.NewVec2(0.25, 0.25)).
			Set("map_baseColor.rotation", 15.0)
	}
	r.Material(ids.Center).Params().
		Set("baseColor", core.NewVec3(0.65, 0.25, 0.2)).
		Set("coat", 1.0).
		Set("coatRoughness", 0.05)
	r.Material(ids.Left).Params().
		Set("baseColor", core.NewVec3(0.9, 0.9, 0.9)).
		Set("metallic", 1.0).
		Set("roughness", 0.15)
	r.Material(ids.Right).Params().
		Set("baseColor", core.NewVec3(0.8, 0.6, 0.2)).
		Set("metallic", 1.0).
		Set("edgeColor", core.NewVec3(1.0, 0.9, 0.6)).
		Set("roughness", 0.35)
}
