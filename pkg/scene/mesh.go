package scene

import (
	"fmt"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// Mesh is indexed triangle data, as loaded from a PLY file
type Mesh struct {
	Vertices  []core.Vec3
	TexCoords []core.Vec2 // Per vertex; empty when the file has none
	Indices   []int       // Three per triangle
}

// TriangleCount returns the number of triangles in the mesh
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Validate checks that every index refers to a vertex
func (m *Mesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh has %d indices, not a multiple of 3", len(m.Indices))
	}
	if len(m.TexCoords) != 0 && len(m.TexCoords) != len(m.Vertices) {
		return fmt.Errorf("mesh has %d texture coordinates for %d vertices", len(m.TexCoords), len(m.Vertices))
	}
	for i, idx := range m.Indices {
		if idx < 0 || idx >= len(m.Vertices) {
			return fmt.Errorf("mesh index %d at position %d out of range [0, %d)", idx, i, len(m.Vertices))
		}
	}
	return nil
}

// Triangles converts the mesh into shapes bound to materialID, placed by
// scale and offset
func (m *Mesh) Triangles(materialID int, scale float64, offset core.Vec3) ([]Shape, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	place := func(i int) core.Vec3 { return m.Vertices[i].Multiply(scale).Add(offset) }
	shapes := make([]Shape, 0, m.TriangleCount())
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if len(m.TexCoords) == 0 {
			shapes = append(shapes, NewTriangle(place(a), place(b), place(c), materialID))
			continue
		}
		shapes = append(shapes, NewTriangleUV(place(a), place(b), place(c),
			m.TexCoords[a], m.TexCoords[b], m.TexCoords[c], materialID))
	}
	return shapes, nil
}

// AddMesh adds every triangle of mesh to the world
func (w *World) AddMesh(mesh *Mesh, materialID int, scale float64, offset core.Vec3) error {
	shapes, err := mesh.Triangles(materialID, scale, offset)
	if err != nil {
		return err
	}
	w.AddShape(shapes...)
	return nil
}
