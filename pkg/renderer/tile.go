package renderer

import (
	"image"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// Tile is a rectangular region of the framebuffer, the unit of parallel work.
// Pixels are addressed in tile-local coordinates.
type Tile struct {
	ID     int             // Row-major index in the grid
	Bounds image.Rectangle // Pixel bounds in the framebuffer
	pixels []core.Vec3
}

// NewTile creates a tile with the specified bounds
func NewTile(id int, bounds image.Rectangle) *Tile {
	return &Tile{
		ID:     id,
		Bounds: bounds,
		pixels: make([]core.Vec3, bounds.Dx()*bounds.Dy()),
	}
}

// Set stores the color of local pixel (x, y)
func (t *Tile) Set(x, y int, c core.Vec3) {
	t.pixels[y*t.Bounds.Dx()+x] = c
}

// At returns the color of local pixel (x, y)
func (t *Tile) At(x, y int) core.Vec3 {
	return t.pixels[y*t.Bounds.Dx()+x]
}

// Fill sets every pixel from fn, called with framebuffer coordinates
func (t *Tile) Fill(fn func(x, y int) core.Vec3) {
	for y := t.Bounds.Min.Y; y < t.Bounds.Max.Y; y++ {
		for x := t.Bounds.Min.X; x < t.Bounds.Max.X; x++ {
			t.Set(x-t.Bounds.Min.X, y-t.Bounds.Min.Y, fn(x, y))
		}
	}
}

// NewTileGrid partitions a width x height image into tiles of tileSize,
// row-major from the top-left. Edge tiles are clipped, so the tiles cover
// every pixel exactly once.
func NewTileGrid(width, height, tileSize int) []*Tile {
	if width <= 0 || height <= 0 || tileSize <= 0 {
		return nil
	}

	tilesX := (width + tileSize - 1) / tileSize // Ceiling division
	tilesY := (height + tileSize - 1) / tileSize
	tiles := make([]*Tile, 0, tilesX*tilesY)

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width)
			y1 := min(y0+tileSize, height)
			tiles = append(tiles, NewTile(len(tiles), image.Rect(x0, y0, x1, y1)))
		}
	}

	return tiles
}

// tileSeed derives the random seed for a tile in a given frame. It depends
// only on the tile and the frame, never on which worker runs the tile.
func tileSeed(tileID, frame int) int64 {
	return int64(frame)*1_000_003 + int64(tileID) + 42 // +42 to avoid seed 0
}
