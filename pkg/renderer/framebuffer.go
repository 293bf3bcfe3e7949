package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// ErrInvalidFramebuffer is returned for framebuffers that cannot be partitioned
var ErrInvalidFramebuffer = errors.New("invalid framebuffer")

// Framebuffer accumulates linear radiance over progressive frames
type Framebuffer struct {
	width, height int
	tileSize      int
	accum         []core.Vec3
	frames        int
}

// NewFramebuffer creates a framebuffer. tileSize must be a power of two.
func NewFramebuffer(width, height, tileSize int) (*Framebuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidFramebuffer, width, height)
	}
	if tileSize <= 0 || tileSize&(tileSize-1) != 0 {
		return nil, fmt.Errorf("%w: tile size %d is not a power of two", ErrInvalidFramebuffer, tileSize)
	}
	return &Framebuffer{
		width:    width,
		height:   height,
		tileSize: tileSize,
		accum:    make([]core.Vec3, width*height),
	}, nil
}

// Width returns the framebuffer width in pixels
func (fb *Framebuffer) Width() int { return fb.width }

// Height returns the framebuffer height in pixels
func (fb *Framebuffer) Height() int { return fb.height }

// TileSize returns the edge length of a full tile
func (fb *Framebuffer) TileSize() int { return fb.tileSize }

// Frames returns the number of frames accumulated so far
func (fb *Framebuffer) Frames() int { return fb.frames }

// Accumulate adds one complete frame of tiles
func (fb *Framebuffer) Accumulate(tiles []*Tile) {
	for _, tile := range tiles {
		b := tile.Bounds
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := y * fb.width
			for x := b.Min.X; x < b.Max.X; x++ {
				fb.accum[row+x] = fb.accum[row+x].Add(tile.At(x-b.Min.X, y-b.Min.Y))
			}
		}
	}
	fb.frames++
}

// Reset discards all accumulated frames
func (fb *Framebuffer) Reset() {
	clear(fb.accum)
	fb.frames = 0
}

// Color returns the averaged linear color of pixel (x, y)
func (fb *Framebuffer) Color(x, y int) core.Vec3 {
	if fb.frames == 0 {
		return core.Vec3{}
	}
	return fb.accum[y*fb.width+x].Multiply(1.0 / float64(fb.frames))
}

// Image converts the averaged colors to 8-bit sRGB-ish output (gamma 2)
func (fb *Framebuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
	for y := 0; y < fb.height; y++ {
		for x := 0; x < fb.width; x++ {
			img.SetRGBA(x, y, vec3ToColor(fb.Color(x, y)))
		}
	}
	return img
}

// vec3ToColor applies gamma correction and clamps to [0, 255]
func vec3ToColor(c core.Vec3) color.RGBA {
	if !c.IsFinite() {
		c = core.Vec3{}
	}
	c = c.Clamp(0, 1).GammaCorrect(2.0)
	return color.RGBA{
		R: uint8(math.Round(c.X * 255)),
		G: uint8(math.Round(c.Y * 255)),
		B: uint8(math.Round(c.Z * 255)),
		A: 255,
	}
}
