// Package texture is the boundary to texture sampling: image and procedural
// textures, named texture references and the library that resolves them.
package texture

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// ErrInvalidTextureHandle is returned when a texture reference cannot be
// resolved or a texture cannot be sampled
var ErrInvalidTextureHandle = errors.New("invalid texture handle")

// Neutral is the value returned by Sample alongside false
var Neutral = core.NewVec3(1, 1, 1)

// Texture provides spatially-varying values addressed by UV coordinates
type Texture interface {
	// Sample returns the value at uv. The boolean is false when the texture
	// is invalid, in which case the value is Neutral.
	Sample(uv core.Vec2) (core.Vec3, bool)
}

// Filter selects how image textures are reconstructed between texels
type Filter int

const (
	FilterNearest Filter = iota
	FilterBilinear
)

// Image provides values from a 2D texel grid with repeat wrapping
type Image struct {
	Width  int
	Height int
	Pixels []core.Vec3 // Row-major: Pixels[y*Width + x], row 0 is the top of the image
	Filter Filter
}

// NewImage creates a new image texture with nearest-neighbor filtering
func NewImage(width, height int, pixels []core.Vec3) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pixels: pixels,
	}
}

// Valid reports whether the texel grid is usable
func (t *Image) Valid() bool {
	return t != nil && t.Width > 0 && t.Height > 0 && len(t.Pixels) >= t.Width*t.Height
}

// Sample implements Texture. V=0 is the bottom row, V=1 the top.
func (t *Image) Sample(uv core.Vec2) (core.Vec3, bool) {
	if !t.Valid() {
		return Neutral, false
	}

	u := wrap(uv.X)
	v := wrap(uv.Y)

	if t.Filter == FilterBilinear {
		return t.bilinear(u, v), true
	}

	x := int(u * float64(t.Width))
	y := int((1.0 - v) * float64(t.Height))
	return t.texel(x, y), true
}

// bilinear blends the four texels around (u, v) with texel centers at half offsets
func (t *Image) bilinear(u, v float64) core.Vec3 {
	fx := u*float64(t.Width) - 0.5
	fy := (1.0-v)*float64(t.Height) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	top := t.texelWrapped(x0, y0).Lerp(t.texelWrapped(x0+1, y0), tx)
	bottom := t.texelWrapped(x0, y0+1).Lerp(t.texelWrapped(x0+1, y0+1), tx)
	return top.Lerp(bottom, ty)
}

func (t *Image) texel(x, y int) core.Vec3 {
	x = max(0, min(t.Width-1, x))
	y = max(0, min(t.Height-1, y))
	return t.Pixels[y*t.Width+x]
}

func (t *Image) texelWrapped(x, y int) core.Vec3 {
	x %= t.Width
	if x < 0 {
		x += t.Width
	}
	y %= t.Height
	if y < 0 {
		y += t.Height
	}
	return t.Pixels[y*t.Width+x]
}

// wrap maps a coordinate into [0, 1)
func wrap(c float64) float64 {
	c -= math.Floor(c)
	if c >= 1 || math.IsNaN(c) {
		return 0
	}
	return c
}

// Constant is a texture with the same value everywhere
type Constant struct {
	Value core.Vec3
}

// Sample implements Texture
func (c Constant) Sample(core.Vec2) (core.Vec3, bool) {
	return c.Value, true
}

// Func adapts a plain function to the Texture interface
type Func func(uv core.Vec2) core.Vec3

// Sample implements Texture
func (f Func) Sample(uv core.Vec2) (core.Vec3, bool) {
	if f == nil {
		return Neutral, false
	}
	return f(uv), true
}

// NewCheckerboard creates a procedural checkerboard image with checks of checkSize texels
func NewCheckerboard(width, height, checkSize int, color1, color2 core.Vec3) *Image {
	pixels := make([]core.Vec3, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/checkSize+y/checkSize)%2 == 0 {
				pixels[y*width+x] = color1
			} else {
				pixels[y*width+x] = color2
			}
		}
	}
	return NewImage(width, height, pixels)
}

// Ref names a texture registered in a Library
type Ref string

// Resolver turns texture references into textures
type Resolver interface {
	Resolve(ref Ref) (Texture, error)
}

// Library is a name-indexed texture collection. It is populated before
// rendering and only read while frames are in flight.
type Library struct {
	textures map[Ref]Texture
}

// NewLibrary creates an empty texture library
func NewLibrary() *Library {
	return &Library{textures: make(map[Ref]Texture)}
}

// Add registers tex under name, replacing any previous entry
func (l *Library) Add(name Ref, tex Texture) {
	l.textures[name] = tex
}

// Len returns the number of registered textures
func (l *Library) Len() int {
	return len(l.textures)
}

// Resolve implements Resolver
func (l *Library) Resolve(ref Ref) (Texture, error) {
	if l == nil {
		return nil, fmt.Errorf("texture %q: %w", ref, ErrInvalidTextureHandle)
	}
	tex, ok := l.textures[ref]
	if !ok || tex == nil {
		return nil, fmt.Errorf("texture %q: %w", ref, ErrInvalidTextureHandle)
	}
	if img, isImage := tex.(*Image); isImage && !img.Valid() {
		return nil, fmt.Errorf("texture %q has no texels: %w", ref, ErrInvalidTextureHandle)
	}
	return tex, nil
}
