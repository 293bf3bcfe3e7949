package texture

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"io"
	"os"

	"github.com/df07/go-tile-raytracer/pkg/core"
	_ "golang.org/x/image/bmp"  // BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // TIFF decoder
	_ "golang.org/x/image/webp" // WebP decoder
)

// LoadImage loads a PNG, JPEG, BMP, TIFF or WebP file as an image texture
func LoadImage(filename string) (*Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	tex, err := DecodeImage(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return tex, nil
}

// DecodeImage decodes any registered image format as an image texture
func DecodeImage(r io.Reader) (*Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), nil
}

// FromImage converts an image to a texture with values in [0, 1]
func FromImage(img image.Image) *Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// Normalize every source format to 16-bit non-premultiplied RGBA
	nrgba := image.NewNRGBA64(image.Rect(0, 0, width, height))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)

	pixels := make([]core.Vec3, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := nrgba.NRGBA64At(x, y)
			pixels[y*width+x] = core.NewVec3(
				float64(c.R)/65535.0,
				float64(c.G)/65535.0,
				float64(c.B)/65535.0,
			)
		}
	}

	return NewImage(width, height, pixels)
}
