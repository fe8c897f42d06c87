package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	"image/png"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"

	"github.com/df07/go-adjoint-renderer/pkg/scene"
	"github.com/df07/go-adjoint-renderer/pkg/tensor"
)

// LoadTexture loads a PNG or JPEG image into a mipmapped Texture3. The image
// is resampled to the nearest power-of-two resolution with a Catmull-Rom
// filter, then expanded into the full pyramid the engine expects.
func LoadTexture(filename string, uvScale mgl32.Vec2) (scene.Texture3, error) {
	file, err := os.Open(filename)
	if err != nil {
		return scene.Texture3{}, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return scene.Texture3{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := nearestPowerOfTwo(bounds.Dx())
	height := nearestPowerOfTwo(bounds.Dy())
	if width != bounds.Dx() || height != bounds.Dy() {
		resized := image.NewRGBA64(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Src, nil)
		img = resized
		bounds = resized.Bounds()
	}

	base := tensor.Zeros(height, width, 3)
	data := base.Data()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535], convert to [0, 1]
			p := (y*width + x) * 3
			data[p] = float32(r) / 65535.0
			data[p+1] = float32(g) / 65535.0
			data[p+2] = float32(b) / 65535.0
		}
	}

	pyramid, err := scene.BuildPyramid(base)
	if err != nil {
		return scene.Texture3{}, fmt.Errorf("failed to build mipmap pyramid: %w", err)
	}
	return scene.NewMipmapTexture3(pyramid, uvScale)
}

// WritePNG saves the first three channels of an image tensor of shape
// (height, width, channels) as a gamma-corrected PNG. Single-channel images
// are written as grayscale.
func WritePNG(filename string, img tensor.Tensor) error {
	if img.Rank() != 3 {
		return fmt.Errorf("image tensor must have shape (height, width, channels), got %v", img.Shape())
	}
	height, width, channels := img.Dim(0), img.Dim(1), img.Dim(2)

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	data := img.Data()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := (y*width + x) * channels
			r := data[p]
			g, b := r, r
			if channels >= 3 {
				g, b = data[p+1], data[p+2]
			}
			offset := out.PixOffset(x, y)
			out.Pix[offset] = toSRGB(r)
			out.Pix[offset+1] = toSRGB(g)
			out.Pix[offset+2] = toSRGB(b)
			out.Pix[offset+3] = 255
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()
	if err := png.Encode(file, out); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// toSRGB clamps a linear value and applies gamma 2.2.
func toSRGB(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Pow(float64(v), 1/2.2)*255 + 0.5)
}

// nearestPowerOfTwo rounds n to the closest power of two (minimum 1),
// preferring the smaller one when n is equidistant.
func nearestPowerOfTwo(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	if 2*p-n < n-p {
		return 2 * p
	}
	return p
}
