package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-adjoint-renderer/pkg/tensor"
)

// Texture3 is a 3-channel texture: either a single constant color or a
// mipmap pyramid with shape (levels, height, width, 3). The variant is fixed
// at construction time; the flattened wire form still uses the rank rule
// (rank 1 tensor for a constant, rank 4 for a pyramid) so downstream code can
// reconstruct the variant without extra metadata.
type Texture3 struct {
	constant  mgl32.Vec3
	pyramid   tensor.Tensor // (levels, height, width, 3)
	uvScale   mgl32.Vec2
	mipmapped bool
}

// NewConstantTexture3 creates a constant 3-channel texture.
func NewConstantTexture3(c mgl32.Vec3) Texture3 {
	return Texture3{constant: c, uvScale: mgl32.Vec2{1, 1}}
}

// NewMipmapTexture3 creates a mipmapped 3-channel texture from a pyramid
// tensor of shape (levels, height, width, 3).
func NewMipmapTexture3(pyramid tensor.Tensor, uvScale mgl32.Vec2) (Texture3, error) {
	if pyramid.Rank() != 4 || pyramid.Dim(3) != 3 {
		return Texture3{}, fmt.Errorf("mipmap texture must have shape (levels, height, width, 3), got %v", pyramid.Shape())
	}
	return Texture3{pyramid: pyramid, uvScale: uvScale, mipmapped: true}, nil
}

// IsMipmapped reports which variant the texture holds.
func (t Texture3) IsMipmapped() bool { return t.mipmapped }

// Constant returns the constant color. Only valid for constant textures.
func (t Texture3) Constant() mgl32.Vec3 { return t.constant }

// Pyramid returns the mipmap tensor. Only valid for mipmapped textures.
func (t Texture3) Pyramid() tensor.Tensor { return t.pyramid }

// UVScale returns the UV tiling factors.
func (t Texture3) UVScale() mgl32.Vec2 { return t.uvScale }

// Levels returns the number of mipmap levels (0 for constants).
func (t Texture3) Levels() int {
	if !t.mipmapped {
		return 0
	}
	return t.pyramid.Dim(0)
}

// Height returns the base-level height (0 for constants).
func (t Texture3) Height() int {
	if !t.mipmapped {
		return 0
	}
	return t.pyramid.Dim(1)
}

// Width returns the base-level width (0 for constants).
func (t Texture3) Width() int {
	if !t.mipmapped {
		return 0
	}
	return t.pyramid.Dim(2)
}

// Flatten returns the wire-form tensor: (3,) for a constant, the rank-4
// pyramid for a mipmap.
func (t Texture3) Flatten() tensor.Tensor {
	if t.mipmapped {
		return t.pyramid
	}
	return tensor.FromVec3(t.constant)
}

// Texture1 is the single-channel analogue of Texture3: a constant scalar or
// a pyramid of shape (levels, height, width, 1).
type Texture1 struct {
	constant  float32
	pyramid   tensor.Tensor // (levels, height, width, 1)
	uvScale   mgl32.Vec2
	mipmapped bool
}

// NewConstantTexture1 creates a constant single-channel texture.
func NewConstantTexture1(v float32) Texture1 {
	return Texture1{constant: v, uvScale: mgl32.Vec2{1, 1}}
}

// NewMipmapTexture1 creates a mipmapped single-channel texture from a
// pyramid tensor of shape (levels, height, width, 1).
func NewMipmapTexture1(pyramid tensor.Tensor, uvScale mgl32.Vec2) (Texture1, error) {
	if pyramid.Rank() != 4 || pyramid.Dim(3) != 1 {
		return Texture1{}, fmt.Errorf("mipmap texture must have shape (levels, height, width, 1), got %v", pyramid.Shape())
	}
	return Texture1{pyramid: pyramid, uvScale: uvScale, mipmapped: true}, nil
}

// IsMipmapped reports which variant the texture holds.
func (t Texture1) IsMipmapped() bool { return t.mipmapped }

// Constant returns the constant value. Only valid for constant textures.
func (t Texture1) Constant() float32 { return t.constant }

// Pyramid returns the mipmap tensor. Only valid for mipmapped textures.
func (t Texture1) Pyramid() tensor.Tensor { return t.pyramid }

// UVScale returns the UV tiling factors.
func (t Texture1) UVScale() mgl32.Vec2 { return t.uvScale }

// Levels returns the number of mipmap levels (0 for constants).
func (t Texture1) Levels() int {
	if !t.mipmapped {
		return 0
	}
	return t.pyramid.Dim(0)
}

// Height returns the base-level height (0 for constants).
func (t Texture1) Height() int {
	if !t.mipmapped {
		return 0
	}
	return t.pyramid.Dim(1)
}

// Width returns the base-level width (0 for constants).
func (t Texture1) Width() int {
	if !t.mipmapped {
		return 0
	}
	return t.pyramid.Dim(2)
}

// Flatten returns the wire-form tensor: (1,) for a constant, the rank-4
// pyramid for a mipmap.
func (t Texture1) Flatten() tensor.Tensor {
	if t.mipmapped {
		return t.pyramid
	}
	return tensor.FromSlice([]float32{t.constant}, 1)
}

// BuildPyramid constructs a full mipmap pyramid from a base level of shape
// (height, width, channels). Every level has the base resolution (the engine
// samples levels by footprint, not by size), with level i holding the base
// image box-filtered 2^i times. Height and width must be powers of two.
func BuildPyramid(base tensor.Tensor) (tensor.Tensor, error) {
	if base.Rank() != 3 {
		return tensor.Empty(), fmt.Errorf("pyramid base must have shape (height, width, channels), got %v", base.Shape())
	}
	height, width, channels := base.Dim(0), base.Dim(1), base.Dim(2)
	if height <= 0 || width <= 0 || height&(height-1) != 0 || width&(width-1) != 0 {
		return tensor.Empty(), fmt.Errorf("pyramid base resolution %dx%d is not a power of two", width, height)
	}

	levels := 1
	for size := min(width, height); size > 1; size /= 2 {
		levels++
	}

	pyramid := tensor.Zeros(levels, height, width, channels)
	dst := pyramid.Data()
	copy(dst[:base.Len()], base.Data())

	// Each level is the previous level box-filtered at progressively coarser
	// footprints, then held at base resolution.
	current := append([]float32{}, base.Data()...)
	curH, curW := height, width
	for level := 1; level < levels; level++ {
		nextH, nextW := max(curH/2, 1), max(curW/2, 1)
		next := boxDownsample(current, curH, curW, channels, nextH, nextW)
		upsampleInto(dst[level*base.Len():(level+1)*base.Len()], next, nextH, nextW, channels, height, width)
		current, curH, curW = next, nextH, nextW
	}
	return pyramid, nil
}

// boxDownsample averages 2x2 pixel blocks of src into a (dstH, dstW) image.
func boxDownsample(src []float32, srcH, srcW, channels, dstH, dstW int) []float32 {
	dst := make([]float32, dstH*dstW*channels)
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			for c := 0; c < channels; c++ {
				sum := float32(0)
				count := 0
				for dy := 0; dy < 2; dy++ {
					for dx := 0; dx < 2; dx++ {
						sy, sx := y*2+dy, x*2+dx
						if sy < srcH && sx < srcW {
							sum += src[(sy*srcW+sx)*channels+c]
							count++
						}
					}
				}
				dst[(y*dstW+x)*channels+c] = sum / float32(count)
			}
		}
	}
	return dst
}

// upsampleInto nearest-neighbor expands src to the base resolution.
func upsampleInto(dst, src []float32, srcH, srcW, channels, dstH, dstW int) {
	for y := 0; y < dstH; y++ {
		sy := y * srcH / dstH
		for x := 0; x < dstW; x++ {
			sx := x * srcW / dstW
			for c := 0; c < channels; c++ {
				dst[(y*dstW+x)*channels+c] = src[(sy*srcW+sx)*channels+c]
			}
		}
	}
}
