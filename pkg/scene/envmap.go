package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-adjoint-renderer/pkg/tensor"
)

// EnvironmentMap is a distant radiance source importance-sampled through
// precomputed luminance CDF tables. SampleCDFYs is the marginal CDF over
// rows with shape (height,), SampleCDFXs the per-row conditional CDF with
// shape (height, width), both computed from the base mipmap level weighted
// by sin(theta) so poles do not dominate.
type EnvironmentMap struct {
	Values      Texture3 // mipmapped radiance
	EnvToWorld  mgl32.Mat4
	WorldToEnv  mgl32.Mat4
	SampleCDFYs tensor.Tensor // (height,)
	SampleCDFXs tensor.Tensor // (height, width)
	PDFNorm     float32
}

// NewEnvironmentMap builds an environment map from a mipmapped radiance
// texture and an env-to-world transform, precomputing the sampling CDFs and
// the PDF normalization from the base level.
func NewEnvironmentMap(values Texture3, envToWorld mgl32.Mat4) (*EnvironmentMap, error) {
	if !values.IsMipmapped() {
		return nil, fmt.Errorf("environment map radiance must be a mipmap pyramid, not a constant")
	}
	height, width := values.Height(), values.Width()
	base := values.Pyramid().Data()[:height*width*3]

	cdfYs := tensor.Zeros(height)
	cdfXs := tensor.Zeros(height, width)

	// Luminance weighted by sin(theta): rows near the poles cover less solid
	// angle and must be sampled less often.
	rowWeights := make([]float64, height)
	total := 0.0
	for y := 0; y < height; y++ {
		sinTheta := math.Sin(math.Pi * (float64(y) + 0.5) / float64(height))
		rowSum := 0.0
		for x := 0; x < width; x++ {
			p := (y*width + x) * 3
			lum := 0.212671*float64(base[p]) + 0.715160*float64(base[p+1]) + 0.072169*float64(base[p+2])
			rowSum += lum * sinTheta
			cdfXs.Set(y*width+x, float32(rowSum))
		}
		// Normalize the row CDF to end at 1. A fully black row keeps zeros.
		if rowSum > 0 {
			for x := 0; x < width; x++ {
				cdfXs.Set(y*width+x, cdfXs.At(y*width+x)/float32(rowSum))
			}
		}
		rowWeights[y] = rowSum
		total += rowSum
	}
	if total <= 0 {
		return nil, fmt.Errorf("environment map radiance is completely black")
	}

	acc := 0.0
	for y := 0; y < height; y++ {
		acc += rowWeights[y]
		cdfYs.Set(y, float32(acc/total))
	}

	// Normalization so the sampling PDF integrates to 1 over the sphere.
	pdfNorm := float32(float64(height*width) / (total * 2 * math.Pi * math.Pi))

	return &EnvironmentMap{
		Values:      values,
		EnvToWorld:  envToWorld,
		WorldToEnv:  envToWorld.Inv(),
		SampleCDFYs: cdfYs,
		SampleCDFXs: cdfXs,
		PDFNorm:     pdfNorm,
	}, nil
}
