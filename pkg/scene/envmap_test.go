package scene

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-adjoint-renderer/pkg/tensor"
)

func newUniformEnvTexture(t *testing.T, height, width int, value float32) Texture3 {
	t.Helper()
	base := tensor.Zeros(height, width, 3)
	for i := 0; i < base.Len(); i++ {
		base.Set(i, value)
	}
	pyramid, err := BuildPyramid(base)
	if err != nil {
		t.Fatalf("BuildPyramid failed: %v", err)
	}
	values, err := NewMipmapTexture3(pyramid, mgl32.Vec2{1, 1})
	if err != nil {
		t.Fatalf("NewMipmapTexture3 failed: %v", err)
	}
	return values
}

func TestNewEnvironmentMap_CDFs(t *testing.T) {
	const height, width = 8, 16
	env, err := NewEnvironmentMap(newUniformEnvTexture(t, height, width, 1.0), mgl32.Ident4())
	if err != nil {
		t.Fatalf("NewEnvironmentMap failed: %v", err)
	}

	// Marginal row CDF: non-decreasing and ending at 1.
	prev := float32(0)
	for y := 0; y < height; y++ {
		v := env.SampleCDFYs.At(y)
		if v < prev {
			t.Fatalf("Row CDF decreases at %d: %v -> %v", y, prev, v)
		}
		prev = v
	}
	if math.Abs(float64(env.SampleCDFYs.At(height-1))-1) > 1e-5 {
		t.Errorf("Row CDF must end at 1, got %v", env.SampleCDFYs.At(height-1))
	}

	// Each conditional row CDF ends at 1; a uniform map makes it linear.
	for y := 0; y < height; y++ {
		last := env.SampleCDFXs.At(y*width + width - 1)
		if math.Abs(float64(last)-1) > 1e-5 {
			t.Errorf("Conditional CDF row %d must end at 1, got %v", y, last)
		}
		mid := env.SampleCDFXs.At(y*width + width/2 - 1)
		if math.Abs(float64(mid)-0.5) > 1e-5 {
			t.Errorf("Uniform map: conditional CDF row %d midpoint should be 0.5, got %v", y, mid)
		}
	}

	// Sin(theta) weighting: equator rows carry more CDF mass than pole rows.
	poleStep := env.SampleCDFYs.At(0)
	equatorStep := env.SampleCDFYs.At(height/2) - env.SampleCDFYs.At(height/2-1)
	if equatorStep <= poleStep {
		t.Errorf("Equator rows must outweigh pole rows: pole %v, equator %v", poleStep, equatorStep)
	}

	if env.PDFNorm <= 0 {
		t.Errorf("PDF normalization must be positive, got %v", env.PDFNorm)
	}
}

func TestNewEnvironmentMap_InvertsTransform(t *testing.T) {
	rot := mgl32.HomogRotate3DY(0.5)
	env, err := NewEnvironmentMap(newUniformEnvTexture(t, 4, 4, 1.0), rot)
	if err != nil {
		t.Fatalf("NewEnvironmentMap failed: %v", err)
	}
	product := env.EnvToWorld.Mul4(env.WorldToEnv)
	ident := mgl32.Ident4()
	for i := 0; i < 16; i++ {
		if math.Abs(float64(product[i]-ident[i])) > 1e-5 {
			t.Fatalf("EnvToWorld * WorldToEnv is not the identity: %v", product)
		}
	}
}

func TestNewEnvironmentMap_Errors(t *testing.T) {
	if _, err := NewEnvironmentMap(NewConstantTexture3(mgl32.Vec3{1, 1, 1}), mgl32.Ident4()); err == nil {
		t.Error("Constant radiance must be rejected")
	} else if !strings.Contains(err.Error(), "mipmap") {
		t.Errorf("Unexpected error: %v", err)
	}

	if _, err := NewEnvironmentMap(newUniformEnvTexture(t, 4, 4, 0), mgl32.Ident4()); err == nil {
		t.Error("A completely black map must be rejected")
	} else if !strings.Contains(err.Error(), "black") {
		t.Errorf("Unexpected error: %v", err)
	}
}
