package scene

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-adjoint-renderer/pkg/tensor"
)

func TestBuildPyramid(t *testing.T) {
	// 4x4 single-channel base holding 0..15.
	base := tensor.Zeros(4, 4, 1)
	for i := 0; i < 16; i++ {
		base.Set(i, float32(i))
	}

	pyramid, err := BuildPyramid(base)
	if err != nil {
		t.Fatalf("BuildPyramid failed: %v", err)
	}

	wantShape := []int{3, 4, 4, 1}
	for i, d := range wantShape {
		if pyramid.Dim(i) != d {
			t.Fatalf("Expected pyramid shape %v, got %v", wantShape, pyramid.Shape())
		}
	}

	// Level 0 is the base image verbatim.
	data := pyramid.Data()
	for i := 0; i < 16; i++ {
		if data[i] != float32(i) {
			t.Errorf("Level 0 pixel %d: expected %d, got %v", i, i, data[i])
		}
	}

	// Level 1: each 2x2 block averaged, held at base resolution. The top-left
	// block averages 0, 1, 4, 5.
	if data[16] != 2.5 {
		t.Errorf("Level 1 top-left: expected 2.5, got %v", data[16])
	}

	// The coarsest level is the global average everywhere.
	for i := 32; i < 48; i++ {
		if math.Abs(float64(data[i])-7.5) > 1e-5 {
			t.Errorf("Coarsest level pixel %d: expected 7.5, got %v", i-32, data[i])
		}
	}
}

func TestBuildPyramid_NonSquare(t *testing.T) {
	base := tensor.Zeros(2, 8, 3)
	pyramid, err := BuildPyramid(base)
	if err != nil {
		t.Fatalf("BuildPyramid failed: %v", err)
	}
	// Level count follows the smaller dimension.
	if pyramid.Dim(0) != 2 {
		t.Errorf("Expected 2 levels for a 8x2 base, got %d", pyramid.Dim(0))
	}
	if pyramid.Dim(1) != 2 || pyramid.Dim(2) != 8 {
		t.Errorf("Levels must keep the base resolution, got %v", pyramid.Shape())
	}
}

func TestBuildPyramid_Errors(t *testing.T) {
	tests := []struct {
		name    string
		base    tensor.Tensor
		wantErr string
	}{
		{"Wrong rank", tensor.Zeros(4, 4), "shape (height, width, channels)"},
		{"Non power of two", tensor.Zeros(4, 6, 3), "not a power of two"},
		{"Zero height", tensor.Zeros(0, 4, 3), "not a power of two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPyramid(tt.base)
			if err == nil {
				t.Fatal("Expected an error, got none")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestTexture3_Variants(t *testing.T) {
	constant := NewConstantTexture3(mgl32.Vec3{0.25, 0.5, 0.75})
	if constant.IsMipmapped() {
		t.Error("Constant texture reports mipmapped")
	}
	if constant.Levels() != 0 || constant.Height() != 0 || constant.Width() != 0 {
		t.Errorf("Constant texture dims must be 0, got %d/%d/%d", constant.Levels(), constant.Height(), constant.Width())
	}
	flat := constant.Flatten()
	if flat.Rank() != 1 || flat.Dim(0) != 3 {
		t.Errorf("Constant wire form must be (3,), got %v", flat.Shape())
	}
	if flat.At(1) != 0.5 {
		t.Errorf("Expected flattened green 0.5, got %v", flat.At(1))
	}

	mip, err := NewMipmapTexture3(tensor.Zeros(3, 8, 8, 3), mgl32.Vec2{2, 2})
	if err != nil {
		t.Fatalf("NewMipmapTexture3 failed: %v", err)
	}
	if !mip.IsMipmapped() || mip.Levels() != 3 || mip.Height() != 8 || mip.Width() != 8 {
		t.Errorf("Mipmap dims wrong: %d/%d/%d", mip.Levels(), mip.Height(), mip.Width())
	}
	if mip.Flatten().Rank() != 4 {
		t.Errorf("Mipmap wire form must keep rank 4, got %v", mip.Flatten().Shape())
	}
	if mip.UVScale() != (mgl32.Vec2{2, 2}) {
		t.Errorf("UV scale not preserved: %v", mip.UVScale())
	}
}

func TestNewMipmapTexture_RejectsBadShapes(t *testing.T) {
	if _, err := NewMipmapTexture3(tensor.Zeros(8, 8, 3), mgl32.Vec2{1, 1}); err == nil {
		t.Error("Rank-3 tensor must be rejected for a 3-channel mipmap")
	}
	if _, err := NewMipmapTexture3(tensor.Zeros(2, 8, 8, 1), mgl32.Vec2{1, 1}); err == nil {
		t.Error("Single-channel pyramid must be rejected for a 3-channel mipmap")
	}
	if _, err := NewMipmapTexture1(tensor.Zeros(2, 8, 8, 3), mgl32.Vec2{1, 1}); err == nil {
		t.Error("Three-channel pyramid must be rejected for a 1-channel mipmap")
	}
}

func TestTexture1_Variants(t *testing.T) {
	constant := NewConstantTexture1(0.3)
	flat := constant.Flatten()
	if flat.Rank() != 1 || flat.Dim(0) != 1 || flat.At(0) != 0.3 {
		t.Errorf("Constant wire form must be (1,) holding 0.3, got %s", flat)
	}

	mip, err := NewMipmapTexture1(tensor.Zeros(2, 4, 4, 1), mgl32.Vec2{1, 1})
	if err != nil {
		t.Fatalf("NewMipmapTexture1 failed: %v", err)
	}
	if mip.Flatten().Rank() != 4 || mip.Levels() != 2 {
		t.Errorf("Mipmap wire form wrong: shape %v, levels %d", mip.Flatten().Shape(), mip.Levels())
	}
}
