package tensor

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestZeros_ShapeAndData(t *testing.T) {
	tests := []struct {
		name    string
		shape   []int
		wantLen int
	}{
		{name: "Vector", shape: []int{3}, wantLen: 3},
		{name: "Matrix", shape: []int{3, 3}, wantLen: 9},
		{name: "Mipmap pyramid", shape: []int{4, 16, 32, 3}, wantLen: 4 * 16 * 32 * 3},
		{name: "Scalar-free empty shape", shape: []int{}, wantLen: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ten := Zeros(tt.shape...)
			if ten.Len() != tt.wantLen {
				t.Errorf("Expected length %d, got %d", tt.wantLen, ten.Len())
			}
			if ten.Rank() != len(tt.shape) {
				t.Errorf("Expected rank %d, got %d", len(tt.shape), ten.Rank())
			}
			for i := 0; i < ten.Len(); i++ {
				if ten.At(i) != 0 {
					t.Errorf("Expected zero at index %d, got %f", i, ten.At(i))
				}
			}
		})
	}
}

func TestEmpty_IsMarker(t *testing.T) {
	e := Empty()
	if !e.IsEmpty() {
		t.Error("Empty() should report IsEmpty")
	}
	if Zeros(3).IsEmpty() {
		t.Error("Zeros(3) should not report IsEmpty")
	}
	// The zero value must behave as the marker too.
	var zero Tensor
	if !zero.IsEmpty() {
		t.Error("Zero-value tensor should report IsEmpty")
	}
}

func TestFromMat3_RowMajor(t *testing.T) {
	// mgl32 is column-major; the tensor must come out row-major.
	m := mgl32.Mat3FromCols(
		mgl32.Vec3{1, 4, 7},
		mgl32.Vec3{2, 5, 8},
		mgl32.Vec3{3, 6, 9},
	)
	ten := FromMat3(m)
	want := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}
	for i, w := range want {
		if ten.At(i) != w {
			t.Errorf("Element %d: expected %f, got %f", i, w, ten.At(i))
		}
	}
}

func TestVec3_RoundTrip(t *testing.T) {
	v := mgl32.Vec3{0.5, -1.25, 3}
	got := FromVec3(v).Vec3()
	if got != v {
		t.Errorf("Expected %v, got %v", v, got)
	}
}

func TestZerosLike_MatchesShape(t *testing.T) {
	src := Zeros(7, 32, 64, 3)
	dst := ZerosLike(src)
	if !dst.SameShape(src) {
		t.Errorf("Expected shape %v, got %v", src.Shape(), dst.Shape())
	}
	if !ZerosLike(Empty()).IsEmpty() {
		t.Error("ZerosLike(Empty()) should be the empty marker")
	}
}

func TestFromSlice_PanicsOnMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for mismatched shape")
		}
	}()
	FromSlice([]float32{1, 2, 3}, 2, 2)
}
