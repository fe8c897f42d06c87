package tensor

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Tensor is a dense float32 array with an explicit shape. It is the unit of
// exchange between the scene types and the rendering engine: bulk scene data
// (vertex buffers, mipmaps, CDF tables) and all gradient buffers are tensors.
//
// The zero value is the empty tensor, which doubles as the protocol's
// "empty marker" for absent optional data.
type Tensor struct {
	shape []int
	data  []float32
}

// Empty returns the empty tensor (rank 0, no data).
func Empty() Tensor {
	return Tensor{}
}

// Zeros creates a zero-filled tensor with the given shape.
func Zeros(shape ...int) Tensor {
	n := 1
	for _, d := range shape {
		if d < 0 {
			panic(fmt.Sprintf("tensor: negative dimension %d", d))
		}
		n *= d
	}
	return Tensor{shape: append([]int{}, shape...), data: make([]float32, n)}
}

// FromSlice creates a tensor that takes ownership of data.
// The product of the shape dimensions must equal len(data).
func FromSlice(data []float32, shape ...int) Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != len(data) {
		panic(fmt.Sprintf("tensor: shape %v does not match data length %d", shape, len(data)))
	}
	return Tensor{shape: append([]int{}, shape...), data: data}
}

// FromVec2 creates a (2,) tensor from an mgl32 vector.
func FromVec2(v mgl32.Vec2) Tensor {
	return FromSlice([]float32{v[0], v[1]}, 2)
}

// FromVec3 creates a (3,) tensor from an mgl32 vector.
func FromVec3(v mgl32.Vec3) Tensor {
	return FromSlice([]float32{v[0], v[1], v[2]}, 3)
}

// FromMat3 creates a (3,3) tensor from an mgl32 matrix in row-major order.
// mgl32 stores matrices column-major, so the elements are transposed on copy.
func FromMat3(m mgl32.Mat3) Tensor {
	data := make([]float32, 9)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			data[row*3+col] = m.At(row, col)
		}
	}
	return FromSlice(data, 3, 3)
}

// FromMat4 creates a (4,4) tensor from an mgl32 matrix in row-major order.
func FromMat4(m mgl32.Mat4) Tensor {
	data := make([]float32, 16)
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			data[row*4+col] = m.At(row, col)
		}
	}
	return FromSlice(data, 4, 4)
}

// Vec3 converts a (3,) tensor back to an mgl32 vector.
func (t Tensor) Vec3() mgl32.Vec3 {
	if t.Rank() != 1 || t.Dim(0) != 3 {
		panic(fmt.Sprintf("tensor: shape %v is not a 3-vector", t.shape))
	}
	return mgl32.Vec3{t.data[0], t.data[1], t.data[2]}
}

// IsEmpty reports whether t is the empty marker.
func (t Tensor) IsEmpty() bool {
	return len(t.data) == 0 && len(t.shape) == 0
}

// Rank returns the number of dimensions.
func (t Tensor) Rank() int {
	return len(t.shape)
}

// Shape returns a copy of the tensor's shape.
func (t Tensor) Shape() []int {
	return append([]int{}, t.shape...)
}

// Dim returns the size of dimension i.
func (t Tensor) Dim(i int) int {
	return t.shape[i]
}

// Len returns the total number of elements.
func (t Tensor) Len() int {
	return len(t.data)
}

// Data returns the backing slice. The engine writes into this slice directly,
// so callers must not reallocate it while a render is in flight.
func (t Tensor) Data() []float32 {
	return t.data
}

// At returns the element at the given flat index.
func (t Tensor) At(i int) float32 {
	return t.data[i]
}

// Set stores v at the given flat index.
func (t Tensor) Set(i int, v float32) {
	t.data[i] = v
}

// SameShape reports whether t and o have identical shapes.
func (t Tensor) SameShape(o Tensor) bool {
	if len(t.shape) != len(o.shape) {
		return false
	}
	for i, d := range t.shape {
		if o.shape[i] != d {
			return false
		}
	}
	return true
}

// ZerosLike creates a zero-filled tensor with the same shape as t.
// The empty marker maps to the empty marker.
func ZerosLike(t Tensor) Tensor {
	if t.IsEmpty() {
		return Empty()
	}
	return Zeros(t.shape...)
}

// String implements fmt.Stringer for test failure messages.
func (t Tensor) String() string {
	if t.IsEmpty() {
		return "tensor(empty)"
	}
	return fmt.Sprintf("tensor%v", t.shape)
}
