package scene

import (
	"fmt"

	"github.com/df07/go-adjoint-renderer/pkg/tensor"
)

// NoID is the sentinel for "no material" / "no light" on a shape.
const NoID = -1

// Shape is a triangle mesh. Vertices has shape (N, 3); UVs and Normals are
// optional and, when present, share the vertex count N. Absent buffers hold
// the empty tensor so the flattened form keeps its positional alignment.
type Shape struct {
	Vertices tensor.Tensor // (N, 3)
	Indices  []int32       // 3 per triangle
	UVs      tensor.Tensor // (N, 2) or empty
	Normals  tensor.Tensor // (N, 3) or empty
	// MaterialID indexes the scene's material list.
	MaterialID int
	// LightID indexes the scene's area-light list. It is NoID unless an
	// area light references this shape; the flattener assigns it.
	LightID int
}

// NewShape creates a shape. Pass the empty tensor for absent UVs or normals.
func NewShape(vertices tensor.Tensor, indices []int32, uvs, normals tensor.Tensor, materialID int) *Shape {
	return &Shape{
		Vertices:   vertices,
		Indices:    indices,
		UVs:        uvs,
		Normals:    normals,
		MaterialID: materialID,
		LightID:    NoID,
	}
}

// NumVertices returns the vertex count N.
func (s *Shape) NumVertices() int {
	if s.Vertices.IsEmpty() {
		return 0
	}
	return s.Vertices.Dim(0)
}

// NumTriangles returns the triangle count.
func (s *Shape) NumTriangles() int { return len(s.Indices) / 3 }

// HasUVs reports whether the shape carries a UV buffer.
func (s *Shape) HasUVs() bool { return !s.UVs.IsEmpty() }

// HasNormals reports whether the shape carries a normal buffer.
func (s *Shape) HasNormals() bool { return !s.Normals.IsEmpty() }

// Validate checks buffer shapes and index ranges.
func (s *Shape) Validate() error {
	if s.Vertices.Rank() != 2 || s.Vertices.Dim(1) != 3 {
		return fmt.Errorf("vertex buffer must have shape (N, 3), got %v", s.Vertices.Shape())
	}
	if len(s.Indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a multiple of 3", len(s.Indices))
	}
	n := s.NumVertices()
	for i, idx := range s.Indices {
		if idx < 0 || int(idx) >= n {
			return fmt.Errorf("index %d at position %d out of range [0, %d)", idx, i, n)
		}
	}
	if s.HasUVs() {
		if s.UVs.Rank() != 2 || s.UVs.Dim(1) != 2 || s.UVs.Dim(0) != n {
			return fmt.Errorf("uv buffer must have shape (%d, 2), got %v", n, s.UVs.Shape())
		}
	}
	if s.HasNormals() {
		if s.Normals.Rank() != 2 || s.Normals.Dim(1) != 3 || s.Normals.Dim(0) != n {
			return fmt.Errorf("normal buffer must have shape (%d, 3), got %v", n, s.Normals.Shape())
		}
	}
	return nil
}
