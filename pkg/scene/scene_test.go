package scene

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-adjoint-renderer/pkg/tensor"
)

func newTriangleShape(materialID int) *Shape {
	vertices := tensor.FromSlice([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, 3, 3)
	return NewShape(vertices, []int32{0, 1, 2}, tensor.Empty(), tensor.Empty(), materialID)
}

func newValidScene() *Scene {
	cam := NewPerspectiveCamera(mgl32.Vec3{0, 0, -3}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 45, 1e-2, 32, 32)
	return NewScene(
		cam,
		[]*Shape{newTriangleShape(0), newTriangleShape(0)},
		[]*Material{NewDiffuseMaterial(mgl32.Vec3{0.5, 0.5, 0.5})},
		[]*AreaLight{NewAreaLight(1, mgl32.Vec3{5, 5, 5}, false)},
		nil,
	)
}

func TestSceneValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Scene)
		wantErr string
	}{
		{"Valid scene", func(s *Scene) {}, ""},
		{"No camera", func(s *Scene) { s.Camera = nil }, "no camera"},
		{"Bad resolution", func(s *Scene) { s.Camera.Resolution = [2]int{0, 32} }, "resolution"},
		{"Material out of range", func(s *Scene) { s.Shapes[0].MaterialID = 3 }, "material id 3 out of range"},
		{"No-material sentinel allowed", func(s *Scene) { s.Shapes[0].MaterialID = NoID }, ""},
		{"Light shape out of range", func(s *Scene) { s.AreaLights[0].ShapeID = 7 }, "shape id 7 out of range"},
		{
			"Two lights on one shape",
			func(s *Scene) { s.AreaLights = append(s.AreaLights, NewAreaLight(1, mgl32.Vec3{1, 1, 1}, false)) },
			"both reference shape 1",
		},
		{
			"UV count mismatch",
			func(s *Scene) { s.Shapes[0].UVs = tensor.Zeros(5, 2) },
			"uv buffer",
		},
		{
			"Index out of range",
			func(s *Scene) { s.Shapes[1].Indices = []int32{0, 1, 9} },
			"out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newValidScene()
			tt.mutate(sc)
			err := sc.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected a valid scene, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected a validation error, got none")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewPerspectiveCamera(t *testing.T) {
	cam := NewPerspectiveCamera(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 90, 1e-2, 128, 256)

	if cam.Height() != 128 || cam.Width() != 256 {
		t.Errorf("Expected 256x128, got %dx%d", cam.Width(), cam.Height())
	}
	if cam.Type != CameraPerspective {
		t.Errorf("Expected perspective type, got %v", cam.Type)
	}

	// tan(90deg / 2) = 1: both NDC transforms collapse to the identity scale.
	tan := cam.NDCToCam.At(0, 0)
	if math.Abs(float64(tan)-1) > 1e-5 {
		t.Errorf("Expected ndc-to-cam scale 1 for a 90 degree fov, got %v", tan)
	}
	inv := cam.CamToNDC.At(0, 0)
	if math.Abs(float64(tan*inv)-1) > 1e-5 {
		t.Errorf("NDC transforms are not inverse scalings: %v * %v", tan, inv)
	}
	if cam.NDCToCam.At(2, 2) != 1 {
		t.Errorf("Z scale must stay 1, got %v", cam.NDCToCam.At(2, 2))
	}
}

func TestShapeAccessors(t *testing.T) {
	shape := newTriangleShape(0)
	if shape.NumVertices() != 3 || shape.NumTriangles() != 1 {
		t.Errorf("Expected 3 vertices / 1 triangle, got %d / %d", shape.NumVertices(), shape.NumTriangles())
	}
	if shape.HasUVs() || shape.HasNormals() {
		t.Error("Triangle without buffers reports uvs/normals")
	}
	if shape.LightID != NoID {
		t.Errorf("New shapes must start unlit, got light id %d", shape.LightID)
	}

	shape.UVs = tensor.Zeros(3, 2)
	shape.Normals = tensor.Zeros(3, 3)
	if !shape.HasUVs() || !shape.HasNormals() {
		t.Error("Buffers not detected after assignment")
	}
}
