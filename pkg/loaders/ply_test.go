package loaders

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func TestLoadPLY_ASCII(t *testing.T) {
	ply := `ply
format ascii 1.0
comment a unit quad
element vertex 4
property float x
property float y
property float z
property float nx
property float ny
property float nz
property float u
property float v
element face 2
property list uchar int vertex_indices
end_header
0 0 0 0 0 1 0 0
1 0 0 0 0 1 1 0
1 1 0 0 0 1 1 1
0 1 0 0 0 1 0 1
3 0 1 2
3 0 2 3
`
	shape, err := LoadPLY(writeTempFile(t, "quad.ply", []byte(ply)))
	if err != nil {
		t.Fatalf("LoadPLY failed: %v", err)
	}

	if shape.NumVertices() != 4 || shape.NumTriangles() != 2 {
		t.Errorf("Expected 4 vertices / 2 triangles, got %d / %d", shape.NumVertices(), shape.NumTriangles())
	}
	if !shape.HasNormals() || !shape.HasUVs() {
		t.Error("Normal and uv buffers were not loaded")
	}
	// Vertex 2 is (1, 1, 0) with uv (1, 1).
	if shape.Vertices.At(6) != 1 || shape.Vertices.At(7) != 1 || shape.Vertices.At(8) != 0 {
		t.Errorf("Vertex 2 wrong: (%v, %v, %v)", shape.Vertices.At(6), shape.Vertices.At(7), shape.Vertices.At(8))
	}
	if shape.UVs.At(4) != 1 || shape.UVs.At(5) != 1 {
		t.Errorf("UV 2 wrong: (%v, %v)", shape.UVs.At(4), shape.UVs.At(5))
	}
	if shape.Normals.At(2) != 1 {
		t.Errorf("Normal 0 wrong z: %v", shape.Normals.At(2))
	}
	want := []int32{0, 1, 2, 0, 2, 3}
	for i, idx := range want {
		if shape.Indices[i] != idx {
			t.Errorf("Index %d: expected %d, got %d", i, idx, shape.Indices[i])
		}
	}
}

func TestLoadPLY_ASCIIQuadFace(t *testing.T) {
	// A single 4-vertex face fan-triangulates into two triangles.
	ply := `ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
1 1 0
0 1 0
4 0 1 2 3
`
	shape, err := LoadPLY(writeTempFile(t, "fan.ply", []byte(ply)))
	if err != nil {
		t.Fatalf("LoadPLY failed: %v", err)
	}
	if shape.NumTriangles() != 2 {
		t.Errorf("Expected fan triangulation into 2 triangles, got %d", shape.NumTriangles())
	}
	want := []int32{0, 1, 2, 0, 2, 3}
	for i, idx := range want {
		if shape.Indices[i] != idx {
			t.Errorf("Index %d: expected %d, got %d", i, idx, shape.Indices[i])
		}
	}
	if shape.HasUVs() || shape.HasNormals() {
		t.Error("Position-only mesh must keep empty uv/normal buffers")
	}
}

func TestLoadPLY_BinaryLittleEndian(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("ply\n")
	buf.WriteString("format binary_little_endian 1.0\n")
	buf.WriteString("element vertex 3\n")
	buf.WriteString("property float x\n")
	buf.WriteString("property float y\n")
	buf.WriteString("property float z\n")
	buf.WriteString("element face 1\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("end_header\n")

	vertices := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	for _, v := range vertices {
		binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.WriteByte(3)
	for _, idx := range []int32{0, 1, 2} {
		binary.Write(&buf, binary.LittleEndian, idx)
	}

	shape, err := LoadPLY(writeTempFile(t, "tri.ply", buf.Bytes()))
	if err != nil {
		t.Fatalf("LoadPLY failed: %v", err)
	}
	if shape.NumVertices() != 3 || shape.NumTriangles() != 1 {
		t.Errorf("Expected 3 vertices / 1 triangle, got %d / %d", shape.NumVertices(), shape.NumTriangles())
	}
	if math.Abs(float64(shape.Vertices.At(3))-1) > 1e-6 {
		t.Errorf("Vertex 1 x wrong: %v", shape.Vertices.At(3))
	}
}

func TestLoadPLY_BinaryBigEndian(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("ply\n")
	buf.WriteString("format binary_big_endian 1.0\n")
	buf.WriteString("element vertex 3\n")
	buf.WriteString("property float x\n")
	buf.WriteString("property float y\n")
	buf.WriteString("property float z\n")
	buf.WriteString("element face 1\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("end_header\n")

	vertices := []float32{0, 0, 0, 2, 0, 0, 0, 2, 0}
	for _, v := range vertices {
		binary.Write(&buf, binary.BigEndian, v)
	}
	buf.WriteByte(3)
	for _, idx := range []int32{0, 1, 2} {
		binary.Write(&buf, binary.BigEndian, idx)
	}

	shape, err := LoadPLY(writeTempFile(t, "tri_be.ply", buf.Bytes()))
	if err != nil {
		t.Fatalf("LoadPLY failed: %v", err)
	}
	if shape.NumVertices() != 3 || shape.NumTriangles() != 1 {
		t.Errorf("Expected 3 vertices / 1 triangle, got %d / %d", shape.NumVertices(), shape.NumTriangles())
	}
	if shape.Vertices.At(3) != 2 || shape.Vertices.At(7) != 2 {
		t.Errorf("Vertex data byte-swapped: %v, %v", shape.Vertices.At(3), shape.Vertices.At(7))
	}
	for i, idx := range []int32{0, 1, 2} {
		if shape.Indices[i] != idx {
			t.Errorf("Index %d: expected %d, got %d", i, idx, shape.Indices[i])
		}
	}
}

func TestLoadPLY_BinaryDeclaredListTypes(t *testing.T) {
	// The face count and index reads must follow the types the header
	// declares, not assume the common uchar/int pair.
	writeFixture := func(countType string, writeCount func(*bytes.Buffer)) []byte {
		var buf bytes.Buffer
		buf.WriteString("ply\n")
		buf.WriteString("format binary_little_endian 1.0\n")
		buf.WriteString("element vertex 3\n")
		buf.WriteString("property float x\n")
		buf.WriteString("property float y\n")
		buf.WriteString("property float z\n")
		buf.WriteString("element face 1\n")
		buf.WriteString("property list " + countType + " vertex_indices\n")
		buf.WriteString("end_header\n")
		for _, v := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
			binary.Write(&buf, binary.LittleEndian, v)
		}
		writeCount(&buf)
		return buf.Bytes()
	}

	tests := []struct {
		name  string
		types string
		write func(*bytes.Buffer)
	}{
		{
			name:  "Int count int indices",
			types: "int int",
			write: func(buf *bytes.Buffer) {
				binary.Write(buf, binary.LittleEndian, int32(3))
				for _, idx := range []int32{0, 1, 2} {
					binary.Write(buf, binary.LittleEndian, idx)
				}
			},
		},
		{
			name:  "Uchar count uint indices",
			types: "uchar uint",
			write: func(buf *bytes.Buffer) {
				buf.WriteByte(3)
				for _, idx := range []uint32{0, 1, 2} {
					binary.Write(buf, binary.LittleEndian, idx)
				}
			},
		},
		{
			name:  "Ushort count short indices",
			types: "ushort short",
			write: func(buf *bytes.Buffer) {
				binary.Write(buf, binary.LittleEndian, uint16(3))
				for _, idx := range []int16{0, 1, 2} {
					binary.Write(buf, binary.LittleEndian, idx)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, err := LoadPLY(writeTempFile(t, "list.ply", writeFixture(tt.types, tt.write)))
			if err != nil {
				t.Fatalf("LoadPLY failed: %v", err)
			}
			if shape.NumTriangles() != 1 {
				t.Fatalf("Expected 1 triangle, got %d", shape.NumTriangles())
			}
			want := []int32{0, 1, 2}
			for i, idx := range want {
				if shape.Indices[i] != idx {
					t.Errorf("Index %d: expected %d, got %d (list types misread)", i, idx, shape.Indices[i])
				}
			}
		})
	}
}

func TestLoadPLY_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "No vertices declared",
			content: `ply
format ascii 1.0
end_header
`,
			wantErr: "no vertices",
		},
		{
			name: "Unsupported format",
			content: `ply
format binary_middle_endian 1.0
element vertex 1
property float x
property float y
property float z
end_header
`,
			wantErr: "unsupported PLY format",
		},
		{
			name: "Face element without a list property",
			content: `ply
format binary_little_endian 1.0
element vertex 1
property float x
property float y
property float z
element face 1
end_header
`,
			wantErr: "no list property",
		},
		{
			name: "Truncated vertex data",
			content: `ply
format ascii 1.0
element vertex 2
property float x
property float y
property float z
end_header
0 0 0
`,
			wantErr: "unexpected end of file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPLY(writeTempFile(t, "bad.ply", []byte(tt.content)))
			if err == nil {
				t.Fatal("Expected an error, got none")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}
