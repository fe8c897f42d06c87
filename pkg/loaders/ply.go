// Package loaders reads external assets (PLY meshes, texture images, and
// YAML scene descriptions) into the tensor-backed scene model.
package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-adjoint-renderer/pkg/scene"
	"github.com/df07/go-adjoint-renderer/pkg/tensor"
)

// plyHeader holds the parsed PLY header: format, element counts, and the
// per-vertex property layout needed to locate positions, normals, and UVs.
type plyHeader struct {
	Format      string // "ascii", "binary_little_endian", "binary_big_endian"
	VertexCount int
	FaceCount   int
	VertexProps []plyProperty
	// FaceProp is the face element's list property; binary readers dispatch
	// the count and index reads on its declared types.
	FaceProp plyProperty

	HasNormals   bool
	HasTexCoords bool

	// Property indices into VertexProps for efficient access
	PositionIndices [3]int
	NormalIndices   [3]int
	TexCoordIndices [2]int
}

// plyProperty is one property definition from the header.
type plyProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string
	DataType string
}

// LoadPLY loads a PLY mesh into tensor buffers ready for scene.NewShape:
// a (N, 3) vertex tensor, int32 triangle indices, and optional (N, 2) UV and
// (N, 3) normal tensors (the empty tensor when the file has none).
// ASCII and binary little-endian formats are supported.
func LoadPLY(filename string) (*scene.Shape, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	header, headerSize, err := parsePLYHeader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	if _, err := file.Seek(int64(headerSize), io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to PLY data: %w", err)
	}

	switch header.Format {
	case "ascii":
		return readASCII(file, header)
	case "binary_little_endian":
		return readBinary(file, header, binary.LittleEndian)
	case "binary_big_endian":
		return readBinary(file, header, binary.BigEndian)
	default:
		return nil, fmt.Errorf("unsupported PLY format: %s", header.Format)
	}
}

// parsePLYHeader parses the header and returns it along with the byte
// offset where element data starts.
func parsePLYHeader(file *os.File) (*plyHeader, int, error) {
	header := &plyHeader{}
	scanner := bufio.NewScanner(file)
	bytesRead := 0
	currentElement := ""

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		bytesRead += len(scanner.Bytes()) + 1 // +1 for newline

		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "ply", "comment":
			// magic number / comments
		case "format":
			if len(parts) >= 2 {
				header.Format = parts[1]
			}
		case "element":
			if len(parts) >= 3 {
				count, err := strconv.Atoi(parts[2])
				if err != nil {
					return nil, 0, fmt.Errorf("invalid element count: %s", parts[2])
				}
				currentElement = parts[1]
				switch currentElement {
				case "vertex":
					header.VertexCount = count
				case "face":
					header.FaceCount = count
				}
			}
		case "property":
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, 0, err
			}
			if currentElement == "face" && prop.IsList {
				header.FaceProp = prop
				continue
			}
			if currentElement != "vertex" {
				continue
			}
			header.VertexProps = append(header.VertexProps, prop)
			idx := len(header.VertexProps) - 1
			switch prop.Name {
			case "x":
				header.PositionIndices[0] = idx
			case "y":
				header.PositionIndices[1] = idx
			case "z":
				header.PositionIndices[2] = idx
			case "nx":
				header.HasNormals = true
				header.NormalIndices[0] = idx
			case "ny":
				header.HasNormals = true
				header.NormalIndices[1] = idx
			case "nz":
				header.HasNormals = true
				header.NormalIndices[2] = idx
			case "u", "s", "texture_u":
				header.HasTexCoords = true
				header.TexCoordIndices[0] = idx
			case "v", "t", "texture_v":
				header.HasTexCoords = true
				header.TexCoordIndices[1] = idx
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("error reading header: %w", err)
	}
	if header.VertexCount == 0 {
		return nil, 0, fmt.Errorf("PLY file declares no vertices")
	}
	if header.FaceCount > 0 && !header.FaceProp.IsList {
		return nil, 0, fmt.Errorf("face element has no list property")
	}
	return header, bytesRead, nil
}

func parsePLYProperty(parts []string) (plyProperty, error) {
	if len(parts) < 2 {
		return plyProperty{}, fmt.Errorf("invalid property definition")
	}
	prop := plyProperty{}
	if parts[0] == "list" {
		if len(parts) < 4 {
			return plyProperty{}, fmt.Errorf("invalid list property definition")
		}
		prop.IsList = true
		prop.ListType = parts[1]
		prop.DataType = parts[2]
		prop.Name = parts[3]
	} else {
		prop.Type = parts[0]
		prop.Name = parts[1]
	}
	return prop, nil
}

// meshBuffers accumulates the per-vertex tensors while reading.
type meshBuffers struct {
	vertices []float32
	uvs      []float32
	normals  []float32
	indices  []int32
}

func (b *meshBuffers) toShape(header *plyHeader) *scene.Shape {
	n := header.VertexCount
	uvs, normals := tensor.Empty(), tensor.Empty()
	if header.HasTexCoords {
		uvs = tensor.FromSlice(b.uvs, n, 2)
	}
	if header.HasNormals {
		normals = tensor.FromSlice(b.normals, n, 3)
	}
	return scene.NewShape(tensor.FromSlice(b.vertices, n, 3), b.indices, uvs, normals, scene.NoID)
}

func newMeshBuffers(header *plyHeader) *meshBuffers {
	b := &meshBuffers{
		vertices: make([]float32, 0, header.VertexCount*3),
		indices:  make([]int32, 0, header.FaceCount*3),
	}
	if header.HasTexCoords {
		b.uvs = make([]float32, 0, header.VertexCount*2)
	}
	if header.HasNormals {
		b.normals = make([]float32, 0, header.VertexCount*3)
	}
	return b
}

// addVertex picks position/normal/uv values out of one vertex's property row.
func (b *meshBuffers) addVertex(header *plyHeader, values []float64) {
	for _, i := range header.PositionIndices {
		b.vertices = append(b.vertices, float32(values[i]))
	}
	if header.HasNormals {
		for _, i := range header.NormalIndices {
			b.normals = append(b.normals, float32(values[i]))
		}
	}
	if header.HasTexCoords {
		for _, i := range header.TexCoordIndices {
			b.uvs = append(b.uvs, float32(values[i]))
		}
	}
}

// addFace fan-triangulates a polygon's vertex indices.
func (b *meshBuffers) addFace(face []int32) error {
	if len(face) < 3 {
		return fmt.Errorf("face with %d vertices", len(face))
	}
	for i := 1; i+1 < len(face); i++ {
		b.indices = append(b.indices, face[0], face[i], face[i+1])
	}
	return nil
}

func readASCII(file *os.File, header *plyHeader) (*scene.Shape, error) {
	buffers := newMeshBuffers(header)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	values := make([]float64, len(header.VertexProps))
	for i := 0; i < header.VertexCount; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("unexpected end of file at vertex %d", i)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < len(header.VertexProps) {
			return nil, fmt.Errorf("vertex %d has %d values, want %d", i, len(fields), len(header.VertexProps))
		}
		for j := range header.VertexProps {
			v, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, fmt.Errorf("vertex %d property %d: %w", i, j, err)
			}
			values[j] = v
		}
		buffers.addVertex(header, values)
	}

	for i := 0; i < header.FaceCount; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("unexpected end of file at face %d", i)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			return nil, fmt.Errorf("face %d is empty", i)
		}
		count, err := strconv.Atoi(fields[0])
		if err != nil || len(fields) < count+1 {
			return nil, fmt.Errorf("face %d has a malformed index list", i)
		}
		face := make([]int32, count)
		for j := 0; j < count; j++ {
			idx, err := strconv.Atoi(fields[j+1])
			if err != nil {
				return nil, fmt.Errorf("face %d index %d: %w", i, j, err)
			}
			face[j] = int32(idx)
		}
		if err := buffers.addFace(face); err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
	}

	return buffers.toShape(header), nil
}

func readBinary(file *os.File, header *plyHeader, order binary.ByteOrder) (*scene.Shape, error) {
	buffers := newMeshBuffers(header)
	reader := bufio.NewReaderSize(file, 1024*1024)

	values := make([]float64, len(header.VertexProps))
	for i := 0; i < header.VertexCount; i++ {
		for j, prop := range header.VertexProps {
			v, err := readBinaryScalar(reader, prop.Type, order)
			if err != nil {
				return nil, fmt.Errorf("vertex %d property %s: %w", i, prop.Name, err)
			}
			values[j] = v
		}
		buffers.addVertex(header, values)
	}

	for i := 0; i < header.FaceCount; i++ {
		// Face elements are a single list property, count then indices,
		// read with the scalar types the header declared.
		count, err := readBinaryScalar(reader, header.FaceProp.ListType, order)
		if err != nil {
			return nil, fmt.Errorf("face %d count: %w", i, err)
		}
		if count < 0 || count > 255 {
			return nil, fmt.Errorf("face %d has an implausible vertex count %g", i, count)
		}
		face := make([]int32, int(count))
		for j := range face {
			idx, err := readBinaryScalar(reader, header.FaceProp.DataType, order)
			if err != nil {
				return nil, fmt.Errorf("face %d index %d: %w", i, j, err)
			}
			face[j] = int32(idx)
		}
		if err := buffers.addFace(face); err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
	}

	return buffers.toShape(header), nil
}

// readBinaryScalar reads one scalar of the given PLY type.
func readBinaryScalar(r io.Reader, plyType string, order binary.ByteOrder) (float64, error) {
	switch plyType {
	case "float", "float32":
		var v float32
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case "double", "float64":
		var v float64
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return v, nil
	case "char", "int8":
		var v int8
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case "uchar", "uint8":
		var v uint8
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case "short", "int16":
		var v int16
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case "ushort", "uint16":
		var v uint16
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case "int", "int32":
		var v int32
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	case "uint", "uint32":
		var v uint32
		if err := binary.Read(r, order, &v); err != nil {
			return 0, err
		}
		return float64(v), nil
	default:
		return 0, fmt.Errorf("unsupported PLY type %s", plyType)
	}
}
