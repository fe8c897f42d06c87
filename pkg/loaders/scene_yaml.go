package loaders

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/df07/go-adjoint-renderer/pkg/render"
	"github.com/df07/go-adjoint-renderer/pkg/scene"
	"github.com/df07/go-adjoint-renderer/pkg/tensor"
)

// sceneFile is the YAML scene description schema. Asset paths are resolved
// relative to the scene file's directory.
type sceneFile struct {
	Camera    cameraDoc     `yaml:"camera"`
	Shapes    []shapeDoc    `yaml:"shapes"`
	Materials []materialDoc `yaml:"materials"`
	Lights    []lightDoc    `yaml:"lights"`
	Render    renderDoc     `yaml:"render"`
}

type cameraDoc struct {
	Position   [3]float32 `yaml:"position"`
	LookAt     [3]float32 `yaml:"look_at"`
	Up         [3]float32 `yaml:"up"`
	FOV        float32    `yaml:"fov"`        // vertical, degrees
	ClipNear   float32    `yaml:"clip_near"`  // defaults to 1e-2
	Resolution [2]int     `yaml:"resolution"` // height, width
}

type shapeDoc struct {
	PLY      string       `yaml:"ply"` // mesh file, or inline buffers below
	Vertices [][3]float32 `yaml:"vertices"`
	Indices  []int32      `yaml:"indices"`
	UVs      [][2]float32 `yaml:"uvs"`
	Normals  [][3]float32 `yaml:"normals"`
	Material int          `yaml:"material"`
}

type materialDoc struct {
	Diffuse   *[3]float32 `yaml:"diffuse"`
	Texture   string      `yaml:"texture"` // diffuse texture image, overrides diffuse
	Specular  *[3]float32 `yaml:"specular"`
	Roughness *float32    `yaml:"roughness"`
	TwoSided  bool        `yaml:"two_sided"`
}

type lightDoc struct {
	Shape     int        `yaml:"shape"`
	Intensity [3]float32 `yaml:"intensity"`
	TwoSided  bool       `yaml:"two_sided"`
}

type renderDoc struct {
	Samples         int      `yaml:"samples"`
	BackwardSamples int      `yaml:"backward_samples"`
	MaxBounces      int      `yaml:"max_bounces"`
	Channels        []string `yaml:"channels"`
	Sampler         string   `yaml:"sampler"`
}

// LoadScene reads a YAML scene description and returns the scene plus the
// render settings it declares. Fields left out of the render block keep
// their defaults.
func LoadScene(filename string) (*scene.Scene, render.Settings, error) {
	set := render.DefaultSettings()

	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, set, fmt.Errorf("failed to read scene file: %w", err)
	}
	var doc sceneFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, set, fmt.Errorf("failed to parse scene file: %w", err)
	}
	baseDir := filepath.Dir(filename)

	cam, err := buildCamera(doc.Camera)
	if err != nil {
		return nil, set, err
	}

	shapes := make([]*scene.Shape, 0, len(doc.Shapes))
	for i, sd := range doc.Shapes {
		shape, err := buildShape(sd, baseDir)
		if err != nil {
			return nil, set, fmt.Errorf("shape %d: %w", i, err)
		}
		shapes = append(shapes, shape)
	}

	materials := make([]*scene.Material, 0, len(doc.Materials))
	for i, md := range doc.Materials {
		mat, err := buildMaterial(md, baseDir)
		if err != nil {
			return nil, set, fmt.Errorf("material %d: %w", i, err)
		}
		materials = append(materials, mat)
	}

	lights := make([]*scene.AreaLight, 0, len(doc.Lights))
	for _, ld := range doc.Lights {
		intensity := mgl32.Vec3{ld.Intensity[0], ld.Intensity[1], ld.Intensity[2]}
		lights = append(lights, scene.NewAreaLight(ld.Shape, intensity, ld.TwoSided))
	}

	sc := scene.NewScene(cam, shapes, materials, lights, nil)
	if err := sc.Validate(); err != nil {
		return nil, set, fmt.Errorf("invalid scene: %w", err)
	}

	if err := applyRenderDoc(&set, doc.Render); err != nil {
		return nil, set, err
	}
	return sc, set, nil
}

func buildCamera(cd cameraDoc) (*scene.Camera, error) {
	if cd.Resolution[0] <= 0 || cd.Resolution[1] <= 0 {
		return nil, fmt.Errorf("camera resolution must be a positive (height, width) pair, got %v", cd.Resolution)
	}
	fov := cd.FOV
	if fov == 0 {
		fov = 45
	}
	clipNear := cd.ClipNear
	if clipNear == 0 {
		clipNear = 1e-2
	}
	up := mgl32.Vec3{cd.Up[0], cd.Up[1], cd.Up[2]}
	if up == (mgl32.Vec3{}) {
		up = mgl32.Vec3{0, 1, 0}
	}
	return scene.NewPerspectiveCamera(
		mgl32.Vec3{cd.Position[0], cd.Position[1], cd.Position[2]},
		mgl32.Vec3{cd.LookAt[0], cd.LookAt[1], cd.LookAt[2]},
		up, fov, clipNear, cd.Resolution[0], cd.Resolution[1],
	), nil
}

func buildShape(sd shapeDoc, baseDir string) (*scene.Shape, error) {
	var shape *scene.Shape
	switch {
	case sd.PLY != "":
		var err error
		shape, err = LoadPLY(resolvePath(baseDir, sd.PLY))
		if err != nil {
			return nil, err
		}
	case len(sd.Vertices) > 0:
		vertices := make([]float32, 0, len(sd.Vertices)*3)
		for _, v := range sd.Vertices {
			vertices = append(vertices, v[0], v[1], v[2])
		}
		uvs, normals := tensor.Empty(), tensor.Empty()
		if len(sd.UVs) > 0 {
			flat := make([]float32, 0, len(sd.UVs)*2)
			for _, v := range sd.UVs {
				flat = append(flat, v[0], v[1])
			}
			uvs = tensor.FromSlice(flat, len(sd.UVs), 2)
		}
		if len(sd.Normals) > 0 {
			flat := make([]float32, 0, len(sd.Normals)*3)
			for _, v := range sd.Normals {
				flat = append(flat, v[0], v[1], v[2])
			}
			normals = tensor.FromSlice(flat, len(sd.Normals), 3)
		}
		shape = scene.NewShape(tensor.FromSlice(vertices, len(sd.Vertices), 3), sd.Indices, uvs, normals, scene.NoID)
	default:
		return nil, fmt.Errorf("shape needs either a ply file or inline vertices")
	}
	shape.MaterialID = sd.Material
	return shape, nil
}

func buildMaterial(md materialDoc, baseDir string) (*scene.Material, error) {
	diffuse := scene.NewConstantTexture3(mgl32.Vec3{0.5, 0.5, 0.5})
	if md.Diffuse != nil {
		diffuse = scene.NewConstantTexture3(mgl32.Vec3{md.Diffuse[0], md.Diffuse[1], md.Diffuse[2]})
	}
	if md.Texture != "" {
		tex, err := LoadTexture(resolvePath(baseDir, md.Texture), mgl32.Vec2{1, 1})
		if err != nil {
			return nil, err
		}
		diffuse = tex
	}
	specular := scene.NewConstantTexture3(mgl32.Vec3{})
	if md.Specular != nil {
		specular = scene.NewConstantTexture3(mgl32.Vec3{md.Specular[0], md.Specular[1], md.Specular[2]})
	}
	roughness := scene.NewConstantTexture1(1.0)
	if md.Roughness != nil {
		roughness = scene.NewConstantTexture1(*md.Roughness)
	}
	return scene.NewMaterial(diffuse, specular, roughness, md.TwoSided), nil
}

func applyRenderDoc(set *render.Settings, rd renderDoc) error {
	if rd.Samples > 0 {
		set.NumSamples = rd.Samples
	}
	if rd.BackwardSamples > 0 {
		set.NumBackwardSamples = rd.BackwardSamples
	}
	if rd.MaxBounces > 0 {
		set.MaxBounces = rd.MaxBounces
	}
	if len(rd.Channels) > 0 {
		channels := make([]scene.Channel, 0, len(rd.Channels))
		for _, name := range rd.Channels {
			ch, err := scene.ParseChannel(name)
			if err != nil {
				return err
			}
			channels = append(channels, ch)
		}
		set.Channels = channels
	}
	if rd.Sampler != "" {
		sampler, err := scene.ParseSamplerType(rd.Sampler)
		if err != nil {
			return err
		}
		set.Sampler = sampler
	}
	return set.Validate()
}

func resolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
