package render

import (
	"fmt"

	"github.com/df07/go-adjoint-renderer/pkg/engine"
	"github.com/df07/go-adjoint-renderer/pkg/scene"
	"github.com/df07/go-adjoint-renderer/pkg/tensor"
)

// Translation tables between the flattened scalar tags and the engine's
// native identifiers. Kept explicit so a divergence between the two closed
// enumerations fails here instead of silently misrendering.
var cameraTypeCodes = map[scene.CameraType]engine.CameraCode{
	scene.CameraPerspective:  engine.CameraCodePerspective,
	scene.CameraOrthographic: engine.CameraCodeOrthographic,
	scene.CameraFisheye:      engine.CameraCodeFisheye,
}

var samplerTypeCodes = map[scene.SamplerType]engine.SamplerCode{
	scene.SamplerIndependent: engine.SamplerCodeIndependent,
	scene.SamplerSobol:       engine.SamplerCodeSobol,
}

var channelCodes = map[scene.Channel]engine.ChannelCode{
	scene.ChannelRadiance:            engine.ChannelCodeRadiance,
	scene.ChannelAlpha:               engine.ChannelCodeAlpha,
	scene.ChannelDepth:               engine.ChannelCodeDepth,
	scene.ChannelPosition:            engine.ChannelCodePosition,
	scene.ChannelGeometryNormal:      engine.ChannelCodeGeometryNormal,
	scene.ChannelShadingNormal:       engine.ChannelCodeShadingNormal,
	scene.ChannelUV:                  engine.ChannelCodeUV,
	scene.ChannelDiffuseReflectance:  engine.ChannelCodeDiffuseReflectance,
	scene.ChannelSpecularReflectance: engine.ChannelCodeSpecularReflectance,
	scene.ChannelRoughness:           engine.ChannelCodeRoughness,
	scene.ChannelShapeID:             engine.ChannelCodeShapeID,
	scene.ChannelMaterialID:          engine.ChannelCodeMaterialID,
}

// walker is a cursor over a flattened argument list with typed, fail-fast
// accessors. Every read names the field it expects so a positional slip
// produces a usable error instead of a corrupted scene.
type walker struct {
	args []Arg
	pos  int
}

func (w *walker) next(what string) (Arg, error) {
	if w.pos >= len(w.args) {
		return Arg{}, fmt.Errorf("argument list exhausted at slot %d, expected %s", w.pos, what)
	}
	a := w.args[w.pos]
	w.pos++
	return a, nil
}

func (w *walker) intVal(what string) (int, error) {
	a, err := w.next(what)
	if err != nil {
		return 0, err
	}
	if a.Kind != KindInt {
		return 0, fmt.Errorf("slot %d (%s): expected int, got %s", w.pos-1, what, a.Kind)
	}
	return a.Int, nil
}

func (w *walker) floatVal(what string) (float32, error) {
	a, err := w.next(what)
	if err != nil {
		return 0, err
	}
	if a.Kind != KindFloat {
		return 0, fmt.Errorf("slot %d (%s): expected float, got %s", w.pos-1, what, a.Kind)
	}
	return a.Float, nil
}

func (w *walker) boolVal(what string) (bool, error) {
	a, err := w.next(what)
	if err != nil {
		return false, err
	}
	if a.Kind != KindBool {
		return false, fmt.Errorf("slot %d (%s): expected bool, got %s", w.pos-1, what, a.Kind)
	}
	return a.Bool, nil
}

func (w *walker) intsVal(what string) ([]int32, error) {
	a, err := w.next(what)
	if err != nil {
		return nil, err
	}
	if a.Kind != KindInts {
		return nil, fmt.Errorf("slot %d (%s): expected ints, got %s", w.pos-1, what, a.Kind)
	}
	return a.Ints, nil
}

func (w *walker) tagVal(what string) (int32, error) {
	a, err := w.next(what)
	if err != nil {
		return 0, err
	}
	if a.Kind != KindTag {
		return 0, fmt.Errorf("slot %d (%s): expected tag, got %s", w.pos-1, what, a.Kind)
	}
	return a.Tag, nil
}

// tensorVal reads a required tensor and checks its shape. A dimension of -1
// in want matches any size.
func (w *walker) tensorVal(what string, want ...int) (tensor.Tensor, error) {
	a, err := w.next(what)
	if err != nil {
		return tensor.Empty(), err
	}
	if a.Kind != KindTensor {
		return tensor.Empty(), fmt.Errorf("slot %d (%s): expected tensor, got %s", w.pos-1, what, a.Kind)
	}
	if len(want) > 0 {
		if err := checkShape(a.Tensor, want); err != nil {
			return tensor.Empty(), fmt.Errorf("slot %d (%s): %w", w.pos-1, what, err)
		}
	}
	return a.Tensor, nil
}

// optTensorVal reads a tensor slot that may hold the empty marker.
func (w *walker) optTensorVal(what string, want ...int) (tensor.Tensor, error) {
	if w.pos < len(w.args) && w.args[w.pos].IsEmpty() {
		w.pos++
		return tensor.Empty(), nil
	}
	return w.tensorVal(what, want...)
}

func checkShape(t tensor.Tensor, want []int) error {
	if t.Rank() != len(want) {
		return fmt.Errorf("expected rank %d, got shape %v", len(want), t.Shape())
	}
	for i, d := range want {
		if d >= 0 && t.Dim(i) != d {
			return fmt.Errorf("expected shape %v, got %v", want, t.Shape())
		}
	}
	return nil
}

// Reconstruct rebuilds the engine's native scene handle from a flattened
// argument list. It returns the handle, the per-invocation render options
// seeded with seed, and the two side-channel values the caller needs that
// the handle does not carry: the image resolution (height, width) and the
// number of floats per pixel.
//
// Reconstruction is all-or-nothing: any malformed slot, count mismatch,
// out-of-range index, or texture-rank violation is a fatal error. There is
// no partially-built scene.
func Reconstruct(args []Arg, seed uint64) (*engine.Scene, *engine.RenderOptions, [2]int, int, error) {
	scn, opts, res, numChannels, _, err := reconstruct(args, seed)
	return scn, opts, res, numChannels, err
}

// reconstruct is Reconstruct plus the adjoint-pass sample count, which the
// backward pass needs but the public contract does not expose.
func reconstruct(args []Arg, seed uint64) (*engine.Scene, *engine.RenderOptions, [2]int, int, int, error) {
	fail := func(err error) (*engine.Scene, *engine.RenderOptions, [2]int, int, int, error) {
		return nil, nil, [2]int{}, 0, 0, fmt.Errorf("reconstruct scene: %w", err)
	}
	w := &walker{args: args}

	numShapes, err := w.intVal("shape count")
	if err != nil {
		return fail(err)
	}
	numMaterials, err := w.intVal("material count")
	if err != nil {
		return fail(err)
	}
	numLights, err := w.intVal("light count")
	if err != nil {
		return fail(err)
	}
	if numShapes < 0 || numMaterials < 0 || numLights < 0 {
		return fail(fmt.Errorf("negative record count (%d shapes, %d materials, %d lights)", numShapes, numMaterials, numLights))
	}

	cam, res, err := reconstructCamera(w)
	if err != nil {
		return fail(err)
	}

	shapes := make([]engine.Shape, 0, numShapes)
	for i := 0; i < numShapes; i++ {
		shape, err := reconstructShape(w, i, numMaterials, numLights)
		if err != nil {
			return fail(err)
		}
		shapes = append(shapes, shape)
	}

	materials := make([]engine.Material, 0, numMaterials)
	for i := 0; i < numMaterials; i++ {
		mat, err := reconstructMaterial(w, i)
		if err != nil {
			return fail(err)
		}
		materials = append(materials, mat)
	}

	lights := make([]engine.AreaLight, 0, numLights)
	for i := 0; i < numLights; i++ {
		light, err := reconstructAreaLight(w, i, numShapes)
		if err != nil {
			return fail(err)
		}
		lights = append(lights, light)
	}

	envMap, err := reconstructEnvMap(w)
	if err != nil {
		return fail(err)
	}

	forwardSamples, backwardSamples, err := reconstructSampleCounts(w)
	if err != nil {
		return fail(err)
	}
	maxBounces, err := w.intVal("max bounces")
	if err != nil {
		return fail(err)
	}
	numChannelTags, err := w.intVal("channel count")
	if err != nil {
		return fail(err)
	}
	if numChannelTags <= 0 {
		return fail(fmt.Errorf("channel count must be positive, got %d", numChannelTags))
	}

	channels := make([]engine.ChannelCode, 0, numChannelTags)
	numChannels := 0
	for i := 0; i < numChannelTags; i++ {
		tag, err := w.tagVal(fmt.Sprintf("channel %d", i))
		if err != nil {
			return fail(err)
		}
		ch := scene.Channel(tag)
		code, ok := channelCodes[ch]
		if !ok {
			return fail(fmt.Errorf("channel %d: unknown tag %d", i, tag))
		}
		channels = append(channels, code)
		numChannels += ch.NumFloats()
	}

	samplerTag, err := w.tagVal("sampler type")
	if err != nil {
		return fail(err)
	}
	sampler, ok := samplerTypeCodes[scene.SamplerType(samplerTag)]
	if !ok {
		return fail(fmt.Errorf("unknown sampler tag %d", samplerTag))
	}
	primaryEdges, err := w.boolVal("primary edge sampling")
	if err != nil {
		return fail(err)
	}
	secondaryEdges, err := w.boolVal("secondary edge sampling")
	if err != nil {
		return fail(err)
	}

	if w.pos != len(args) {
		return fail(fmt.Errorf("%d trailing slots after a complete scene", len(args)-w.pos))
	}

	scn := &engine.Scene{
		Camera:                   cam,
		Shapes:                   shapes,
		Materials:                materials,
		AreaLights:               lights,
		EnvMap:                   envMap,
		UsePrimaryEdgeSampling:   primaryEdges,
		UseSecondaryEdgeSampling: secondaryEdges,
	}
	opts := &engine.RenderOptions{
		Seed:       seed,
		NumSamples: forwardSamples,
		MaxBounces: maxBounces,
		Channels:   channels,
		Sampler:    sampler,
	}
	return scn, opts, res, numChannels, backwardSamples, nil
}

func reconstructCamera(w *walker) (engine.Camera, [2]int, error) {
	var cam engine.Camera

	position, err := w.tensorVal("camera position", 3)
	if err != nil {
		return cam, [2]int{}, err
	}
	lookAt, err := w.tensorVal("camera look-at", 3)
	if err != nil {
		return cam, [2]int{}, err
	}
	up, err := w.tensorVal("camera up", 3)
	if err != nil {
		return cam, [2]int{}, err
	}
	ndcToCam, err := w.tensorVal("ndc-to-camera transform", 3, 3)
	if err != nil {
		return cam, [2]int{}, err
	}
	camToNDC, err := w.tensorVal("camera-to-ndc transform", 3, 3)
	if err != nil {
		return cam, [2]int{}, err
	}
	clipNear, err := w.floatVal("clip near")
	if err != nil {
		return cam, [2]int{}, err
	}
	resolution, err := w.intsVal("resolution")
	if err != nil {
		return cam, [2]int{}, err
	}
	if len(resolution) != 2 || resolution[0] <= 0 || resolution[1] <= 0 {
		return cam, [2]int{}, fmt.Errorf("resolution must be a positive (height, width) pair, got %v", resolution)
	}
	camTag, err := w.tagVal("camera type")
	if err != nil {
		return cam, [2]int{}, err
	}
	camType, ok := cameraTypeCodes[scene.CameraType(camTag)]
	if !ok {
		return cam, [2]int{}, fmt.Errorf("unknown camera type tag %d", camTag)
	}

	res := [2]int{int(resolution[0]), int(resolution[1])}
	cam = engine.Camera{
		Width:    res[1],
		Height:   res[0],
		Position: position.Data(),
		LookAt:   lookAt.Data(),
		Up:       up.Data(),
		NDCToCam: ndcToCam.Data(),
		CamToNDC: camToNDC.Data(),
		ClipNear: clipNear,
		Type:     camType,
	}
	return cam, res, nil
}

func reconstructShape(w *walker, i, numMaterials, numLights int) (engine.Shape, error) {
	var shape engine.Shape

	vertices, err := w.tensorVal(fmt.Sprintf("shape %d vertices", i), -1, 3)
	if err != nil {
		return shape, err
	}
	numVertices := vertices.Dim(0)
	indices, err := w.intsVal(fmt.Sprintf("shape %d indices", i))
	if err != nil {
		return shape, err
	}
	if len(indices)%3 != 0 {
		return shape, fmt.Errorf("shape %d: index count %d is not a multiple of 3", i, len(indices))
	}
	for _, idx := range indices {
		if idx < 0 || int(idx) >= numVertices {
			return shape, fmt.Errorf("shape %d: vertex index %d out of range [0, %d)", i, idx, numVertices)
		}
	}
	uvs, err := w.optTensorVal(fmt.Sprintf("shape %d uvs", i), numVertices, 2)
	if err != nil {
		return shape, err
	}
	normals, err := w.optTensorVal(fmt.Sprintf("shape %d normals", i), numVertices, 3)
	if err != nil {
		return shape, err
	}
	materialID, err := w.intVal(fmt.Sprintf("shape %d material id", i))
	if err != nil {
		return shape, err
	}
	if materialID != scene.NoID && (materialID < 0 || materialID >= numMaterials) {
		return shape, fmt.Errorf("shape %d: material id %d out of range [0, %d)", i, materialID, numMaterials)
	}
	lightID, err := w.intVal(fmt.Sprintf("shape %d light id", i))
	if err != nil {
		return shape, err
	}
	if lightID != scene.NoID && (lightID < 0 || lightID >= numLights) {
		return shape, fmt.Errorf("shape %d: light id %d out of range [0, %d)", i, lightID, numLights)
	}

	shape = engine.Shape{
		Vertices:     vertices.Data(),
		Indices:      indices,
		NumVertices:  numVertices,
		NumTriangles: len(indices) / 3,
		MaterialID:   int32(materialID),
		LightID:      int32(lightID),
	}
	if !uvs.IsEmpty() {
		shape.UVs = uvs.Data()
	}
	if !normals.IsEmpty() {
		shape.Normals = normals.Data()
	}
	return shape, nil
}

func reconstructMaterial(w *walker, i int) (engine.Material, error) {
	var mat engine.Material

	diffuse, err := reconstructTexture(w, fmt.Sprintf("material %d diffuse", i), 3)
	if err != nil {
		return mat, err
	}
	specular, err := reconstructTexture(w, fmt.Sprintf("material %d specular", i), 3)
	if err != nil {
		return mat, err
	}
	roughness, err := reconstructTexture(w, fmt.Sprintf("material %d roughness", i), 1)
	if err != nil {
		return mat, err
	}
	twoSided, err := w.boolVal(fmt.Sprintf("material %d two-sided", i))
	if err != nil {
		return mat, err
	}

	return engine.Material{
		DiffuseReflectance:  diffuse,
		SpecularReflectance: specular,
		Roughness:           roughness,
		TwoSided:            twoSided,
	}, nil
}

// reconstructTexture reads a texture tensor plus its uv-scale and applies
// the rank dispatch of the wire format: rank 1 is a constant texel, rank 4
// is a (levels, height, width, channels) mipmap pyramid. Anything else is a
// fatal rank mismatch.
func reconstructTexture(w *walker, what string, channels int) (engine.Texture, error) {
	data, err := w.tensorVal(what)
	if err != nil {
		return engine.Texture{}, err
	}
	uvScale, err := w.tensorVal(what+" uv-scale", 2)
	if err != nil {
		return engine.Texture{}, err
	}

	tex := engine.Texture{Data: data.Data(), Channels: channels, UVScale: uvScale.Data()}
	switch data.Rank() {
	case 1:
		if data.Dim(0) != channels {
			return engine.Texture{}, fmt.Errorf("%s: constant texel must have %d channels, got shape %v", what, channels, data.Shape())
		}
	case 4:
		if data.Dim(3) != channels {
			return engine.Texture{}, fmt.Errorf("%s: pyramid must have %d channels, got shape %v", what, channels, data.Shape())
		}
		tex.Levels = data.Dim(0)
		tex.Height = data.Dim(1)
		tex.Width = data.Dim(2)
	default:
		return engine.Texture{}, fmt.Errorf("%s: texture must have rank 1 (constant) or rank 4 (mipmap pyramid), got shape %v", what, data.Shape())
	}
	return tex, nil
}

func reconstructAreaLight(w *walker, i, numShapes int) (engine.AreaLight, error) {
	var light engine.AreaLight

	shapeID, err := w.intVal(fmt.Sprintf("light %d shape id", i))
	if err != nil {
		return light, err
	}
	if shapeID < 0 || shapeID >= numShapes {
		return light, fmt.Errorf("light %d: shape id %d out of range [0, %d)", i, shapeID, numShapes)
	}
	intensity, err := w.tensorVal(fmt.Sprintf("light %d intensity", i), 3)
	if err != nil {
		return light, err
	}
	twoSided, err := w.boolVal(fmt.Sprintf("light %d two-sided", i))
	if err != nil {
		return light, err
	}

	return engine.AreaLight{
		ShapeID:   int32(shapeID),
		Intensity: intensity.Data(),
		TwoSided:  twoSided,
	}, nil
}

// reconstructEnvMap reads the 7-slot environment-map block. The first slot
// decides: an empty marker means the whole block is markers and is skipped
// as a unit, anything else means all 7 fields are present.
func reconstructEnvMap(w *walker) (*engine.EnvironmentMap, error) {
	if w.pos < len(w.args) && w.args[w.pos].IsEmpty() {
		for i := 0; i < envMapSlots; i++ {
			a, err := w.next(fmt.Sprintf("environment map slot %d", i))
			if err != nil {
				return nil, err
			}
			if !a.IsEmpty() {
				return nil, fmt.Errorf("environment map block is mixed: slot %d is %s but the block started with an empty marker", i, a.Kind)
			}
		}
		return nil, nil
	}

	values, err := w.tensorVal("environment map radiance", -1, -1, -1, 3)
	if err != nil {
		return nil, err
	}
	uvScale, err := w.tensorVal("environment map uv-scale", 2)
	if err != nil {
		return nil, err
	}
	envToWorld, err := w.tensorVal("env-to-world transform", 4, 4)
	if err != nil {
		return nil, err
	}
	worldToEnv, err := w.tensorVal("world-to-env transform", 4, 4)
	if err != nil {
		return nil, err
	}
	height, width := values.Dim(1), values.Dim(2)
	cdfYs, err := w.tensorVal("environment map row cdf", height)
	if err != nil {
		return nil, err
	}
	cdfXs, err := w.tensorVal("environment map conditional cdf", height, width)
	if err != nil {
		return nil, err
	}
	pdfNorm, err := w.floatVal("environment map pdf normalization")
	if err != nil {
		return nil, err
	}

	return &engine.EnvironmentMap{
		Values: engine.Texture{
			Data:     values.Data(),
			Levels:   values.Dim(0),
			Height:   height,
			Width:    width,
			Channels: 3,
			UVScale:  uvScale.Data(),
		},
		EnvToWorld:  envToWorld.Data(),
		WorldToEnv:  worldToEnv.Data(),
		SampleCDFYs: cdfYs.Data(),
		SampleCDFXs: cdfXs.Data(),
		PDFNorm:     pdfNorm,
	}, nil
}

// reconstructSampleCounts reads the sample-count slot, which is either a
// single shared count or a (forward, backward) pair.
func reconstructSampleCounts(w *walker) (int, int, error) {
	a, err := w.next("sample count")
	if err != nil {
		return 0, 0, err
	}
	switch a.Kind {
	case KindInt:
		if a.Int <= 0 {
			return 0, 0, fmt.Errorf("sample count must be positive, got %d", a.Int)
		}
		return a.Int, a.Int, nil
	case KindInts:
		if len(a.Ints) != 2 || a.Ints[0] <= 0 || a.Ints[1] <= 0 {
			return 0, 0, fmt.Errorf("sample count pair must be two positive counts, got %v", a.Ints)
		}
		return int(a.Ints[0]), int(a.Ints[1]), nil
	}
	return 0, 0, fmt.Errorf("slot %d (sample count): expected int or ints, got %s", w.pos-1, a.Kind)
}
