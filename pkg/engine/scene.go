package engine

// The handle structs below mirror the engine's native scene representation:
// flat float buffers plus explicit sizes. The slices alias the caller's
// tensor storage; nothing is copied across the boundary. Buffers that may
// be absent are nil.

// Camera is the native camera record.
type Camera struct {
	Width    int
	Height   int
	Position []float32 // 3
	LookAt   []float32 // 3
	Up       []float32 // 3
	NDCToCam []float32 // 9, row-major
	CamToNDC []float32 // 9, row-major
	ClipNear float32
	Type     CameraCode
}

// Texture is the native texture record for any channel count.
// Levels == 0 means Data holds a single constant texel.
type Texture struct {
	Data     []float32
	Levels   int
	Height   int
	Width    int
	Channels int
	UVScale  []float32 // 2
}

// Shape is the native triangle-mesh record.
type Shape struct {
	Vertices     []float32 // NumVertices * 3
	Indices      []int32   // NumTriangles * 3
	UVs          []float32 // NumVertices * 2, nil if absent
	Normals      []float32 // NumVertices * 3, nil if absent
	NumVertices  int
	NumTriangles int
	MaterialID   int32
	LightID      int32 // -1 if the shape is not an emitter
}

// Material is the native material record.
type Material struct {
	DiffuseReflectance  Texture // 3 channels
	SpecularReflectance Texture // 3 channels
	Roughness           Texture // 1 channel
	TwoSided            bool
}

// AreaLight is the native area-light record.
type AreaLight struct {
	ShapeID   int32
	Intensity []float32 // 3
	TwoSided  bool
}

// EnvironmentMap is the native environment-map record.
type EnvironmentMap struct {
	Values      Texture   // 3 channels, mipmapped
	EnvToWorld  []float32 // 16, row-major
	WorldToEnv  []float32 // 16, row-major
	SampleCDFYs []float32 // height
	SampleCDFXs []float32 // height * width
	PDFNorm     float32
}

// Scene is the native scene handle passed to Render.
type Scene struct {
	Camera     Camera
	Shapes     []Shape
	Materials  []Material
	AreaLights []AreaLight
	EnvMap     *EnvironmentMap // nil if absent

	UsePrimaryEdgeSampling   bool
	UseSecondaryEdgeSampling bool
}
