package engine

// Adjoint mirrors of the scene handles. Each buffer is allocated
// zero-initialized by the caller with exactly the shape of its forward
// counterpart; the engine accumulates gradients into them during the adjoint
// pass. Buffers for absent forward data are nil and never written.

// DCamera receives camera gradients.
type DCamera struct {
	Position []float32 // 3
	LookAt   []float32 // 3
	Up       []float32 // 3
	NDCToCam []float32 // 9
	CamToNDC []float32 // 9
}

// DTexture receives texture gradients. Data matches the forward texture's
// layout: one texel for a constant, the full pyramid for a mipmap.
type DTexture struct {
	Data    []float32
	UVScale []float32 // 2
}

// DShape receives mesh gradients. Topology is never differentiated, so
// there is no adjoint index buffer.
type DShape struct {
	Vertices []float32 // NumVertices * 3
	UVs      []float32 // NumVertices * 2, nil if the forward shape had none
	Normals  []float32 // NumVertices * 3, nil if the forward shape had none
}

// DMaterial receives material gradients.
type DMaterial struct {
	DiffuseReflectance  DTexture
	SpecularReflectance DTexture
	Roughness           DTexture
}

// DAreaLight receives light gradients.
type DAreaLight struct {
	Intensity []float32 // 3
}

// DEnvironmentMap receives environment-map gradients.
type DEnvironmentMap struct {
	Values     DTexture
	WorldToEnv []float32 // 16
}

// DScene is the adjoint scene handle passed to Render in adjoint mode.
type DScene struct {
	Camera     DCamera
	Shapes     []DShape
	Materials  []DMaterial
	AreaLights []DAreaLight
	EnvMap     *DEnvironmentMap // nil if the forward scene had none
}
