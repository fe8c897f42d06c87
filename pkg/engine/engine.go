// Package engine defines the call contract with the physically-based
// rendering engine. The engine is an opaque collaborator: this package only
// fixes the handle structs it reads, the adjoint structs it writes, and the
// single Render entry point used for both the forward and the adjoint pass.
package engine

// Native tag codes. The scene package's enumerations are translated to these
// through explicit tables in the reconstructor; the two value spaces are kept
// separate on purpose so a change on either side breaks loudly.
type (
	CameraCode  int32
	SamplerCode int32
	ChannelCode int32
)

const (
	CameraCodePerspective CameraCode = iota
	CameraCodeOrthographic
	CameraCodeFisheye
)

const (
	SamplerCodeIndependent SamplerCode = iota
	SamplerCodeSobol
)

const (
	ChannelCodeRadiance ChannelCode = iota
	ChannelCodeAlpha
	ChannelCodeDepth
	ChannelCodePosition
	ChannelCodeGeometryNormal
	ChannelCodeShadingNormal
	ChannelCodeUV
	ChannelCodeDiffuseReflectance
	ChannelCodeSpecularReflectance
	ChannelCodeRoughness
	ChannelCodeShapeID
	ChannelCodeMaterialID
)

// RenderOptions carries the per-invocation parameters of a render call.
type RenderOptions struct {
	Seed       uint64
	NumSamples int
	MaxBounces int
	Channels   []ChannelCode
	Sampler    SamplerCode
}

// Engine is the rendering engine ABI. Exactly one of the two modes is used
// per call:
//
//   - Forward: image is the output buffer (height*width*channels floats),
//     dImage and dScene are nil.
//   - Adjoint: image is nil, dImage holds the incoming image-space gradient,
//     and the engine accumulates parameter gradients into dScene's buffers.
//
// debug optionally receives a diagnostic image in either mode; pass nil to
// skip it. Calls are synchronous and the engine owns any internal
// parallelism. A failed call leaves the buffers unspecified.
type Engine interface {
	Render(scene *Scene, opts *RenderOptions, image []float32, dImage []float32, dScene *DScene, debug []float32) error
}
