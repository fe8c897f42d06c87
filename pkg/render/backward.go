package render

import (
	"fmt"
	"time"

	"github.com/df07/go-adjoint-renderer/pkg/engine"
	"github.com/df07/go-adjoint-renderer/pkg/tensor"
)

// SeedDecorrelationOffset is added to the forward seed before the adjoint
// pass so the two passes draw independent random numbers. Reusing the
// forward stream makes the rendered image and its derivative statistically
// dependent, which biases gradients of L2-style losses; the offset (a large
// prime) breaks that dependence at the cost of some variance.
const SeedDecorrelationOffset = 1000003

// Backward runs the adjoint rendering pass for the invocation that produced
// ctx. It allocates a zero-initialized gradient buffer for every
// differentiable forward quantity (shape-matched to its forward
// counterpart), invokes the engine in adjoint mode with gradImage as the
// incoming image-space gradient, and assembles the positional gradient list.
//
// The returned list has one slot per op input: a leading slot for the seed,
// then one mirror per forward argument in flattening order. Slots flattened
// from counts, indices, flags, tags, or absent optional buffers hold the
// NoGradient marker; every other slot holds the populated adjoint tensor.
func Backward(eng engine.Engine, ctx *Context, gradImage tensor.Tensor) ([]Arg, error) {
	if ctx == nil || ctx.Scene == nil {
		return nil, fmt.Errorf("backward render: nil context")
	}
	want := []int{ctx.Resolution[0], ctx.Resolution[1], ctx.NumChannels}
	if err := checkShape(gradImage, want); err != nil {
		return nil, fmt.Errorf("backward render: incoming gradient: %w", err)
	}

	adj := allocateAdjoints(ctx.Scene)

	opts := *ctx.Options
	opts.NumSamples = ctx.backwardSamples
	if !ctx.UseCorrelatedSampling {
		opts.Seed += SeedDecorrelationOffset
	}

	start := time.Now()
	if err := eng.Render(ctx.Scene, &opts, nil, gradImage.Data(), adj.dScene, nil); err != nil {
		return nil, fmt.Errorf("backward render: %w", err)
	}
	logger().Info("backward pass complete",
		"render", ctx.ID,
		"samples", opts.NumSamples,
		"elapsed", time.Since(start),
	)

	grads := assembleGradients(ctx, adj)
	if len(grads) != ctx.numArgs+1 {
		return nil, fmt.Errorf("backward render: assembled %d gradient slots for %d forward slots (+seed); positional packing bug", len(grads), ctx.numArgs)
	}
	return grads, nil
}

// adjoints bundles the gradient tensors with the native adjoint handle that
// aliases them. The tensors are what the caller gets back; the handle is
// what the engine writes through.
type adjoints struct {
	dScene *engine.DScene

	dPosition tensor.Tensor
	dLookAt   tensor.Tensor
	dUp       tensor.Tensor
	dNDCToCam tensor.Tensor
	dCamToNDC tensor.Tensor

	dVertices []tensor.Tensor
	dUVs      []tensor.Tensor // empty marker where the forward shape had none
	dNormals  []tensor.Tensor

	dDiffuse   []tensor.Tensor
	dSpecular  []tensor.Tensor
	dRoughness []tensor.Tensor

	dIntensity []tensor.Tensor

	dEnvValues     tensor.Tensor
	dEnvWorldToEnv tensor.Tensor
}

// allocateAdjoints creates one zero-initialized buffer per differentiable
// forward quantity, shape-matched field for field, and wraps them in the
// native adjoint scene handle. Topology, indices, uv-scales, and tags are
// never differentiated and get no buffer.
func allocateAdjoints(scn *engine.Scene) *adjoints {
	adj := &adjoints{
		dPosition: tensor.Zeros(3),
		dLookAt:   tensor.Zeros(3),
		dUp:       tensor.Zeros(3),
		dNDCToCam: tensor.Zeros(3, 3),
		dCamToNDC: tensor.Zeros(3, 3),
	}
	dScene := &engine.DScene{
		Camera: engine.DCamera{
			Position: adj.dPosition.Data(),
			LookAt:   adj.dLookAt.Data(),
			Up:       adj.dUp.Data(),
			NDCToCam: adj.dNDCToCam.Data(),
			CamToNDC: adj.dCamToNDC.Data(),
		},
	}

	for _, shape := range scn.Shapes {
		dVertices := tensor.Zeros(shape.NumVertices, 3)
		dShape := engine.DShape{Vertices: dVertices.Data()}
		dUVs, dNormals := tensor.Empty(), tensor.Empty()
		if shape.UVs != nil {
			dUVs = tensor.Zeros(shape.NumVertices, 2)
			dShape.UVs = dUVs.Data()
		}
		if shape.Normals != nil {
			dNormals = tensor.Zeros(shape.NumVertices, 3)
			dShape.Normals = dNormals.Data()
		}
		adj.dVertices = append(adj.dVertices, dVertices)
		adj.dUVs = append(adj.dUVs, dUVs)
		adj.dNormals = append(adj.dNormals, dNormals)
		dScene.Shapes = append(dScene.Shapes, dShape)
	}

	for _, mat := range scn.Materials {
		dDiffuse := adjointTexture(mat.DiffuseReflectance)
		dSpecular := adjointTexture(mat.SpecularReflectance)
		dRoughness := adjointTexture(mat.Roughness)
		adj.dDiffuse = append(adj.dDiffuse, dDiffuse)
		adj.dSpecular = append(adj.dSpecular, dSpecular)
		adj.dRoughness = append(adj.dRoughness, dRoughness)
		dScene.Materials = append(dScene.Materials, engine.DMaterial{
			DiffuseReflectance:  engine.DTexture{Data: dDiffuse.Data(), UVScale: make([]float32, 2)},
			SpecularReflectance: engine.DTexture{Data: dSpecular.Data(), UVScale: make([]float32, 2)},
			Roughness:           engine.DTexture{Data: dRoughness.Data(), UVScale: make([]float32, 2)},
		})
	}

	for range scn.AreaLights {
		dIntensity := tensor.Zeros(3)
		adj.dIntensity = append(adj.dIntensity, dIntensity)
		dScene.AreaLights = append(dScene.AreaLights, engine.DAreaLight{Intensity: dIntensity.Data()})
	}

	if env := scn.EnvMap; env != nil {
		adj.dEnvValues = tensor.Zeros(env.Values.Levels, env.Values.Height, env.Values.Width, 3)
		adj.dEnvWorldToEnv = tensor.Zeros(4, 4)
		dScene.EnvMap = &engine.DEnvironmentMap{
			Values:     engine.DTexture{Data: adj.dEnvValues.Data(), UVScale: make([]float32, 2)},
			WorldToEnv: adj.dEnvWorldToEnv.Data(),
		}
	}

	adj.dScene = dScene
	return adj
}

// adjointTexture allocates a gradient buffer shaped like the forward
// texture: (channels,) for a constant, the full pyramid for a mipmap.
func adjointTexture(tex engine.Texture) tensor.Tensor {
	if tex.Levels == 0 {
		return tensor.Zeros(tex.Channels)
	}
	return tensor.Zeros(tex.Levels, tex.Height, tex.Width, tex.Channels)
}

// assembleGradients mirrors the flattening order exactly: every slot that
// was a count, index, flag, tag, uv-scale, or absent buffer becomes the
// NoGradient marker; every differentiable slot becomes its adjoint tensor.
func assembleGradients(ctx *Context, adj *adjoints) []Arg {
	scn := ctx.Scene
	grads := make([]Arg, 0, ctx.numArgs+1)

	grads = append(grads, NoGradient) // seed
	grads = append(grads, NoGradient, NoGradient, NoGradient)

	grads = append(grads,
		TensorArg(adj.dPosition),
		TensorArg(adj.dLookAt),
		TensorArg(adj.dUp),
		TensorArg(adj.dNDCToCam),
		TensorArg(adj.dCamToNDC),
		NoGradient, // clip near
		NoGradient, // resolution
		NoGradient, // camera type
	)

	for i := range scn.Shapes {
		grads = append(grads,
			TensorArg(adj.dVertices[i]),
			NoGradient, // indices
			maybeTensor(adj.dUVs[i]),
			maybeTensor(adj.dNormals[i]),
			NoGradient, // material id
			NoGradient, // light id
		)
	}

	for i := range scn.Materials {
		grads = append(grads,
			TensorArg(adj.dDiffuse[i]),
			NoGradient, // diffuse uv-scale
			TensorArg(adj.dSpecular[i]),
			NoGradient, // specular uv-scale
			TensorArg(adj.dRoughness[i]),
			NoGradient, // roughness uv-scale
			NoGradient, // two-sided
		)
	}

	for i := range scn.AreaLights {
		grads = append(grads,
			NoGradient, // shape id
			TensorArg(adj.dIntensity[i]),
			NoGradient, // two-sided
		)
	}

	if scn.EnvMap != nil {
		grads = append(grads,
			TensorArg(adj.dEnvValues),
			NoGradient, // uv-scale
			NoGradient, // env-to-world (only world-to-env is differentiated)
			TensorArg(adj.dEnvWorldToEnv),
			NoGradient, // row cdf
			NoGradient, // conditional cdf
			NoGradient, // pdf normalization
		)
	} else {
		for i := 0; i < envMapSlots; i++ {
			grads = append(grads, NoGradient)
		}
	}

	grads = append(grads, NoGradient, NoGradient, NoGradient) // samples, bounces, channel count
	for i := 0; i < ctx.numChannelTags; i++ {
		grads = append(grads, NoGradient)
	}
	grads = append(grads, NoGradient, NoGradient, NoGradient) // sampler, edge flags

	return grads
}
