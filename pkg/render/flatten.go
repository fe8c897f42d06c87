package render

import (
	"github.com/df07/go-adjoint-renderer/pkg/scene"
	"github.com/df07/go-adjoint-renderer/pkg/tensor"
)

// Flatten converts a scene plus render settings into the positional argument
// list consumed by Reconstruct. The field order is a fixed contract:
//
//	 1. shape count, material count, light count
//	 2. camera: position, look-at, up, ndc-to-cam, cam-to-ndc, clip-near,
//	    resolution, camera-type tag
//	 3. per shape: vertices, indices, uvs (or empty), normals (or empty),
//	    material id, light id
//	 4. per material: diffuse, diffuse uv-scale, specular, specular
//	    uv-scale, roughness, roughness uv-scale, two-sided
//	 5. per light: shape id, intensity, two-sided
//	 6. environment map: 7 fields, or 7 empty markers if absent
//	 7. sample count, max bounces, channel count, one tag per channel
//	 8. sampler tag, primary edge flag, secondary edge flag
//
// Absent optional data always occupies its slot as an empty marker; the list
// never shortens. As a side effect, each area light's owning shape record is
// annotated with the light's index before flattening (a shape is referenced
// by at most one light).
//
// Flatten itself raises no errors: malformed scenes (out-of-range indices,
// bad tensor shapes) are caught by Reconstruct, which fails fast.
func Flatten(sc *scene.Scene, set Settings) []Arg {
	for lightID, light := range sc.AreaLights {
		if light.ShapeID >= 0 && light.ShapeID < len(sc.Shapes) {
			sc.Shapes[light.ShapeID].LightID = lightID
		}
	}

	args := make([]Arg, 0, 18+6*len(sc.Shapes)+7*len(sc.Materials)+3*len(sc.AreaLights)+len(set.Channels))

	args = append(args,
		IntArg(len(sc.Shapes)),
		IntArg(len(sc.Materials)),
		IntArg(len(sc.AreaLights)),
	)

	cam := sc.Camera
	args = append(args,
		TensorArg(tensor.FromVec3(cam.Position)),
		TensorArg(tensor.FromVec3(cam.LookAt)),
		TensorArg(tensor.FromVec3(cam.Up)),
		TensorArg(tensor.FromMat3(cam.NDCToCam)),
		TensorArg(tensor.FromMat3(cam.CamToNDC)),
		FloatArg(cam.ClipNear),
		IntsArg([]int32{int32(cam.Resolution[0]), int32(cam.Resolution[1])}),
		TagArg(int32(cam.Type)),
	)

	for _, shape := range sc.Shapes {
		args = append(args, TensorArg(shape.Vertices), IntsArg(shape.Indices))
		args = append(args, maybeTensor(shape.UVs), maybeTensor(shape.Normals))
		args = append(args, IntArg(shape.MaterialID), IntArg(shape.LightID))
	}

	for _, mat := range sc.Materials {
		args = append(args,
			TensorArg(mat.DiffuseReflectance.Flatten()),
			TensorArg(tensor.FromVec2(mat.DiffuseReflectance.UVScale())),
			TensorArg(mat.SpecularReflectance.Flatten()),
			TensorArg(tensor.FromVec2(mat.SpecularReflectance.UVScale())),
			TensorArg(mat.Roughness.Flatten()),
			TensorArg(tensor.FromVec2(mat.Roughness.UVScale())),
			BoolArg(mat.TwoSided),
		)
	}

	for _, light := range sc.AreaLights {
		args = append(args,
			IntArg(light.ShapeID),
			TensorArg(tensor.FromVec3(light.Intensity)),
			BoolArg(light.TwoSided),
		)
	}

	if env := sc.EnvMap; env != nil {
		args = append(args,
			TensorArg(env.Values.Pyramid()),
			TensorArg(tensor.FromVec2(env.Values.UVScale())),
			TensorArg(tensor.FromMat4(env.EnvToWorld)),
			TensorArg(tensor.FromMat4(env.WorldToEnv)),
			TensorArg(env.SampleCDFYs),
			TensorArg(env.SampleCDFXs),
			FloatArg(env.PDFNorm),
		)
	} else {
		// The 7 slots are always present, all-or-nothing.
		for i := 0; i < envMapSlots; i++ {
			args = append(args, EmptyArg())
		}
	}

	if set.NumBackwardSamples > 0 && set.NumBackwardSamples != set.NumSamples {
		args = append(args, IntsArg([]int32{int32(set.NumSamples), int32(set.NumBackwardSamples)}))
	} else {
		args = append(args, IntArg(set.NumSamples))
	}
	args = append(args, IntArg(set.MaxBounces), IntArg(len(set.Channels)))
	for _, ch := range set.Channels {
		args = append(args, TagArg(int32(ch)))
	}

	args = append(args,
		TagArg(int32(set.Sampler)),
		BoolArg(set.UsePrimaryEdgeSampling),
		BoolArg(set.UseSecondaryEdgeSampling),
	)

	return args
}

// envMapSlots is the width of the environment-map block in the flattened
// list, present or not.
const envMapSlots = 7

// maybeTensor maps the empty tensor to the empty marker so absent optional
// buffers still occupy their slot.
func maybeTensor(t tensor.Tensor) Arg {
	if t.IsEmpty() {
		return EmptyArg()
	}
	return TensorArg(t)
}
