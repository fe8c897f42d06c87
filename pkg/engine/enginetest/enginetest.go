// Package enginetest provides a deterministic fake rendering engine for
// exercising the marshaling layer. It fills every buffer it is handed with
// seeded pseudo-random values and records each invocation, so tests can
// assert both "the right buffers were populated" and "the right options
// were passed" without a native engine.
package enginetest

import (
	"math/rand"

	"github.com/df07/go-adjoint-renderer/pkg/engine"
)

// Call records one Render invocation.
type Call struct {
	Options engine.RenderOptions
	Adjoint bool // true when the call was an adjoint pass
}

// Fake implements engine.Engine deterministically.
type Fake struct {
	Calls []Call
	// Err, when set, is returned from every Render call.
	Err error
}

// Render fills the output image (forward mode) or every adjoint buffer
// (adjoint mode) with values drawn from a generator seeded by the options
// seed. Identical seeds produce identical fills.
func (f *Fake) Render(scn *engine.Scene, opts *engine.RenderOptions, image []float32, dImage []float32, dScene *engine.DScene, debug []float32) error {
	recorded := *opts
	recorded.Channels = append([]engine.ChannelCode{}, opts.Channels...)
	f.Calls = append(f.Calls, Call{Options: recorded, Adjoint: dScene != nil})

	if f.Err != nil {
		return f.Err
	}

	rng := rand.New(rand.NewSource(int64(opts.Seed)))
	fill(rng, image)
	fill(rng, debug)

	if dScene != nil {
		fill(rng, dScene.Camera.Position)
		fill(rng, dScene.Camera.LookAt)
		fill(rng, dScene.Camera.Up)
		fill(rng, dScene.Camera.NDCToCam)
		fill(rng, dScene.Camera.CamToNDC)
		for _, s := range dScene.Shapes {
			fill(rng, s.Vertices)
			fill(rng, s.UVs)
			fill(rng, s.Normals)
		}
		for _, m := range dScene.Materials {
			fill(rng, m.DiffuseReflectance.Data)
			fill(rng, m.SpecularReflectance.Data)
			fill(rng, m.Roughness.Data)
		}
		for _, l := range dScene.AreaLights {
			fill(rng, l.Intensity)
		}
		if dScene.EnvMap != nil {
			fill(rng, dScene.EnvMap.Values.Data)
			fill(rng, dScene.EnvMap.WorldToEnv)
		}
	}
	return nil
}

// LastCall returns the most recent invocation. Panics if none were made.
func (f *Fake) LastCall() Call {
	return f.Calls[len(f.Calls)-1]
}

func fill(rng *rand.Rand, buf []float32) {
	for i := range buf {
		buf[i] = rng.Float32()
	}
}
