package render

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/df07/go-adjoint-renderer/pkg/engine"
	"github.com/df07/go-adjoint-renderer/pkg/tensor"
)

// Forward runs the forward rendering pass: it reconstructs the native scene
// from the flattened argument list, allocates a zero-initialized image of
// shape (height, width, channels), and invokes the engine once with that
// image as the sole output target.
//
// The returned context must be passed to Backward to compute gradients for
// the same invocation.
func Forward(eng engine.Engine, seed uint64, args []Arg) (tensor.Tensor, *Context, error) {
	scn, opts, res, numChannels, backwardSamples, err := reconstruct(args, seed)
	if err != nil {
		return tensor.Empty(), nil, err
	}

	ctx := &Context{
		ID:              uuid.New(),
		Scene:           scn,
		Options:         opts,
		Resolution:      res,
		NumChannels:     numChannels,
		backwardSamples: backwardSamples,
		numArgs:         len(args),
		numChannelTags:  len(opts.Channels),
	}

	logger().Debug("argument layout",
		"render", ctx.ID,
		"slots", len(args),
		"shapes", len(scn.Shapes),
		"materials", len(scn.Materials),
		"lights", len(scn.AreaLights),
	)

	img := tensor.Zeros(res[0], res[1], numChannels)

	start := time.Now()
	if err := eng.Render(scn, opts, img.Data(), nil, nil, nil); err != nil {
		return tensor.Empty(), nil, fmt.Errorf("forward render: %w", err)
	}
	logger().Info("forward pass complete",
		"render", ctx.ID,
		"resolution", fmt.Sprintf("%dx%d", res[1], res[0]),
		"channels", numChannels,
		"samples", opts.NumSamples,
		"elapsed", time.Since(start),
	)

	return img, ctx, nil
}
