package render

import (
	"fmt"

	"github.com/df07/go-adjoint-renderer/pkg/engine"
	"github.com/df07/go-adjoint-renderer/pkg/scene"
	"github.com/df07/go-adjoint-renderer/pkg/tensor"
)

// Op is the integration point for an autodiff framework: a differentiable
// render operation whose inputs are the integer seed followed by the
// flattened argument list, and whose output is the image tensor. Backward
// maps an image-space gradient to one gradient slot per input, with the
// leading seed slot always NoGradient.
type Op struct {
	eng engine.Engine
	set Settings
}

// NewOp creates a render op bound to an engine and settings.
func NewOp(eng engine.Engine, set Settings) (*Op, error) {
	if eng == nil {
		return nil, fmt.Errorf("render op: nil engine")
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("render op: %w", err)
	}
	return &Op{eng: eng, set: set}, nil
}

// Flatten serializes a scene with the op's settings.
func (o *Op) Flatten(sc *scene.Scene) []Arg {
	return Flatten(sc, o.set)
}

// Forward renders the flattened scene and returns the image along with the
// context the matching Backward call needs.
func (o *Op) Forward(seed uint64, args []Arg) (tensor.Tensor, *Context, error) {
	img, ctx, err := Forward(o.eng, seed, args)
	if err != nil {
		return tensor.Empty(), nil, err
	}
	ctx.UseCorrelatedSampling = o.set.UseCorrelatedSampling
	return img, ctx, nil
}

// Backward computes the positional gradient list for a previous Forward.
func (o *Op) Backward(ctx *Context, gradImage tensor.Tensor) ([]Arg, error) {
	return Backward(o.eng, ctx, gradImage)
}

// Render flattens and forward-renders a scene in one call.
func (o *Op) Render(sc *scene.Scene, seed uint64) (tensor.Tensor, *Context, error) {
	return o.Forward(seed, o.Flatten(sc))
}
