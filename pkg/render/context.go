package render

import (
	"github.com/google/uuid"

	"github.com/df07/go-adjoint-renderer/pkg/engine"
)

// Context is the retained state linking a forward pass to its adjoint pass.
// Forward returns one context per invocation and Backward consumes it, so
// overlapping renders of different scenes each own their own context.
// Nothing is stashed in package state.
//
// The context keeps the native scene handle alive (the adjoint pass reuses
// it) along with the layout facts needed to mirror the forward argument
// list positionally.
type Context struct {
	// ID labels the render in log output.
	ID uuid.UUID

	// Scene is the native handle built by Reconstruct, reused verbatim by
	// the adjoint pass.
	Scene *engine.Scene

	// Options are the forward render options; the adjoint pass copies them
	// and swaps in the backward sample count and the decorrelated seed.
	Options *engine.RenderOptions

	// Resolution is (height, width); NumChannels is floats per pixel.
	Resolution  [2]int
	NumChannels int

	// UseCorrelatedSampling makes the adjoint pass reuse the forward seed
	// instead of offsetting it. Off by default: the shared stream biases
	// L2-style loss gradients. Opt in per context, never globally.
	UseCorrelatedSampling bool

	// backwardSamples is the adjoint-pass sample count resolved from the
	// flattened sample-count slot.
	backwardSamples int

	// numArgs is the length of the forward flattened list. The backward
	// list must come out to exactly numArgs+1 slots (the leading seed slot
	// plus one mirror per forward slot); any other length is a packing bug.
	numArgs int

	// numChannelTags is how many per-channel tag slots the forward list
	// carried, needed to mirror them as markers.
	numChannelTags int
}
