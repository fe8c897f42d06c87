package render

import (
	"fmt"

	"github.com/df07/go-adjoint-renderer/pkg/scene"
)

// Settings contains the per-render configuration flattened alongside the
// scene. Everything here except UseCorrelatedSampling travels through the
// argument list to the engine; the correlation switch only affects how the
// bridge seeds the adjoint pass.
type Settings struct {
	NumSamples int // samples per pixel for the forward pass
	// NumBackwardSamples is the adjoint-pass sample count. Zero means
	// "same as NumSamples" and flattens to a single shared count.
	NumBackwardSamples int
	MaxBounces         int // 1 means direct lighting only
	Channels           []scene.Channel
	Sampler            scene.SamplerType

	UsePrimaryEdgeSampling   bool
	UseSecondaryEdgeSampling bool

	// UseCorrelatedSampling reuses the forward pass's random stream in the
	// adjoint pass instead of offsetting the seed. The shared stream makes
	// the forward output and its derivative statistically dependent, which
	// biases L2-style loss gradients; lower variance is the only reason to
	// turn it on.
	UseCorrelatedSampling bool
}

// DefaultSettings returns sensible defaults: radiance-only output, direct
// lighting plus one bounce, independent sampling, edge sampling on, and
// decorrelated forward/backward streams.
func DefaultSettings() Settings {
	return Settings{
		NumSamples:               4,
		MaxBounces:               1,
		Channels:                 []scene.Channel{scene.ChannelRadiance},
		Sampler:                  scene.SamplerIndependent,
		UsePrimaryEdgeSampling:   true,
		UseSecondaryEdgeSampling: true,
	}
}

// Validate checks the settings for obvious misconfiguration.
func (s Settings) Validate() error {
	if s.NumSamples <= 0 {
		return fmt.Errorf("num samples must be positive, got %d", s.NumSamples)
	}
	if s.NumBackwardSamples < 0 {
		return fmt.Errorf("backward sample count must be non-negative, got %d", s.NumBackwardSamples)
	}
	if s.MaxBounces < 0 {
		return fmt.Errorf("max bounces must be non-negative, got %d", s.MaxBounces)
	}
	if len(s.Channels) == 0 {
		return fmt.Errorf("at least one output channel is required")
	}
	return nil
}
