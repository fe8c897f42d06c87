package scene

import "testing"

func TestComputeNumChannels(t *testing.T) {
	tests := []struct {
		name     string
		channels []Channel
		want     int
	}{
		{"Radiance only", []Channel{ChannelRadiance}, 3},
		{"Radiance and alpha", []Channel{ChannelRadiance, ChannelAlpha}, 4},
		{"Geometry buffers", []Channel{ChannelPosition, ChannelShadingNormal, ChannelUV}, 8},
		{"Scalar channels", []Channel{ChannelDepth, ChannelRoughness, ChannelShapeID}, 3},
		{"Empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeNumChannels(tt.channels); got != tt.want {
				t.Errorf("Expected %d floats per pixel, got %d", tt.want, got)
			}
		})
	}
}

func TestChannelDifferentiable(t *testing.T) {
	if ChannelShapeID.Differentiable() || ChannelMaterialID.Differentiable() {
		t.Error("Id channels must not be differentiable")
	}
	for _, ch := range []Channel{ChannelRadiance, ChannelAlpha, ChannelDepth, ChannelUV, ChannelRoughness} {
		if !ch.Differentiable() {
			t.Errorf("Channel %s must be differentiable", ch)
		}
	}
}

func TestParseRoundTrips(t *testing.T) {
	for ch := ChannelRadiance; ch <= ChannelMaterialID; ch++ {
		parsed, err := ParseChannel(ch.String())
		if err != nil {
			t.Errorf("ParseChannel(%q) failed: %v", ch.String(), err)
		} else if parsed != ch {
			t.Errorf("Channel %s round-tripped to %s", ch, parsed)
		}
	}
	for _, ct := range []CameraType{CameraPerspective, CameraOrthographic, CameraFisheye} {
		parsed, err := ParseCameraType(ct.String())
		if err != nil || parsed != ct {
			t.Errorf("Camera type %s round-trip failed: %v", ct, err)
		}
	}
	for _, st := range []SamplerType{SamplerIndependent, SamplerSobol} {
		parsed, err := ParseSamplerType(st.String())
		if err != nil || parsed != st {
			t.Errorf("Sampler type %s round-trip failed: %v", st, err)
		}
	}
}

func TestParseUnknownNames(t *testing.T) {
	if _, err := ParseChannel("luminance"); err == nil {
		t.Error("Expected an error for an unknown channel name")
	}
	if _, err := ParseCameraType("panoramic"); err == nil {
		t.Error("Expected an error for an unknown camera type")
	}
	if _, err := ParseSamplerType("halton"); err == nil {
		t.Error("Expected an error for an unknown sampler type")
	}
}
