package scene

import "fmt"

// CameraType selects the projection model. It is a closed enumeration: the
// flattened form carries the integer tag, and the reconstructor translates it
// to the engine's native camera identifier through an explicit table.
type CameraType int

const (
	CameraPerspective CameraType = iota
	CameraOrthographic
	CameraFisheye
)

// String returns the name used in scene files and error messages.
func (c CameraType) String() string {
	switch c {
	case CameraPerspective:
		return "perspective"
	case CameraOrthographic:
		return "orthographic"
	case CameraFisheye:
		return "fisheye"
	}
	return fmt.Sprintf("CameraType(%d)", int(c))
}

// ParseCameraType converts a scene-file name to a CameraType.
func ParseCameraType(s string) (CameraType, error) {
	switch s {
	case "perspective":
		return CameraPerspective, nil
	case "orthographic":
		return CameraOrthographic, nil
	case "fisheye":
		return CameraFisheye, nil
	}
	return 0, fmt.Errorf("unknown camera type %q", s)
}

// SamplerType selects the random sampling pattern used by the engine.
type SamplerType int

const (
	SamplerIndependent SamplerType = iota
	SamplerSobol
)

// String returns the name used in scene files and error messages.
func (s SamplerType) String() string {
	switch s {
	case SamplerIndependent:
		return "independent"
	case SamplerSobol:
		return "sobol"
	}
	return fmt.Sprintf("SamplerType(%d)", int(s))
}

// ParseSamplerType converts a scene-file name to a SamplerType.
func ParseSamplerType(s string) (SamplerType, error) {
	switch s {
	case "independent":
		return SamplerIndependent, nil
	case "sobol":
		return SamplerSobol, nil
	}
	return 0, fmt.Errorf("unknown sampler type %q", s)
}

// Channel identifies one output channel of the engine. The set is closed:
// tags are passed to the engine verbatim, and only the radiance-class
// channels (everything but the two id channels) are differentiable.
type Channel int

const (
	ChannelRadiance Channel = iota
	ChannelAlpha
	ChannelDepth
	ChannelPosition
	ChannelGeometryNormal
	ChannelShadingNormal
	ChannelUV
	ChannelDiffuseReflectance
	ChannelSpecularReflectance
	ChannelRoughness
	ChannelShapeID
	ChannelMaterialID
)

var channelNames = map[Channel]string{
	ChannelRadiance:            "radiance",
	ChannelAlpha:               "alpha",
	ChannelDepth:               "depth",
	ChannelPosition:            "position",
	ChannelGeometryNormal:      "geometry_normal",
	ChannelShadingNormal:       "shading_normal",
	ChannelUV:                  "uv",
	ChannelDiffuseReflectance:  "diffuse_reflectance",
	ChannelSpecularReflectance: "specular_reflectance",
	ChannelRoughness:           "roughness",
	ChannelShapeID:             "shape_id",
	ChannelMaterialID:          "material_id",
}

// channelFloats is the number of floats each channel contributes per pixel.
var channelFloats = map[Channel]int{
	ChannelRadiance:            3,
	ChannelAlpha:               1,
	ChannelDepth:               1,
	ChannelPosition:            3,
	ChannelGeometryNormal:      3,
	ChannelShadingNormal:       3,
	ChannelUV:                  2,
	ChannelDiffuseReflectance:  3,
	ChannelSpecularReflectance: 3,
	ChannelRoughness:           1,
	ChannelShapeID:             1,
	ChannelMaterialID:          1,
}

// String returns the name used in scene files and error messages.
func (c Channel) String() string {
	if name, ok := channelNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// ParseChannel converts a scene-file name to a Channel.
func ParseChannel(s string) (Channel, error) {
	for ch, name := range channelNames {
		if name == s {
			return ch, nil
		}
	}
	return 0, fmt.Errorf("unknown channel %q", s)
}

// NumFloats returns how many floats the channel occupies per pixel.
func (c Channel) NumFloats() int {
	n, ok := channelFloats[c]
	if !ok {
		panic(fmt.Sprintf("scene: unknown channel %d", int(c)))
	}
	return n
}

// Differentiable reports whether gradients flow through the channel.
// The id channels are piecewise constant and carry no gradient.
func (c Channel) Differentiable() bool {
	return c != ChannelShapeID && c != ChannelMaterialID
}

// ComputeNumChannels returns the total number of floats per pixel for a
// channel list, matching the engine's output image layout.
func ComputeNumChannels(channels []Channel) int {
	total := 0
	for _, c := range channels {
		total += c.NumFloats()
	}
	return total
}
