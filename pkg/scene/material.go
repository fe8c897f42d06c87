package scene

import "github.com/go-gl/mathgl/mgl32"

// Material is a diffuse/specular/roughness surface description. Each texture
// is independently either a constant or a mipmap pyramid.
type Material struct {
	DiffuseReflectance  Texture3
	SpecularReflectance Texture3
	Roughness           Texture1
	TwoSided            bool
}

// NewMaterial creates a material from explicit textures.
func NewMaterial(diffuse, specular Texture3, roughness Texture1, twoSided bool) *Material {
	return &Material{
		DiffuseReflectance:  diffuse,
		SpecularReflectance: specular,
		Roughness:           roughness,
		TwoSided:            twoSided,
	}
}

// NewDiffuseMaterial creates a matte material with a constant diffuse color,
// no specular component, and a rough surface.
func NewDiffuseMaterial(diffuse mgl32.Vec3) *Material {
	return &Material{
		DiffuseReflectance:  NewConstantTexture3(diffuse),
		SpecularReflectance: NewConstantTexture3(mgl32.Vec3{}),
		Roughness:           NewConstantTexture1(1.0),
	}
}

// AreaLight turns the referenced shape into an emitter with the given
// radiant intensity. A shape may be referenced by at most one light.
type AreaLight struct {
	ShapeID   int
	Intensity mgl32.Vec3
	TwoSided  bool
}

// NewAreaLight creates an area light attached to a shape.
func NewAreaLight(shapeID int, intensity mgl32.Vec3, twoSided bool) *AreaLight {
	return &AreaLight{ShapeID: shapeID, Intensity: intensity, TwoSided: twoSided}
}
