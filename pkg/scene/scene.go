package scene

import "fmt"

// Scene aggregates everything the renderer needs: a camera, ordered shape,
// material, and light lists, and an optional environment map. The per-shape
// MaterialID/LightID fields index into the ordered lists.
type Scene struct {
	Camera     *Camera
	Shapes     []*Shape
	Materials  []*Material
	AreaLights []*AreaLight
	EnvMap     *EnvironmentMap // nil if absent
}

// NewScene creates a scene. EnvMap may be nil.
func NewScene(camera *Camera, shapes []*Shape, materials []*Material, lights []*AreaLight, envMap *EnvironmentMap) *Scene {
	return &Scene{
		Camera:     camera,
		Shapes:     shapes,
		Materials:  materials,
		AreaLights: lights,
		EnvMap:     envMap,
	}
}

// Validate checks cross-record invariants: buffer shapes, material indices,
// and light/shape references. The flattener does not call this; malformed
// scenes surface as reconstruction failures. Loaders and callers can
// use it to fail early with a better message.
func (s *Scene) Validate() error {
	if s.Camera == nil {
		return fmt.Errorf("scene has no camera")
	}
	if s.Camera.Height() <= 0 || s.Camera.Width() <= 0 {
		return fmt.Errorf("camera resolution %dx%d is invalid", s.Camera.Width(), s.Camera.Height())
	}
	for i, shape := range s.Shapes {
		if err := shape.Validate(); err != nil {
			return fmt.Errorf("shape %d: %w", i, err)
		}
		if shape.MaterialID != NoID && (shape.MaterialID < 0 || shape.MaterialID >= len(s.Materials)) {
			return fmt.Errorf("shape %d: material id %d out of range [0, %d)", i, shape.MaterialID, len(s.Materials))
		}
	}
	seen := make(map[int]int)
	for i, light := range s.AreaLights {
		if light.ShapeID < 0 || light.ShapeID >= len(s.Shapes) {
			return fmt.Errorf("light %d: shape id %d out of range [0, %d)", i, light.ShapeID, len(s.Shapes))
		}
		if prev, ok := seen[light.ShapeID]; ok {
			return fmt.Errorf("lights %d and %d both reference shape %d", prev, i, light.ShapeID)
		}
		seen[light.ShapeID] = i
	}
	return nil
}
