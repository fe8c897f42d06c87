package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera describes the viewpoint for a render. The NDC transforms map
// between normalized device coordinates and camera space; for a perspective
// camera they are inverse diagonal scalings derived from the field of view.
type Camera struct {
	Position mgl32.Vec3
	LookAt   mgl32.Vec3
	Up       mgl32.Vec3
	NDCToCam mgl32.Mat3
	CamToNDC mgl32.Mat3
	ClipNear float32
	// Resolution is (height, width), matching the image buffer layout.
	Resolution [2]int
	Type       CameraType
}

// NewPerspectiveCamera creates a perspective camera from a vertical field of
// view in degrees, deriving the NDC transform pair from the FOV.
func NewPerspectiveCamera(position, lookAt, up mgl32.Vec3, fovDegrees float32, clipNear float32, height, width int) *Camera {
	t := float32(math.Tan(float64(mgl32.DegToRad(fovDegrees)) / 2))
	ndcToCam := mgl32.Diag3(mgl32.Vec3{t, t, 1})
	camToNDC := mgl32.Diag3(mgl32.Vec3{1 / t, 1 / t, 1})
	return &Camera{
		Position:   position,
		LookAt:     lookAt,
		Up:         up,
		NDCToCam:   ndcToCam,
		CamToNDC:   camToNDC,
		ClipNear:   clipNear,
		Resolution: [2]int{height, width},
		Type:       CameraPerspective,
	}
}

// Height returns the vertical resolution.
func (c *Camera) Height() int { return c.Resolution[0] }

// Width returns the horizontal resolution.
func (c *Camera) Width() int { return c.Resolution[1] }
