// Package debugengine is a primary-ray preview implementation of the engine
// ABI. It intersects camera rays with the scene's triangles and writes
// first-hit data into the requested channels: enough to eyeball a scene and
// exercise the full marshaling path without the native renderer. It is not a
// light transport simulator: radiance is the diffuse albedo modulated by a
// headlight term, and its adjoint pass only routes the incoming gradient
// into the diffuse buffers as a plumbing check.
package debugengine

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/df07/go-adjoint-renderer/pkg/engine"
)

// Engine implements engine.Engine with brute-force ray casting.
type Engine struct{}

// New creates a debug engine.
func New() *Engine { return &Engine{} }

type vec3 struct{ x, y, z float64 }

func (a vec3) add(b vec3) vec3      { return vec3{a.x + b.x, a.y + b.y, a.z + b.z} }
func (a vec3) sub(b vec3) vec3      { return vec3{a.x - b.x, a.y - b.y, a.z - b.z} }
func (a vec3) scale(s float64) vec3 { return vec3{a.x * s, a.y * s, a.z * s} }
func (a vec3) dot(b vec3) float64   { return a.x*b.x + a.y*b.y + a.z*b.z }
func (a vec3) cross(b vec3) vec3 {
	return vec3{a.y*b.z - a.z*b.y, a.z*b.x - a.x*b.z, a.x*b.y - a.y*b.x}
}
func (a vec3) length() float64 { return math.Sqrt(a.dot(a)) }
func (a vec3) normalize() vec3 {
	l := a.length()
	if l == 0 {
		return a
	}
	return a.scale(1 / l)
}

// hit is the first-intersection record a ray produces.
type hit struct {
	t          float64
	point      vec3
	normal     vec3
	u, v       float64 // barycentric coordinates
	shapeID    int
	triangle   int
	materialID int32
}

// Render implements engine.Engine.
func (e *Engine) Render(scn *engine.Scene, opts *engine.RenderOptions, image []float32, dImage []float32, dScene *engine.DScene, debug []float32) error {
	if scn == nil || opts == nil {
		return fmt.Errorf("debugengine: nil scene or options")
	}
	if dImage != nil && dScene != nil {
		return e.renderAdjoint(scn, opts, dImage, dScene)
	}
	if image == nil {
		return fmt.Errorf("debugengine: forward call without an output image")
	}
	return e.renderForward(scn, opts, image)
}

func (e *Engine) renderForward(scn *engine.Scene, opts *engine.RenderOptions, image []float32) error {
	cam := scn.Camera
	width, height := cam.Width, cam.Height
	numChannels := 0
	for _, ch := range opts.Channels {
		numChannels += channelFloats(ch)
	}
	if len(image) != width*height*numChannels {
		return fmt.Errorf("debugengine: image buffer has %d floats, want %d", len(image), width*height*numChannels)
	}

	forEachRow(height, func(y int) {
		for x := 0; x < width; x++ {
			origin, dir := cameraRay(cam, x, y)
			h, ok := intersectScene(scn, origin, dir, float64(cam.ClipNear))
			offset := (y*width + x) * numChannels
			writeChannels(scn, opts.Channels, image[offset:offset+numChannels], h, ok, dir)
		}
	})
	return nil
}

// forEachRow distributes scanlines over a fixed worker pool. Rows write
// disjoint slices of the output buffer, so workers never need a lock.
func forEachRow(height int, fn func(y int)) {
	numWorkers := min(runtime.NumCPU(), height)
	rows := make(chan int, height)
	for y := 0; y < height; y++ {
		rows <- y
	}
	close(rows)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rows {
				fn(y)
			}
		}()
	}
	wg.Wait()
}

// renderAdjoint distributes the incoming image gradient into the diffuse
// adjoint of whichever material each pixel's primary hit used. This keeps
// gradient plumbing testable end to end; it is not a derivative estimate.
func (e *Engine) renderAdjoint(scn *engine.Scene, opts *engine.RenderOptions, dImage []float32, dScene *engine.DScene) error {
	cam := scn.Camera
	width, height := cam.Width, cam.Height
	numChannels := 0
	for _, ch := range opts.Channels {
		numChannels += channelFloats(ch)
	}
	if len(dImage) != width*height*numChannels {
		return fmt.Errorf("debugengine: gradient buffer has %d floats, want %d", len(dImage), width*height*numChannels)
	}

	// Serial: every pixel accumulates into the same few material buffers.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			origin, dir := cameraRay(cam, x, y)
			h, ok := intersectScene(scn, origin, dir, float64(cam.ClipNear))
			if !ok || h.materialID < 0 || int(h.materialID) >= len(dScene.Materials) {
				continue
			}
			dDiffuse := dScene.Materials[h.materialID].DiffuseReflectance.Data
			offset := (y*width + x) * numChannels
			for c := 0; c < numChannels && c < 3; c++ {
				dDiffuse[c%len(dDiffuse)] += dImage[offset+c]
			}
		}
	}
	return nil
}

// cameraRay generates the primary ray through pixel (x, y) using the
// camera's NDC-to-camera transform and a look-at basis.
func cameraRay(cam engine.Camera, x, y int) (vec3, vec3) {
	position := vec3{float64(cam.Position[0]), float64(cam.Position[1]), float64(cam.Position[2])}
	lookAt := vec3{float64(cam.LookAt[0]), float64(cam.LookAt[1]), float64(cam.LookAt[2])}
	up := vec3{float64(cam.Up[0]), float64(cam.Up[1]), float64(cam.Up[2])}

	forward := lookAt.sub(position).normalize()
	right := forward.cross(up).normalize()
	camUp := right.cross(forward)

	// Pixel center to NDC in [-1, 1], y flipped so row 0 is the top.
	ndcX := (float64(x)+0.5)/float64(cam.Width)*2 - 1
	ndcY := 1 - (float64(y)+0.5)/float64(cam.Height)*2

	// Camera-space direction via the row-major ndc-to-camera transform.
	m := cam.NDCToCam
	cx := float64(m[0])*ndcX + float64(m[1])*ndcY + float64(m[2])
	cy := float64(m[3])*ndcX + float64(m[4])*ndcY + float64(m[5])
	cz := float64(m[6])*ndcX + float64(m[7])*ndcY + float64(m[8])

	dir := right.scale(cx).add(camUp.scale(cy)).add(forward.scale(cz)).normalize()
	return position, dir
}

// intersectScene finds the closest triangle hit past tMin.
func intersectScene(scn *engine.Scene, origin, dir vec3, tMin float64) (hit, bool) {
	closest := hit{t: math.Inf(1)}
	found := false
	for shapeID := range scn.Shapes {
		shape := &scn.Shapes[shapeID]
		for tri := 0; tri < shape.NumTriangles; tri++ {
			if h, ok := intersectTriangle(shape, tri, origin, dir, tMin, closest.t); ok {
				closest = h
				closest.shapeID = shapeID
				closest.materialID = shape.MaterialID
				found = true
			}
		}
	}
	return closest, found
}

// intersectTriangle is the Möller–Trumbore ray/triangle test.
func intersectTriangle(shape *engine.Shape, tri int, origin, dir vec3, tMin, tMax float64) (hit, bool) {
	const epsilon = 1e-8

	i0, i1, i2 := shape.Indices[tri*3], shape.Indices[tri*3+1], shape.Indices[tri*3+2]
	v0 := vertexAt(shape, i0)
	v1 := vertexAt(shape, i1)
	v2 := vertexAt(shape, i2)

	edge1 := v1.sub(v0)
	edge2 := v2.sub(v0)

	h := dir.cross(edge2)
	a := edge1.dot(h)
	if a > -epsilon && a < epsilon {
		return hit{}, false // ray parallel to triangle plane
	}

	f := 1.0 / a
	s := origin.sub(v0)
	u := f * s.dot(h)
	if u < 0 || u > 1 {
		return hit{}, false
	}

	q := s.cross(edge1)
	v := f * dir.dot(q)
	if v < 0 || u+v > 1 {
		return hit{}, false
	}

	t := f * edge2.dot(q)
	if t <= tMin || t >= tMax {
		return hit{}, false
	}

	normal := edge1.cross(edge2).normalize()
	if normal.dot(dir) > 0 {
		normal = normal.scale(-1)
	}
	return hit{
		t:        t,
		point:    origin.add(dir.scale(t)),
		normal:   normal,
		u:        u,
		v:        v,
		triangle: tri,
	}, true
}

func vertexAt(shape *engine.Shape, i int32) vec3 {
	return vec3{
		float64(shape.Vertices[i*3]),
		float64(shape.Vertices[i*3+1]),
		float64(shape.Vertices[i*3+2]),
	}
}

// writeChannels fills one pixel's channel block from the hit record.
func writeChannels(scn *engine.Scene, channels []engine.ChannelCode, pixel []float32, h hit, ok bool, dir vec3) {
	offset := 0
	for _, ch := range channels {
		n := channelFloats(ch)
		out := pixel[offset : offset+n]
		offset += n
		if !ok {
			continue // miss leaves the zero background
		}
		switch ch {
		case engine.ChannelCodeRadiance:
			albedo := materialAlbedo(scn, h)
			// Headlight shading: albedo scaled by the cosine to the ray.
			cos := float32(math.Abs(h.normal.dot(dir)))
			out[0], out[1], out[2] = albedo[0]*cos, albedo[1]*cos, albedo[2]*cos
		case engine.ChannelCodeAlpha:
			out[0] = 1
		case engine.ChannelCodeDepth:
			out[0] = float32(h.t)
		case engine.ChannelCodePosition:
			out[0], out[1], out[2] = float32(h.point.x), float32(h.point.y), float32(h.point.z)
		case engine.ChannelCodeGeometryNormal, engine.ChannelCodeShadingNormal:
			out[0], out[1], out[2] = float32(h.normal.x), float32(h.normal.y), float32(h.normal.z)
		case engine.ChannelCodeUV:
			out[0], out[1] = float32(h.u), float32(h.v)
		case engine.ChannelCodeDiffuseReflectance:
			albedo := materialAlbedo(scn, h)
			out[0], out[1], out[2] = albedo[0], albedo[1], albedo[2]
		case engine.ChannelCodeSpecularReflectance:
			if m := material(scn, h); m != nil {
				copy(out, m.SpecularReflectance.Data[:3])
			}
		case engine.ChannelCodeRoughness:
			if m := material(scn, h); m != nil {
				out[0] = m.Roughness.Data[0]
			}
		case engine.ChannelCodeShapeID:
			out[0] = float32(h.shapeID)
		case engine.ChannelCodeMaterialID:
			out[0] = float32(h.materialID)
		}
	}
}

func material(scn *engine.Scene, h hit) *engine.Material {
	if h.materialID < 0 || int(h.materialID) >= len(scn.Materials) {
		return nil
	}
	return &scn.Materials[h.materialID]
}

// materialAlbedo samples the diffuse texture at the hit: the constant texel
// for constants, the base-level texel nearest the barycentric uv otherwise.
func materialAlbedo(scn *engine.Scene, h hit) [3]float32 {
	m := material(scn, h)
	if m == nil {
		return [3]float32{0.5, 0.5, 0.5}
	}
	tex := m.DiffuseReflectance
	if tex.Levels == 0 {
		return [3]float32{tex.Data[0], tex.Data[1], tex.Data[2]}
	}
	x := min(int(h.u*float64(tex.Width)), tex.Width-1)
	y := min(int(h.v*float64(tex.Height)), tex.Height-1)
	p := (y*tex.Width + x) * 3
	return [3]float32{tex.Data[p], tex.Data[p+1], tex.Data[p+2]}
}

func channelFloats(ch engine.ChannelCode) int {
	switch ch {
	case engine.ChannelCodeRadiance, engine.ChannelCodePosition,
		engine.ChannelCodeGeometryNormal, engine.ChannelCodeShadingNormal,
		engine.ChannelCodeDiffuseReflectance, engine.ChannelCodeSpecularReflectance:
		return 3
	case engine.ChannelCodeUV:
		return 2
	default:
		return 1
	}
}
