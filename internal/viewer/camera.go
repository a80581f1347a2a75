package viewer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"gltf-data-viewer/internal/scene"
)

// AutoRotateSpeed is radians per second of automatic orbit.
const AutoRotateSpeed = 2 * math.Pi / 30

// Orbit is a camera circling a target point.
type Orbit struct {
	Target   mgl32.Vec3
	Distance float32
	Yaw      float32
	Pitch    float32
	Fov      float32
	Near     float32
	Far      float32

	MinDistance float32
	MaxDistance float32

	saved pose
}

type pose struct {
	Target   mgl32.Vec3
	Distance float32
	Yaw      float32
	Pitch    float32
}

// NewOrbit returns a camera with a 60 degree field of view looking at the
// origin.
func NewOrbit() *Orbit {
	o := &Orbit{
		Distance:    3,
		Fov:         mgl32.DegToRad(60),
		Near:        0.01,
		Far:         1000,
		MaxDistance: float32(math.Inf(1)),
	}
	o.Save()
	return o
}

// Frame places the camera in front of box the way the web viewer does:
// offset from the center by (size/2, size/5, size/2), with clip planes and
// zoom limits scaled to the box.
func (o *Orbit) Frame(box scene.Box) {
	size := box.Size()
	if size <= 0 {
		size = 1
	}
	o.Target = box.Center()
	offset := mgl32.Vec3{size / 2, size / 5, size / 2}
	o.Distance = offset.Len()
	o.Yaw = float32(math.Atan2(float64(offset[0]), float64(offset[2])))
	o.Pitch = float32(math.Asin(float64(offset[1] / o.Distance)))
	o.Near = size / 100
	o.Far = size * 100
	o.MinDistance = 0
	o.MaxDistance = size * 10
	o.Save()
}

// Save records the current pose for Reset.
func (o *Orbit) Save() {
	o.saved = pose{Target: o.Target, Distance: o.Distance, Yaw: o.Yaw, Pitch: o.Pitch}
}

// Reset restores the saved pose.
func (o *Orbit) Reset() {
	o.Target, o.Distance, o.Yaw, o.Pitch = o.saved.Target, o.saved.Distance, o.saved.Yaw, o.saved.Pitch
}

// Update advances automatic rotation by dt seconds.
func (o *Orbit) Update(dt float32, autoRotate bool) {
	if autoRotate {
		o.Yaw += AutoRotateSpeed * dt
	}
}

// Rotate turns the camera by the given angles in radians. Pitch stays short
// of the poles.
func (o *Orbit) Rotate(dYaw, dPitch float32) {
	const limit = math.Pi/2 - 0.01
	o.Yaw += dYaw
	o.Pitch = mgl32.Clamp(o.Pitch+dPitch, -limit, limit)
}

// Zoom scales the distance; factor < 1 moves closer.
func (o *Orbit) Zoom(factor float32) {
	o.Distance = mgl32.Clamp(o.Distance*factor, o.MinDistance, o.MaxDistance)
}

// Eye returns the camera position.
func (o *Orbit) Eye() mgl32.Vec3 {
	sy, cy := math.Sincos(float64(o.Yaw))
	sp, cp := math.Sincos(float64(o.Pitch))
	offset := mgl32.Vec3{float32(cp * sy), float32(sp), float32(cp * cy)}
	return o.Target.Add(offset.Mul(o.Distance))
}

// View returns the view matrix.
func (o *Orbit) View() mgl32.Mat4 {
	return mgl32.LookAtV(o.Eye(), o.Target, mgl32.Vec3{0, 1, 0})
}

// Projection returns the perspective matrix for the given aspect ratio.
func (o *Orbit) Projection(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(o.Fov, aspect, o.Near, o.Far)
}
