// Package camera provides the orbit camera used to view a scene.
package camera

import (
	"github.com/charmbracelet/harmonica"
	"github.com/chewxy/math32"

	"github.com/Faultbox/scenegraph/internal/engine/culling"
	"github.com/Faultbox/scenegraph/pkg/math"
)

// Projection describes a reverse-Z perspective projection.
type Projection struct {
	FovY   float32 // Vertical field of view (radians)
	Aspect float32
	Near   float32
	// Far of zero or less selects an infinite far plane.
	Far float32
}

// Matrix returns the projection matrix. Clip depth is 1 at the near plane
// and 0 at the far plane.
func (p Projection) Matrix() math.Mat4 {
	if p.Far <= 0 {
		return math.ReverseZ(math.InfinitePerspective(p.FovY, p.Aspect, p.Near))
	}
	return math.ReverseZ(math.Perspective(p.FovY, p.Aspect, p.Near, p.Far))
}

// axis is one spring-smoothed camera parameter.
type axis struct {
	value, velocity, target float64
}

func (a *axis) update(s harmonica.Spring) {
	a.value, a.velocity = s.Update(a.value, a.velocity, a.target)
}

func (a *axis) snap(v float32) {
	a.value, a.target, a.velocity = float64(v), float64(v), 0
}

// OrbitCamera orbits around a center point. Input moves the targets; Update
// springs the current state towards them.
type OrbitCamera struct {
	Projection Projection

	center    [3]axis
	distance  axis
	rotationX axis // Pitch (radians)
	rotationY axis // Yaw (radians)
	spring    harmonica.Spring

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates an orbit camera updated fps times per second.
// frequency and damping configure the smoothing spring; damping 1 is
// critically damped.
func NewOrbitCamera(proj Projection, fps int, frequency, damping float64) *OrbitCamera {
	c := &OrbitCamera{
		Projection:      proj,
		spring:          harmonica.NewSpring(harmonica.FPS(fps), frequency, damping),
		MinDistance:     0.01,
		MaxDistance:     1e6,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
	c.distance.snap(10)
	c.rotationX.snap(0.5)
	return c
}

// Center returns the current orbit center.
func (c *OrbitCamera) Center() math.Vec3 {
	return math.Vec3{
		X: float32(c.center[0].value),
		Y: float32(c.center[1].value),
		Z: float32(c.center[2].value),
	}
}

// Distance returns the current distance from the center.
func (c *OrbitCamera) Distance() float32 {
	return float32(c.distance.value)
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	pitch := float32(c.rotationX.value)
	yaw := float32(c.rotationY.value)
	d := c.Distance()

	offset := math.Vec3{
		X: d * math32.Cos(pitch) * math32.Sin(yaw),
		Y: d * math32.Sin(pitch),
		Z: d * math32.Cos(pitch) * math32.Cos(yaw),
	}
	return c.Center().Add(offset)
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center(), math.Vec3{X: 0, Y: 1, Z: 0})
}

// ViewProjection returns projection × view.
func (c *OrbitCamera) ViewProjection() math.Mat4 {
	return c.Projection.Matrix().Mul(c.ViewMatrix())
}

// HandleDrag rotates the target orientation by a mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.rotationY.target -= float64(deltaX * c.DragSensitivity)
	c.rotationX.target += float64(deltaY * c.DragSensitivity)

	c.rotationX.target = float64(clamp(float32(c.rotationX.target), c.MinPitch, c.MaxPitch))
}

// HandleZoom scales the target distance by a scroll delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	d := float32(c.distance.target)
	d -= delta * d * c.ZoomSensitivity
	c.distance.target = float64(clamp(d, c.MinDistance, c.MaxDistance))
}

// SetCenter moves the target center.
func (c *OrbitCamera) SetCenter(p math.Vec3) {
	c.center[0].target = float64(p.X)
	c.center[1].target = float64(p.Y)
	c.center[2].target = float64(p.Z)
}

// Update advances the smoothing springs by one frame.
func (c *OrbitCamera) Update() {
	for i := range c.center {
		c.center[i].update(c.spring)
	}
	c.distance.update(c.spring)
	c.rotationX.update(c.spring)
	c.rotationY.update(c.spring)
}

// Settled reports whether the camera is within eps of its targets.
func (c *OrbitCamera) Settled(eps float64) bool {
	axes := []*axis{&c.center[0], &c.center[1], &c.center[2], &c.distance, &c.rotationX, &c.rotationY}
	for _, a := range axes {
		if d := a.value - a.target; d > eps || d < -eps {
			return false
		}
	}
	return true
}

// FitToBounds places the camera so the whole box is in view. The move is
// immediate, not smoothed.
func (c *OrbitCamera) FitToBounds(b culling.AABB) {
	if b.IsEmpty() {
		return
	}
	center := b.Center()
	c.center[0].snap(center.X)
	c.center[1].snap(center.Y)
	c.center[2].snap(center.Z)

	// Distance at which the bounding sphere fits the narrower field of view.
	fov := c.Projection.FovY
	if c.Projection.Aspect > 0 && c.Projection.Aspect < 1 {
		fov = 2 * math32.Atan(math32.Tan(fov/2)*c.Projection.Aspect)
	}
	radius := b.Radius()
	d := radius / math32.Sin(fov/2)
	d = math32.Max(d, c.Projection.Near+radius)
	c.distance.snap(clamp(d, c.MinDistance, c.MaxDistance))

	c.rotationX.snap(clamp(0.6, c.MinPitch, c.MaxPitch)) // Look down at ~35 degrees
	c.rotationY.snap(0)
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(v, hi))
}
