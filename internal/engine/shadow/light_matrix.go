// Package shadow computes cascaded shadow map geometry: split depths,
// frustum slices and tight light-space bounds.
package shadow

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/scenegraph/pkg/math"
)

// SmallestBound is a light-space view and the tightest rectangle around a
// set of points seen through it.
type SmallestBound struct {
	View                     math.Mat4
	Left, Right, Bottom, Top float32
}

// Projection returns the orthographic projection of the bound with the given
// light-space depth range.
func (b SmallestBound) Projection(near, far float32) math.Mat4 {
	return math.Ortho(b.Left, b.Right, b.Bottom, b.Top, near, far)
}

// ViewProjection is Projection(near, far) × View.
func (b SmallestBound) ViewProjection(near, far float32) math.Mat4 {
	return b.Projection(near, far).Mul(b.View)
}

// Area returns the size of the rectangle.
func (b SmallestBound) Area() float32 {
	return (b.Right - b.Left) * (b.Top - b.Bottom)
}

// LightView returns a view matrix at the origin looking along dir, the
// direction light travels.
func LightView(dir math.Vec3) math.Mat4 {
	dir = dir.Normalize()

	// Avoid an up vector parallel to the light
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	if math32.Abs(dir.Y) > 0.99 {
		up = math.Vec3{X: 0, Y: 0, Z: 1}
	}
	return math.LookAt(math.Vec3{}, dir, up)
}

// FindSmallestBound fits the minimum-area rectangle around points as seen
// along dir. The rectangle is aligned with one edge of the points' convex
// hull in the light's image plane; the returned view is rotated accordingly.
func FindSmallestBound(points []math.Vec3, dir math.Vec3) SmallestBound {
	base := LightView(dir)

	projected := make([]math.Vec2, len(points))
	for i, p := range points {
		projected[i] = base.TransformPoint(p).XY()
	}
	hull := ConvexHull(projected)

	// Axis candidates: identity plus every hull edge direction.
	best := fitAxis(hull, math.Vec2{X: 1})
	for i := range hull {
		edge := hull[(i+1)%len(hull)].Sub(hull[i])
		if edge.Length() < 1e-6 {
			continue
		}
		if b := fitAxis(hull, edge.Normalize()); b.Area() < best.Area() {
			best = b
		}
	}

	best.View = best.View.Mul(base)
	return best
}

// fitAxis bounds pts in the frame whose X axis is axis. View holds the
// in-plane rotation into that frame.
func fitAxis(pts []math.Vec2, axis math.Vec2) SmallestBound {
	c, s := axis.X, axis.Y
	b := SmallestBound{
		Left: math32.Inf(1), Right: math32.Inf(-1),
		Bottom: math32.Inf(1), Top: math32.Inf(-1),
	}
	for _, p := range pts {
		x := c*p.X + s*p.Y
		y := -s*p.X + c*p.Y
		b.Left = math32.Min(b.Left, x)
		b.Right = math32.Max(b.Right, x)
		b.Bottom = math32.Min(b.Bottom, y)
		b.Top = math32.Max(b.Top, y)
	}
	if len(pts) == 0 {
		b.Left, b.Right, b.Bottom, b.Top = -1, 1, -1, 1
	}

	b.View = math.Mat4{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	return b
}
