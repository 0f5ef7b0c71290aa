package culling

import "github.com/Faultbox/scenegraph/pkg/math"

// Plane is the set of points p with Normal·p + D = 0.
// The positive half-space is inside.
type Plane struct {
	Normal math.Vec3
	D      float32
}

// Distance returns the signed distance from the plane to p.
func (p Plane) Distance(v math.Vec3) float32 {
	return p.Normal.Dot(v) + p.D
}

// Normalize scales the plane so that the normal has unit length.
// Degenerate planes are left untouched.
func (p Plane) Normalize() Plane {
	l := p.Normal.Length()
	if l == 0 {
		return p
	}
	return Plane{Normal: p.Normal.Scale(1 / l), D: p.D / l}
}

// Frustum plane indices
const (
	PlaneLeft = iota
	PlaneRight
	PlaneBottom
	PlaneTop
	PlaneNear
	PlaneFar
)

func planeFromRow(r math.Vec4) Plane {
	return Plane{Normal: math.Vec3{X: r[0], Y: r[1], Z: r[2]}, D: r[3]}.Normalize()
}

func addRows(a, b math.Vec4, sign float32) math.Vec4 {
	return math.Vec4{a[0] + sign*b[0], a[1] + sign*b[1], a[2] + sign*b[2], a[3] + sign*b[3]}
}

// FrustumPlanes extracts the six planes of a view-projection matrix whose
// clip depth range is [0, 1] (Gribb/Hartmann).
// With reverse-Z the near plane is the one at z = 1 and is returned as PlaneFar;
// both are kept, so the ordering does not matter to BoxInFrustum.
func FrustumPlanes(m math.Mat4) [6]Plane {
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)

	var planes [6]Plane
	planes[PlaneLeft] = planeFromRow(addRows(r3, r0, 1))
	planes[PlaneRight] = planeFromRow(addRows(r3, r0, -1))
	planes[PlaneBottom] = planeFromRow(addRows(r3, r1, 1))
	planes[PlaneTop] = planeFromRow(addRows(r3, r1, -1))
	planes[PlaneNear] = planeFromRow(r2)
	planes[PlaneFar] = planeFromRow(addRows(r3, r2, -1))
	return planes
}

// BoxInFrustum reports whether the box intersects every plane's positive side.
// The test is conservative: boxes near frustum corners may pass although they
// are outside, but a box that overlaps the frustum is never rejected.
func BoxInFrustum(box AABB, planes []Plane) bool {
	for _, p := range planes {
		// Corner furthest along the plane normal
		v := box.Min
		if p.Normal.X >= 0 {
			v.X = box.Max.X
		}
		if p.Normal.Y >= 0 {
			v.Y = box.Max.Y
		}
		if p.Normal.Z >= 0 {
			v.Z = box.Max.Z
		}
		if p.Distance(v) < 0 {
			return false
		}
	}
	return true
}

// PointInFrustum reports whether p is on the positive side of every plane.
func PointInFrustum(p math.Vec3, planes []Plane) bool {
	for _, pl := range planes {
		if pl.Distance(p) < 0 {
			return false
		}
	}
	return true
}
