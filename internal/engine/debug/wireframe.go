// Package debug provides debug visualization utilities.
package debug

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Faultbox/scenegraph/internal/engine/culling"
	"github.com/Faultbox/scenegraph/internal/engine/shadow"
	"github.com/Faultbox/scenegraph/pkg/math"
)

// BoxVertexCount is the number of line vertices of one box (12 edges × 2 endpoints).
const BoxVertexCount = 24

// DefaultBoxPadding avoids z-fighting with the surfaces a box encloses.
const DefaultBoxPadding float32 = 0.5

// boxEdges indexes corners ordered as culling.AABB.Corners: bit 0 is X, bit 1 is Y, bit 2 is Z.
var boxEdges = [12][2]int{
	// Bottom face
	{0, 1}, {1, 5}, {5, 4}, {4, 0},
	// Top face
	{2, 3}, {3, 7}, {7, 6}, {6, 2},
	// Vertical edges
	{0, 2}, {1, 3}, {5, 7}, {4, 6},
}

// Lines is a named set of line segments, two vertices per segment.
type Lines struct {
	Name     string
	Vertices []math.Vec3
}

// Segments returns the number of line segments.
func (l Lines) Segments() int {
	return len(l.Vertices) / 2
}

// CornerWireframe returns line vertices for a hexahedron given in culling.AABB corner order.
func CornerWireframe(corners [8]math.Vec3) []math.Vec3 {
	out := make([]math.Vec3, 0, BoxVertexCount)
	for _, e := range boxEdges {
		out = append(out, corners[e[0]], corners[e[1]])
	}
	return out
}

// BoxWireframe returns line vertices for an AABB grown by padding on all sides.
// An empty box yields no vertices.
func BoxWireframe(b culling.AABB, padding float32) []math.Vec3 {
	if b.IsEmpty() {
		return nil
	}
	return CornerWireframe(b.Expand(padding).Corners())
}

// FrustumWireframe returns line vertices for the camera slice between two clip depths.
func FrustumWireframe(inverseCamera math.Mat4, zNear, zFar float32) []math.Vec3 {
	return CornerWireframe(shadow.SliceCorners(inverseCamera, zNear, zFar))
}

// BoundWireframe returns line vertices for the light volume of a bound between
// the light-space depths near and far.
func BoundWireframe(bound shadow.SmallestBound, near, far float32) []math.Vec3 {
	inv := bound.ViewProjection(near, far).Inverse()
	return FrustumWireframe(inv, 0, 1)
}

// WriteOBJ writes line sets as Wavefront OBJ objects made of "l" elements.
func WriteOBJ(w io.Writer, sets []Lines) error {
	bw := bufio.NewWriter(w)
	base := 1
	for _, set := range sets {
		if len(set.Vertices) < 2 {
			continue
		}
		fmt.Fprintf(bw, "o %s\n", set.Name)
		for _, v := range set.Vertices {
			fmt.Fprintf(bw, "v %g %g %g\n", v.X, v.Y, v.Z)
		}
		for i := 0; i < set.Segments(); i++ {
			fmt.Fprintf(bw, "l %d %d\n", base+2*i, base+2*i+1)
		}
		base += len(set.Vertices)
	}
	return bw.Flush()
}
