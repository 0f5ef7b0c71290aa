package shadow

import (
	"github.com/Faultbox/scenegraph/internal/engine/culling"
	"github.com/Faultbox/scenegraph/pkg/math"
)

// DefaultCascades is the cascade count used when none is configured.
const DefaultCascades = 3

// SplitDepths returns count+1 clip-space depths from the near plane (1 with
// reverse-Z) down to minZ. Inner splits blend a logarithmic split, uniform
// in clip depth, with a linear split, uniform in world distance; blend 0 is
// fully logarithmic and 1 fully linear.
func SplitDepths(camera math.Mat4, minZ, blend float32, count int) []float32 {
	if count <= 0 {
		count = DefaultCascades
	}
	inv := camera.Inverse()
	nearPos := inv.TransformPoint(math.Vec3{Z: 1})
	farPos := inv.TransformPoint(math.Vec3{Z: minZ})

	depths := make([]float32, count+1)
	depths[0] = 1
	depths[count] = minZ
	for i := 1; i < count; i++ {
		f := float32(i) / float32(count)
		linear := nearPos.Mix(farPos, f)
		logarithmic := inv.TransformPoint(math.Vec3{Z: 1 + (minZ-1)*f})
		depths[i] = camera.TransformPoint(logarithmic.Mix(linear, blend)).Z
	}
	return depths
}

// SliceCorners returns the world-space corners of the camera frustum between
// clip depths zFar and zNear.
func SliceCorners(inverseCamera math.Mat4, zNear, zFar float32) [8]math.Vec3 {
	slice := culling.AABB{
		Min: math.Vec3{X: -1, Y: -1, Z: zFar},
		Max: math.Vec3{X: 1, Y: 1, Z: zNear},
	}
	corners := slice.Corners()
	for i, c := range corners {
		corners[i] = inverseCamera.TransformPoint(c)
	}
	return corners
}
