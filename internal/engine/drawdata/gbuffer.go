package drawdata

import (
	"sort"

	"github.com/chewxy/math32"

	"github.com/Faultbox/scenegraph/internal/engine/culling"
	"github.com/Faultbox/scenegraph/internal/engine/model"
	"github.com/Faultbox/scenegraph/pkg/math"
)

// maxMinZ keeps the far clip depth strictly above zero so that unprojecting
// it stays finite with an infinite reverse-Z projection.
const maxMinZ = 0.9999

// GbufferEntry is a draw record visible from the camera.
type GbufferEntry struct {
	Drawcall model.Drawcall
	// Resources indexes Gbuffer.Resources.
	Resources int
	// MinZ and MaxZ are the clip depth range of the record's corners in
	// front of the near plane. Reverse-Z: larger is closer.
	MinZ, MaxZ float32
}

// Gbuffer collects the camera-visible records of a frame.
type Gbuffer struct {
	camera   math.Mat4
	inverse  math.Mat4
	eye      math.Vec3
	planes   [6]culling.Plane
	nearDir  math.Vec3
	nearDist float32

	minZ      float32
	buckets   map[BucketKey][]GbufferEntry
	resources resourceSets
}

// NewGbuffer prepares a classifier for the given camera matrix
// (projection × view) and eye position.
func NewGbuffer(camera math.Mat4, eye math.Vec3) *Gbuffer {
	inv := camera.Inverse()
	toNear := inv.TransformPoint(math.Vec3{Z: 1}).Sub(eye)

	return &Gbuffer{
		camera:   camera,
		inverse:  inv,
		eye:      eye,
		planes:   culling.FrustumPlanes(camera),
		nearDir:  toNear.Normalize(),
		nearDist: toNear.Length(),
		minZ:     1,
		buckets:  make(map[BucketKey][]GbufferEntry),
	}
}

// Append classifies every drawcall of d. Multiple models may be appended
// per frame; each registers its own resource set.
func (g *Gbuffer) Append(d *model.Drawdata) {
	res := g.resources.add(d)

	for i := range d.Drawcalls {
		dc := &d.Drawcalls[i]
		if !culling.BoxInFrustum(dc.Bounds, g.planes[:]) {
			continue
		}

		entry := GbufferEntry{Drawcall: *dc, Resources: res, MinZ: 1, MaxZ: 1}
		visible := false
		for _, c := range dc.Bounds.Corners() {
			if !g.inFrontOfNear(c) {
				continue
			}
			z := g.camera.TransformPoint(c).Z
			if !visible {
				entry.MinZ, entry.MaxZ = z, z
				visible = true
				continue
			}
			entry.MinZ = math32.Min(entry.MinZ, z)
			entry.MaxZ = math32.Max(entry.MaxZ, z)
		}
		if visible {
			g.minZ = math32.Min(g.minZ, entry.MinZ)
		}

		key := bucketKey(d, dc)
		g.buckets[key] = append(g.buckets[key], entry)
	}
}

func (g *Gbuffer) inFrontOfNear(p math.Vec3) bool {
	if g.nearDist == 0 {
		return true
	}
	return p.Sub(g.eye).Scale(1/g.nearDist).Dot(g.nearDir) > 1
}

// Sort orders every bucket by descending MaxZ, which puts the records
// closest to the camera first.
func (g *Gbuffer) Sort() {
	for _, entries := range g.buckets {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].MaxZ > entries[j].MaxZ
		})
	}
}

// MinZ is the farthest clip depth of any visible corner, clamped to
// [0, 0.9999]. It is 0.9999 when nothing is visible.
func (g *Gbuffer) MinZ() float32 {
	return math32.Max(0, math32.Min(g.minZ, maxMinZ))
}

// MaxDistance is the distance from the eye to the corner of the MinZ plane.
func (g *Gbuffer) MaxDistance() float32 {
	return g.eye.Distance(g.inverse.TransformPoint(math.Vec3{X: 1, Y: 1, Z: g.MinZ()}))
}

// BucketKeys returns the non-empty bucket keys in a stable order.
func (g *Gbuffer) BucketKeys() []BucketKey {
	return sortedKeys(g.buckets)
}

// Bucket returns the records for key.
func (g *Gbuffer) Bucket(key BucketKey) []GbufferEntry {
	return g.buckets[key]
}

// Len returns the number of visible records.
func (g *Gbuffer) Len() int {
	n := 0
	for _, entries := range g.buckets {
		n += len(entries)
	}
	return n
}

// Resources returns the registered resource sets in append order.
func (g *Gbuffer) Resources() []ResourceSet {
	return g.resources
}

// Release drops the references taken by Append.
func (g *Gbuffer) Release() {
	g.resources.release()
}
