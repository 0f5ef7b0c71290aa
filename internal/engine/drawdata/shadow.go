package drawdata

import (
	"sort"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/engine/culling"
	"github.com/Faultbox/scenegraph/internal/engine/model"
	"github.com/Faultbox/scenegraph/internal/engine/shadow"
	"github.com/Faultbox/scenegraph/internal/logger"
	"github.com/Faultbox/scenegraph/pkg/math"
)

// ShadowEntry is a draw record retained by a cascade.
type ShadowEntry struct {
	Drawcall  model.Drawcall
	Resources int
	// Depth is the light-space distance of the record's farthest corner.
	Depth float32
}

// Cascade is one shadow map level.
type Cascade struct {
	// Near and Far are the clip depths bounding the camera slice.
	Near, Far float32
	Bound     shadow.SmallestBound
	// LightNear and LightFar bound the retained records along the light.
	LightNear, LightFar float32

	planes  [4]culling.Plane
	buckets map[BucketKey][]ShadowEntry
}

func newCascade(inverseCamera math.Mat4, lightDir math.Vec3, zNear, zFar float32) Cascade {
	corners := shadow.SliceCorners(inverseCamera, zNear, zFar)
	bound := shadow.FindSmallestBound(corners[:], lightDir)

	c := Cascade{
		Near:      zNear,
		Far:       zFar,
		Bound:     bound,
		LightNear: math32.MaxFloat32,
		LightFar:  -math32.MaxFloat32,
		buckets:   make(map[BucketKey][]ShadowEntry),
	}
	planes := culling.FrustumPlanes(bound.ViewProjection(0, 1))
	copy(c.planes[:], planes[:4])
	return c
}

func (c *Cascade) append(d *model.Drawdata, res int) {
	for i := range d.Drawcalls {
		dc := &d.Drawcalls[i]
		// Casters outside the slice along the light still shadow it, so only
		// the side planes cull.
		if !culling.BoxInFrustum(dc.Bounds, c.planes[:]) {
			continue
		}

		minZ, maxZ := float32(math32.MaxFloat32), float32(-math32.MaxFloat32)
		for _, p := range dc.Bounds.Corners() {
			z := c.Bound.View.TransformPoint(p).Z
			minZ = math32.Min(minZ, z)
			maxZ = math32.Max(maxZ, z)
		}
		c.LightNear = math32.Min(c.LightNear, -maxZ)
		c.LightFar = math32.Max(c.LightFar, -minZ)

		key := bucketKey(d, dc)
		c.buckets[key] = append(c.buckets[key], ShadowEntry{Drawcall: *dc, Resources: res, Depth: -minZ})
	}
}

// Empty reports whether no record was retained.
func (c *Cascade) Empty() bool {
	return c.LightNear > c.LightFar
}

// ViewProjection returns the light matrix fitted to the retained records.
// An empty cascade uses the depth range [0, 1].
func (c *Cascade) ViewProjection() math.Mat4 {
	if c.Empty() {
		return c.Bound.ViewProjection(0, 1)
	}
	return c.Bound.ViewProjection(c.LightNear, c.LightFar)
}

// Sort orders every bucket near to far along the light.
func (c *Cascade) Sort() {
	for _, entries := range c.buckets {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Depth < entries[j].Depth
		})
	}
}

// BucketKeys returns the non-empty bucket keys in a stable order.
func (c *Cascade) BucketKeys() []BucketKey {
	return sortedKeys(c.buckets)
}

// Bucket returns the records for key.
func (c *Cascade) Bucket(key BucketKey) []ShadowEntry {
	return c.buckets[key]
}

// Len returns the number of retained records.
func (c *Cascade) Len() int {
	n := 0
	for _, entries := range c.buckets {
		n += len(entries)
	}
	return n
}

// Shadow partitions the view frustum into cascades and culls draw records
// per cascade.
type Shadow struct {
	Cascades  []Cascade
	resources resourceSets
}

// NewShadow splits the camera frustum between clip depth 1 and minZ into
// count cascades (DefaultCascades when count <= 0). lightDir is the direction
// light travels; blend mixes logarithmic (0) and linear (1) splits.
func NewShadow(camera math.Mat4, lightDir math.Vec3, minZ, blend float32, count int) *Shadow {
	depths := shadow.SplitDepths(camera, minZ, blend, count)
	inv := camera.Inverse()

	s := &Shadow{Cascades: make([]Cascade, len(depths)-1)}
	for i := range s.Cascades {
		s.Cascades[i] = newCascade(inv, lightDir, depths[i], depths[i+1])
	}

	logger.Debug("shadow cascades prepared",
		zap.Int("count", len(s.Cascades)),
		zap.Float32s("depths", depths))
	return s
}

// Append culls d into every cascade.
func (s *Shadow) Append(d *model.Drawdata) {
	res := s.resources.add(d)
	for i := range s.Cascades {
		s.Cascades[i].append(d, res)
	}
}

// Sort sorts every cascade.
func (s *Shadow) Sort() {
	for i := range s.Cascades {
		s.Cascades[i].Sort()
	}
}

// Resources returns the registered resource sets in append order.
func (s *Shadow) Resources() []ResourceSet {
	return s.resources
}

// Release drops the references taken by Append.
func (s *Shadow) Release() {
	s.resources.release()
}
