// Package drawdata classifies a frame's draw records for the renderer: one
// view-sorted set for the camera and one culled set per shadow cascade.
package drawdata

import (
	"sort"

	"github.com/Faultbox/scenegraph/internal/engine/model"
)

// ResourceSet is what the renderer binds once per model: its materials and
// its joint table.
type ResourceSet struct {
	Materials model.MaterialCacheRef
	// Skinning is nil for models without drawn skins.
	Skinning *model.SkinningResource
}

// BucketKey groups records that share pipeline state.
type BucketKey struct {
	Pipeline model.PipelineMode
	Rigged   bool
}

// Less orders keys by pipeline mode, then static before rigged.
func (k BucketKey) Less(other BucketKey) bool {
	if k.Pipeline != other.Pipeline {
		return k.Pipeline.Less(other.Pipeline)
	}
	return !k.Rigged && other.Rigged
}

func bucketKey(d *model.Drawdata, dc *model.Drawcall) BucketKey {
	return BucketKey{Pipeline: d.Materials.Pipeline(dc.Material), Rigged: dc.Rigged()}
}

// resourceSets holds one acquired reference per appended model.
type resourceSets []ResourceSet

func (s *resourceSets) add(d *model.Drawdata) int {
	set := ResourceSet{Materials: d.Materials}
	if d.Skinning != nil {
		set.Skinning = d.Skinning.Acquire()
	}
	*s = append(*s, set)
	return len(*s) - 1
}

func (s *resourceSets) release() {
	for i := range *s {
		if sk := (*s)[i].Skinning; sk != nil {
			sk.Release()
		}
	}
	*s = nil
}

func sortedKeys[V any](m map[BucketKey]V) []BucketKey {
	keys := make([]BucketKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}
