package model

import "github.com/Faultbox/scenegraph/pkg/math"

// AlphaMode is how a material treats base color alpha.
type AlphaMode int

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

func (m AlphaMode) String() string {
	switch m {
	case AlphaMask:
		return "mask"
	case AlphaBlend:
		return "blend"
	default:
		return "opaque"
	}
}

// PipelineMode is the fixed-function state a material needs. Draw records
// are bucketed by it.
type PipelineMode struct {
	Alpha       AlphaMode
	DoubleSided bool
}

// Less orders modes by alpha mode, then single-sided before double-sided.
func (p PipelineMode) Less(other PipelineMode) bool {
	if p.Alpha != other.Alpha {
		return p.Alpha < other.Alpha
	}
	return !p.DoubleSided && other.DoubleSided
}

func (p PipelineMode) String() string {
	if p.DoubleSided {
		return p.Alpha.String() + "+double-sided"
	}
	return p.Alpha.String()
}

// Material holds the parameters the core needs from a material.
// Textures and shading parameters belong to the renderer.
type Material struct {
	Name            string
	Pipeline        PipelineMode
	BaseColorFactor [4]float32
	EmissiveFactor  math.Vec3
	AlphaCutoff     float32
}

// DefaultMaterial is used by primitives without a material.
func DefaultMaterial() Material {
	return Material{
		Name:            "default",
		BaseColorFactor: [4]float32{1, 1, 1, 1},
		AlphaCutoff:     0.5,
	}
}

// MaterialCache owns a model's materials.
type MaterialCache struct {
	materials []Material
	fallback  Material
}

// NewMaterialCache creates a cache with the default material as fallback.
func NewMaterialCache(materials []Material) *MaterialCache {
	return &MaterialCache{materials: materials, fallback: DefaultMaterial()}
}

// Ref returns a reference that draw records carry.
func (c *MaterialCache) Ref() MaterialCacheRef {
	return MaterialCacheRef{cache: c}
}

// MaterialCacheRef is a shared, read-only view of a MaterialCache.
type MaterialCacheRef struct {
	cache *MaterialCache
}

// Len returns the number of materials.
func (r MaterialCacheRef) Len() int {
	if r.cache == nil {
		return 0
	}
	return len(r.cache.materials)
}

// Lookup returns material i, or the default for None and out-of-range indices.
func (r MaterialCacheRef) Lookup(i int) Material {
	if r.cache == nil {
		return DefaultMaterial()
	}
	if i < 0 || i >= len(r.cache.materials) {
		return r.cache.fallback
	}
	return r.cache.materials[i]
}

// Pipeline returns the pipeline mode of material i.
func (r MaterialCacheRef) Pipeline(i int) PipelineMode {
	return r.Lookup(i).Pipeline
}
