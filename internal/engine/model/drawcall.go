package model

import (
	"github.com/Faultbox/scenegraph/internal/engine/culling"
	"github.com/Faultbox/scenegraph/pkg/math"
)

// PipelineBinder is implemented by renderers that bind per-draw transform
// state. Static draws bind a world matrix, rigged draws an offset into the
// frame's joint table.
type PipelineBinder interface {
	BindStatic(world math.Mat4)
	BindRigged(jointOffset int)
}

// Placement is either StaticPlacement or RiggedPlacement.
type Placement interface {
	bind(b PipelineBinder)
}

// StaticPlacement positions a draw with a world matrix.
type StaticPlacement struct {
	World math.Mat4
}

func (p StaticPlacement) bind(b PipelineBinder) { b.BindStatic(p.World) }

// RiggedPlacement positions a draw through the joint matrix table.
type RiggedPlacement struct {
	JointOffset int
}

func (p RiggedPlacement) bind(b PipelineBinder) { b.BindRigged(p.JointOffset) }

// Drawcall is one primitive to render this frame.
type Drawcall struct {
	Node      int
	Bounds    culling.AABB
	Material  int
	Placement Placement
	Geometry  any
	// Emissive scales the material's emission.
	Emissive float32
}

// Rigged reports whether the draw is skinned.
func (d *Drawcall) Rigged() bool {
	_, ok := d.Placement.(RiggedPlacement)
	return ok
}

// Bind hands the draw's transform state to b.
func (d *Drawcall) Bind(b PipelineBinder) {
	d.Placement.bind(b)
}

// EmissionOverride scales the emission of one node's draws and light.
type EmissionOverride struct {
	Node       int
	Multiplier float32
}

// Drawdata is everything a model contributes to one frame.
type Drawdata struct {
	Drawcalls    []Drawcall
	NodeMatrices []math.Mat4
	// Skinning is nil when no skinned node is drawn.
	Skinning  *SkinningResource
	Materials MaterialCacheRef
	Lights    []LightInstance
}

// Release drops the CPU-side reference to the skinning resource.
func (d *Drawdata) Release() {
	if d.Skinning != nil {
		d.Skinning.Release()
		d.Skinning = nil
	}
}

// riggedBounds bounds the joint positions of a skin.
func riggedBounds(world []math.Mat4, joints []int) culling.AABB {
	b := culling.Empty()
	for _, j := range joints {
		b = b.Extend(world[j].Column(3).Project())
	}
	return b
}
