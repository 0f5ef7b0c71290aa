package model

import "github.com/Faultbox/scenegraph/pkg/math"

// ComputeWorldMatrices propagates transforms down the hierarchy in one pass
// over the topological order. Top-level nodes are parented to root.
// overrides may be shorter than nodes; missing entries are empty.
func ComputeWorldMatrices(nodes []Node, topo *Topology, overrides []TransformOverride, root math.Mat4) []math.Mat4 {
	world := make([]math.Mat4, len(nodes))
	for _, idx := range topo.Order {
		var o TransformOverride
		if idx < len(overrides) {
			o = overrides[idx]
		}
		parent := root
		if p := topo.Parents[idx]; p != None {
			parent = world[p]
		}
		world[idx] = parent.Mul(nodes[idx].LocalMatrix(o))
	}
	return world
}
