// Package model evaluates a loaded scene each frame: animation overrides,
// world transforms, joint matrices and draw records.
package model

import (
	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/logger"
	"github.com/Faultbox/scenegraph/pkg/math"
)

// Desc is a validated-on-load scene description.
type Desc struct {
	Nodes      []NodeDesc
	Roots      []int
	Meshes     []MeshDesc
	Skins      []SkinDesc
	Animations []Clip
	Materials  []Material
	Lights     []Light
}

// Model is an immutable scene ready for per-frame evaluation.
type Model struct {
	nodes          []Node
	roots          []int
	meshes         []Mesh
	skins          SkinList
	clips          *ClipLibrary
	materials      *MaterialCache
	lights         []Light
	topo           *Topology
	primitiveCount int
}

// New validates desc and builds a model.
func New(desc Desc) (*Model, error) {
	meshes, primitives, err := buildMeshes(desc.Meshes, len(desc.Materials))
	if err != nil {
		return nil, &LoadError{Stage: "meshes", Err: err}
	}
	nodes, err := buildNodes(desc.Nodes, len(desc.Meshes), len(desc.Skins), len(desc.Lights))
	if err != nil {
		return nil, &LoadError{Stage: "nodes", Err: err}
	}
	skins, err := buildSkins(desc.Skins, len(nodes))
	if err != nil {
		return nil, &LoadError{Stage: "skins", Err: err}
	}
	clips, err := NewClipLibrary(desc.Animations, len(nodes))
	if err != nil {
		return nil, &LoadError{Stage: "animations", Err: err}
	}
	topo, err := ResolveTopology(nodes, desc.Roots)
	if err != nil {
		return nil, &LoadError{Stage: "topology", Err: err}
	}

	m := &Model{
		nodes:          nodes,
		roots:          append([]int(nil), desc.Roots...),
		meshes:         meshes,
		skins:          skins,
		clips:          clips,
		materials:      NewMaterialCache(desc.Materials),
		lights:         desc.Lights,
		topo:           topo,
		primitiveCount: primitives,
	}

	logger.Info("model loaded",
		zap.Int("nodes", len(nodes)),
		zap.Int("meshes", len(meshes)),
		zap.Int("primitives", primitives),
		zap.Int("skins", len(skins)),
		zap.Int("animations", clips.Len()),
		zap.Int("shared_nodes", len(topo.Shared)))

	return m, nil
}

// NodeCount returns the number of nodes.
func (m *Model) NodeCount() int { return len(m.nodes) }

// Node returns node i.
func (m *Model) Node(i int) *Node { return &m.nodes[i] }

// Roots returns the scene root nodes.
func (m *Model) Roots() []int { return m.roots }

// Meshes returns the mesh table.
func (m *Model) Meshes() []Mesh { return m.meshes }

// Skins returns the skin table.
func (m *Model) Skins() SkinList { return m.skins }

// PrimitiveCount returns the number of primitives across all meshes.
func (m *Model) PrimitiveCount() int { return m.primitiveCount }

// Topology returns the resolved hierarchy.
func (m *Model) Topology() *Topology { return m.topo }

// Materials returns a reference to the model's material cache.
func (m *Model) Materials() MaterialCacheRef { return m.materials.Ref() }

// Animations returns the model's clips.
func (m *Model) Animations() []Clip { return m.clips.Clips() }

// AnimationIndex resolves a clip name.
func (m *Model) AnimationIndex(name string) (int, bool) { return m.clips.Index(name) }

// FindNodeByName returns the node with the given name. It fails when no node
// or more than one node carries the name.
func (m *Model) FindNodeByName(name string) (int, bool) {
	found := None
	for i := range m.nodes {
		if m.nodes[i].Name != name {
			continue
		}
		if found != None {
			return None, false
		}
		found = i
	}
	return found, found != None
}

// FindLightByName returns the first node carrying the named light.
func (m *Model) FindLightByName(name string) (int, Light, bool) {
	for i := range m.nodes {
		if l := m.nodes[i].Light; l != None && m.lights[l].Name == name {
			return i, m.lights[l], true
		}
	}
	return None, Light{}, false
}

// ComputeOverrides evaluates the animation keys in order.
func (m *Model) ComputeOverrides(keys []AnimationKey) []TransformOverride {
	return m.clips.EvaluateOverrides(keys, len(m.nodes))
}

// ComputeWorldMatrices evaluates world transforms for the given overrides.
func (m *Model) ComputeWorldMatrices(root math.Mat4, overrides []TransformOverride) []math.Mat4 {
	return ComputeWorldMatrices(m.nodes, m.topo, overrides, root)
}

// GenerateDrawdata evaluates one frame of the model.
//
// Unknown clips, hidden nodes and emission targets are ignored.
func (m *Model) GenerateDrawdata(root math.Mat4, animation []AnimationKey, emission []EmissionOverride, hidden []int) *Drawdata {
	world := m.ComputeWorldMatrices(root, m.ComputeOverrides(animation))

	hide := make([]bool, len(m.nodes))
	for _, h := range hidden {
		if h < 0 || h >= len(hide) {
			logger.Debug("ignoring unknown hidden node", zap.Int("node", h))
			continue
		}
		hide[h] = true
	}

	emissive := make(map[int]float32, len(emission))
	for _, e := range emission {
		if e.Node < 0 || e.Node >= len(m.nodes) || !m.topo.Renderable[e.Node] {
			logger.Debug("ignoring emission override", zap.Int("node", e.Node))
			continue
		}
		emissive[e.Node] = e.Multiplier
	}

	visible := func(n int) bool { return m.topo.Renderable[n] && !hide[n] }

	active := make([]bool, len(m.skins))
	for _, n := range m.topo.Order {
		node := &m.nodes[n]
		if visible(n) && node.HasMesh() && node.HasSkin() {
			active[node.Skin] = true
		}
	}
	joints, offsets := m.skins.ComputeJointMatrices(world, active)

	dd := &Drawdata{
		Drawcalls:    make([]Drawcall, 0, m.primitiveCount),
		NodeMatrices: world,
		Materials:    m.materials.Ref(),
	}
	if len(joints) > 0 {
		dd.Skinning = NewSkinningResource(joints)
	}

	for _, n := range m.topo.Order {
		if !visible(n) {
			continue
		}
		node := &m.nodes[n]

		mult, ok := emissive[n]
		if !ok {
			mult = 1
		}

		if node.HasLight() {
			l := m.lights[node.Light]
			l.Emission = l.Emission.Scale(mult)
			dd.Lights = append(dd.Lights, LightInstance{Node: n, Transform: world[n], Light: l})
		}
		if !node.HasMesh() {
			continue
		}

		mesh := &m.meshes[node.Mesh]
		if node.HasSkin() {
			skin := m.skins[node.Skin]
			jointBounds := riggedBounds(world, skin.Joints)
			for _, prim := range mesh.Primitives {
				dd.Drawcalls = append(dd.Drawcalls, Drawcall{
					Node:      n,
					Bounds:    jointBounds.Expand(prim.Bounds.Diagonal()),
					Material:  prim.Material,
					Placement: RiggedPlacement{JointOffset: offsets[node.Skin]},
					Geometry:  prim.Geometry,
					Emissive:  mult,
				})
			}
			continue
		}

		for _, prim := range mesh.Primitives {
			dd.Drawcalls = append(dd.Drawcalls, Drawcall{
				Node:      n,
				Bounds:    prim.Bounds.Transform(world[n]),
				Material:  prim.Material,
				Placement: StaticPlacement{World: world[n]},
				Geometry:  prim.Geometry,
				Emissive:  mult,
			})
		}
	}

	return dd
}
