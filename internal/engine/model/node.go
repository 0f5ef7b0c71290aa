package model

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/scenegraph/pkg/math"
)

// None marks an absent mesh, skin, light or parent.
const None = -1

// Index returns a pointer to i, for optional indices in descriptors.
func Index(i int) *int {
	return &i
}

// TransformOverride replaces individual channels of a node's local transform
// for one frame. A nil channel keeps the base value.
type TransformOverride struct {
	Translation *math.Vec3
	Rotation    *math.Quat
	Scale       *math.Vec3
}

// IsEmpty reports whether no channel is overridden.
func (o TransformOverride) IsEmpty() bool {
	return o.Translation == nil && o.Rotation == nil && o.Scale == nil
}

// LocalTransform is either a TRS or a Matrix.
type LocalTransform interface {
	localMatrix(o TransformOverride) math.Mat4
}

// TRS is a decomposed local transform.
type TRS struct {
	Translation math.Vec3
	Rotation    math.Quat
	Scale       math.Vec3
}

// IdentityTRS returns the transform with no translation, rotation or scale.
func IdentityTRS() TRS {
	return TRS{Rotation: math.QuatIdentity(), Scale: math.Splat(1)}
}

// Apply returns t with the overridden channels replaced.
func (t TRS) Apply(o TransformOverride) TRS {
	if o.Translation != nil {
		t.Translation = *o.Translation
	}
	if o.Rotation != nil {
		t.Rotation = *o.Rotation
	}
	if o.Scale != nil {
		t.Scale = *o.Scale
	}
	return t
}

// Matrix composes translation × rotation × scale.
func (t TRS) Matrix() math.Mat4 {
	return math.FromTRS(t.Translation, t.Rotation, t.Scale)
}

func (t TRS) localMatrix(o TransformOverride) math.Mat4 {
	return t.Apply(o).Matrix()
}

// Matrix is a raw local matrix that cannot be decomposed.
type Matrix math.Mat4

func (m Matrix) localMatrix(o TransformOverride) math.Mat4 {
	if o.IsEmpty() {
		return math.Mat4(m)
	}
	// An override replaces the whole matrix with an identity-based TRS.
	return IdentityTRS().Apply(o).Matrix()
}

// Node is one entry of the scene hierarchy.
type Node struct {
	Name      string
	Children  []int
	Mesh      int
	Skin      int
	Light     int
	Transform LocalTransform
}

// HasMesh reports whether a mesh is attached.
func (n *Node) HasMesh() bool { return n.Mesh != None }

// HasSkin reports whether a skin is attached.
func (n *Node) HasSkin() bool { return n.Skin != None }

// HasLight reports whether a light is attached.
func (n *Node) HasLight() bool { return n.Light != None }

// LocalMatrix returns the node's local transform merged with o.
func (n *Node) LocalMatrix(o TransformOverride) math.Mat4 {
	if n.Transform == nil {
		return IdentityTRS().localMatrix(o)
	}
	return n.Transform.localMatrix(o)
}

// NodeDesc is the raw node data handed over by a scene importer.
// Transform arrays are either empty or of exact glTF length; Matrix excludes the
// TRS arrays.
type NodeDesc struct {
	Name        string
	Children    []int
	Mesh        *int
	Skin        *int
	Light       *int
	Matrix      []float32
	Translation []float32
	Rotation    []float32
	Scale       []float32
}

func optional(i *int) int {
	if i == nil {
		return None
	}
	return *i
}

// transform validates the descriptor arrays and builds the local transform.
func (d *NodeDesc) transform() (LocalTransform, error) {
	var err error
	check := func(name string, v []float32, n int) {
		if len(v) != 0 && len(v) != n {
			err = multierr.Append(err, fmt.Errorf("%w: %s has %d values, want %d", ErrMalformedTransform, name, len(v), n))
		}
	}
	check("matrix", d.Matrix, 16)
	check("translation", d.Translation, 3)
	check("rotation", d.Rotation, 4)
	check("scale", d.Scale, 3)
	if err != nil {
		return nil, err
	}

	if len(d.Matrix) == 16 {
		if len(d.Translation)+len(d.Rotation)+len(d.Scale) != 0 {
			return nil, fmt.Errorf("%w: matrix combined with translation/rotation/scale", ErrMalformedTransform)
		}
		m, _ := math.Mat4FromSlice(d.Matrix)
		return Matrix(m), nil
	}

	t := IdentityTRS()
	if len(d.Translation) == 3 {
		t.Translation = math.Vec3{X: d.Translation[0], Y: d.Translation[1], Z: d.Translation[2]}
	}
	if len(d.Rotation) == 4 {
		t.Rotation = math.QuatFromArray([4]float32(d.Rotation)).Normalize()
	}
	if len(d.Scale) == 3 {
		t.Scale = math.Vec3{X: d.Scale[0], Y: d.Scale[1], Z: d.Scale[2]}
	}
	return t, nil
}

// buildNodes converts descriptors into nodes, checking attachment indices
// against the table sizes.
func buildNodes(descs []NodeDesc, meshes, skins, lights int) ([]Node, error) {
	var errs error
	nodes := make([]Node, len(descs))

	inRange := func(node int, what string, idx *int, n int) {
		if idx != nil && (*idx < 0 || *idx >= n) {
			errs = multierr.Append(errs, fmt.Errorf("node %d %s %d: %w", node, what, *idx, ErrInvalidIndex))
		}
	}

	for i := range descs {
		d := &descs[i]
		tr, err := d.transform()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("node %d: %w", i, err))
		}
		inRange(i, "mesh", d.Mesh, meshes)
		inRange(i, "skin", d.Skin, skins)
		inRange(i, "light", d.Light, lights)
		for _, c := range d.Children {
			if c < 0 || c >= len(descs) {
				errs = multierr.Append(errs, fmt.Errorf("node %d child %d: %w", i, c, ErrInvalidIndex))
			}
		}

		nodes[i] = Node{
			Name:      d.Name,
			Children:  append([]int(nil), d.Children...),
			Mesh:      optional(d.Mesh),
			Skin:      optional(d.Skin),
			Light:     optional(d.Light),
			Transform: tr,
		}
	}
	if errs != nil {
		return nil, errs
	}
	return nodes, nil
}
