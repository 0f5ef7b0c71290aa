package gltfio

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	gomath "math"
	"slices"
	"testing"

	"github.com/qmuntal/gltf"
	"go.uber.org/multierr"

	"github.com/Faultbox/scenegraph/internal/engine/model"
	"github.com/Faultbox/scenegraph/pkg/math"
)

// docBuilder packs accessors into a single in-memory buffer.
type docBuilder struct {
	doc  *gltf.Document
	data []byte
}

func newDocBuilder() *docBuilder {
	return &docBuilder{doc: &gltf.Document{}}
}

func (b *docBuilder) view(raw []byte) int {
	for len(b.data)%4 != 0 {
		b.data = append(b.data, 0)
	}
	b.doc.BufferViews = append(b.doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: len(b.data),
		ByteLength: len(raw),
	})
	b.data = append(b.data, raw...)
	return len(b.doc.BufferViews) - 1
}

func (b *docBuilder) accessor(acc *gltf.Accessor) int {
	b.doc.Accessors = append(b.doc.Accessors, acc)
	return len(b.doc.Accessors) - 1
}

func (b *docBuilder) floats(t gltf.AccessorType, v ...float32) int {
	raw := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(raw[4*i:], gomath.Float32bits(x))
	}
	return b.accessor(&gltf.Accessor{
		BufferView:    model.Index(b.view(raw)),
		ComponentType: gltf.ComponentFloat,
		Count:         len(v) / componentCount(t),
		Type:          t,
	})
}

func (b *docBuilder) ushorts(normalized bool, t gltf.AccessorType, v ...uint16) int {
	raw := make([]byte, 2*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint16(raw[2*i:], x)
	}
	return b.accessor(&gltf.Accessor{
		BufferView:    model.Index(b.view(raw)),
		ComponentType: gltf.ComponentUshort,
		Normalized:    normalized,
		Count:         len(v) / componentCount(t),
		Type:          t,
	})
}

// sparse replaces elements of accessor base through a sparse section.
func (b *docBuilder) sparse(base int, indices []uint16, values ...float32) {
	iraw := make([]byte, 2*len(indices))
	for i, x := range indices {
		binary.LittleEndian.PutUint16(iraw[2*i:], x)
	}
	vraw := make([]byte, 4*len(values))
	for i, x := range values {
		binary.LittleEndian.PutUint32(vraw[4*i:], gomath.Float32bits(x))
	}
	b.doc.Accessors[base].Sparse = &gltf.Sparse{
		Count:   len(indices),
		Indices: gltf.SparseIndices{BufferView: b.view(iraw), ComponentType: gltf.ComponentUshort},
		Values:  gltf.SparseValues{BufferView: b.view(vraw)},
	}
}

// node returns a node with the transform defaults a decoded file carries.
func node(name string, children ...int) *gltf.Node {
	return &gltf.Node{Name: name, Children: children, Matrix: identityMatrix, Rotation: identityQuat, Scale: unitScale}
}

func (b *docBuilder) finish() *gltf.Document {
	b.doc.Buffers = []*gltf.Buffer{{ByteLength: len(b.data), Data: b.data}}
	return b.doc
}

// triangleDoc is a root node translated by (0, 1, 0) with a child holding
// one triangle mesh with a blend material.
func triangleDoc() *gltf.Document {
	b := newDocBuilder()
	pos := b.floats(gltf.AccessorVec3,
		-1, 0, 0,
		1, 0, 0,
		0, 2, -1,
	)
	idx := b.ushorts(false, gltf.AccessorScalar, 0, 1, 2)

	b.doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{gltf.POSITION: pos},
			Indices:    model.Index(idx),
			Material:   model.Index(0),
		}},
	}}
	b.doc.Materials = []*gltf.Material{{
		Name:           "glass",
		AlphaMode:      gltf.AlphaBlend,
		DoubleSided:    true,
		EmissiveFactor: [3]float64{0.5, 0, 0},
	}}
	root, tri := node("root", 1), node("tri")
	root.Translation = [3]float64{0, 1, 0}
	tri.Mesh = model.Index(0)
	b.doc.Nodes = []*gltf.Node{root, tri}
	b.doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}
	return b.finish()
}

func TestConvertTriangle(t *testing.T) {
	var progress Progress
	desc, err := Convert(triangleDoc(), Options{Workers: 2, Progress: &progress})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if len(desc.Roots) != 1 || desc.Roots[0] != 0 {
		t.Errorf("Roots = %v", desc.Roots)
	}
	root := desc.Nodes[0]
	if len(root.Translation) != 3 || root.Translation[1] != 1 {
		t.Errorf("root translation = %v", root.Translation)
	}
	if root.Rotation != nil || root.Scale != nil || root.Matrix != nil {
		t.Errorf("default rotation/scale/matrix should be dropped: %+v", root)
	}
	if desc.Nodes[1].Matrix != nil {
		t.Errorf("identity matrix should be dropped")
	}

	prim := desc.Meshes[0].Primitives[0]
	wantMin, wantMax := math.Vec3{X: -1, Y: 0, Z: -1}, math.Vec3{X: 1, Y: 2, Z: 0}
	if prim.Bounds.Min != wantMin || prim.Bounds.Max != wantMax {
		t.Errorf("Bounds = %+v", prim.Bounds)
	}
	geom, ok := prim.Geometry.(*Geometry)
	if !ok {
		t.Fatalf("Geometry is %T", prim.Geometry)
	}
	if geom.TriangleCount() != 1 || geom.Indices[2] != 2 {
		t.Errorf("geometry = %+v", geom)
	}

	mat := desc.Materials[0]
	if mat.Pipeline != (model.PipelineMode{Alpha: model.AlphaBlend, DoubleSided: true}) {
		t.Errorf("Pipeline = %v", mat.Pipeline)
	}
	if mat.EmissiveFactor.X != 0.5 || mat.BaseColorFactor != [4]float32{1, 1, 1, 1} {
		t.Errorf("material factors = %+v", mat)
	}

	if stage, frac := progress.Load(); stage != StagePostprocess || frac >= 0 {
		t.Errorf("progress = %v %v, want postprocess indeterminate", stage, frac)
	}

	m, err := model.New(*desc)
	if err != nil {
		t.Fatalf("model.New failed: %v", err)
	}
	dd := m.GenerateDrawdata(math.Identity(), nil, nil, nil)
	if len(dd.Drawcalls) != 1 {
		t.Fatalf("drawcalls = %d, want 1", len(dd.Drawcalls))
	}
	if got := dd.Drawcalls[0].Bounds.Min; got != (math.Vec3{X: -1, Y: 1, Z: -1}) {
		t.Errorf("world bounds min = %v", got)
	}
}

func TestRootNodes(t *testing.T) {
	scenes := func(n int) []*gltf.Scene {
		out := make([]*gltf.Scene, n)
		for i := range out {
			out[i] = &gltf.Scene{Nodes: []int{i}}
		}
		return out
	}

	tests := []struct {
		name     string
		doc      *gltf.Document
		override *int
		want     int
		wantErr  bool
	}{
		{"single scene", &gltf.Document{Scenes: scenes(1)}, nil, 0, false},
		{"default scene", &gltf.Document{Scenes: scenes(3), Scene: model.Index(2)}, nil, 2, false},
		{"override", &gltf.Document{Scenes: scenes(3), Scene: model.Index(2)}, model.Index(1), 1, false},
		{"no default", &gltf.Document{Scenes: scenes(2)}, nil, 0, true},
		{"no scenes", &gltf.Document{}, nil, 0, true},
		{"default out of range", &gltf.Document{Scenes: scenes(2), Scene: model.Index(5)}, nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roots, err := rootNodes(tt.doc, tt.override)
			if tt.wantErr {
				if !errors.Is(err, ErrNoScene) {
					t.Errorf("err = %v, want ErrNoScene", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(roots) != 1 || roots[0] != tt.want {
				t.Errorf("roots = %v, want [%d]", roots, tt.want)
			}
		})
	}
}

func TestConvertAnimations(t *testing.T) {
	b := newDocBuilder()
	times := b.floats(gltf.AccessorScalar, 0, 1)
	moves := b.floats(gltf.AccessorVec3, 0, 0, 0, 0, 4, 0)
	turns := b.floats(gltf.AccessorVec4, 0, 0, 0, 1, 0, 1, 0, 0)
	weights := b.floats(gltf.AccessorScalar, 0, 1)

	b.doc.Nodes = []*gltf.Node{node("a")}
	b.doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}
	b.doc.Animations = []*gltf.Animation{{
		Name: "move",
		Samplers: []*gltf.AnimationSampler{
			{Input: times, Output: moves, Interpolation: gltf.InterpolationLinear},
			{Input: times, Output: turns, Interpolation: gltf.InterpolationStep},
			{Input: times, Output: weights},
		},
		Channels: []*gltf.Channel{
			{Sampler: 0, Target: gltf.ChannelTarget{Node: model.Index(0), Path: gltf.TRSTranslation}},
			{Sampler: 1, Target: gltf.ChannelTarget{Node: model.Index(0), Path: gltf.TRSRotation}},
			{Sampler: 2, Target: gltf.ChannelTarget{Node: model.Index(0), Path: gltf.TRSWeights}},
			{Sampler: 0, Target: gltf.ChannelTarget{Path: gltf.TRSTranslation}},
		},
	}}

	desc, err := Convert(b.finish(), Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	clip := desc.Animations[0]
	if clip.Name != "move" || len(clip.Channels) != 2 {
		t.Fatalf("clip = %+v", clip)
	}
	if clip.Channels[1].Path != model.PathRotation || clip.Channels[1].Interpolation != model.InterpolationStep {
		t.Errorf("rotation channel = %+v", clip.Channels[1])
	}
	if len(clip.Channels[1].Values) != 8 {
		t.Errorf("rotation values = %v", clip.Channels[1].Values)
	}

	m, err := model.New(*desc)
	if err != nil {
		t.Fatalf("model.New failed: %v", err)
	}
	world := m.ComputeWorldMatrices(math.Identity(),
		m.ComputeOverrides([]model.AnimationKey{{Clip: model.ClipByName("move"), Time: 0.5}}))
	if got := world[0].Translation(); !got.ApproxEqual(math.Vec3{Y: 2}, 1e-5) {
		t.Errorf("animated translation = %v, want (0, 2, 0)", got)
	}
}

func TestConvertAnimationBadSampler(t *testing.T) {
	doc := &gltf.Document{
		Nodes:  []*gltf.Node{node("")},
		Scenes: []*gltf.Scene{{Nodes: []int{0}}},
		Animations: []*gltf.Animation{{
			Channels: []*gltf.Channel{
				{Sampler: 3, Target: gltf.ChannelTarget{Node: model.Index(0), Path: gltf.TRSScale}},
			},
		}},
	}
	_, err := Convert(doc, Options{})
	if !errors.Is(err, model.ErrInvalidIndex) {
		t.Errorf("err = %v, want ErrInvalidIndex", err)
	}
}

func TestConvertSkins(t *testing.T) {
	b := newDocBuilder()
	id, ibm := math.Identity(), math.Translate(0, -2, 0)
	flat := append(id[:], ibm[:]...)
	acc := b.floats(gltf.AccessorMat4, flat...)

	b.doc.Nodes = []*gltf.Node{node("", 1), node("")}
	b.doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}
	b.doc.Skins = []*gltf.Skin{
		{Name: "rig", Joints: []int{0, 1}, InverseBindMatrices: model.Index(acc)},
		{Name: "bare", Joints: []int{1}},
	}

	desc, err := Convert(b.finish(), Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	rig := desc.Skins[0]
	if len(rig.InverseBind) != 2 || rig.InverseBind[1] != ibm {
		t.Errorf("inverse bind = %v", rig.InverseBind)
	}
	if desc.Skins[1].InverseBind != nil {
		t.Error("skin without accessor should leave InverseBind nil")
	}
}

func TestReadFloatsErrors(t *testing.T) {
	b := newDocBuilder()
	vec3 := b.floats(gltf.AccessorVec3, 1, 2, 3)
	raw := b.ushorts(false, gltf.AccessorScalar, 7)
	norm := b.ushorts(true, gltf.AccessorScalar, 65535)
	truncated := b.accessor(&gltf.Accessor{
		BufferView:    model.Index(0),
		ComponentType: gltf.ComponentFloat,
		Count:         4,
		Type:          gltf.AccessorVec3,
	})
	badSparse := b.floats(gltf.AccessorVec3, 1, 2, 3)
	b.sparse(badSparse, []uint16{5}, 0, 0, 0)
	doc := b.finish()

	tests := []struct {
		name  string
		index int
		typ   gltf.AccessorType
		want  error
	}{
		{"wrong type", vec3, gltf.AccessorVec4, ErrUnsupportedAccessor},
		{"non-normalized integers", raw, gltf.AccessorScalar, ErrUnsupportedAccessor},
		{"past buffer end", truncated, gltf.AccessorVec3, ErrAccessorBounds},
		{"missing accessor", 99, gltf.AccessorVec3, ErrAccessorBounds},
		{"sparse index past count", badSparse, gltf.AccessorVec3, ErrAccessorBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := readFloats(doc, tt.index, tt.typ); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	v, err := readFloats(doc, norm, gltf.AccessorScalar)
	if err != nil || len(v) != 1 || v[0] != 1 {
		t.Errorf("normalized read = %v, %v", v, err)
	}
	idx, err := readIndices(doc, raw)
	if err != nil || idx[0] != 7 {
		t.Errorf("readIndices = %v, %v", idx, err)
	}
}

func TestDecodeMeshesAggregatesErrors(t *testing.T) {
	doc := triangleDoc()
	doc.Meshes = append(doc.Meshes,
		&gltf.Mesh{Name: "broken1", Primitives: []*gltf.Primitive{{Attributes: map[string]int{}}}},
		&gltf.Mesh{Name: "broken2", Primitives: []*gltf.Primitive{{Attributes: map[string]int{gltf.POSITION: 42}}}},
	)

	_, err := Convert(doc, Options{Workers: 3})
	if err == nil {
		t.Fatal("expected error")
	}
	if n := len(multierr.Errors(errors.Unwrap(err))); n != 2 {
		t.Errorf("aggregated %d errors, want 2: %v", n, err)
	}
	if !errors.Is(err, ErrUnsupportedAccessor) || !errors.Is(err, ErrAccessorBounds) {
		t.Errorf("err = %v", err)
	}
}

func TestStageString(t *testing.T) {
	for s, want := range map[Stage]string{
		StageNode:        "node",
		StageMesh:        "mesh",
		StageMaterial:    "material",
		StageAnimation:   "animation",
		StageSkin:        "skin",
		StagePostprocess: "postprocess",
		Stage(42):        "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("Stage(%d).String() = %q, want %q", s, got, want)
		}
	}
}

func TestReadFloatsSparse(t *testing.T) {
	b := newDocBuilder()
	dense := b.floats(gltf.AccessorVec3, 1, 1, 1, 2, 2, 2)
	b.sparse(dense, []uint16{1}, 5, 6, 7)
	zeroed := b.accessor(&gltf.Accessor{ComponentType: gltf.ComponentFloat, Count: 3, Type: gltf.AccessorScalar})
	b.sparse(zeroed, []uint16{2, 0}, 9, 4)
	plain := b.accessor(&gltf.Accessor{ComponentType: gltf.ComponentFloat, Count: 2, Type: gltf.AccessorScalar})
	doc := b.finish()

	tests := []struct {
		name  string
		index int
		typ   gltf.AccessorType
		want  []float32
	}{
		{"dense base", dense, gltf.AccessorVec3, []float32{1, 1, 1, 5, 6, 7}},
		{"no buffer view", zeroed, gltf.AccessorScalar, []float32{4, 0, 9}},
		{"zero filled", plain, gltf.AccessorScalar, []float32{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readFloats(doc, tt.index, tt.typ)
			if err != nil {
				t.Fatalf("readFloats failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestConvertSparsePositions(t *testing.T) {
	b := newDocBuilder()
	pos := b.floats(gltf.AccessorVec3,
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	)
	b.sparse(pos, []uint16{2}, 10, 10, 10)
	b.doc.Meshes = []*gltf.Mesh{{Primitives: []*gltf.Primitive{{Attributes: map[string]int{gltf.POSITION: pos}}}}}
	n := node("tri")
	n.Mesh = model.Index(0)
	b.doc.Nodes = []*gltf.Node{n}
	b.doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}

	desc, err := Convert(b.finish(), Options{Workers: 1})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	got := desc.Meshes[0].Primitives[0].Bounds
	wantMax := math.Vec3{X: 10, Y: 10, Z: 10}
	if got.Min != (math.Vec3{}) || got.Max != wantMax {
		t.Errorf("Bounds = %+v, want {0 0 0}-{10 10 10}", got)
	}
}

func TestConvertNodeDecodedDefaults(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		wantScale []float32
		wantRot   []float32
	}{
		{"absent fields", `{"name":"plain"}`, nil, nil},
		{"explicit zero scale", `{"scale":[0,0,0]}`, []float32{0, 0, 0}, nil},
		{"explicit unit scale", `{"scale":[1,1,1]}`, nil, nil},
		{"rotation", `{"rotation":[0,1,0,0]}`, nil, []float32{0, 1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n gltf.Node
			if err := json.Unmarshal([]byte(tt.json), &n); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			d := convertNode(&n)
			if !slices.Equal(d.Scale, tt.wantScale) || (d.Scale == nil) != (tt.wantScale == nil) {
				t.Errorf("Scale = %v, want %v", d.Scale, tt.wantScale)
			}
			if !slices.Equal(d.Rotation, tt.wantRot) || (d.Rotation == nil) != (tt.wantRot == nil) {
				t.Errorf("Rotation = %v, want %v", d.Rotation, tt.wantRot)
			}
			if d.Matrix != nil || d.Translation != nil {
				t.Errorf("unexpected matrix/translation: %+v", d)
			}
		})
	}
}
