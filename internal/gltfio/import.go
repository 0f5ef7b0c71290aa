// Package gltfio imports glTF 2.0 scenes (.gltf/.glb) into model
// descriptors.
package gltfio

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/engine/model"
	"github.com/Faultbox/scenegraph/internal/logger"
	"github.com/Faultbox/scenegraph/pkg/math"
)

// ErrNoScene is returned when the root scene cannot be determined.
var ErrNoScene = errors.New("no scene to load")

// Options controls an import.
type Options struct {
	// Workers bounds parallel mesh decoding; 0 uses GOMAXPROCS.
	Workers int
	// Scene overrides the document's scene selection.
	Scene *int
	// Progress, when set, is updated as the import advances.
	Progress *Progress
}

// Open reads a glTF or GLB file and converts it.
func Open(path string, opts Options) (*model.Desc, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf %s: %w", path, err)
	}
	desc, err := Convert(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	return desc, nil
}

// Convert builds a model descriptor from a decoded document.
func Convert(doc *gltf.Document, opts Options) (*model.Desc, error) {
	log := logger.Named("gltfio")
	desc := &model.Desc{}

	opts.Progress.set(StageNode, -1)
	roots, err := rootNodes(doc, opts.Scene)
	if err != nil {
		return nil, err
	}
	desc.Roots = roots
	desc.Nodes = make([]model.NodeDesc, len(doc.Nodes))
	for i, n := range doc.Nodes {
		desc.Nodes[i] = convertNode(n)
	}

	opts.Progress.set(StageMesh, 0)
	if desc.Meshes, err = decodeMeshes(doc, opts.Workers, opts.Progress); err != nil {
		return nil, fmt.Errorf("meshes: %w", err)
	}

	opts.Progress.set(StageMaterial, 0)
	desc.Materials = make([]model.Material, len(doc.Materials))
	for i, m := range doc.Materials {
		desc.Materials[i] = convertMaterial(m)
		opts.Progress.set(StageMaterial, float32(i+1)/float32(len(doc.Materials)))
	}

	opts.Progress.set(StageAnimation, -1)
	if desc.Animations, err = convertAnimations(doc); err != nil {
		return nil, fmt.Errorf("animations: %w", err)
	}

	opts.Progress.set(StageSkin, -1)
	if desc.Skins, err = convertSkins(doc); err != nil {
		return nil, fmt.Errorf("skins: %w", err)
	}

	opts.Progress.set(StagePostprocess, -1)
	log.Debug("document converted",
		zap.Int("nodes", len(desc.Nodes)),
		zap.Int("meshes", len(desc.Meshes)),
		zap.Int("materials", len(desc.Materials)),
		zap.Int("animations", len(desc.Animations)),
		zap.Int("skins", len(desc.Skins)))
	return desc, nil
}

// rootNodes picks the scene to load: the override if given, the only scene
// if there is one, otherwise the document's default scene.
func rootNodes(doc *gltf.Document, override *int) ([]int, error) {
	var index int
	switch {
	case override != nil:
		index = *override
	case len(doc.Scenes) == 1:
		index = 0
	case doc.Scene == nil:
		return nil, fmt.Errorf("%w: %d scenes and no default", ErrNoScene, len(doc.Scenes))
	default:
		index = *doc.Scene
	}
	if index < 0 || index >= len(doc.Scenes) {
		return nil, fmt.Errorf("%w: scene %d of %d", ErrNoScene, index, len(doc.Scenes))
	}
	return append([]int(nil), doc.Scenes[index].Nodes...), nil
}

var (
	identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	identityQuat   = [4]float64{0, 0, 0, 1}
	unitScale      = [3]float64{1, 1, 1}
)

func toFloat32s(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// convertNode maps a node. Fields equal to their glTF defaults are treated as
// absent; decoding fills those defaults in for fields a file omits, so any
// other value, zero scale included, is explicit. An all-zero matrix only
// comes from documents built in code and is treated as absent.
func convertNode(n *gltf.Node) model.NodeDesc {
	d := model.NodeDesc{
		Name:     n.Name,
		Children: append([]int(nil), n.Children...),
		Mesh:     n.Mesh,
		Skin:     n.Skin,
	}

	if n.Matrix != identityMatrix && n.Matrix != ([16]float64{}) {
		d.Matrix = toFloat32s(n.Matrix[:])
		return d
	}
	if n.Translation != ([3]float64{}) {
		d.Translation = toFloat32s(n.Translation[:])
	}
	if n.Rotation != identityQuat {
		d.Rotation = toFloat32s(n.Rotation[:])
	}
	if n.Scale != unitScale {
		d.Scale = toFloat32s(n.Scale[:])
	}
	return d
}

func convertMaterial(m *gltf.Material) model.Material {
	mat := model.DefaultMaterial()
	mat.Name = m.Name
	mat.Pipeline = model.PipelineMode{DoubleSided: m.DoubleSided}

	switch m.AlphaMode {
	case gltf.AlphaMask:
		mat.Pipeline.Alpha = model.AlphaMask
	case gltf.AlphaBlend:
		mat.Pipeline.Alpha = model.AlphaBlend
	default:
		mat.Pipeline.Alpha = model.AlphaOpaque
	}
	if m.AlphaCutoff != nil {
		mat.AlphaCutoff = float32(*m.AlphaCutoff)
	}
	if m.PBRMetallicRoughness != nil && m.PBRMetallicRoughness.BaseColorFactor != nil {
		f := m.PBRMetallicRoughness.BaseColorFactor
		mat.BaseColorFactor = [4]float32{float32(f[0]), float32(f[1]), float32(f[2]), float32(f[3])}
	}
	mat.EmissiveFactor = math.Vec3{
		X: float32(m.EmissiveFactor[0]),
		Y: float32(m.EmissiveFactor[1]),
		Z: float32(m.EmissiveFactor[2]),
	}
	return mat
}

func convertSkins(doc *gltf.Document) ([]model.SkinDesc, error) {
	var errs error
	skins := make([]model.SkinDesc, len(doc.Skins))
	for i, s := range doc.Skins {
		skins[i] = model.SkinDesc{Name: s.Name, Joints: append([]int(nil), s.Joints...)}
		if s.InverseBindMatrices == nil {
			continue
		}

		flat, err := readFloats(doc, *s.InverseBindMatrices, gltf.AccessorMat4)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("skin %d %q: %w", i, s.Name, err))
			continue
		}
		ibm := make([]math.Mat4, len(flat)/16)
		for k := range ibm {
			ibm[k], _ = math.Mat4FromSlice(flat[16*k : 16*k+16])
		}
		skins[i].InverseBind = ibm
	}
	if errs != nil {
		return nil, errs
	}
	return skins, nil
}

var channelPaths = map[gltf.TRSProperty]model.Path{
	gltf.TRSTranslation: model.PathTranslation,
	gltf.TRSRotation:    model.PathRotation,
	gltf.TRSScale:       model.PathScale,
}

var interpolations = map[gltf.Interpolation]model.Interpolation{
	gltf.InterpolationLinear:      model.InterpolationLinear,
	gltf.InterpolationStep:        model.InterpolationStep,
	gltf.InterpolationCubicSpline: model.InterpolationCubicSpline,
}

func convertAnimations(doc *gltf.Document) ([]model.Clip, error) {
	var errs error
	clips := make([]model.Clip, len(doc.Animations))
	for i, a := range doc.Animations {
		clips[i] = model.Clip{Name: a.Name}
		for k, ch := range a.Channels {
			c, ok, err := convertChannel(doc, a, ch)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("animation %d %q channel %d: %w", i, a.Name, k, err))
				continue
			}
			if ok {
				clips[i].Channels = append(clips[i].Channels, c)
			}
		}
	}
	if errs != nil {
		return nil, errs
	}
	return clips, nil
}

// convertChannel reports ok=false for channels the model does not animate:
// morph weights and channels without a target node.
func convertChannel(doc *gltf.Document, a *gltf.Animation, ch *gltf.Channel) (model.Channel, bool, error) {
	path, ok := channelPaths[ch.Target.Path]
	if !ok || ch.Target.Node == nil {
		logger.Debug("animation channel skipped", zap.String("animation", a.Name))
		return model.Channel{}, false, nil
	}
	if ch.Sampler < 0 || ch.Sampler >= len(a.Samplers) {
		return model.Channel{}, false, fmt.Errorf("sampler %d: %w", ch.Sampler, model.ErrInvalidIndex)
	}
	s := a.Samplers[ch.Sampler]

	times, err := readFloats(doc, s.Input, gltf.AccessorScalar)
	if err != nil {
		return model.Channel{}, false, fmt.Errorf("input: %w", err)
	}
	valueType := gltf.AccessorVec3
	if path == model.PathRotation {
		valueType = gltf.AccessorVec4
	}
	values, err := readFloats(doc, s.Output, valueType)
	if err != nil {
		return model.Channel{}, false, fmt.Errorf("output: %w", err)
	}

	return model.Channel{
		Node:          *ch.Target.Node,
		Path:          path,
		Interpolation: interpolations[s.Interpolation],
		Times:         times,
		Values:        values,
	}, true, nil
}
