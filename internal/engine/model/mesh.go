package model

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/scenegraph/internal/engine/culling"
)

// Primitive is one drawable piece of a mesh.
type Primitive struct {
	// Bounds is the local-space bounding box.
	Bounds culling.AABB
	// Material indexes the model's material table, None for the default.
	Material int
	// Geometry is the renderer's handle for the uploaded vertex data.
	Geometry any
}

// Mesh is a list of primitives drawn with the same node transform.
type Mesh struct {
	Name       string
	Primitives []Primitive
}

// PrimitiveDesc describes a primitive for model construction.
type PrimitiveDesc struct {
	Bounds   culling.AABB
	Material *int
	Geometry any
}

// MeshDesc describes a mesh for model construction.
type MeshDesc struct {
	Name       string
	Primitives []PrimitiveDesc
}

func buildMeshes(descs []MeshDesc, materialCount int) ([]Mesh, int, error) {
	var errs error
	total := 0
	meshes := make([]Mesh, len(descs))
	for i, d := range descs {
		meshes[i] = Mesh{Name: d.Name, Primitives: make([]Primitive, len(d.Primitives))}
		for k, p := range d.Primitives {
			mat := optional(p.Material)
			if mat != None && (mat < 0 || mat >= materialCount) {
				errs = multierr.Append(errs, fmt.Errorf("mesh %d primitive %d material %d: %w", i, k, mat, ErrInvalidIndex))
			}
			meshes[i].Primitives[k] = Primitive{Bounds: p.Bounds, Material: mat, Geometry: p.Geometry}
		}
		total += len(d.Primitives)
	}
	if errs != nil {
		return nil, 0, errs
	}
	return meshes, total, nil
}
