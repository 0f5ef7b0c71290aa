package gltfio

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/qmuntal/gltf"
	"go.uber.org/multierr"

	"github.com/Faultbox/scenegraph/internal/engine/culling"
	"github.com/Faultbox/scenegraph/internal/engine/model"
	"github.com/Faultbox/scenegraph/pkg/math"
)

// Geometry is the decoded vertex data of one primitive. It travels with the
// primitive as its opaque geometry handle.
type Geometry struct {
	Positions []math.Vec3
	Normals   []math.Vec3
	// Indices is nil for non-indexed primitives.
	Indices []uint32
}

// TriangleCount returns the number of triangles, assuming a triangle list.
func (g *Geometry) TriangleCount() int {
	if g.Indices != nil {
		return len(g.Indices) / 3
	}
	return len(g.Positions) / 3
}

func readVec3s(doc *gltf.Document, index int) ([]math.Vec3, error) {
	flat, err := readFloats(doc, index, gltf.AccessorVec3)
	if err != nil {
		return nil, err
	}
	out := make([]math.Vec3, len(flat)/3)
	for i := range out {
		out[i] = math.Vec3{X: flat[3*i], Y: flat[3*i+1], Z: flat[3*i+2]}
	}
	return out, nil
}

func decodePrimitive(doc *gltf.Document, prim *gltf.Primitive) (model.PrimitiveDesc, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return model.PrimitiveDesc{}, fmt.Errorf("%w: primitive has no POSITION", ErrUnsupportedAccessor)
	}

	geom := &Geometry{}
	var err error
	if geom.Positions, err = readVec3s(doc, posIdx); err != nil {
		return model.PrimitiveDesc{}, fmt.Errorf("positions: %w", err)
	}
	if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if geom.Normals, err = readVec3s(doc, normIdx); err != nil {
			return model.PrimitiveDesc{}, fmt.Errorf("normals: %w", err)
		}
	}
	if prim.Indices != nil {
		if geom.Indices, err = readIndices(doc, *prim.Indices); err != nil {
			return model.PrimitiveDesc{}, fmt.Errorf("indices: %w", err)
		}
	}

	bounds := culling.Empty()
	for _, p := range geom.Positions {
		bounds = bounds.Extend(p)
	}

	return model.PrimitiveDesc{
		Bounds:   bounds,
		Material: prim.Material,
		Geometry: geom,
	}, nil
}

// decodeMeshes decodes every mesh on a bounded worker pool. Failures are
// collected for all meshes rather than stopping at the first.
func decodeMeshes(doc *gltf.Document, workers int, progress *Progress) ([]model.MeshDesc, error) {
	meshes := make([]model.MeshDesc, len(doc.Meshes))
	if len(meshes) == 0 {
		return meshes, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	pool := worker.NewDynamicWorkerPool(min(workers, len(meshes)), len(meshes), 5*time.Second)
	defer pool.Stop()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
		done atomic.Int32
	)
	for i, m := range doc.Meshes {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: m.Name,
			Do: func() (any, error) {
				defer wg.Done()

				desc := model.MeshDesc{Name: m.Name, Primitives: make([]model.PrimitiveDesc, 0, len(m.Primitives))}
				for k, prim := range m.Primitives {
					p, err := decodePrimitive(doc, prim)
					if err != nil {
						err = fmt.Errorf("mesh %d %q primitive %d: %w", i, m.Name, k, err)
						mu.Lock()
						errs = multierr.Append(errs, err)
						mu.Unlock()
						return nil, err
					}
					desc.Primitives = append(desc.Primitives, p)
				}
				meshes[i] = desc

				n := done.Add(1)
				progress.set(StageMesh, float32(n)/float32(len(meshes)))
				return nil, nil
			},
		})
	}
	wg.Wait()

	if errs != nil {
		return nil, errs
	}
	return meshes, nil
}
