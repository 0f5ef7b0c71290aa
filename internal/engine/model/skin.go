package model

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/Faultbox/scenegraph/pkg/math"
)

// Skin binds mesh vertices to joint nodes.
type Skin struct {
	Name        string
	Joints      []int
	InverseBind []math.Mat4
}

// SkinDesc is the importer-facing skin description. A nil InverseBind means
// identity for every joint.
type SkinDesc struct {
	Name        string
	Joints      []int
	InverseBind []math.Mat4
}

// SkinList is the model's skin table.
type SkinList []Skin

func buildSkins(descs []SkinDesc, nodeCount int) (SkinList, error) {
	var errs error
	skins := make(SkinList, len(descs))
	for i, d := range descs {
		for _, j := range d.Joints {
			if j < 0 || j >= nodeCount {
				errs = multierr.Append(errs, fmt.Errorf("skin %d joint %d: %w", i, j, ErrInvalidIndex))
			}
		}
		ibm := d.InverseBind
		switch {
		case ibm == nil:
			ibm = make([]math.Mat4, len(d.Joints))
			for k := range ibm {
				ibm[k] = math.Identity()
			}
		case len(ibm) != len(d.Joints):
			errs = multierr.Append(errs, fmt.Errorf("%w: skin %d has %d inverse bind matrices for %d joints",
				ErrMalformedTransform, i, len(ibm), len(d.Joints)))
		}
		skins[i] = Skin{Name: d.Name, Joints: d.Joints, InverseBind: ibm}
	}
	if errs != nil {
		return nil, errs
	}
	return skins, nil
}

// ComputeJointMatrices packs world × inverse-bind for every active skin into
// one table, in skin order. offsets[i] is the first joint of skin i in the
// table, or None when the skin is inactive.
func (l SkinList) ComputeJointMatrices(world []math.Mat4, active []bool) (joints []math.Mat4, offsets []int) {
	offsets = make([]int, len(l))
	for i, skin := range l {
		if i >= len(active) || !active[i] {
			offsets[i] = None
			continue
		}
		offsets[i] = len(joints)
		for k, node := range skin.Joints {
			joints = append(joints, world[node].Mul(skin.InverseBind[k]))
		}
	}
	return joints, offsets
}

// SkinningResource is the per-frame joint table shared between draw records
// and the GPU upload step. It is released when the last holder calls Release.
type SkinningResource struct {
	joints []math.Mat4
	refs   atomic.Int32

	mu       sync.Mutex
	hooks    []func()
	released bool
}

// NewSkinningResource wraps a joint table with a reference count of one.
func NewSkinningResource(joints []math.Mat4) *SkinningResource {
	r := &SkinningResource{joints: joints}
	r.refs.Store(1)
	return r
}

// Joints returns the joint matrix table.
func (r *SkinningResource) Joints() []math.Mat4 {
	return r.joints
}

// Acquire adds a reference and returns r.
func (r *SkinningResource) Acquire() *SkinningResource {
	r.refs.Add(1)
	return r
}

// Release drops a reference. The last release runs the registered hooks.
func (r *SkinningResource) Release() {
	switch n := r.refs.Add(-1); {
	case n == 0:
		r.mu.Lock()
		hooks := r.hooks
		r.hooks = nil
		r.released = true
		r.mu.Unlock()
		for _, h := range hooks {
			h()
		}
	case n < 0:
		panic("model: SkinningResource released more times than acquired")
	}
}

// OnRelease registers teardown work for when the last reference goes away.
// fn runs immediately when the resource is already released.
func (r *SkinningResource) OnRelease(fn func()) {
	r.mu.Lock()
	if r.released {
		r.mu.Unlock()
		fn()
		return
	}
	r.hooks = append(r.hooks, fn)
	r.mu.Unlock()
}

// RefCount returns the current number of holders.
func (r *SkinningResource) RefCount() int {
	return int(r.refs.Load())
}
