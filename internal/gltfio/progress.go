package gltfio

import (
	gomath "math"
	"sync/atomic"
)

// Stage is a phase of scene import.
type Stage uint32

const (
	StageNode Stage = iota
	StageMesh
	StageMaterial
	StageAnimation
	StageSkin
	StagePostprocess
)

func (s Stage) String() string {
	switch s {
	case StageNode:
		return "node"
	case StageMesh:
		return "mesh"
	case StageMaterial:
		return "material"
	case StageAnimation:
		return "animation"
	case StageSkin:
		return "skin"
	case StagePostprocess:
		return "postprocess"
	}
	return "unknown"
}

// Progress is the current import stage and its completion fraction, safe
// to read from other goroutines while an import runs. A negative fraction
// means the stage has no measurable progress.
type Progress struct {
	v atomic.Uint64
}

func (p *Progress) set(s Stage, fraction float32) {
	if p == nil {
		return
	}
	p.v.Store(uint64(s)<<32 | uint64(gomath.Float32bits(fraction)))
}

// Load returns the stage and fraction as one consistent snapshot.
func (p *Progress) Load() (Stage, float32) {
	v := p.v.Load()
	return Stage(v >> 32), gomath.Float32frombits(uint32(v))
}
