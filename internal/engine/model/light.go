package model

import "github.com/Faultbox/scenegraph/pkg/math"

// LightType distinguishes punctual light kinds.
type LightType int

const (
	LightPoint LightType = iota
	LightSpot
	LightDirectional
)

func (t LightType) String() string {
	switch t {
	case LightSpot:
		return "spot"
	case LightDirectional:
		return "directional"
	default:
		return "point"
	}
}

// Light is a punctual light attached to nodes.
type Light struct {
	Name string
	Type LightType
	// Emission is color × intensity.
	Emission math.Vec3
	// Range of zero means unlimited.
	Range     float32
	InnerCone float32
	OuterCone float32
}

// LightInstance is a light placed in the world for one frame.
type LightInstance struct {
	Node      int
	Transform math.Mat4
	Light     Light
}

// Position returns the world position of the light.
func (l LightInstance) Position() math.Vec3 {
	return l.Transform.Translation()
}

// Direction returns the world direction the light points along (-Z).
func (l LightInstance) Direction() math.Vec3 {
	return l.Transform.TransformDirection(math.Vec3{Z: -1}).Normalize()
}
