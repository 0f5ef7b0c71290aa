package lighting

import (
	"github.com/Faultbox/scenegraph/internal/engine/model"
	"github.com/Faultbox/scenegraph/pkg/math"
)

// MaxPointLights is the maximum number of point lights in one buffer.
const MaxPointLights = 32

// defaultRange stands in for lights with unlimited range.
const defaultRange = 100

// PointLight is a positional light ready for upload.
type PointLight struct {
	Position  math.Vec3
	Color     math.Vec3 // RGB (0-1 range)
	Range     float32
	Intensity float32
}

// PointLightBuffer holds a frame's point lights.
type PointLightBuffer struct {
	Lights []PointLight
}

// NewPointLightBuffer creates an empty point light buffer.
func NewPointLightBuffer() *PointLightBuffer {
	return &PointLightBuffer{
		Lights: make([]PointLight, 0, MaxPointLights),
	}
}

// FromInstances converts the positional lights of a frame. Emission is
// split into a color with components in [0, 1] and an intensity.
// Directional lights are skipped.
func FromInstances(instances []model.LightInstance) []PointLight {
	lights := make([]PointLight, 0, len(instances))
	for _, inst := range instances {
		if inst.Light.Type == model.LightDirectional {
			continue
		}

		e := inst.Light.Emission
		intensity := max(e.X, e.Y, e.Z)
		color := math.Vec3{}
		if intensity > 0 {
			color = e.Scale(1 / intensity)
		}

		r := inst.Light.Range
		if r <= 0 {
			r = defaultRange
		}

		lights = append(lights, PointLight{
			Position:  inst.Position(),
			Color:     color,
			Range:     r,
			Intensity: intensity,
		})
	}
	return lights
}

// Directional returns the travel direction of the first directional light.
func Directional(instances []model.LightInstance) (math.Vec3, bool) {
	for _, inst := range instances {
		if inst.Light.Type == model.LightDirectional {
			return inst.Direction(), true
		}
	}
	return math.Vec3{}, false
}

// Clear removes all lights from the buffer.
func (b *PointLightBuffer) Clear() {
	b.Lights = b.Lights[:0]
}

// Len returns the number of buffered lights.
func (b *PointLightBuffer) Len() int {
	return len(b.Lights)
}

// AddLight adds a point light to the buffer.
// Returns false if buffer is full.
func (b *PointLightBuffer) AddLight(light PointLight) bool {
	if len(b.Lights) >= MaxPointLights {
		return false
	}
	b.Lights = append(b.Lights, light)
	return true
}

// SetLights replaces all lights in the buffer.
// Truncates to MaxPointLights if necessary.
func (b *PointLightBuffer) SetLights(lights []PointLight) {
	b.Clear()
	b.Lights = append(b.Lights, lights[:min(len(lights), MaxPointLights)]...)
}

// Positions returns positions as a flat slice.
// Format: [x0, y0, z0, x1, y1, z1, ...]
func (b *PointLightBuffer) Positions() []float32 {
	result := make([]float32, MaxPointLights*3)
	for i, light := range b.Lights {
		v := light.Position.Array()
		copy(result[i*3:], v[:])
	}
	return result
}

// Colors returns colors as a flat slice.
func (b *PointLightBuffer) Colors() []float32 {
	result := make([]float32, MaxPointLights*3)
	for i, light := range b.Lights {
		v := light.Color.Array()
		copy(result[i*3:], v[:])
	}
	return result
}

// Ranges returns ranges as a flat slice.
func (b *PointLightBuffer) Ranges() []float32 {
	result := make([]float32, MaxPointLights)
	for i, light := range b.Lights {
		result[i] = light.Range
	}
	return result
}

// Intensities returns intensities as a flat slice.
func (b *PointLightBuffer) Intensities() []float32 {
	result := make([]float32, MaxPointLights)
	for i, light := range b.Lights {
		result[i] = light.Intensity
	}
	return result
}
