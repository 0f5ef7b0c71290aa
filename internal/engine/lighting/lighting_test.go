package lighting

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/scenegraph/internal/engine/model"
	"github.com/Faultbox/scenegraph/pkg/math"
)

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float32
		want     math.Vec3
	}{
		{"overhead", 0, 90, math.Vec3{Y: 1}},
		{"horizon south", 0, 0, math.Vec3{Z: 1}},
		{"horizon east", 90, 0, math.Vec3{X: 1}},
		{"45 degrees", 0, 45, math.Vec3{Y: math32.Sqrt(2) / 2, Z: math32.Sqrt(2) / 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SunDirection(tt.lon, tt.lat)
			if !got.ApproxEqual(tt.want, 1e-5) {
				t.Errorf("SunDirection(%v, %v) = %v, want %v", tt.lon, tt.lat, got, tt.want)
			}
			if math32.Abs(got.Length()-1) > 1e-5 {
				t.Errorf("length = %v", got.Length())
			}
			if travel := LightTravel(tt.lon, tt.lat); travel != got.Neg() {
				t.Errorf("LightTravel = %v", travel)
			}
		})
	}
}

func instances() []model.LightInstance {
	return []model.LightInstance{
		{
			Node:      0,
			Transform: math.Translate(1, 2, 3),
			Light:     model.Light{Name: "lamp", Type: model.LightPoint, Emission: math.Vec3{X: 4, Y: 2, Z: 0}},
		},
		{
			Node:      1,
			Transform: math.Identity(),
			Light:     model.Light{Name: "sun", Type: model.LightDirectional, Emission: math.Splat(1)},
		},
		{
			Node:      2,
			Transform: math.Translate(0, 5, 0),
			Light:     model.Light{Name: "spot", Type: model.LightSpot, Emission: math.Splat(0.5), Range: 20},
		},
	}
}

func TestFromInstances(t *testing.T) {
	lights := FromInstances(instances())
	if len(lights) != 2 {
		t.Fatalf("got %d lights, want 2", len(lights))
	}

	lamp := lights[0]
	if lamp.Position != (math.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("Position = %v", lamp.Position)
	}
	if lamp.Intensity != 4 || lamp.Color != (math.Vec3{X: 1, Y: 0.5, Z: 0}) {
		t.Errorf("Color = %v, Intensity = %v", lamp.Color, lamp.Intensity)
	}
	if lamp.Range != defaultRange {
		t.Errorf("Range = %v, want default %v", lamp.Range, defaultRange)
	}
	if lights[1].Range != 20 {
		t.Errorf("spot Range = %v, want 20", lights[1].Range)
	}
}

func TestDirectional(t *testing.T) {
	dir, ok := Directional(instances())
	if !ok {
		t.Fatal("directional light not found")
	}
	if !dir.ApproxEqual(math.Vec3{Z: -1}, 1e-6) {
		t.Errorf("Direction = %v, want -Z", dir)
	}

	if _, ok := Directional(instances()[:1]); ok {
		t.Error("found directional light in point-only list")
	}
}

func TestPointLightBuffer(t *testing.T) {
	b := NewPointLightBuffer()
	for i := 0; i < MaxPointLights; i++ {
		if !b.AddLight(PointLight{Range: float32(i)}) {
			t.Fatalf("AddLight %d rejected", i)
		}
	}
	if b.AddLight(PointLight{}) {
		t.Error("AddLight should reject when full")
	}

	many := make([]PointLight, MaxPointLights+5)
	many[1] = PointLight{Position: math.Vec3{X: 7, Y: 8, Z: 9}, Intensity: 3}
	b.SetLights(many)
	if b.Len() != MaxPointLights {
		t.Errorf("Len = %d, want %d", b.Len(), MaxPointLights)
	}

	pos := b.Positions()
	if pos[3] != 7 || pos[4] != 8 || pos[5] != 9 {
		t.Errorf("Positions[3:6] = %v", pos[3:6])
	}
	if b.Intensities()[1] != 3 {
		t.Errorf("Intensities[1] = %v", b.Intensities()[1])
	}
	if len(b.Colors()) != MaxPointLights*3 || len(b.Ranges()) != MaxPointLights {
		t.Error("flat slices should be sized for MaxPointLights")
	}

	b.Clear()
	if b.Len() != 0 {
		t.Errorf("Len after Clear = %d", b.Len())
	}
}
