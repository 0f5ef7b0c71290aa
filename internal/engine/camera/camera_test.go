package camera

import (
	gomath "math"
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/scenegraph/internal/engine/culling"
	"github.com/Faultbox/scenegraph/pkg/math"
)

func newTestCamera() *OrbitCamera {
	return NewOrbitCamera(Projection{FovY: gomath.Pi / 3, Aspect: 16.0 / 9.0, Near: 0.1}, 60, 6, 1)
}

func TestProjectionDepthRange(t *testing.T) {
	tests := []struct {
		name string
		far  float32
	}{
		{"finite", 100},
		{"infinite", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Projection{FovY: gomath.Pi / 2, Aspect: 1, Near: 0.1, Far: tt.far}
			m := p.Matrix()

			near := m.TransformPoint(math.Vec3{Z: -0.1}).Z
			if math32.Abs(near-1) > 1e-4 {
				t.Errorf("near depth = %v, want 1", near)
			}
			mid := m.TransformPoint(math.Vec3{Z: -10}).Z
			if mid <= 0 || mid >= 1 {
				t.Errorf("mid depth = %v, want in (0, 1)", mid)
			}
		})
	}
}

func TestFitToBoundsShowsBox(t *testing.T) {
	c := newTestCamera()
	box := culling.AABB{Min: math.Vec3{X: 10, Y: -2, Z: 5}, Max: math.Vec3{X: 30, Y: 8, Z: 15}}
	c.FitToBounds(box)

	if !c.Center().ApproxEqual(box.Center(), 1e-4) {
		t.Errorf("Center = %v, want %v", c.Center(), box.Center())
	}

	vp := c.ViewProjection()
	for _, corner := range box.Corners() {
		p := vp.TransformPoint(corner)
		if math32.Abs(p.X) > 1 || math32.Abs(p.Y) > 1 || p.Z <= 0 || p.Z > 1 {
			t.Errorf("corner %v projects outside clip space: %v", corner, p)
		}
	}
	if !c.Settled(1e-9) {
		t.Error("FitToBounds should not leave the camera moving")
	}
}

func TestFitToBoundsIgnoresEmpty(t *testing.T) {
	c := newTestCamera()
	before := c.Position()
	c.FitToBounds(culling.Empty())
	if c.Position() != before {
		t.Errorf("Position changed to %v", c.Position())
	}
}

func TestZoomIsSmoothed(t *testing.T) {
	c := newTestCamera()
	start := c.Distance()

	c.HandleZoom(5) // 10 * (1 - 0.5)
	if c.Distance() != start {
		t.Fatalf("Distance moved before Update: %v", c.Distance())
	}

	c.Update()
	first := c.Distance()
	if first >= start || first <= 5 {
		t.Errorf("after one frame Distance = %v, want in (5, %v)", first, start)
	}

	for i := 0; i < 600; i++ {
		c.Update()
	}
	if math32.Abs(c.Distance()-5) > 1e-3 {
		t.Errorf("settled Distance = %v, want 5", c.Distance())
	}
	if !c.Settled(1e-3) {
		t.Error("camera should be settled")
	}
}

func TestZoomClamped(t *testing.T) {
	c := newTestCamera()
	c.MaxDistance = 12
	c.HandleZoom(-100)
	for i := 0; i < 600; i++ {
		c.Update()
	}
	if math32.Abs(c.Distance()-12) > 1e-3 {
		t.Errorf("Distance = %v, want clamped to 12", c.Distance())
	}
}

func TestDragClampsPitch(t *testing.T) {
	c := newTestCamera()
	c.HandleDrag(0, 1e6)
	for i := 0; i < 600; i++ {
		c.Update()
	}

	// Pitch at MaxPitch puts the eye high above the center.
	offset := c.Position().Sub(c.Center())
	wantY := c.Distance() * math32.Sin(c.MaxPitch)
	if math32.Abs(offset.Y-wantY) > 1e-2 {
		t.Errorf("offset.Y = %v, want %v", offset.Y, wantY)
	}
}

func TestSetCenter(t *testing.T) {
	c := newTestCamera()
	target := math.Vec3{X: 1, Y: 2, Z: 3}
	c.SetCenter(target)
	for i := 0; i < 600; i++ {
		c.Update()
	}
	if !c.Center().ApproxEqual(target, 1e-3) {
		t.Errorf("Center = %v, want %v", c.Center(), target)
	}
}
