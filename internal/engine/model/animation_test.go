package model

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/scenegraph/pkg/math"
)

func translationChannel(node int, interp Interpolation, times []float32, values ...float32) Channel {
	return Channel{Node: node, Path: PathTranslation, Interpolation: interp, Times: times, Values: values}
}

func TestChannelSampleLinear(t *testing.T) {
	ch := translationChannel(0, InterpolationLinear, []float32{0, 1, 3}, 0, 0, 0, 10, 0, 0, 10, 20, 0)

	tests := []struct {
		name string
		t    float32
		want math.Vec3
	}{
		{"before start clamps", -5, math.Vec3{}},
		{"first key", 0, math.Vec3{}},
		{"midway", 0.5, math.Vec3{X: 5}},
		{"exact key", 1, math.Vec3{X: 10}},
		{"second segment", 2, math.Vec3{X: 10, Y: 10}},
		{"after end clamps", 9, math.Vec3{X: 10, Y: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out [4]float32
			if !ch.Sample(tt.t, out[:]) {
				t.Fatal("Sample returned false")
			}
			got := math.Vec3{X: out[0], Y: out[1], Z: out[2]}
			if !got.ApproxEqual(tt.want, 1e-5) {
				t.Errorf("Sample(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestChannelSampleStep(t *testing.T) {
	ch := translationChannel(0, InterpolationStep, []float32{0, 1}, 1, 1, 1, 2, 2, 2)
	var out [4]float32
	ch.Sample(0.99, out[:])
	if out[0] != 1 {
		t.Errorf("step before second key = %v, want 1", out[0])
	}
	ch.Sample(1, out[:])
	if out[0] != 2 {
		t.Errorf("step at second key = %v, want 2", out[0])
	}
}

func TestChannelSampleCubicSpline(t *testing.T) {
	// Per key: in-tangent, value, out-tangent.
	ch := translationChannel(0, InterpolationCubicSpline, []float32{0, 1},
		0, 0, 0, 0, 0, 0, 2, 0, 0,
		0, 0, 0, 10, 0, 0, 0, 0, 0,
	)
	var out [4]float32
	ch.Sample(0.5, out[:])
	// h00 = h01 = 0.5, h10 = 0.125 with out-tangent 2.
	if gomath.Abs(float64(out[0]-5.25)) > 1e-5 {
		t.Errorf("cubic midpoint = %v, want 5.25", out[0])
	}
	ch.Sample(1, out[:])
	if out[0] != 10 {
		t.Errorf("cubic end = %v, want 10", out[0])
	}
}

func TestChannelSampleRotation(t *testing.T) {
	q0 := math.QuatIdentity()
	q1 := math.QuatFromAxisAngle(math.Vec3{Y: 1}, gomath.Pi/2)
	ch := Channel{
		Path:   PathRotation,
		Times:  []float32{0, 2},
		Values: []float32{q0.X, q0.Y, q0.Z, q0.W, q1.X, q1.Y, q1.Z, q1.W},
	}
	var out [4]float32
	ch.Sample(1, out[:])
	got := math.QuatFromArray(out).ToMat4()
	want := math.QuatFromAxisAngle(math.Vec3{Y: 1}, gomath.Pi/4).ToMat4()
	if !got.ApproxEqual(want, 1e-4) {
		t.Errorf("slerp midpoint = %v, want %v", got, want)
	}
}

func TestChannelSampleEmpty(t *testing.T) {
	var ch Channel
	var out [4]float32
	if ch.Sample(1, out[:]) {
		t.Error("empty channel should produce no value")
	}
}

func TestClipDuration(t *testing.T) {
	clip := Clip{Channels: []Channel{
		translationChannel(0, InterpolationLinear, []float32{0, 1.5}, make([]float32, 6)...),
		translationChannel(0, InterpolationLinear, []float32{0.5, 4}, make([]float32, 6)...),
	}}
	if d := clip.Duration(); d != 4 {
		t.Errorf("Duration = %v, want 4", d)
	}
}

func newLibrary(t *testing.T, nodeCount int, clips ...Clip) *ClipLibrary {
	t.Helper()
	lib, err := NewClipLibrary(clips, nodeCount)
	if err != nil {
		t.Fatalf("NewClipLibrary: %v", err)
	}
	return lib
}

func TestEvaluateOverridesOverwriteOrder(t *testing.T) {
	first := Clip{Name: "first", Channels: []Channel{translationChannel(1, InterpolationStep, []float32{0}, 1, 2, 3)}}
	second := Clip{Name: "second", Channels: []Channel{translationChannel(1, InterpolationStep, []float32{0}, 7, 8, 9)}}
	lib := newLibrary(t, 2, first, second)

	tests := []struct {
		name string
		keys []AnimationKey
		want math.Vec3
	}{
		{"second wins", []AnimationKey{{Clip: ClipByIndex(0)}, {Clip: ClipByIndex(1)}}, math.Vec3{X: 7, Y: 8, Z: 9}},
		{"first wins when last", []AnimationKey{{Clip: ClipByIndex(1)}, {Clip: ClipByIndex(0)}}, math.Vec3{X: 1, Y: 2, Z: 3}},
		{"by name", []AnimationKey{{Clip: ClipByName("first")}, {Clip: ClipByName("second")}}, math.Vec3{X: 7, Y: 8, Z: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := lib.EvaluateOverrides(tt.keys, 2)
			if o[1].Translation == nil || *o[1].Translation != tt.want {
				t.Fatalf("translation = %v, want %v", o[1].Translation, tt.want)
			}
			if !o[0].IsEmpty() {
				t.Errorf("untouched node has override %+v", o[0])
			}
		})
	}
}

func TestEvaluateOverridesMergesChannels(t *testing.T) {
	move := Clip{Channels: []Channel{translationChannel(0, InterpolationLinear, []float32{0}, 1, 0, 0)}}
	grow := Clip{Channels: []Channel{{Node: 0, Path: PathScale, Times: []float32{0}, Values: []float32{2, 2, 2}}}}
	lib := newLibrary(t, 1, move, grow)

	o := lib.EvaluateOverrides([]AnimationKey{{Clip: ClipByIndex(0)}, {Clip: ClipByIndex(1)}}, 1)
	if o[0].Translation == nil || o[0].Scale == nil {
		t.Fatalf("expected translation and scale, got %+v", o[0])
	}
	if o[0].Rotation != nil {
		t.Error("rotation should not be overridden")
	}
}

func TestEvaluateOverridesSkipsUnknownClips(t *testing.T) {
	clip := Clip{Name: "walk", Channels: []Channel{translationChannel(0, InterpolationLinear, []float32{0}, 1, 1, 1)}}
	lib := newLibrary(t, 1, clip)

	keys := []AnimationKey{
		{Clip: ClipByIndex(5)},
		{Clip: ClipByIndex(-1)},
		{Clip: ClipByName("run")},
	}
	o := lib.EvaluateOverrides(keys, 1)
	if !o[0].IsEmpty() {
		t.Errorf("unknown clips should leave overrides empty, got %+v", o[0])
	}
}

func TestClipLibraryIndex(t *testing.T) {
	lib := newLibrary(t, 1, Clip{Name: "idle"}, Clip{Name: "walk"}, Clip{Name: "idle"})
	if i, ok := lib.Index("walk"); !ok || i != 1 {
		t.Errorf("Index(walk) = %d, %v", i, ok)
	}
	if i, _ := lib.Index("idle"); i != 2 {
		t.Errorf("duplicate name should resolve to last clip, got %d", i)
	}
	if _, ok := lib.Index("swim"); ok {
		t.Error("Index(swim) should fail")
	}
}

func TestNewClipLibraryValidation(t *testing.T) {
	tests := []struct {
		name string
		ch   Channel
		want error
	}{
		{"node out of range", translationChannel(3, InterpolationLinear, []float32{0}, 0, 0, 0), ErrInvalidIndex},
		{"value count", translationChannel(0, InterpolationLinear, []float32{0, 1}, 0, 0, 0), ErrMalformedAnimation},
		{"cubic value count", translationChannel(0, InterpolationCubicSpline, []float32{0}, 0, 0, 0), ErrMalformedAnimation},
		{"descending times", translationChannel(0, InterpolationLinear, []float32{1, 0}, 0, 0, 0, 0, 0, 0), ErrMalformedAnimation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClipLibrary([]Clip{{Channels: []Channel{tt.ch}}}, 1)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
