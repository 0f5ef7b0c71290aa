package model

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/logger"
	"github.com/Faultbox/scenegraph/pkg/math"
)

// Path is the transform channel an animation channel drives.
type Path int

const (
	PathTranslation Path = iota
	PathRotation
	PathScale
)

func (p Path) String() string {
	switch p {
	case PathTranslation:
		return "translation"
	case PathRotation:
		return "rotation"
	case PathScale:
		return "scale"
	default:
		return fmt.Sprintf("Path(%d)", int(p))
	}
}

// width is the number of floats per keyframe value.
func (p Path) width() int {
	if p == PathRotation {
		return 4
	}
	return 3
}

// Interpolation selects how values between keyframes are produced.
type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
	InterpolationCubicSpline
)

// Channel is one sampled curve targeting a node property.
//
// Values are flattened: 3 floats per key for translation and scale, 4 for
// rotation (x, y, z, w). Cubic-spline channels store an in-tangent, value and
// out-tangent per key.
type Channel struct {
	Node          int
	Path          Path
	Interpolation Interpolation
	Times         []float32
	Values        []float32
}

func (c *Channel) validate(nodeCount int) error {
	if c.Node < 0 || c.Node >= nodeCount {
		return fmt.Errorf("target node %d: %w", c.Node, ErrInvalidIndex)
	}
	if c.Path < PathTranslation || c.Path > PathScale {
		return fmt.Errorf("%w: unknown path %d", ErrMalformedAnimation, int(c.Path))
	}
	per := c.Path.width()
	if c.Interpolation == InterpolationCubicSpline {
		per *= 3
	}
	if len(c.Values) != len(c.Times)*per {
		return fmt.Errorf("%w: %d values for %d keys of %s", ErrMalformedAnimation, len(c.Values), len(c.Times), c.Path)
	}
	for i := 1; i < len(c.Times); i++ {
		if c.Times[i] < c.Times[i-1] {
			return fmt.Errorf("%w: key times not ascending at %d", ErrMalformedAnimation, i)
		}
	}
	return nil
}

// key returns the value of keyframe k.
func (c *Channel) key(k int) []float32 {
	w := c.Path.width()
	if c.Interpolation == InterpolationCubicSpline {
		return c.Values[(3*k+1)*w : (3*k+2)*w]
	}
	return c.Values[k*w : (k+1)*w]
}

// tangent returns the in (0) or out (2) tangent of keyframe k.
func (c *Channel) tangent(k, which int) []float32 {
	w := c.Path.width()
	return c.Values[(3*k+which)*w : (3*k+which+1)*w]
}

// Sample evaluates the channel at time t, clamped to the key range.
// out must have room for the path width; it reports false for empty channels.
func (c *Channel) Sample(t float32, out []float32) bool {
	n := len(c.Times)
	if n == 0 {
		return false
	}
	if t <= c.Times[0] {
		copy(out, c.key(0))
		return true
	}
	if t >= c.Times[n-1] {
		copy(out, c.key(n-1))
		return true
	}

	next := sort.Search(n, func(i int) bool { return c.Times[i] > t })
	prev := next - 1
	dt := c.Times[next] - c.Times[prev]
	u := float32(0)
	if dt > 0 {
		u = (t - c.Times[prev]) / dt
	}

	switch c.Interpolation {
	case InterpolationStep:
		copy(out, c.key(prev))
	case InterpolationCubicSpline:
		p0, p1 := c.key(prev), c.key(next)
		m0, m1 := c.tangent(prev, 2), c.tangent(next, 0)
		u2 := u * u
		u3 := u2 * u
		h00 := 2*u3 - 3*u2 + 1
		h10 := u3 - 2*u2 + u
		h01 := -2*u3 + 3*u2
		h11 := u3 - u2
		for i := range p0 {
			out[i] = h00*p0[i] + h10*dt*m0[i] + h01*p1[i] + h11*dt*m1[i]
		}
		if c.Path == PathRotation {
			q := math.QuatFromArray([4]float32(out[:4])).Normalize()
			out[0], out[1], out[2], out[3] = q.X, q.Y, q.Z, q.W
		}
	default:
		a, b := c.key(prev), c.key(next)
		if c.Path == PathRotation {
			q := math.QuatFromArray([4]float32(a)).Slerp(math.QuatFromArray([4]float32(b)), u)
			out[0], out[1], out[2], out[3] = q.X, q.Y, q.Z, q.W
			return true
		}
		for i := range a {
			out[i] = a[i] + u*(b[i]-a[i])
		}
	}
	return true
}

// Clip is a named set of channels played together.
type Clip struct {
	Name     string
	Channels []Channel
}

// Duration returns the time of the last keyframe across all channels.
func (c *Clip) Duration() float32 {
	var d float32
	for i := range c.Channels {
		if n := len(c.Channels[i].Times); n > 0 && c.Channels[i].Times[n-1] > d {
			d = c.Channels[i].Times[n-1]
		}
	}
	return d
}

// Apply samples every channel at t and writes the results into overrides,
// replacing values left by earlier clips.
func (c *Clip) Apply(overrides []TransformOverride, t float32) {
	var buf [4]float32
	for i := range c.Channels {
		ch := &c.Channels[i]
		if ch.Node < 0 || ch.Node >= len(overrides) || !ch.Sample(t, buf[:]) {
			continue
		}
		o := &overrides[ch.Node]
		switch ch.Path {
		case PathTranslation:
			v := math.Vec3{X: buf[0], Y: buf[1], Z: buf[2]}
			o.Translation = &v
		case PathRotation:
			q := math.QuatFromArray(buf)
			o.Rotation = &q
		case PathScale:
			v := math.Vec3{X: buf[0], Y: buf[1], Z: buf[2]}
			o.Scale = &v
		}
	}
}

// ClipRef names a clip either by index or by name.
type ClipRef struct {
	index  int
	name   string
	byName bool
}

// ClipByIndex refers to a clip by its position in the model.
func ClipByIndex(i int) ClipRef {
	return ClipRef{index: i}
}

// ClipByName refers to a clip by name.
func ClipByName(name string) ClipRef {
	return ClipRef{name: name, byName: true}
}

func (r ClipRef) String() string {
	if r.byName {
		return fmt.Sprintf("%q", r.name)
	}
	return fmt.Sprintf("#%d", r.index)
}

// AnimationKey plays one clip at a time position.
type AnimationKey struct {
	Clip ClipRef
	Time float32
}

// ClipLibrary holds a model's clips and the name lookup built at load.
type ClipLibrary struct {
	clips  []Clip
	byName map[string]int
}

// NewClipLibrary validates the clips against the node count.
func NewClipLibrary(clips []Clip, nodeCount int) (*ClipLibrary, error) {
	var errs error
	lib := &ClipLibrary{clips: clips, byName: make(map[string]int, len(clips))}
	for ci := range clips {
		for chi := range clips[ci].Channels {
			if err := clips[ci].Channels[chi].validate(nodeCount); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("clip %d channel %d: %w", ci, chi, err))
			}
		}
		// Last clip wins on duplicate names.
		if name := clips[ci].Name; name != "" {
			lib.byName[name] = ci
		}
	}
	if errs != nil {
		return nil, errs
	}
	return lib, nil
}

// Len returns the number of clips.
func (l *ClipLibrary) Len() int { return len(l.clips) }

// Clips returns the clips in load order.
func (l *ClipLibrary) Clips() []Clip { return l.clips }

// Index resolves a clip name.
func (l *ClipLibrary) Index(name string) (int, bool) {
	i, ok := l.byName[name]
	return i, ok
}

// Resolve returns the clip a reference points to.
func (l *ClipLibrary) Resolve(r ClipRef) (*Clip, bool) {
	idx := r.index
	if r.byName {
		var ok bool
		if idx, ok = l.byName[r.name]; !ok {
			return nil, false
		}
	}
	if idx < 0 || idx >= len(l.clips) {
		return nil, false
	}
	return &l.clips[idx], true
}

// EvaluateOverrides applies keys in order and returns one override per node.
// Unresolvable clip references are skipped.
func (l *ClipLibrary) EvaluateOverrides(keys []AnimationKey, nodeCount int) []TransformOverride {
	overrides := make([]TransformOverride, nodeCount)
	for _, k := range keys {
		clip, ok := l.Resolve(k.Clip)
		if !ok {
			logger.Debug("skipping unknown animation clip", zap.Stringer("clip", k.Clip))
			continue
		}
		clip.Apply(overrides, k.Time)
	}
	return overrides
}
