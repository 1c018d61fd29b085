package hazardmap

import (
	"math"

	"github.com/tanema/gween/ease"
)

// Default morph timing.
const (
	DefaultDurationMs      = 500
	DefaultFrameIntervalMs = 16
)

// MorphState is the animation state of a marker or cluster.
type MorphState uint8

const (
	Idle     MorphState = iota // drawing current values unchanged
	Morphing                   // interpolating toward target values
)

// String returns "idle" or "morphing".
func (s MorphState) String() string {
	if s == Morphing {
		return "morphing"
	}
	return "idle"
}

// Pose is the drawable appearance of an entity: outline, fill, rotation.
type Pose struct {
	Shape    PolygonShape
	Color    Color
	Rotation float64 // degrees, clockwise
}

// Frame is one rendered step of a morph.
type Frame struct {
	Pose
	// Raw is the linear progress in [0, 1]; Eased is the curve output and may
	// exceed 1 with an overshoot curve. Both are 1 for idle entities.
	Raw, Eased float64
}

// Timing configures morph duration and easing.
type Timing struct {
	DurationMs int64
	// Ease maps linear progress to eased progress. nil uses ease.OutBack,
	// which overshoots past 1 before settling.
	Ease ease.TweenFunc
}

func (t Timing) eased(raw float64) float64 {
	fn := t.Ease
	if fn == nil {
		fn = ease.OutBack
	}
	return float64(fn(float32(raw), 0, 1, 1))
}

// Morph is the per-entity Idle/Morphing state machine. The zero value is an
// idle morph with an empty pose.
type Morph struct {
	State   MorphState
	StartMs int64
	Current Pose
	Target  Pose

	from    Pose
	last    Pose
	lastRaw float64
	eased   float64
}

// Reset sets the current pose and drops any in-flight transition.
func (m *Morph) Reset(p Pose) {
	*m = Morph{Current: p, Target: p, last: p, lastRaw: 1, eased: 1}
}

// Start begins a transition toward target at nowMs. The transition starts
// from the last rendered frame, so restarting mid-morph does not jump.
func (m *Morph) Start(target Pose, nowMs int64) {
	if m.State == Morphing {
		m.from = m.last
	} else {
		m.from = m.Current
	}
	m.Target = target
	m.StartMs = nowMs
	m.State = Morphing
	m.lastRaw = 0
	m.eased = 0
}

// Progress returns the eased progress of the last Advance.
func (m *Morph) Progress() float64 {
	return m.eased
}

// Advance computes the frame at nowMs. When raw progress reaches 1 the target
// is committed to Current and the state returns to Idle. Raw progress never
// regresses, even if nowMs goes backwards.
func (m *Morph) Advance(nowMs int64, t Timing) Frame {
	if m.State != Morphing {
		return Frame{Pose: m.Current, Raw: 1, Eased: 1}
	}
	raw := 1.0
	if t.DurationMs > 0 {
		raw = float64(nowMs-m.StartMs) / float64(t.DurationMs)
	}
	raw = math.Max(m.lastRaw, clamp01(raw))
	m.lastRaw = raw

	if raw >= 1 {
		m.Current = m.Target
		m.State = Idle
		m.last = m.Current
		m.eased = 1
		return Frame{Pose: m.Current, Raw: 1, Eased: 1}
	}

	e := t.eased(raw)
	m.eased = e
	f := Frame{Raw: raw, Eased: e}
	shape, ok := m.from.Shape.Lerp(m.Target.Shape, e)
	if !ok {
		shape = m.Current.Shape
	}
	f.Shape = shape
	f.Color = m.from.Color.Lerp(m.Target.Color, clamp01(e))
	f.Rotation = m.from.Rotation + (m.Target.Rotation-m.from.Rotation)*e
	m.last = f.Pose
	return f
}
