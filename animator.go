package hazardmap

import "sort"

// FrameScheduler is the host capability to run fn after delayMs. The overlay
// uses it to request the next animation pass.
type FrameScheduler interface {
	Schedule(fn func(), delayMs int64)
}

// Animator tracks which entities are mid-morph. It is the single place the
// overlay asks "is anything still animating?" after a draw pass, which decides
// whether another pass is scheduled.
//
// There is no global animation manager beyond this: morphs are ticked by the
// overlay's draw pass, not by per-entity timers.
type Animator struct {
	timing Timing
	active map[EntityID]*Morph
	epoch  uint64
}

// NewAnimator returns an Animator using the given timing.
func NewAnimator(t Timing) *Animator {
	if t.DurationMs <= 0 {
		t.DurationMs = DefaultDurationMs
	}
	return &Animator{timing: t, active: make(map[EntityID]*Morph)}
}

// Timing returns the animator's morph timing.
func (a *Animator) Timing() Timing {
	return a.timing
}

// StartTransition begins a morph of m toward target and registers id as
// animating.
func (a *Animator) StartTransition(id EntityID, m *Morph, target Pose, nowMs int64) {
	m.Start(target, nowMs)
	a.active[id] = m
}

// Advance steps m to nowMs. Entities that finish are unregistered.
func (a *Animator) Advance(id EntityID, m *Morph, nowMs int64) Frame {
	f := m.Advance(nowMs, a.timing)
	if m.State == Idle {
		delete(a.active, id)
	}
	return f
}

// Tick advances the registered morph for id, if any. It is a no-op for ids
// that are not animating, including ids whose entity has been removed.
func (a *Animator) Tick(id EntityID, nowMs int64) (Frame, bool) {
	m, ok := a.active[id]
	if !ok {
		return Frame{}, false
	}
	return a.Advance(id, m, nowMs), true
}

// Forget unregisters id without touching its morph.
func (a *Animator) Forget(id EntityID) {
	delete(a.active, id)
}

// IsAnimating reports whether id is registered as morphing.
func (a *Animator) IsAnimating(id EntityID) bool {
	_, ok := a.active[id]
	return ok
}

// Animating reports whether any entity is morphing.
func (a *Animator) Animating() bool {
	return len(a.active) > 0
}

// Count returns the number of morphing entities.
func (a *Animator) Count() int {
	return len(a.active)
}

// Active returns the morphing entity ids, markers first, each kind in
// ascending id order.
func (a *Animator) Active() []EntityID {
	ids := make([]EntityID, 0, len(a.active))
	for id := range a.active {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Kind != ids[j].Kind {
			return ids[i].Kind < ids[j].Kind
		}
		return ids[i].ID < ids[j].ID
	})
	return ids
}

// Reset drops all animation state and starts a new epoch. Callbacks that
// captured an older epoch become no-ops.
func (a *Animator) Reset() {
	clear(a.active)
	a.epoch++
}

// Epoch identifies the current place snapshot.
func (a *Animator) Epoch() uint64 {
	return a.epoch
}

// --- Schedulers ---

type scheduledCall struct {
	dueMs int64
	seq   uint64
	fn    func()
}

// LoopScheduler is a FrameScheduler for hosts with their own update loop
// (ebiten's Update). Schedule queues the callback; RunDue, called once per
// tick, runs every callback whose time has come in due order.
type LoopScheduler struct {
	now   func() int64
	queue []scheduledCall
	seq   uint64
}

// NewLoopScheduler creates a scheduler reading the time from now (ms).
func NewLoopScheduler(now func() int64) *LoopScheduler {
	return &LoopScheduler{now: now}
}

// Schedule implements FrameScheduler.
func (s *LoopScheduler) Schedule(fn func(), delayMs int64) {
	s.seq++
	s.queue = append(s.queue, scheduledCall{dueMs: s.now() + delayMs, seq: s.seq, fn: fn})
}

// Pending returns the number of queued callbacks.
func (s *LoopScheduler) Pending() int {
	return len(s.queue)
}

// RunDue runs callbacks due at or before nowMs and returns how many ran.
// Callbacks scheduled while running are queued for a later call.
func (s *LoopScheduler) RunDue(nowMs int64) int {
	if len(s.queue) == 0 {
		return 0
	}
	sort.Slice(s.queue, func(i, j int) bool {
		if s.queue[i].dueMs != s.queue[j].dueMs {
			return s.queue[i].dueMs < s.queue[j].dueMs
		}
		return s.queue[i].seq < s.queue[j].seq
	})
	n := 0
	for n < len(s.queue) && s.queue[n].dueMs <= nowMs {
		n++
	}
	if n == 0 {
		return 0
	}
	due := make([]scheduledCall, n)
	copy(due, s.queue[:n])
	s.queue = append(s.queue[:0], s.queue[n:]...)
	for _, c := range due {
		c.fn()
	}
	return n
}
