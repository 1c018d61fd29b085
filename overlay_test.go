package hazardmap

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type overlayFixture struct {
	ov       *Overlay
	proj     *linearProjector
	sched    *manualScheduler
	sink     *recordingSink
	canvas   *RecordingCanvas
	selected []*Place
	calls    int
}

// newOverlayFixture places A(0,0), B(100,0) and C(300,0) on a 1 px/degree
// projector: A and B cluster at radius 150, C stays alone.
func newOverlayFixture(t *testing.T, mutate func(*Options)) *overlayFixture {
	t.Helper()
	f := &overlayFixture{
		proj:   newLinearProjector(),
		sched:  &manualScheduler{},
		sink:   &recordingSink{},
		canvas: &RecordingCanvas{},
	}
	opts := Options{
		Palette:         testPalette(t),
		Policy:          &CyclePolicy{Step: 45},
		Scheduler:       f.sched,
		Density:         1,
		ClusterRadiusDp: 150,
		DurationMs:      500,
		Sink:            f.sink,
		OnSelectionChanged: func(p *Place) {
			f.calls++
			f.selected = append(f.selected, p)
		},
	}
	if mutate != nil {
		mutate(&opts)
	}
	ov, err := NewOverlay(f.proj, opts)
	if err != nil {
		t.Fatalf("NewOverlay: %v", err)
	}
	f.ov = ov
	ov.SetPlaces([]Place{placeAt(1, 0, 0), placeAt(2, 100, 0), placeAt(3, 300, 0)}, NoSelection)
	return f
}

func (f *overlayFixture) draw(nowMs int64) bool {
	f.canvas.Reset()
	return f.ov.Draw(f.canvas, nowMs)
}

func (f *overlayFixture) lastSelected() *Place {
	if len(f.selected) == 0 {
		return nil
	}
	return f.selected[len(f.selected)-1]
}

func TestNewOverlayRejectsBadInput(t *testing.T) {
	if _, err := NewOverlay(nil, Options{}); err == nil {
		t.Error("nil projector should fail")
	}
	bad := &Palette{Shapes: []PolygonShape{BuiltinShapes(8)[0], BuiltinShapes(9)[0]}, Colors: []Color{AccentPrimary}}
	if _, err := NewOverlay(newLinearProjector(), Options{Palette: bad}); err == nil {
		t.Error("mismatched palette should fail")
	}
}

func TestParseReselectPolicy(t *testing.T) {
	if p, err := ParseReselectPolicy("Deselect"); err != nil || p != ReselectDeselect {
		t.Errorf("got %v, %v", p, err)
	}
	if p, err := ParseReselectPolicy(""); err != nil || p != ReselectReshuffle {
		t.Errorf("got %v, %v", p, err)
	}
	if _, err := ParseReselectPolicy("toggle"); err == nil {
		t.Error("expected error")
	}
}

func TestOverlayDrawClustersAndBadges(t *testing.T) {
	f := newOverlayFixture(t, nil)
	if !f.ov.NeedsRedraw() {
		t.Error("SetPlaces should request a redraw")
	}
	if !f.draw(0) {
		t.Fatal("Draw returned false")
	}
	if f.ov.NeedsRedraw() {
		t.Error("Draw should clear the redraw flag")
	}

	cl := f.ov.Clusters()
	if len(cl) != 2 || cl[0].Len() != 2 || cl[1].Len() != 1 {
		t.Fatalf("clusters = %d", len(cl))
	}
	if got := f.canvas.Count("fill"); got != 2 {
		t.Errorf("fills = %d, want 2 (one aggregate, one marker)", got)
	}
	if badges := f.canvas.Badges(); len(badges) != 1 || badges[0] != "2" {
		t.Errorf("badges = %v, want [2]", badges)
	}
	if f.ov.Animating() || len(f.sched.calls) != 0 {
		t.Error("an idle pass must not request another frame")
	}

	items := f.ov.DrawList()
	if len(items) != 2 || items[0].Target.Kind != EntityCluster || items[1].Target.MarkerID != 3 {
		t.Errorf("draw list = %+v", items)
	}
}

func TestOverlayDrawSkipsInvalidViewport(t *testing.T) {
	f := newOverlayFixture(t, nil)
	f.proj.Invalid = true
	if f.draw(0) {
		t.Error("Draw should report false for an invalid viewport")
	}
	if len(f.canvas.calls) != 0 {
		t.Error("nothing should be drawn")
	}
	if _, hit := f.ov.Tap(Vec2{300, 0}, 0); hit {
		t.Error("hit test against a skipped frame should find nothing")
	}

	f.proj.Invalid = false
	f.proj.Bounds = orb.Bound{Min: orb.Point{5, 5}, Max: orb.Point{5, 5}}
	if f.draw(0) {
		t.Error("empty bounds should skip the frame")
	}
}

func TestOverlayCullsOutsideExpandedBounds(t *testing.T) {
	f := newOverlayFixture(t, nil)
	// Bounds ±100 expand to ±150: A and B stay, C at 300 is culled.
	f.proj.Bounds = orb.Bound{Min: orb.Point{-100, -100}, Max: orb.Point{100, 100}}
	f.draw(0)
	if cl := f.ov.Clusters(); len(cl) != 1 || cl[0].Len() != 2 {
		t.Errorf("clusters = %d, want only the A+B cluster", len(cl))
	}
}

func TestOverlayTapMarkerSelectsAndAnimates(t *testing.T) {
	f := newOverlayFixture(t, nil)
	f.draw(0)
	m := f.ov.Store().Marker(3)
	shape := m.ShapeIndex

	target, hit := f.ov.Tap(Vec2{310, 20}, 100)
	if !hit || target.Kind != EntityMarker || target.MarkerID != 3 {
		t.Fatalf("Tap = %+v, %v", target, hit)
	}
	if p := f.lastSelected(); p == nil || p.ID != 3 {
		t.Errorf("callback place = %v, want 3", p)
	}
	if !m.Active() || f.ov.Selected() == nil || f.ov.Selected().ID != 3 {
		t.Error("marker 3 should be active")
	}
	if m.ShapeIndex == shape || m.Morph.State != Morphing {
		t.Error("tap should start a reshuffle transition")
	}
	if !f.ov.NeedsRedraw() {
		t.Error("tap should request a redraw")
	}
	ev := f.sink.events[len(f.sink.events)-1]
	if ev.Kind != SelectMarker || ev.MarkerID != 3 || ev.Place.ID != 3 || ev.TimeMs != 100 {
		t.Errorf("event = %+v", ev)
	}

	// Active marker carries the accent stroke.
	f.draw(100)
	found := false
	for _, c := range f.canvas.calls {
		if c.op == "stroke" && c.color == AccentPrimary {
			found = true
		}
	}
	if !found {
		t.Error("active marker should be outlined with the accent color")
	}
}

func TestOverlaySchedulesUntilIdle(t *testing.T) {
	f := newOverlayFixture(t, nil)
	f.draw(0)
	f.ov.Tap(Vec2{300, 0}, 0)

	f.draw(0)
	if len(f.sched.calls) != 1 || f.sched.delays[0] != DefaultFrameIntervalMs {
		t.Fatalf("scheduled %d frames (delays %v), want 1 at %d ms", len(f.sched.calls), f.sched.delays, DefaultFrameIntervalMs)
	}
	f.draw(16)
	if len(f.sched.calls) != 1 {
		t.Error("only one follow-up may be pending at a time")
	}

	passes := 0
	for now := int64(16); f.sched.runAll() > 0; now += 16 {
		if !f.ov.NeedsRedraw() {
			t.Fatal("frame callback should request a redraw")
		}
		f.draw(now)
		passes++
		if passes > 100 {
			t.Fatal("animation never settled")
		}
	}
	if f.ov.Animating() {
		t.Error("animation should be idle once no frame is requested")
	}
	m := f.ov.Store().Marker(3)
	if m.Morph.State != Idle || m.Morph.Current.Shape.Name != m.Morph.Target.Shape.Name {
		t.Error("marker should settle on its target")
	}
	if passes < 25 || passes > 40 {
		t.Errorf("passes = %d, want about 500/16", passes)
	}
}

func TestOverlayRetapActiveReshufflesAndStaysActive(t *testing.T) {
	f := newOverlayFixture(t, nil)
	f.draw(0)
	f.ov.Tap(Vec2{300, 0}, 0)
	for now := int64(0); now <= 600; now += 100 {
		f.draw(now)
	}
	m := f.ov.Store().Marker(3)
	before := m.Morph.Current
	shape, color := m.ShapeIndex, m.ColorIndex

	f.ov.Tap(Vec2{300, 0}, 1000)
	if !m.Active() {
		t.Error("re-tapped marker should stay active")
	}
	if m.Morph.State != Morphing || m.ShapeIndex == shape || m.ColorIndex == color {
		t.Error("re-tap should start a new reshuffle")
	}
	f.draw(1600)
	if m.Morph.Current.Rotation == before.Rotation {
		t.Error("reshuffle should assign a fresh rotation")
	}
	if p := f.lastSelected(); p == nil || p.ID != 3 {
		t.Error("callback should report the place again")
	}
}

func TestOverlayRetapWithDeselectPolicy(t *testing.T) {
	f := newOverlayFixture(t, func(o *Options) { o.Reselect = ReselectDeselect })
	f.draw(0)
	f.ov.Tap(Vec2{300, 0}, 0)
	_, hit := f.ov.Tap(Vec2{300, 0}, 700)
	if hit {
		t.Error("re-tap under the deselect policy should report no hit")
	}
	if f.ov.Selected() != nil || f.lastSelected() != nil {
		t.Error("selection should be cleared")
	}
	if f.sink.events[len(f.sink.events)-1].Kind != Deselect {
		t.Error("event should be a deselect")
	}
}

func TestOverlayTapEmptyDeselects(t *testing.T) {
	f := newOverlayFixture(t, nil)
	f.draw(0)
	f.ov.Tap(Vec2{300, 0}, 0)
	f.draw(600)
	m := f.ov.Store().Marker(3)
	shape := m.ShapeIndex

	target, hit := f.ov.Tap(Vec2{700, 700}, 1000)
	if hit || target != (HitTarget{}) {
		t.Errorf("Tap = %+v, %v; want no hit", target, hit)
	}
	if m.Active() || f.ov.Selected() != nil {
		t.Error("selection should be cleared")
	}
	if m.Morph.State != Morphing || m.ShapeIndex == shape {
		t.Error("previously active marker should play its deselect transition")
	}
	if f.calls != 2 || f.lastSelected() != nil {
		t.Errorf("callback calls = %d, last = %v; want 2, nil", f.calls, f.lastSelected())
	}
	ev := f.sink.events[len(f.sink.events)-1]
	if ev.Kind != Deselect || !ev.HasMarker || ev.MarkerID != 3 {
		t.Errorf("event = %+v, want deselect of 3", ev)
	}
}

func TestOverlayTapEmptyWithoutSelection(t *testing.T) {
	f := newOverlayFixture(t, nil)
	f.draw(0)
	f.ov.Tap(Vec2{-700, 700}, 0)
	if f.ov.Animating() {
		t.Error("deselect with nothing active should not animate")
	}
	if f.calls != 1 || f.lastSelected() != nil {
		t.Error("callback should still fire with nil")
	}
	if ev := f.sink.events[0]; ev.HasMarker {
		t.Errorf("event = %+v, want no marker", ev)
	}
}

func TestOverlayTapCluster(t *testing.T) {
	f := newOverlayFixture(t, nil)
	f.draw(0)
	f.ov.Tap(Vec2{300, 0}, 0) // select C first
	f.draw(600)

	target, hit := f.ov.Tap(Vec2{50, 0}, 1000)
	if !hit || target.Kind != EntityCluster || target.MarkerID != 1 {
		t.Fatalf("Tap = %+v, %v; want cluster seeded by 1", target, hit)
	}
	if f.lastSelected() != nil {
		t.Error("cluster tap should report no place")
	}
	if f.ov.Selected() != nil {
		t.Error("cluster tap clears the single-place selection")
	}
	ev := f.sink.events[len(f.sink.events)-1]
	if ev.Kind != SelectCluster || ev.ClusterSize != 2 {
		t.Errorf("event = %+v", ev)
	}
	a, b := f.ov.Store().Marker(1), f.ov.Store().Marker(2)
	if !a.converging || !b.converging {
		t.Error("members should converge on the centroid")
	}
	if !f.ov.Animator().IsAnimating(EntityID{Kind: EntityCluster, ID: 1}) {
		t.Error("cluster aggregate should be morphing")
	}

	// Mid-morph: members fade out while the aggregate fades in.
	f.draw(1100)
	if got := f.canvas.Count("fill"); got != 4 {
		t.Errorf("fills mid cross-fade = %d, want 4 (2 members, aggregate, C)", got)
	}
	mid := a.drawPoint()
	if !(mid.Lon() > 0 && mid.Lon() < 50) {
		t.Errorf("member A drawn at %v, want between its point and the centroid", mid)
	}

	f.draw(1600)
	if f.ov.Animating() {
		t.Error("cluster morph should finish")
	}
	if a.converging || b.converging {
		t.Error("convergence should clear when the morph ends")
	}
	if got := f.canvas.Count("fill"); got != 2 {
		t.Errorf("fills after morph = %d, want 2", got)
	}
}

func TestOverlayOffscreenMorphStillFinishes(t *testing.T) {
	f := newOverlayFixture(t, nil)
	f.draw(0)
	f.ov.Tap(Vec2{300, 0}, 0)
	f.draw(0)

	f.proj.Bounds = orb.Bound{Min: orb.Point{-100, -100}, Max: orb.Point{100, 100}}
	f.sched.runAll()
	f.draw(600)
	if f.ov.Animating() {
		t.Error("culled marker should still finish its morph")
	}
	if len(f.sched.calls) != 0 {
		t.Error("no further frames once everything is idle")
	}
}

func TestOverlayOffscreenConvergenceClears(t *testing.T) {
	f := newOverlayFixture(t, nil)
	f.draw(0)
	f.ov.Tap(Vec2{50, 0}, 0)
	f.draw(100)

	a := f.ov.Store().Marker(1)
	if !a.converging || a.Morph.State != Morphing {
		t.Fatal("member should be converging mid-morph")
	}

	// Pan everything out of view; the sweep finishes the undrawn morphs.
	f.proj.Bounds = orb.Bound{Min: orb.Point{800, 800}, Max: orb.Point{900, 900}}
	f.draw(600)
	if f.ov.Animating() {
		t.Errorf("still animating: %v", f.ov.Animator().Active())
	}
	if a.converging || a.Morph.State != Idle {
		t.Error("undrawn member should finish and stop converging")
	}
}

func TestOverlayConvergingSingletonHitsWhereDrawn(t *testing.T) {
	f := newOverlayFixture(t, nil)
	f.draw(0)
	f.ov.Tap(Vec2{50, 0}, 1000)

	// Zooming in splits the cluster while its members still converge.
	f.proj.Scale = 3
	f.draw(1100)
	b := f.ov.Store().Marker(2)
	if !b.converging || len(f.ov.Clusters()) != 3 {
		t.Fatalf("converging = %v, clusters = %d; want a split mid-morph", b.converging, len(f.ov.Clusters()))
	}
	drawn := f.proj.Project(b.drawPoint())
	if drawn.DistSq(f.proj.Project(b.Coordinate)) < 40*40 {
		t.Fatalf("drawn at %v, too close to its coordinate to tell apart", drawn)
	}

	target, hit := f.ov.Tap(drawn, 1150)
	if !hit || target.Kind != EntityMarker || target.MarkerID != 2 {
		t.Errorf("Tap at drawn glyph = %+v, %v; want marker 2", target, hit)
	}
}

func TestOverlaySetPlacesDiscardsAnimations(t *testing.T) {
	f := newOverlayFixture(t, nil)
	f.draw(0)
	f.ov.Tap(Vec2{300, 0}, 0)
	f.draw(0)
	if len(f.sched.calls) != 1 {
		t.Fatal("expected a pending frame request")
	}

	n := f.ov.SetPlaces([]Place{placeAt(10, 0, 0), {ID: 11}}, SelectPlace(10))
	if n != 1 {
		t.Errorf("SetPlaces = %d, want 1", n)
	}
	if f.ov.Animating() {
		t.Error("SetPlaces should drop in-flight animations")
	}
	if f.ov.Selected() == nil || f.ov.Selected().ID != 10 {
		t.Error("active id should apply to the new snapshot")
	}
	f.draw(10)

	// The callback from before SetPlaces is stale.
	f.sched.runAll()
	if f.ov.NeedsRedraw() {
		t.Error("stale frame callback should be a no-op")
	}
}

func TestOverlayTapBeforeDraw(t *testing.T) {
	f := newOverlayFixture(t, nil)
	if _, hit := f.ov.Tap(Vec2{0, 0}, 0); hit {
		t.Error("tap before any pass should resolve to deselect")
	}
}

func TestOverlayDensityScalesRadius(t *testing.T) {
	f := newOverlayFixture(t, func(o *Options) { o.Density = 2 })
	f.draw(0)
	if cl := f.ov.Clusters(); len(cl) != 1 || cl[0].Len() != 3 {
		t.Errorf("radius 150dp at density 2 should cluster all three, got %d clusters", len(cl))
	}
}

func TestOverlayMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newOverlayFixture(t, func(o *Options) { o.Registerer = reg })
	f.draw(0)
	f.ov.Tap(Vec2{300, 0}, 0)
	f.ov.Tap(Vec2{900, 900}, 10)
	f.proj.Invalid = true
	f.draw(20)

	m := f.ov.metrics
	if got := testutil.ToFloat64(m.FramesDrawn); got != 1 {
		t.Errorf("frames drawn = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.FramesSkipped); got != 1 {
		t.Errorf("frames skipped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Taps.WithLabelValues("marker")); got != 1 {
		t.Errorf("marker taps = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Taps.WithLabelValues("deselect")); got != 1 {
		t.Errorf("deselect taps = %v, want 1", got)
	}
}

func TestOverlayMetricsSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := newOverlayFixture(t, func(o *Options) { o.Registerer = reg })
	b := newOverlayFixture(t, func(o *Options) { o.Registerer = reg })

	b.draw(0)
	b.draw(16)
	a.draw(0)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var drawn float64
	for _, fam := range families {
		if fam.GetName() == "hazardmap_frames_drawn_total" {
			drawn = fam.GetMetric()[0].GetCounter().GetValue()
		}
	}
	if drawn != 3 {
		t.Errorf("registry frames drawn = %v, want 3 from both overlays", drawn)
	}
	if got := testutil.ToFloat64(b.ov.metrics.FramesDrawn); got != 3 {
		t.Errorf("second overlay counter = %v, want the shared 3", got)
	}
}

func TestOverlayNilSchedulerRaisesRedraw(t *testing.T) {
	f := newOverlayFixture(t, func(o *Options) { o.Scheduler = nil })
	f.draw(0)
	f.ov.Tap(Vec2{300, 0}, 0)
	f.draw(0)
	if !f.ov.NeedsRedraw() {
		t.Error("without a scheduler an animating pass should request the next one directly")
	}
}
