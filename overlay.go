package hazardmap

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/phanxgames/hazardmap/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/tanema/gween/ease"
)

// Default overlay geometry in density-independent pixels.
const (
	DefaultMarkerSizeDp  = 64
	DefaultClusterSizeDp = 80
	DefaultCullScale     = 1.5
)

// ReselectPolicy decides what a tap on the already-active marker does.
type ReselectPolicy uint8

const (
	// ReselectReshuffle keeps the marker active and plays a new reshuffle.
	ReselectReshuffle ReselectPolicy = iota
	// ReselectDeselect clears the selection, like a tap on empty map.
	ReselectDeselect
)

// String returns "reshuffle" or "deselect".
func (r ReselectPolicy) String() string {
	if r == ReselectDeselect {
		return "deselect"
	}
	return "reshuffle"
}

// ParseReselectPolicy parses the String form, case-insensitively.
func ParseReselectPolicy(s string) (ReselectPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reshuffle":
		return ReselectReshuffle, nil
	case "deselect":
		return ReselectDeselect, nil
	}
	return ReselectReshuffle, fmt.Errorf("hazardmap: unknown reselect policy %q", s)
}

// Options configures an Overlay. Zero values pick the defaults noted on each
// field.
type Options struct {
	// Palette supplies shapes and colors. nil uses DefaultPalette.
	Palette *Palette
	// Policy picks palette entries and rotations. nil uses a time-seeded
	// RandomPolicy.
	Policy ReshufflePolicy
	// Scheduler receives follow-up frame requests while something is morphing.
	// nil marks the overlay for redraw immediately instead, which suits hosts
	// that poll NeedsRedraw every tick.
	Scheduler FrameScheduler

	// Density converts dp to device pixels. Default 1.
	Density float64
	// ClusterRadiusDp is the clustering radius. Default 150.
	ClusterRadiusDp float64
	// TapToleranceDp is the half-width of the tap window. Default 40.
	TapToleranceDp float64
	// MarkerSizeDp is the box a marker glyph is fitted into. Default 64.
	MarkerSizeDp float64
	// ClusterSizeDp is the box a cluster glyph is fitted into. Default 80.
	ClusterSizeDp float64
	// CullScale expands the visible bounds before culling. Default 1.5.
	CullScale float64

	// DurationMs is the morph length. Default 500.
	DurationMs int64
	// FrameIntervalMs is the follow-up frame delay. Default 16.
	FrameIntervalMs int64
	// Ease is the morph curve. nil uses ease.OutBack.
	Ease ease.TweenFunc

	Reselect ReselectPolicy

	// OnSelectionChanged is called on every tap resolution with the selected
	// place, or nil for a cluster tap or deselect.
	OnSelectionChanged func(*Place)
	// Sink, if set, receives a SelectionEvent for every tap resolution.
	Sink SelectionSink

	// Logger receives debug output. nil disables logging.
	Logger *zerolog.Logger
	// Registerer, if set, gets the overlay's Prometheus collectors.
	Registerer prometheus.Registerer
	// Debug logs per-frame timing at debug level.
	Debug bool
}

// clusterAnim is the aggregate glyph state of a cluster, keyed by seed id
// and carried across passes while that seed keeps seeding a cluster.
type clusterAnim struct {
	morph      Morph
	shapeIndex int
	colorIndex int
	// crossfade is set by a cluster tap: members fade out while converging on
	// the centroid as the aggregate fades in.
	crossfade bool
	seen      bool
}

// Overlay renders clustered, morphing place markers over a map and resolves
// taps on them. All methods must be called from the host's update/draw
// goroutine.
type Overlay struct {
	proj      Projector
	palette   *Palette
	policy    ReshufflePolicy
	store     *MarkerStore
	animator  *Animator
	clusterer Clusterer
	scheduler FrameScheduler

	log      zerolog.Logger
	metrics  *metrics.Overlay
	sink     SelectionSink
	onSelect func(*Place)
	debug    bool

	radiusPx      float64
	tapHalfPx     float64
	markerPx      float64
	clusterPx     float64
	strokePx      float64
	cullScale     float64
	frameInterval int64
	reselect      ReselectPolicy

	visible       []*MarkerState
	clusters      []Cluster
	drawList      []DrawItem
	clusterMorphs map[int]*clusterAnim
	ticked        map[EntityID]bool
	scratch       []Vec2

	pending     bool
	needsRedraw bool
}

// NewOverlay creates an overlay drawing over proj.
func NewOverlay(proj Projector, opts Options) (*Overlay, error) {
	if proj == nil {
		return nil, fmt.Errorf("hazardmap: nil projector")
	}
	pal := opts.Palette
	if pal == nil {
		pal = DefaultPalette()
	} else {
		checked, err := NewPalette(pal.Shapes, pal.Colors)
		if err != nil {
			return nil, fmt.Errorf("hazardmap: palette: %w", err)
		}
		pal = checked
	}
	policy := opts.Policy
	if policy == nil {
		policy = NewRandomPolicy(0)
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	density := positiveOr(opts.Density, 1)
	o := &Overlay{
		proj:          proj,
		palette:       pal,
		policy:        policy,
		store:         NewMarkerStore(pal, policy, log),
		animator:      NewAnimator(Timing{DurationMs: opts.DurationMs, Ease: opts.Ease}),
		scheduler:     opts.Scheduler,
		log:           log,
		sink:          opts.Sink,
		onSelect:      opts.OnSelectionChanged,
		debug:         opts.Debug,
		radiusPx:      positiveOr(opts.ClusterRadiusDp, DefaultClusterRadiusDp) * density,
		tapHalfPx:     positiveOr(opts.TapToleranceDp, DefaultTapToleranceDp) * density,
		markerPx:      positiveOr(opts.MarkerSizeDp, DefaultMarkerSizeDp) * density,
		clusterPx:     positiveOr(opts.ClusterSizeDp, DefaultClusterSizeDp) * density,
		strokePx:      density,
		cullScale:     math.Max(positiveOr(opts.CullScale, DefaultCullScale), 1),
		frameInterval: opts.FrameIntervalMs,
		reselect:      opts.Reselect,
		clusterMorphs: make(map[int]*clusterAnim),
		ticked:        make(map[EntityID]bool),
		needsRedraw:   true,
	}
	if o.frameInterval <= 0 {
		o.frameInterval = DefaultFrameIntervalMs
	}
	if o.scheduler == nil {
		o.scheduler = redrawScheduler{}
	}
	if opts.Registerer != nil {
		m, err := metrics.New(opts.Registerer)
		if err != nil {
			return nil, fmt.Errorf("hazardmap: %w", err)
		}
		o.metrics = m
	}
	return o, nil
}

func positiveOr(v, def float64) float64 {
	if v > 0 && !math.IsInf(v, 0) {
		return v
	}
	return def
}

// redrawScheduler runs callbacks at once; the overlay then only raises its
// redraw flag.
type redrawScheduler struct{}

func (redrawScheduler) Schedule(fn func(), _ int64) { fn() }

// SetPlaces replaces every marker and discards all clustering and animation
// state. Returns the number of markers created.
func (o *Overlay) SetPlaces(places []Place, active ActivePlace) int {
	o.animator.Reset()
	clear(o.clusterMorphs)
	o.pending = false
	o.clusters = o.clusters[:0]
	o.drawList = o.drawList[:0]
	n := o.store.SetPlaces(places, active)
	o.Invalidate()
	return n
}

// SetProjector swaps the projector, e.g. after a host resize.
func (o *Overlay) SetProjector(p Projector) {
	if p == nil {
		return
	}
	o.proj = p
	o.Invalidate()
}

// Invalidate marks the overlay for redraw. Hosts call it after pan or zoom.
func (o *Overlay) Invalidate() {
	o.needsRedraw = true
}

// NeedsRedraw reports whether a pass has been requested since the last Draw.
func (o *Overlay) NeedsRedraw() bool {
	return o.needsRedraw
}

// Store returns the marker store.
func (o *Overlay) Store() *MarkerStore { return o.store }

// Animator returns the animator.
func (o *Overlay) Animator() *Animator { return o.animator }

// Palette returns the palette in use.
func (o *Overlay) Palette() *Palette { return o.palette }

// Clusters returns the clusters of the last pass. Valid until the next Draw
// or SetPlaces.
func (o *Overlay) Clusters() []Cluster { return o.clusters }

// DrawList returns the last pass's items in painter order.
func (o *Overlay) DrawList() []DrawItem { return o.drawList }

// Animating reports whether any marker or cluster is morphing.
func (o *Overlay) Animating() bool { return o.animator.Animating() }

// Selected returns the active place, or nil.
func (o *Overlay) Selected() *Place {
	if m := o.store.Active(); m != nil {
		return m.Place
	}
	return nil
}

// Draw runs one pass: cull, cluster, advance, draw, and request a follow-up
// pass while anything is still morphing. Returns false if the projector had
// no usable viewport and nothing was drawn.
func (o *Overlay) Draw(c Canvas, nowMs int64) bool {
	o.needsRedraw = false
	clear(o.ticked)

	var stats debugStats
	start := time.Now()
	mark := start

	bounds, ok := o.proj.VisibleBounds()
	if !ok || !validBound(bounds) {
		o.clusters = o.clusters[:0]
		o.drawList = o.drawList[:0]
		o.metrics.FrameSkipped()
		o.finishPass(nowMs)
		o.log.Debug().Msg("viewport unavailable; frame skipped")
		return false
	}

	o.visible = CullMarkers(o.visible, o.store.Markers(), bounds, o.cullScale)
	if o.debug {
		now := time.Now()
		stats.cullTime = now.Sub(mark)
		mark = now
		debugCheckVisible(o.log, len(o.visible))
	}

	o.clusters = o.clusterer.Cluster(o.visible, o.proj, o.radiusPx)
	if o.debug {
		now := time.Now()
		stats.clusterTime = now.Sub(mark)
		mark = now
	}

	o.drawList = o.drawList[:0]
	for i := range o.clusters {
		cl := &o.clusters[i]
		if cl.Len() == 1 {
			m := cl.Seed()
			stats.fills += o.drawMarker(c, m, nowMs, 1)
			o.drawList = append(o.drawList, DrawItem{
				Target: HitTarget{Kind: EntityMarker, MarkerID: m.ID, Cluster: i},
				Anchor: m.drawPoint(),
			})
			continue
		}
		stats.fills += o.drawCluster(c, cl, nowMs)
		o.drawList = append(o.drawList, DrawItem{
			Target: HitTarget{Kind: EntityCluster, MarkerID: cl.Seed().ID, Cluster: i},
			Anchor: cl.Centroid,
		})
	}
	if o.debug {
		now := time.Now()
		stats.drawTime = now.Sub(mark)
		mark = now
	}

	o.finishPass(nowMs)

	o.metrics.ObserveFrame(len(o.visible), len(o.clusters), o.animator.Count(), time.Since(start))
	if o.debug {
		stats.sweepTime = time.Since(mark)
		stats.markers = o.store.Len()
		stats.visible = len(o.visible)
		stats.clusters = len(o.clusters)
		stats.grouped = countClustered(o.clusters)
		stats.animating = o.animator.Count()
		debugLog(o.log, stats)
	}
	return true
}

func validBound(b orb.Bound) bool {
	for _, v := range [4]float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Max.Lon() > b.Min.Lon() && b.Max.Lat() > b.Min.Lat()
}

// finishPass advances morphs the pass did not draw, prunes cluster state for
// seeds that no longer seed a cluster, and requests a follow-up pass if
// anything is still morphing. Undrawn morphs advance by time too, so every
// transition ends within its duration whether or not it is on screen.
func (o *Overlay) finishPass(nowMs int64) {
	for seed, ca := range o.clusterMorphs {
		if !ca.seen {
			delete(o.clusterMorphs, seed)
			o.animator.Forget(EntityID{Kind: EntityCluster, ID: seed})
			continue
		}
		ca.seen = false
	}
	for _, id := range o.animator.Active() {
		if o.ticked[id] {
			continue
		}
		m := o.store.Marker(id.ID)
		if id.Kind != EntityMarker || m == nil {
			o.animator.Forget(id)
			continue
		}
		o.animator.Tick(id, nowMs)
		if m.Morph.State == Idle {
			m.converging = false
		}
	}
	o.requestFrame()
}

// requestFrame schedules one follow-up pass if something is morphing and none
// is pending. The callback is dropped if SetPlaces ran in between.
func (o *Overlay) requestFrame() {
	if o.pending || !o.animator.Animating() {
		return
	}
	o.pending = true
	epoch := o.animator.Epoch()
	o.scheduler.Schedule(func() {
		if o.animator.Epoch() != epoch {
			return
		}
		o.pending = false
		o.needsRedraw = true
	}, o.frameInterval)
}

func (o *Overlay) advanceMarker(m *MarkerState, nowMs int64) Frame {
	id := EntityID{Kind: EntityMarker, ID: m.ID}
	o.ticked[id] = true
	f := o.animator.Advance(id, &m.Morph, nowMs)
	if m.Morph.State == Idle {
		m.converging = false
	}
	return f
}

// drawMarker draws one marker at opacity alpha and returns the fill count.
func (o *Overlay) drawMarker(c Canvas, m *MarkerState, nowMs int64, alpha float64) int {
	f := o.advanceMarker(m, nowMs)
	at := o.proj.Project(m.drawPoint())
	if !at.IsFinite() {
		return 0
	}
	o.scratch = f.Shape.Fit(at, o.markerPx, f.Rotation, o.scratch)
	if len(o.scratch) < 3 {
		return 0
	}
	c.FillPolygon(o.scratch, f.Color.WithAlpha(alpha))
	stroke, width := OutlineDark, o.strokePx
	if m.active {
		stroke, width = AccentPrimary, 3*o.strokePx
	}
	c.StrokePolygon(o.scratch, stroke.WithAlpha(alpha), width)
	return 1
}

// drawCluster draws the aggregate glyph and count badge, cross-fading from
// the member glyphs while a cluster tap morph runs. Returns the fill count.
func (o *Overlay) drawCluster(c Canvas, cl *Cluster, nowMs int64) int {
	seed := cl.Seed()
	ca := o.clusterMorphs[seed.ID]
	if ca == nil {
		ca = o.newClusterAnim(seed)
		o.clusterMorphs[seed.ID] = ca
	}
	ca.seen = true

	id := cl.ID()
	o.ticked[id] = true
	f := o.animator.Advance(id, &ca.morph, nowMs)
	if ca.morph.State == Idle {
		ca.crossfade = false
	}

	fills := 0
	alpha := 1.0
	if ca.crossfade {
		alpha = clamp01(f.Eased)
		if alpha < 1 {
			for _, m := range cl.Members {
				fills += o.drawMarker(c, m, nowMs, 1-alpha)
			}
		}
	}

	at := o.proj.Project(cl.Centroid)
	if !at.IsFinite() {
		return fills
	}
	o.scratch = f.Shape.Fit(at, o.clusterPx, f.Rotation, o.scratch)
	if len(o.scratch) >= 3 {
		c.FillPolygon(o.scratch, f.Color.WithAlpha(alpha))
		c.StrokePolygon(o.scratch, OutlineDark.WithAlpha(alpha), 2*o.strokePx)
		fills++
	}
	off := o.clusterPx * 0.35
	c.DrawBadge(Vec2{X: at.X + off, Y: at.Y - off}, o.clusterPx*0.2, AccentStrong, strconv.Itoa(cl.Len()))
	return fills
}

// newClusterAnim seeds an aggregate glyph from the seed marker's look.
func (o *Overlay) newClusterAnim(seed *MarkerState) *clusterAnim {
	ca := &clusterAnim{shapeIndex: seed.ShapeIndex, colorIndex: seed.ColorIndex}
	ca.morph.Reset(Pose{
		Shape:    o.palette.Shape(ca.shapeIndex),
		Color:    o.palette.Color(ca.colorIndex),
		Rotation: seed.Morph.Current.Rotation,
	})
	return ca
}

// Tap resolves a tap at pt (screen pixels) against the last pass's draw
// list, updates the selection, starts the matching transition, and notifies
// listeners. Returns the hit target, or false for a deselect.
func (o *Overlay) Tap(pt Vec2, nowMs int64) (HitTarget, bool) {
	ev := SelectionEvent{Kind: Deselect, ScreenX: pt.X, ScreenY: pt.Y, TimeMs: nowMs}

	target, hit := HitTest(pt, o.drawList, o.proj, o.tapHalfPx)
	if hit {
		switch target.Kind {
		case EntityMarker:
			hit = o.tapMarker(target.MarkerID, nowMs, &ev)
		case EntityCluster:
			hit = o.tapCluster(target, nowMs, &ev)
		}
	}
	if !hit {
		target = HitTarget{}
		if prev := o.deselect(nowMs); prev != nil {
			ev.MarkerID = prev.ID
			ev.HasMarker = true
		}
	}

	o.notify(ev)
	o.Invalidate()
	return target, hit
}

func (o *Overlay) tapMarker(id int, nowMs int64, ev *SelectionEvent) bool {
	m := o.store.Marker(id)
	if m == nil {
		return false
	}
	if m.active && o.reselect == ReselectDeselect {
		return false
	}
	o.store.SetActive(m.ID)
	o.reshuffleMarker(m, nowMs)
	ev.Kind = SelectMarker
	ev.MarkerID = m.ID
	ev.HasMarker = true
	ev.Place = m.Place
	return true
}

func (o *Overlay) tapCluster(target HitTarget, nowMs int64, ev *SelectionEvent) bool {
	if target.Cluster < 0 || target.Cluster >= len(o.clusters) {
		return false
	}
	cl := &o.clusters[target.Cluster]
	if cl.Seed().ID != target.MarkerID {
		return false
	}

	o.store.ClearActive()
	for _, m := range cl.Members {
		m.converge = cl.Centroid
		m.converging = true
		o.animator.StartTransition(EntityID{Kind: EntityMarker, ID: m.ID}, &m.Morph, m.Morph.Target, nowMs)
	}

	ca := o.clusterMorphs[target.MarkerID]
	if ca == nil {
		ca = o.newClusterAnim(cl.Seed())
		o.clusterMorphs[target.MarkerID] = ca
	}
	ca.shapeIndex = o.policy.Next(len(o.palette.Shapes), ca.shapeIndex)
	ca.colorIndex = o.policy.Next(len(o.palette.Colors), ca.colorIndex)
	ca.crossfade = true
	o.animator.StartTransition(cl.ID(), &ca.morph, Pose{
		Shape:    o.palette.Shape(ca.shapeIndex),
		Color:    o.palette.Color(ca.colorIndex),
		Rotation: o.policy.Angle(),
	}, nowMs)

	ev.Kind = SelectCluster
	ev.MarkerID = target.MarkerID
	ev.HasMarker = true
	ev.ClusterSize = cl.Len()
	return true
}

// deselect clears the selection and plays the previously active marker's
// deselect transition. Returns that marker, or nil.
func (o *Overlay) deselect(nowMs int64) *MarkerState {
	prev := o.store.ClearActive()
	if prev != nil {
		o.reshuffleMarker(prev, nowMs)
	}
	return prev
}

func (o *Overlay) reshuffleMarker(m *MarkerState, nowMs int64) {
	pose := o.store.reshuffle(m)
	m.converging = false
	o.animator.StartTransition(EntityID{Kind: EntityMarker, ID: m.ID}, &m.Morph, pose, nowMs)
}

func (o *Overlay) notify(ev SelectionEvent) {
	o.metrics.Tap(ev.Kind.String())
	o.log.Debug().Stringer("kind", ev.Kind).Int("marker", ev.MarkerID).Int("size", ev.ClusterSize).Msg("tap")
	if o.onSelect != nil {
		o.onSelect(ev.Place)
	}
	if o.sink != nil {
		o.sink.EmitSelection(ev)
	}
}
