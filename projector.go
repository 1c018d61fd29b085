package hazardmap

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/wroge/wgs84"
)

// Projector converts geographic coordinates to screen pixels for the current
// map view. The overlay consumes it as a capability; the host's map widget
// normally provides it.
type Projector interface {
	// Project returns the screen position of p (lon/lat).
	Project(p orb.Point) Vec2
	// VisibleBounds returns the geographic area currently on screen. ok is
	// false when the view is not ready (zero-size viewport, invalid center).
	VisibleBounds() (b orb.Bound, ok bool)
}

const (
	// TileSize is the edge length in pixels of one zoom-0 web map tile.
	TileSize = 256
	// MaxLatitude is the Web-Mercator latitude limit.
	MaxLatitude = 85.05112878
	// originShift is half the Web-Mercator world width in meters.
	originShift = 20037508.342789244
)

// flyAnim holds an active FlyTo animation. gween eases a 0→1 progress that
// is applied in float64 to avoid float32 precision loss on coordinates.
type flyAnim struct {
	tween            *gween.Tween
	fromX, fromY     float64
	toX, toY         float64
	fromZoom, toZoom float64
}

// MercatorProjector is a Web-Mercator (EPSG:3857) map view: a center, a
// fractional slippy-map zoom level, a rotation, and a screen viewport.
type MercatorProjector struct {
	// Center is the lon/lat at the middle of the viewport.
	Center orb.Point
	// Zoom is the slippy-map zoom level; one step doubles the scale.
	Zoom float64
	// Rotation is the map rotation in radians (clockwise).
	Rotation float64
	// Viewport is the screen-space rectangle the map occupies.
	Viewport Rect

	// MinZoom and MaxZoom clamp ZoomBy and FlyTo.
	MinZoom, MaxZoom float64

	toMercator func(a, b, c float64) (float64, float64, float64)
	toLonLat   func(a, b, c float64) (float64, float64, float64)

	viewMatrix    [6]float64
	invViewMatrix [6]float64
	dirty         bool

	fly *flyAnim
}

// NewMercatorProjector creates a projector centered on center at zoom.
func NewMercatorProjector(center orb.Point, zoom float64, viewport Rect) *MercatorProjector {
	epsg := wgs84.EPSG()
	return &MercatorProjector{
		Center:     center,
		Zoom:       zoom,
		Viewport:   viewport,
		MinZoom:    1,
		MaxZoom:    20,
		toMercator: epsg.Transform(4326, 3857),
		toLonLat:   epsg.Transform(3857, 4326),
		dirty:      true,
	}
}

// MarkDirty forces a recomputation of the view matrix. Call it after changing
// exported fields directly.
func (m *MercatorProjector) MarkDirty() {
	m.dirty = true
}

// worldSize returns the world width in pixels at the current zoom.
func (m *MercatorProjector) worldSize() float64 {
	return TileSize * math.Exp2(m.Zoom)
}

// toWorld converts lon/lat to world pixels at the current zoom.
func (m *MercatorProjector) toWorld(p orb.Point) (float64, float64) {
	lat := math.Max(-MaxLatitude, math.Min(MaxLatitude, p.Lat()))
	x, y, _ := m.toMercator(p.Lon(), lat, 0)
	size := m.worldSize()
	return (x + originShift) / (2 * originShift) * size, (originShift - y) / (2 * originShift) * size
}

// fromWorld converts world pixels at the current zoom back to lon/lat.
func (m *MercatorProjector) fromWorld(wx, wy float64) orb.Point {
	size := m.worldSize()
	x := wx/size*2*originShift - originShift
	y := originShift - wy/size*2*originShift
	lon, lat, _ := m.toLonLat(x, y, 0)
	return orb.Point{lon, lat}
}

// computeViewMatrix recomputes the cached view matrix if dirty.
func (m *MercatorProjector) computeViewMatrix() [6]float64 {
	if !m.dirty {
		return m.viewMatrix
	}
	m.dirty = false
	cx, cy := m.toWorld(m.Center)
	m.viewMatrix = viewTransform(m.Viewport, cx, cy, m.Rotation)
	m.invViewMatrix = invertAffine(m.viewMatrix)
	return m.viewMatrix
}

// Project implements Projector.
func (m *MercatorProjector) Project(p orb.Point) Vec2 {
	vm := m.computeViewMatrix()
	wx, wy := m.toWorld(p)
	sx, sy := transformPoint(vm, wx, wy)
	return Vec2{X: sx, Y: sy}
}

// Unproject converts a screen position back to lon/lat.
func (m *MercatorProjector) Unproject(s Vec2) orb.Point {
	m.computeViewMatrix()
	wx, wy := transformPoint(m.invViewMatrix, s.X, s.Y)
	return m.fromWorld(wx, wy)
}

// VisibleBounds implements Projector. The bound is the lon/lat box around the
// four viewport corners, so it over-covers a rotated view.
func (m *MercatorProjector) VisibleBounds() (orb.Bound, bool) {
	if m.Viewport.Width <= 0 || m.Viewport.Height <= 0 {
		return orb.Bound{}, false
	}
	if math.IsNaN(m.Center.Lon()) || math.IsNaN(m.Center.Lat()) || math.IsNaN(m.Zoom) {
		return orb.Bound{}, false
	}
	vp := m.Viewport
	corners := [4]Vec2{
		{vp.X, vp.Y},
		{vp.X + vp.Width, vp.Y},
		{vp.X + vp.Width, vp.Y + vp.Height},
		{vp.X, vp.Y + vp.Height},
	}
	b := orb.Bound{Min: m.Unproject(corners[0]), Max: m.Unproject(corners[0])}
	for _, c := range corners[1:] {
		b = b.Extend(m.Unproject(c))
	}
	return b, true
}

// PanBy moves the map so that content shifts by (dx, dy) screen pixels.
func (m *MercatorProjector) PanBy(dx, dy float64) {
	vc := m.Viewport.Center()
	m.Center = m.Unproject(Vec2{X: vc.X - dx, Y: vc.Y - dy})
	m.dirty = true
}

// ZoomBy changes the zoom level by delta while keeping the geographic point
// under anchor fixed on screen.
func (m *MercatorProjector) ZoomBy(delta float64, anchor Vec2) {
	before := m.Unproject(anchor)
	m.Zoom = math.Max(m.MinZoom, math.Min(m.MaxZoom, m.Zoom+delta))
	m.dirty = true
	after := m.Project(before)
	m.PanBy(anchor.X-after.X, anchor.Y-after.Y)
}

// FlyTo animates the center and zoom to the given target over durationMs.
// Call Update each frame to advance it. A nil fn uses ease.InOutQuad.
func (m *MercatorProjector) FlyTo(target orb.Point, zoom float64, durationMs int64, fn ease.TweenFunc) {
	if fn == nil {
		fn = ease.InOutQuad
	}
	zoom = math.Max(m.MinZoom, math.Min(m.MaxZoom, zoom))
	m.fly = &flyAnim{
		tween:    gween.New(0, 1, float32(durationMs)/1000, fn),
		fromX:    m.Center.Lon(),
		fromY:    m.Center.Lat(),
		toX:      target.Lon(),
		toY:      target.Lat(),
		fromZoom: m.Zoom,
		toZoom:   zoom,
	}
}

// Flying reports whether a FlyTo animation is in progress.
func (m *MercatorProjector) Flying() bool {
	return m.fly != nil
}

// Update advances an active FlyTo by dtMs milliseconds and reports whether the
// view changed.
func (m *MercatorProjector) Update(dtMs int64) bool {
	if m.fly == nil {
		return false
	}
	f := m.fly
	v, done := f.tween.Update(float32(dtMs) / 1000)
	t := float64(v)
	if done {
		t = 1
		m.fly = nil
	}
	m.Center = orb.Point{f.fromX + (f.toX-f.fromX)*t, f.fromY + (f.toY-f.fromY)*t}
	m.Zoom = f.fromZoom + (f.toZoom-f.fromZoom)*t
	m.dirty = true
	return true
}
