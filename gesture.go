package hazardmap

import "math"

const defaultDragDeadZone = 6.0 // pixels

// GestureKind is what a pointer sample resolved to.
type GestureKind uint8

const (
	GestureNone GestureKind = iota
	GestureTap              // press and release without leaving the dead zone
	GesturePan              // pointer moved while held, past the dead zone
)

// Gesture is one resolved pointer action. For GestureTap, X/Y is the release
// point. For GesturePan, DX/DY is the movement since the previous sample.
type Gesture struct {
	Kind   GestureKind
	X, Y   float64
	DX, DY float64
}

// gestureTracker turns per-tick pointer samples into taps and pans. It knows
// nothing about ebiten so hosts and scripts can feed it synthetic samples.
type gestureTracker struct {
	deadZone float64

	down     bool
	dragging bool
	startX   float64
	startY   float64
	lastX    float64
	lastY    float64
}

func newGestureTracker(deadZone float64) gestureTracker {
	if deadZone <= 0 {
		deadZone = defaultDragDeadZone
	}
	return gestureTracker{deadZone: deadZone}
}

// Feed processes one pointer sample.
func (g *gestureTracker) Feed(x, y float64, pressed bool) Gesture {
	switch {
	case pressed && !g.down:
		g.down = true
		g.dragging = false
		g.startX, g.startY = x, y
		g.lastX, g.lastY = x, y
		return Gesture{}

	case !pressed && g.down:
		g.down = false
		if g.dragging {
			g.dragging = false
			dx, dy := x-g.lastX, y-g.lastY
			g.lastX, g.lastY = x, y
			if dx != 0 || dy != 0 {
				return Gesture{Kind: GesturePan, X: x, Y: y, DX: dx, DY: dy}
			}
			return Gesture{}
		}
		return Gesture{Kind: GestureTap, X: x, Y: y}

	case pressed && g.down:
		if x == g.lastX && y == g.lastY {
			return Gesture{}
		}
		if !g.dragging && math.Hypot(x-g.startX, y-g.startY) > g.deadZone {
			g.dragging = true
			// The first pan covers the dead-zone travel too.
			g.lastX, g.lastY = g.startX, g.startY
		}
		if !g.dragging {
			return Gesture{}
		}
		dx, dy := x-g.lastX, y-g.lastY
		g.lastX, g.lastY = x, y
		return Gesture{Kind: GesturePan, X: x, Y: y, DX: dx, DY: dy}
	}
	return Gesture{}
}

// Down reports whether the pointer is held.
func (g *gestureTracker) Down() bool {
	return g.down
}
