package hazardmap

import (
	"math"

	"github.com/paulmach/orb"
)

// DefaultTapToleranceDp is the default half-width of the square tap window in
// density-independent pixels.
const DefaultTapToleranceDp = 40

// HitTarget identifies what a tap resolved to.
type HitTarget struct {
	Kind EntityKind
	// MarkerID is the marker for EntityMarker targets, and the seed marker for
	// EntityCluster targets.
	MarkerID int
	// Cluster indexes the draw pass's cluster list.
	Cluster int
}

// DrawItem is one entry of a draw pass in painter order, kept for hit testing.
type DrawItem struct {
	Target HitTarget
	// Anchor is the representative point: the marker's coordinate, or the
	// cluster centroid.
	Anchor orb.Point
}

// HitTest finds the topmost item whose projected anchor lies inside the square
// window of half-width halfWidth centered on tap. Items are checked in reverse
// painter order so overlap resolves to what is drawn on top. Returns false for
// no hit, which callers treat as a deselect.
func HitTest(tap Vec2, items []DrawItem, p Projector, halfWidth float64) (HitTarget, bool) {
	for i := len(items) - 1; i >= 0; i-- {
		s := p.Project(items[i].Anchor)
		if !s.IsFinite() {
			continue
		}
		if math.Abs(s.X-tap.X) <= halfWidth && math.Abs(s.Y-tap.Y) <= halfWidth {
			return items[i].Target, true
		}
	}
	return HitTarget{}, false
}
