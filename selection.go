package hazardmap

// SelectionKind identifies how a tap resolved.
type SelectionKind uint8

const (
	SelectMarker  SelectionKind = iota // a single marker was selected
	SelectCluster                      // a cluster was tapped; no place is selected
	Deselect                           // the tap hit nothing and cleared the selection
)

// String returns a lowercase name for the kind.
func (k SelectionKind) String() string {
	switch k {
	case SelectMarker:
		return "marker"
	case SelectCluster:
		return "cluster"
	default:
		return "deselect"
	}
}

// SelectionEvent carries a tap resolution for a SelectionSink.
type SelectionEvent struct {
	Kind SelectionKind
	// Place is the selected place for SelectMarker, nil otherwise.
	Place *Place
	// MarkerID is the selected marker, the seed of a tapped cluster, or the
	// marker a deselect cleared. It is meaningful only when HasMarker is set.
	MarkerID  int
	HasMarker bool
	// ClusterSize is the member count for SelectCluster.
	ClusterSize int
	ScreenX     float64
	ScreenY     float64
	TimeMs      int64
}

// SelectionSink is the interface for optional event bridges (an ECS world, a
// message bus). When set, every tap resolution is forwarded to it in addition
// to the OnSelectionChanged callback.
type SelectionSink interface {
	EmitSelection(event SelectionEvent)
}
