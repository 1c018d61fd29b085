package hazardmap

import (
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
)

// Place is a point of interest supplied by the host. Lat and Lon are optional;
// places missing either are not drawn.
type Place struct {
	ID      int      `json:"id"`
	Title   string   `json:"title"`
	Address string   `json:"address,omitempty"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	URL     string   `json:"url,omitempty"`
}

// Coordinate returns the place position as lon/lat, or false when either
// coordinate is missing.
func (p *Place) Coordinate() (orb.Point, bool) {
	if p.Lat == nil || p.Lon == nil {
		return orb.Point{}, false
	}
	return orb.Point{*p.Lon, *p.Lat}, true
}

// MarkerState is the live state of one place marker.
type MarkerState struct {
	ID         int
	Place      *Place
	Coordinate orb.Point

	ShapeIndex int
	ColorIndex int
	Morph      Morph

	// converge is the point the marker is drawn moving toward while it joins
	// a cluster. Cleared when the morph finishes.
	converge   orb.Point
	converging bool

	active bool
}

// Active reports whether this is the selected marker.
func (m *MarkerState) Active() bool {
	return m.active
}

// drawPoint returns the coordinate the marker is drawn at, accounting for a
// cluster convergence in flight.
func (m *MarkerState) drawPoint() orb.Point {
	if !m.converging || m.Morph.State != Morphing {
		return m.Coordinate
	}
	t := m.Morph.Progress()
	return orb.Point{
		m.Coordinate.Lon() + (m.converge.Lon()-m.Coordinate.Lon())*t,
		m.Coordinate.Lat() + (m.converge.Lat()-m.Coordinate.Lat())*t,
	}
}

// MarkerStore owns marker identity, insertion order, and the selection.
type MarkerStore struct {
	palette *Palette
	policy  ReshufflePolicy
	log     zerolog.Logger

	markers []*MarkerState
	byID    map[int]*MarkerState
	active  *MarkerState
}

// NewMarkerStore creates an empty store drawing appearances from palette.
func NewMarkerStore(palette *Palette, policy ReshufflePolicy, log zerolog.Logger) *MarkerStore {
	return &MarkerStore{
		palette: palette,
		policy:  policy,
		log:     log,
		byID:    make(map[int]*MarkerState),
	}
}

// SetPlaces replaces every marker. Places without both coordinates are
// dropped, as are repeats of an id already seen. The marker named by active
// becomes active; pass NoSelection for none. Returns the number of markers
// created.
func (s *MarkerStore) SetPlaces(places []Place, active ActivePlace) int {
	s.markers = make([]*MarkerState, 0, len(places))
	s.byID = make(map[int]*MarkerState, len(places))
	s.active = nil

	dropped := 0
	for i := range places {
		place := places[i]
		p := &place
		pt, ok := p.Coordinate()
		if !ok {
			dropped++
			continue
		}
		if _, dup := s.byID[p.ID]; dup {
			s.log.Debug().Int("place", p.ID).Msg("duplicate place id ignored")
			dropped++
			continue
		}
		m := &MarkerState{
			ID:         p.ID,
			Place:      p,
			Coordinate: pt,
			ShapeIndex: s.policy.Next(len(s.palette.Shapes), -1),
			ColorIndex: s.policy.Next(len(s.palette.Colors), -1),
		}
		m.Morph.Reset(Pose{
			Shape:    s.palette.Shape(m.ShapeIndex),
			Color:    s.palette.Color(m.ColorIndex),
			Rotation: s.policy.Angle(),
		})
		if active.Set && p.ID == active.ID {
			m.active = true
			s.active = m
		}
		s.markers = append(s.markers, m)
		s.byID[m.ID] = m
	}
	if dropped > 0 {
		s.log.Debug().Int("dropped", dropped).Int("markers", len(s.markers)).Msg("places filtered")
	}
	return len(s.markers)
}

// SetActive makes the marker with id the selection. An unknown id clears the
// selection. Returns the previously active id, if there was one.
func (s *MarkerStore) SetActive(id int) (prev int, hadPrev bool) {
	if s.active != nil {
		prev, hadPrev = s.active.ID, true
		s.active.active = false
		s.active = nil
	}
	if m, ok := s.byID[id]; ok {
		m.active = true
		s.active = m
	}
	return prev, hadPrev
}

// ClearActive drops the selection and returns the marker that was active.
func (s *MarkerStore) ClearActive() *MarkerState {
	m := s.active
	if m != nil {
		m.active = false
		s.active = nil
	}
	return m
}

// Active returns the selected marker, or nil.
func (s *MarkerStore) Active() *MarkerState {
	return s.active
}

// Marker returns the marker with id, or nil.
func (s *MarkerStore) Marker(id int) *MarkerState {
	return s.byID[id]
}

// Markers returns all markers in insertion order. The returned slice MUST NOT
// be mutated.
func (s *MarkerStore) Markers() []*MarkerState {
	return s.markers
}

// Len returns the number of markers.
func (s *MarkerStore) Len() int {
	return len(s.markers)
}

// reshuffle returns a new pose for m with a shape and color different from the
// current ones and a fresh rotation, and records the new palette indices.
func (s *MarkerStore) reshuffle(m *MarkerState) Pose {
	m.ShapeIndex = s.policy.Next(len(s.palette.Shapes), m.ShapeIndex)
	m.ColorIndex = s.policy.Next(len(s.palette.Colors), m.ColorIndex)
	return Pose{
		Shape:    s.palette.Shape(m.ShapeIndex),
		Color:    s.palette.Color(m.ColorIndex),
		Rotation: s.policy.Angle(),
	}
}
