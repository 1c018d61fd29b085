// Package ecs provides ECS adapters for hazardmap.
package ecs

import (
	"github.com/phanxgames/hazardmap"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// SelectionEventType is the Donburi event type for hazardmap tap resolutions.
// Subscribe to this in your ECS systems to receive selections and deselects.
var SelectionEventType = events.NewEventType[hazardmap.SelectionEvent]()

// SelectionData is the latest selection, kept on a single entity.
type SelectionData struct {
	Kind        hazardmap.SelectionKind
	MarkerID    int
	HasMarker   bool
	ClusterSize int
	Place       *hazardmap.Place
	TimeMs      int64
}

// Selection is the component holding SelectionData.
var Selection = donburi.NewComponentType[SelectionData](SelectionData{
	Kind: hazardmap.Deselect,
})

// DonburiSink is a hazardmap.SelectionSink backed by a Donburi world.
type DonburiSink struct {
	world  donburi.World
	entity donburi.Entity
}

// NewDonburiSink creates a sink that publishes every tap resolution to
// SelectionEventType and mirrors the latest one onto a Selection entity.
// Published events are delivered by SelectionEventType.ProcessEvents.
func NewDonburiSink(world donburi.World) *DonburiSink {
	return &DonburiSink{world: world, entity: world.Create(Selection)}
}

// EmitSelection implements hazardmap.SelectionSink.
func (s *DonburiSink) EmitSelection(event hazardmap.SelectionEvent) {
	if s.world.Valid(s.entity) {
		Selection.SetValue(s.world.Entry(s.entity), SelectionData{
			Kind:        event.Kind,
			MarkerID:    event.MarkerID,
			HasMarker:   event.HasMarker,
			ClusterSize: event.ClusterSize,
			Place:       event.Place,
			TimeMs:      event.TimeMs,
		})
	}
	SelectionEventType.Publish(s.world, event)
}

// Entity returns the entity carrying the Selection component.
func (s *DonburiSink) Entity() donburi.Entity {
	return s.entity
}

// Latest returns the most recent selection.
func (s *DonburiSink) Latest() (SelectionData, bool) {
	if !s.world.Valid(s.entity) {
		return SelectionData{}, false
	}
	return *Selection.Get(s.world.Entry(s.entity)), true
}
