// Package ecs provides ECS adapters for hazardmap's selection events.
//
// The primary adapter is [NewDonburiSink], which bridges overlay tap
// resolutions (marker select, cluster tap, deselect) into a [Donburi] world
// as typed events and keeps the latest one on a [Selection] entity.
// Subscribe to [SelectionEventType] in your ECS systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	overlay, err := hazardmap.NewOverlay(proj, hazardmap.Options{Sink: sink})
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
