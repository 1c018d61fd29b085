// Package hazardmap draws clustered, morphing place markers over a map and
// resolves taps on them.
//
// The host supplies places with optional coordinates, a [Projector] that maps
// lon/lat to screen pixels, and a [Canvas] to draw on. The package does the
// rest: culling to the visible area, greedy radius clustering, shape and
// color reshuffles animated as polygon morphs, and hit testing.
//
// # Quick start
//
// The simplest way to get a window is [NewGame] and [Run], which host an
// [Overlay] over a [MercatorProjector] with Ebitengine:
//
//	proj := hazardmap.NewMercatorProjector(orb.Point{30.52, 50.45}, 12,
//		hazardmap.Rect{Width: 960, Height: 720})
//	g, err := hazardmap.NewGame(proj, hazardmap.Options{
//		OnSelectionChanged: func(p *hazardmap.Place) { ... },
//	})
//	g.SubmitPlaces(places, hazardmap.NoSelection)
//	err = hazardmap.Run(g, hazardmap.RunConfig{Title: "Hazards"})
//
// For full control, drive an [Overlay] yourself: call [Overlay.Draw] when
// [Overlay.NeedsRedraw] reports true, and [Overlay.Tap] on pointer release.
//
//	ov, err := hazardmap.NewOverlay(proj, hazardmap.Options{Scheduler: sched})
//	ov.SetPlaces(places, hazardmap.NoSelection)
//	ov.Draw(canvas, nowMs)
//
// # Passes
//
// Each [Overlay.Draw] is one pass. Markers inside the visible bounds (scaled
// by [Options.CullScale]) are clustered in insertion order: each unassigned
// marker seeds a cluster and absorbs every unassigned marker within the
// clustering radius of the seed. Singletons draw their own glyph; larger
// clusters draw an aggregate glyph with a count badge.
//
// # Animation
//
// Every marker and cluster carries a [Morph]. A tap starts a transition to a
// new shape, color and rotation picked by the [ReshufflePolicy]. While any
// morph runs, the overlay asks its [FrameScheduler] for another pass every
// [Options.FrameIntervalMs]; once all are idle it stops asking. Morphs that
// are culled off screen still finish on time.
//
// # Selection
//
// A tap on a marker selects it, a tap on a cluster converges its members on
// the centroid and reports the cluster, and a tap on empty map deselects.
// Every resolution reaches [Options.OnSelectionChanged] and, if set, a
// [SelectionSink]. The ecs submodule bridges the sink into a [Donburi] world.
//
// [Donburi]: https://github.com/yohamta/donburi
package hazardmap
