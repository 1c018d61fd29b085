package hazardmap

import (
	"image/color"
	"math"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at draw submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is full-opacity white.
var ColorWhite = Color{1, 1, 1, 1}

// ColorFromARGB converts a packed 0xAARRGGBB value into a Color.
func ColorFromARGB(argb uint32) Color {
	return Color{
		R: float64((argb>>16)&0xff) / 255,
		G: float64((argb>>8)&0xff) / 255,
		B: float64(argb&0xff) / 255,
		A: float64((argb>>24)&0xff) / 255,
	}
}

// Lerp blends each channel linearly from c toward to by t.
func (c Color) Lerp(to Color, t float64) Color {
	return Color{
		R: c.R + (to.R-c.R)*t,
		G: c.G + (to.G-c.G)*t,
		B: c.B + (to.B-c.B)*t,
		A: c.A + (to.A-c.A)*t,
	}
}

// WithAlpha returns c with its alpha multiplied by a.
func (c Color) WithAlpha(a float64) Color {
	c.A *= a
	return c
}

// toRGBA converts to a premultiplied color.RGBA, clamping each channel.
func (c Color) toRGBA() color.RGBA {
	a := clamp01(c.A)
	return color.RGBA{
		R: uint8(clamp01(c.R)*a*255 + 0.5),
		G: uint8(clamp01(c.G)*a*255 + 0.5),
		B: uint8(clamp01(c.B)*a*255 + 0.5),
		A: uint8(a*255 + 0.5),
	}
}

// Vec2 is a 2D vector used for screen positions and shape vertices.
type Vec2 struct {
	X, Y float64
}

// Lerp interpolates linearly from v toward to by t.
func (v Vec2) Lerp(to Vec2, t float64) Vec2 {
	return Vec2{X: v.X + (to.X-v.X)*t, Y: v.Y + (to.Y-v.Y)*t}
}

// DistSq returns the squared Euclidean distance between v and o.
func (v Vec2) DistSq(o Vec2) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	return dx*dx + dy*dy
}

// IsFinite reports whether both components are finite numbers.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Rect is an axis-aligned rectangle in screen space. The coordinate system has
// its origin at the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Vec2 {
	return Vec2{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// EntityKind distinguishes the two drawable entity types.
type EntityKind uint8

const (
	EntityMarker  EntityKind = iota // a single place marker
	EntityCluster                   // an aggregate glyph for two or more markers
)

// String returns "marker" or "cluster".
func (k EntityKind) String() string {
	if k == EntityCluster {
		return "cluster"
	}
	return "marker"
}

// EntityID keys animation state. Cluster ids are the id of the cluster's seed
// marker, so the two kinds share a numeric space without colliding.
type EntityID struct {
	Kind EntityKind
	ID   int
}

// ActivePlace names the place that starts selected after SetPlaces. Any
// integer is a valid place id, so Set marks whether ID means anything.
type ActivePlace struct {
	ID  int
	Set bool
}

// NoSelection starts SetPlaces with nothing selected.
var NoSelection = ActivePlace{}

// SelectPlace returns an ActivePlace for id.
func SelectPlace(id int) ActivePlace {
	return ActivePlace{ID: id, Set: true}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
