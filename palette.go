package hazardmap

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPalette is returned when a palette has no shapes or no colors.
	ErrEmptyPalette = errors.New("hazardmap: palette needs at least one shape and one color")
	// ErrVertexCountMismatch is returned when palette shapes differ in vertex count.
	ErrVertexCountMismatch = errors.New("hazardmap: palette shapes must share a vertex count")
)

// Accent colors taken from the dark map theme.
var (
	AccentPrimary      = ColorFromARGB(0xFFF5C400)
	AccentStrong       = ColorFromARGB(0xFFFF5050)
	AccentTertiary     = ColorFromARGB(0xB3F5C400)
	PrimaryContainer   = ColorFromARGB(0xFF1C1C1C)
	SecondaryContainer = ColorFromARGB(0xFF3A1515)
	TertiaryContainer  = ColorFromARGB(0xFF2A2410)
	NightBackground    = ColorFromARGB(0xFF050505)
	OutlineDark        = ColorFromARGB(0xFF000000)
)

// Palette is the shared set of shape templates and fill colors markers are
// drawn from. Every shape has the same vertex count.
type Palette struct {
	Shapes []PolygonShape
	Colors []Color
}

// NewPalette validates and returns a palette. Shapes must be non-empty, have at
// least three vertices, and share a vertex count.
func NewPalette(shapes []PolygonShape, colors []Color) (*Palette, error) {
	if len(shapes) == 0 || len(colors) == 0 {
		return nil, ErrEmptyPalette
	}
	n := shapes[0].Len()
	if n < 3 {
		return nil, fmt.Errorf("shape %q has %d vertices: %w", shapes[0].Name, n, ErrVertexCountMismatch)
	}
	for _, s := range shapes[1:] {
		if s.Len() != n {
			return nil, fmt.Errorf("shape %q has %d vertices, want %d: %w", s.Name, s.Len(), n, ErrVertexCountMismatch)
		}
	}
	return &Palette{Shapes: shapes, Colors: colors}, nil
}

// DefaultPalette returns the built-in shapes and the theme accent colors.
func DefaultPalette() *Palette {
	return &Palette{
		Shapes: BuiltinShapes(DefaultVertexCount),
		Colors: []Color{
			AccentPrimary,
			AccentStrong,
			AccentTertiary,
			PrimaryContainer,
			SecondaryContainer,
			TertiaryContainer,
		},
	}
}

// VertexCount returns the shared ring size.
func (p *Palette) VertexCount() int {
	if len(p.Shapes) == 0 {
		return 0
	}
	return p.Shapes[0].Len()
}

// Shape returns the template at i, or an empty shape when i is out of range.
func (p *Palette) Shape(i int) PolygonShape {
	if i < 0 || i >= len(p.Shapes) {
		return PolygonShape{}
	}
	return p.Shapes[i]
}

// Color returns the color at i, or ColorWhite when i is out of range.
func (p *Palette) Color(i int) Color {
	if i < 0 || i >= len(p.Colors) {
		return ColorWhite
	}
	return p.Colors[i]
}
