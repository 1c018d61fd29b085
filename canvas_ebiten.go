package hazardmap

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// --- White pixel singleton (no sync.Once; ebiten draws on one goroutine) ---

var whitePixelImage *ebiten.Image

// ensureWhitePixel returns a lazily-initialized 1x1 white pixel image used as
// the source for untextured polygon fills.
func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixelImage
}

// EbitenCanvas draws overlay passes onto an ebiten image.
type EbitenCanvas struct {
	Target    *ebiten.Image
	AntiAlias bool

	verts []ebiten.Vertex
	inds  []uint16
}

// NewEbitenCanvas returns a canvas drawing onto target.
func NewEbitenCanvas(target *ebiten.Image) *EbitenCanvas {
	return &EbitenCanvas{Target: target, AntiAlias: true}
}

// FillPolygon implements Canvas.
func (c *EbitenCanvas) FillPolygon(points []Vec2, fill Color) {
	if c.Target == nil {
		return
	}
	c.verts, c.inds = buildPolygonFan(points, fill, c.verts[:0], c.inds[:0])
	if len(c.inds) == 0 {
		return
	}
	var op ebiten.DrawTrianglesOptions
	op.AntiAlias = c.AntiAlias
	c.Target.DrawTriangles(c.verts, c.inds, ensureWhitePixel(), &op)
}

// StrokePolygon implements Canvas.
func (c *EbitenCanvas) StrokePolygon(points []Vec2, stroke Color, width float64) {
	if c.Target == nil || len(points) < 2 || width <= 0 {
		return
	}
	clr := stroke.toRGBA()
	for i := range points {
		a := points[i]
		b := points[(i+1)%len(points)]
		vector.StrokeLine(c.Target, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y),
			float32(width), clr, c.AntiAlias)
	}
}

// DrawBadge implements Canvas. The label uses ebiten's debug font, which is
// 6x16 pixels per glyph.
func (c *EbitenCanvas) DrawBadge(center Vec2, radius float64, fill Color, label string) {
	if c.Target == nil {
		return
	}
	vector.DrawFilledCircle(c.Target, float32(center.X), float32(center.Y), float32(radius), fill.toRGBA(), c.AntiAlias)
	x := int(center.X) - 3*len(label)
	y := int(center.Y) - 8
	ebitenutil.DebugPrintAt(c.Target, label, x, y)
}

// buildPolygonFan triangulates a closed ring as a fan around its vertex
// centroid, appending to verts and inds. Fanning from the centroid keeps
// star-shaped outlines (cookies, flowers) correct where a fan from vertex 0
// would not. Rings with fewer than three points produce nothing.
func buildPolygonFan(points []Vec2, fill Color, verts []ebiten.Vertex, inds []uint16) ([]ebiten.Vertex, []uint16) {
	n := len(points)
	if n < 3 || n+1 > 0xffff {
		return verts, inds
	}
	var cx, cy float64
	for _, p := range points {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(n)
	cy /= float64(n)

	a := float32(clamp01(fill.A))
	r := float32(clamp01(fill.R)) * a
	g := float32(clamp01(fill.G)) * a
	b := float32(clamp01(fill.B)) * a

	base := uint16(len(verts))
	verts = append(verts, ebiten.Vertex{
		DstX: float32(cx), DstY: float32(cy),
		SrcX: 0.5, SrcY: 0.5,
		ColorR: r, ColorG: g, ColorB: b, ColorA: a,
	})
	for _, p := range points {
		verts = append(verts, ebiten.Vertex{
			DstX: float32(p.X), DstY: float32(p.Y),
			SrcX: 0.5, SrcY: 0.5,
			ColorR: r, ColorG: g, ColorB: b, ColorA: a,
		})
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		inds = append(inds, base, base+1+uint16(i), base+1+uint16(j))
	}
	return verts, inds
}
