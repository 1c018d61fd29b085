package hazardmap

import "math"

// DefaultVertexCount is the ring size used by every built-in shape template.
// Morphing interpolates vertex i of one ring toward vertex i of another, so all
// templates in a palette must share one count.
const DefaultVertexCount = 48

// PolygonShape is a closed loop of vertices in shape-local space. The last
// vertex connects back to the first. Shapes are value types: interpolation and
// transformation return new rings and never modify the receiver.
type PolygonShape struct {
	Name   string
	Points []Vec2
}

// Len returns the number of vertices in the ring.
func (s PolygonShape) Len() int {
	return len(s.Points)
}

// Bounds returns the axis-aligned bounding box of the ring.
func (s PolygonShape) Bounds() Rect {
	if len(s.Points) == 0 {
		return Rect{}
	}
	minX, minY := s.Points[0].X, s.Points[0].Y
	maxX, maxY := minX, minY
	for _, p := range s.Points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Lerp interpolates vertex-wise from s toward to by t. t may leave [0, 1]
// (overshoot easing). Returns false, and s unchanged, when either ring is
// empty or the vertex counts differ.
func (s PolygonShape) Lerp(to PolygonShape, t float64) (PolygonShape, bool) {
	if len(s.Points) == 0 || len(s.Points) != len(to.Points) {
		return s, false
	}
	out := PolygonShape{Name: to.Name, Points: make([]Vec2, len(s.Points))}
	if t < 0.5 {
		out.Name = s.Name
	}
	for i := range s.Points {
		out.Points[i] = s.Points[i].Lerp(to.Points[i], t)
	}
	return out, true
}

// Fit fits the ring into a size×size box centered on at (uniform scale,
// aspect preserved), rotates it by rotationDeg clockwise about at, and writes the
// screen-space vertices into dst, which is grown as needed and returned.
func (s PolygonShape) Fit(at Vec2, size, rotationDeg float64, dst []Vec2) []Vec2 {
	dst = dst[:0]
	if len(s.Points) == 0 {
		return dst
	}
	b := s.Bounds()
	scale := 1.0
	if m := math.Max(b.Width, b.Height); m > 0 {
		scale = size / m
	}
	c := b.Center()
	rad := rotationDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	for _, p := range s.Points {
		x := (p.X - c.X) * scale
		y := (p.Y - c.Y) * scale
		dst = append(dst, Vec2{
			X: at.X + x*cos - y*sin,
			Y: at.Y + x*sin + y*cos,
		})
	}
	return dst
}

// RadialShape samples r(theta) at n evenly spaced angles, starting at the top
// (theta = -π/2) and proceeding clockwise in screen space.
func RadialShape(name string, n int, r func(theta float64) float64) PolygonShape {
	pts := make([]Vec2, n)
	for i := range pts {
		theta := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		rad := r(theta)
		pts[i] = Vec2{X: rad * math.Cos(theta), Y: rad * math.Sin(theta)}
	}
	return PolygonShape{Name: name, Points: pts}
}

// ParametricShape samples fn(t) for t in [0, 1) at n evenly spaced steps.
func ParametricShape(name string, n int, fn func(t float64) Vec2) PolygonShape {
	pts := make([]Vec2, n)
	for i := range pts {
		pts[i] = fn(float64(i) / float64(n))
	}
	return PolygonShape{Name: name, Points: pts}
}

// regularRadius returns the polar radius of a regular k-gon with unit
// circumradius whose first corner sits at angle offset.
func regularRadius(k int, offset float64) func(float64) float64 {
	seg := 2 * math.Pi / float64(k)
	return func(theta float64) float64 {
		a := math.Mod(theta-offset, seg)
		if a < 0 {
			a += seg
		}
		return math.Cos(math.Pi/float64(k)) / math.Cos(a-math.Pi/float64(k))
	}
}

// wavyRadius returns a radius that ripples k times around the ring.
func wavyRadius(k int, depth float64) func(float64) float64 {
	return func(theta float64) float64 {
		return 1 + depth*math.Cos(float64(k)*(theta+math.Pi/2))
	}
}

// superellipse returns a parametric rounded rectangle of half extents (a, b).
func superellipse(a, b, exp float64) func(float64) Vec2 {
	return func(t float64) Vec2 {
		theta := -math.Pi/2 + 2*math.Pi*t
		c, s := math.Cos(theta), math.Sin(theta)
		return Vec2{
			X: a * math.Copysign(math.Pow(math.Abs(c), 2/exp), c),
			Y: b * math.Copysign(math.Pow(math.Abs(s), 2/exp), s),
		}
	}
}

// BuiltinShapes returns the default marker templates, each sampled with n
// vertices.
func BuiltinShapes(n int) []PolygonShape {
	top := -math.Pi / 2
	return []PolygonShape{
		RadialShape("circle", n, func(float64) float64 { return 1 }),
		ParametricShape("oval", n, superellipse(1, 0.7, 2)),
		RadialShape("diamond", n, regularRadius(4, top)),
		RadialShape("sunny", n, wavyRadius(8, 0.08)),
		ParametricShape("square", n, superellipse(1, 1, 6)),
		ParametricShape("pill", n, superellipse(1, 0.5, 4)),
		RadialShape("cookie4", n, wavyRadius(4, 0.12)),
		ParametricShape("slanted", n, func(t float64) Vec2 {
			p := superellipse(0.8, 0.8, 5)(t)
			return Vec2{X: p.X - 0.25*p.Y, Y: p.Y}
		}),
		RadialShape("triangle", n, regularRadius(3, top)),
		RadialShape("pentagon", n, regularRadius(5, top)),
		RadialShape("cookie6", n, wavyRadius(6, 0.1)),
		ParametricShape("arch", n, func(t float64) Vec2 {
			p := superellipse(0.8, 1, 4)(t)
			if p.Y < 0 {
				p.Y *= 0.85
			}
			return p
		}),
		RadialShape("gem", n, regularRadius(6, top)),
		RadialShape("cookie7", n, wavyRadius(7, 0.1)),
		RadialShape("arrow", n, func(theta float64) float64 {
			return regularRadius(3, top)(theta) * (0.75 + 0.25*math.Abs(math.Sin(theta)))
		}),
		ParametricShape("ghostish", n, func(t float64) Vec2 {
			p := superellipse(0.8, 1, 3)(t)
			if p.Y > 0 {
				p.Y += 0.08 * math.Sin(p.X*4*math.Pi)
			}
			return p
		}),
		RadialShape("flower", n, wavyRadius(5, 0.22)),
		ParametricShape("bun", n, func(t float64) Vec2 {
			p := superellipse(1, 0.75, 2.5)(t)
			p.Y *= 1 - 0.15*math.Cos(2*math.Pi*(p.X+1)/2)
			return p
		}),
	}
}
