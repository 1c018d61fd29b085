package hazardmap

// Canvas receives the overlay's draw calls for one pass. Points are in screen
// pixels and describe a closed ring.
type Canvas interface {
	FillPolygon(points []Vec2, fill Color)
	StrokePolygon(points []Vec2, stroke Color, width float64)
	DrawBadge(center Vec2, radius float64, fill Color, label string)
}

// drawCall is one recorded Canvas call.
type drawCall struct {
	op     string
	points []Vec2
	color  Color
	width  float64
	center Vec2
	radius float64
	label  string
}

// RecordingCanvas stores draw calls instead of rasterizing them. Headless
// hosts use it to inspect a pass; tests use it to assert on output.
type RecordingCanvas struct {
	calls []drawCall
}

// FillPolygon implements Canvas.
func (r *RecordingCanvas) FillPolygon(points []Vec2, fill Color) {
	r.calls = append(r.calls, drawCall{op: "fill", points: append([]Vec2(nil), points...), color: fill})
}

// StrokePolygon implements Canvas.
func (r *RecordingCanvas) StrokePolygon(points []Vec2, stroke Color, width float64) {
	r.calls = append(r.calls, drawCall{op: "stroke", points: append([]Vec2(nil), points...), color: stroke, width: width})
}

// DrawBadge implements Canvas.
func (r *RecordingCanvas) DrawBadge(center Vec2, radius float64, fill Color, label string) {
	r.calls = append(r.calls, drawCall{op: "badge", center: center, radius: radius, color: fill, label: label})
}

// Reset discards recorded calls.
func (r *RecordingCanvas) Reset() {
	r.calls = r.calls[:0]
}

// Count returns how many calls of op ("fill", "stroke", "badge") were recorded.
func (r *RecordingCanvas) Count(op string) int {
	n := 0
	for i := range r.calls {
		if r.calls[i].op == op {
			n++
		}
	}
	return n
}

// Badges returns the labels of recorded badges in draw order.
func (r *RecordingCanvas) Badges() []string {
	var out []string
	for i := range r.calls {
		if r.calls[i].op == "badge" {
			out = append(out, r.calls[i].label)
		}
	}
	return out
}
