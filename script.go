package hazardmap

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrEmptyScript is returned for a script with no steps.
	ErrEmptyScript = errors.New("hazardmap: script has no steps")
	// ErrUnknownAction is returned for a step whose action is not recognized.
	ErrUnknownAction = errors.New("hazardmap: unknown script action")
)

// scriptStep is a single action in a script.
type scriptStep struct {
	Action string  `json:"action"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Frames int     `json:"frames,omitempty"`
	Delta  float64 `json:"delta,omitempty"`
	Label  string  `json:"label,omitempty"`
}

type scriptFile struct {
	Steps []scriptStep `json:"steps"`
}

// ScriptTarget receives the synthetic input a Script produces. Game
// implements it.
type ScriptTarget interface {
	// InjectTap queues a press and release at (x, y).
	InjectTap(x, y float64)
	// InjectDrag queues a press, frames-2 moves and a release.
	InjectDrag(fromX, fromY, toX, toY float64, frames int)
	// InjectZoom queues a zoom of delta levels anchored at (x, y).
	InjectZoom(delta, x, y float64)
	// PendingInjections returns how many queued events are not yet consumed.
	PendingInjections() int
	// Screenshot queues a labeled capture of the next drawn frame.
	Screenshot(label string)
}

// Script replays taps, pans, zooms and waits across frames, one action per
// frame once earlier injections have drained.
//
// Script JSON:
//
//	{"steps": [
//	  {"action": "tap", "x": 480, "y": 360},
//	  {"action": "wait", "frames": 40},
//	  {"action": "pan", "fromX": 400, "fromY": 300, "toX": 200, "toY": 300, "frames": 10},
//	  {"action": "zoom", "x": 480, "y": 360, "delta": -1},
//	  {"action": "screenshot", "label": "zoomed-out"}
//	]}
type Script struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScript parses and validates a JSON script.
func LoadScript(data []byte) (*Script, error) {
	var f scriptFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, ErrEmptyScript
	}
	for i, st := range f.Steps {
		switch st.Action {
		case "tap", "wait", "pan", "zoom", "screenshot":
		default:
			return nil, fmt.Errorf("step %d: %w: %q", i, ErrUnknownAction, st.Action)
		}
	}
	return &Script{steps: f.Steps}, nil
}

// Len returns the number of steps.
func (r *Script) Len() int {
	return len(r.steps)
}

// Done reports whether every step has run and its input has drained.
func (r *Script) Done() bool {
	return r.done
}

// Step advances the script by one frame.
func (r *Script) Step(t ScriptTarget) {
	if r.done {
		return
	}
	if t.PendingInjections() > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "tap":
		t.InjectTap(st.X, st.Y)
	case "pan":
		frames := st.Frames
		if frames < 2 {
			frames = 2
		}
		t.InjectDrag(st.FromX, st.FromY, st.ToX, st.ToY, frames)
	case "zoom":
		t.InjectZoom(st.Delta, st.X, st.Y)
	case "screenshot":
		t.Screenshot(st.Label)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && t.PendingInjections() == 0 {
		r.done = true
	}
}
