package hazardmap

import (
	"testing"
)

func newTestGame(t *testing.T) (*Game, *[]*Place) {
	t.Helper()
	var got []*Place
	proj := newTestMercator()
	g, err := NewGame(proj, Options{
		Palette:            testPalette(t),
		Policy:             &CyclePolicy{Step: 30},
		OnSelectionChanged: func(p *Place) { got = append(got, p) },
	})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	// Two places 40 px apart cluster; the third stands alone.
	screen := []Vec2{{400, 300}, {440, 300}, {700, 100}}
	places := make([]Place, len(screen))
	for i, s := range screen {
		pt := proj.Unproject(s)
		places[i] = placeAt(i+1, pt.Lon(), pt.Lat())
	}
	g.Overlay().SetPlaces(places, NoSelection)
	g.Overlay().Draw(&RecordingCanvas{}, 0)
	return g, &got
}

func TestNewGameRejectsNilProjector(t *testing.T) {
	if _, err := NewGame(nil, Options{}); err == nil {
		t.Error("expected error")
	}
}

func TestGameInjectedTapSelectsMarker(t *testing.T) {
	g, got := newTestGame(t)
	g.InjectTap(700, 100)
	if g.PendingInjections() != 2 {
		t.Fatalf("pending = %d, want press and release", g.PendingInjections())
	}
	g.processInjected(10)
	g.processInjected(20)
	if g.PendingInjections() != 0 {
		t.Error("queue should be drained")
	}
	if len(*got) != 1 || (*got)[0] == nil || (*got)[0].ID != 3 {
		t.Fatalf("selection = %v, want place 3", *got)
	}
	if g.processInjected(30) {
		t.Error("empty queue should report false")
	}
}

func TestGameClusterTapFliesIn(t *testing.T) {
	g, _ := newTestGame(t)
	g.InjectTap(420, 300)
	g.processInjected(0)
	g.processInjected(0)
	if !g.proj.Flying() {
		t.Error("cluster tap should start a fly-to")
	}
}

func TestGameInjectedDragPans(t *testing.T) {
	g, _ := newTestGame(t)
	before := g.proj.Center
	g.InjectDrag(100, 100, 160, 100, 4)
	if g.PendingInjections() != 4 {
		t.Fatalf("pending = %d, want 4", g.PendingInjections())
	}
	for g.PendingInjections() > 0 {
		g.processInjected(0)
	}
	if g.proj.Center == before {
		t.Error("drag should pan the map")
	}
	if !g.Overlay().NeedsRedraw() {
		t.Error("pan should invalidate the overlay")
	}
	if g.Overlay().Selected() != nil {
		t.Error("drag must not select")
	}
}

func TestGameInjectedZoom(t *testing.T) {
	g, _ := newTestGame(t)
	g.InjectZoom(0, 0, 0)
	if g.PendingInjections() != 0 {
		t.Error("zero zoom should be ignored")
	}
	g.InjectZoom(1, 400, 300)
	g.processInjected(0)
	assertNear(t, "Zoom", g.proj.Zoom, 13)
}

func TestGameZoomIgnoredWhilePointerHeld(t *testing.T) {
	g, _ := newTestGame(t)
	g.inject = append(g.inject, pointerSample{x: 100, y: 100, pressed: true})
	g.processInjected(0)
	g.InjectZoom(1, 400, 300)
	g.processInjected(0)
	assertNear(t, "Zoom while held", g.proj.Zoom, 12)

	g.inject = append(g.inject, pointerSample{x: 100, y: 100})
	g.processInjected(0)
	g.InjectZoom(1, 400, 300)
	g.processInjected(0)
	assertNear(t, "Zoom after release", g.proj.Zoom, 13)
}

func TestGameSubmitPlacesNewestWins(t *testing.T) {
	g, _ := newTestGame(t)
	g.SubmitPlaces([]Place{placeAt(10, 30.5, 50.4)}, NoSelection)
	g.SubmitPlaces([]Place{placeAt(20, 30.5, 50.4), placeAt(21, 30.6, 50.4)}, SelectPlace(21))

	u := <-g.places
	if len(u.places) != 2 || u.active != SelectPlace(21) {
		t.Errorf("snapshot = %+v, want the second", u)
	}
	select {
	case <-g.places:
		t.Error("stale snapshot should have been dropped")
	default:
	}
}

func TestGameLayoutSyncsViewport(t *testing.T) {
	g, _ := newTestGame(t)
	g.Overlay().Draw(&RecordingCanvas{}, 0)
	w, h := g.Layout(1024, 768)
	if w != 1024 || h != 768 {
		t.Errorf("Layout = %d x %d", w, h)
	}
	if g.proj.Viewport.Width != 1024 || g.proj.Viewport.Height != 768 {
		t.Errorf("viewport = %+v", g.proj.Viewport)
	}
	if !g.Overlay().NeedsRedraw() {
		t.Error("resize should invalidate the overlay")
	}
}

func TestGameScriptDone(t *testing.T) {
	g, _ := newTestGame(t)
	if g.ScriptDone() {
		t.Error("no script attached")
	}
	s, err := LoadScript([]byte(`{"steps": [{"action": "tap", "x": 700, "y": 100}]}`))
	if err != nil {
		t.Fatal(err)
	}
	g.SetScript(s)
	s.Step(g)
	for g.PendingInjections() > 0 {
		g.processInjected(0)
	}
	s.Step(g)
	if !g.ScriptDone() {
		t.Error("script should be done")
	}
	if sel := g.Overlay().Selected(); sel == nil || sel.ID != 3 {
		t.Errorf("selected = %v, want 3", sel)
	}
}

func TestHUDText(t *testing.T) {
	g, _ := newTestGame(t)
	got := hudText(g.Overlay(), 60, 60)
	want := "FPS 60.0  TPS 60.0\nmarkers 3  visible 3  clusters 2 (1 grouped)  morphing 0"
	if got != want {
		t.Errorf("hudText = %q, want %q", got, want)
	}
	g.Overlay().Draw(&RecordingCanvas{}, 0)
	g.ShowHUD(true)
	if !g.hud || !g.Overlay().NeedsRedraw() {
		t.Error("ShowHUD should enable the HUD and request a redraw")
	}
}

func TestGameScreenshotQueues(t *testing.T) {
	g, _ := newTestGame(t)
	g.Screenshot("after tap")
	if len(g.shots) != 1 || !g.Overlay().NeedsRedraw() {
		t.Error("Screenshot should queue a capture and request a redraw")
	}
}
