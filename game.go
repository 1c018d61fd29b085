package hazardmap

import (
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"
)

// Cluster tap fly-to: zoom in this many levels over DefaultDurationMs.
const clusterZoomStep = 2

// wheelZoomStep is the zoom change per wheel notch.
const wheelZoomStep = 0.25

// pointerSample is one injected pointer state, consumed one per tick.
type pointerSample struct {
	x, y    float64
	pressed bool
	zoom    float64 // non-zero: a zoom event anchored at x, y
}

// Game is an ebiten.Game that hosts an Overlay over a MercatorProjector. It
// reads taps, drags and the wheel, flies toward tapped clusters, and only
// redraws when the overlay asks for it.
type Game struct {
	overlay   *Overlay
	proj      *MercatorProjector
	scheduler *LoopScheduler
	canvas    *EbitenCanvas
	clock     func() int64

	gestures gestureTracker
	inject   []pointerSample
	script   *Script
	exitDone bool

	places chan placesUpdate

	log     zerolog.Logger
	shots   []string
	shotDir string
	hud     bool

	background Color
	lastMs     int64
	width      int
	height     int
}

type placesUpdate struct {
	places []Place
	active ActivePlace
}

// NewGame builds a game around proj. opts.Scheduler is replaced with the
// game's loop scheduler.
func NewGame(proj *MercatorProjector, opts Options) (*Game, error) {
	if proj == nil {
		return nil, errors.New("hazardmap: nil projector")
	}
	start := time.Now()
	clock := func() int64 { return time.Since(start).Milliseconds() }

	g := &Game{
		proj:       proj,
		clock:      clock,
		scheduler:  NewLoopScheduler(clock),
		canvas:     NewEbitenCanvas(nil),
		gestures:   newGestureTracker(0),
		places:     make(chan placesUpdate, 1),
		background: NightBackground,
		log:        zerolog.Nop(),
	}
	if opts.Logger != nil {
		g.log = *opts.Logger
	}
	opts.Scheduler = g.scheduler
	ov, err := NewOverlay(proj, opts)
	if err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}
	g.overlay = ov
	return g, nil
}

// Overlay returns the hosted overlay.
func (g *Game) Overlay() *Overlay { return g.overlay }

// SetScript attaches a script, replayed from the next Update.
func (g *Game) SetScript(s *Script) { g.script = s }

// ScriptDone reports whether an attached script has finished.
func (g *Game) ScriptDone() bool { return g.script != nil && g.script.Done() }

// ExitWhenScriptDone makes Update end the game once the script finishes.
func (g *Game) ExitWhenScriptDone(exit bool) { g.exitDone = exit }

// SubmitPlaces hands a new place snapshot to the game. It is safe to call
// from any goroutine; the newest snapshot wins and is applied on the next
// Update.
func (g *Game) SubmitPlaces(places []Place, active ActivePlace) {
	u := placesUpdate{places: places, active: active}
	for {
		select {
		case g.places <- u:
			return
		default:
		}
		// Drop the stale snapshot and retry.
		select {
		case <-g.places:
		default:
		}
	}
}

// InjectTap implements ScriptTarget.
func (g *Game) InjectTap(x, y float64) {
	g.inject = append(g.inject,
		pointerSample{x: x, y: y, pressed: true},
		pointerSample{x: x, y: y, pressed: false})
}

// InjectDrag implements ScriptTarget.
func (g *Game) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	g.inject = append(g.inject, pointerSample{x: fromX, y: fromY, pressed: true})
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		g.inject = append(g.inject, pointerSample{
			x: fromX + (toX-fromX)*t, y: fromY + (toY-fromY)*t, pressed: true,
		})
	}
	g.inject = append(g.inject, pointerSample{x: toX, y: toY, pressed: false})
}

// InjectZoom implements ScriptTarget.
func (g *Game) InjectZoom(delta, x, y float64) {
	if delta == 0 {
		return
	}
	g.inject = append(g.inject, pointerSample{x: x, y: y, zoom: delta})
}

// PendingInjections implements ScriptTarget.
func (g *Game) PendingInjections() int { return len(g.inject) }

// Update implements ebiten.Game.
func (g *Game) Update() error {
	now := g.clock()
	dt := now - g.lastMs
	g.lastMs = now

	select {
	case u := <-g.places:
		g.overlay.SetPlaces(u.places, u.active)
	default:
	}

	if g.script != nil {
		if g.exitDone && g.script.Done() {
			return ebiten.Termination
		}
		g.script.Step(g)
	}
	if !g.processInjected(now) {
		g.processPointer(now)
		if _, wy := ebiten.Wheel(); wy != 0 {
			mx, my := ebiten.CursorPosition()
			g.zoom(wy*wheelZoomStep, Vec2{X: float64(mx), Y: float64(my)})
		}
	}

	if g.proj.Update(dt) {
		g.overlay.Invalidate()
	}
	g.scheduler.RunDue(now)
	return nil
}

// processInjected consumes one injected sample. Returns true if one was
// consumed, in which case real input is skipped this tick.
func (g *Game) processInjected(nowMs int64) bool {
	if len(g.inject) == 0 {
		return false
	}
	s := g.inject[0]
	copy(g.inject, g.inject[1:])
	g.inject = g.inject[:len(g.inject)-1]

	if s.zoom != 0 {
		g.zoom(s.zoom, Vec2{X: s.x, Y: s.y})
		return true
	}
	g.handleGesture(g.gestures.Feed(s.x, s.y, s.pressed), nowMs)
	return true
}

// processPointer feeds the first touch when one is down or just lifted, and
// the mouse otherwise.
func (g *Game) processPointer(nowMs int64) {
	var x, y int
	var pressed bool
	if ids := ebiten.AppendTouchIDs(nil); len(ids) > 0 {
		x, y = ebiten.TouchPosition(ids[0])
		pressed = true
	} else if ids := inpututil.AppendJustReleasedTouchIDs(nil); len(ids) > 0 {
		x, y = inpututil.TouchPositionInPreviousTick(ids[0])
	} else {
		x, y = ebiten.CursorPosition()
		pressed = ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	}
	g.handleGesture(g.gestures.Feed(float64(x), float64(y), pressed), nowMs)
}

func (g *Game) handleGesture(gs Gesture, nowMs int64) {
	switch gs.Kind {
	case GestureTap:
		target, hit := g.overlay.Tap(Vec2{X: gs.X, Y: gs.Y}, nowMs)
		if hit && target.Kind == EntityCluster {
			g.flyToCluster(target)
		}
	case GesturePan:
		g.proj.PanBy(gs.DX, gs.DY)
		g.overlay.Invalidate()
	}
}

func (g *Game) flyToCluster(target HitTarget) {
	clusters := g.overlay.Clusters()
	if target.Cluster < 0 || target.Cluster >= len(clusters) {
		return
	}
	g.proj.FlyTo(clusters[target.Cluster].Centroid, g.proj.Zoom+clusterZoomStep, DefaultDurationMs, nil)
}

// zoom is ignored while the pointer is held.
func (g *Game) zoom(delta float64, anchor Vec2) {
	if g.gestures.Down() {
		return
	}
	g.proj.ZoomBy(delta, anchor)
	g.overlay.Invalidate()
}

// Draw implements ebiten.Game. The screen is not cleared between frames, so
// skipping a pass leaves the previous one visible.
func (g *Game) Draw(screen *ebiten.Image) {
	if !g.overlay.NeedsRedraw() {
		return
	}
	screen.Fill(g.background.toRGBA())
	g.canvas.Target = screen
	g.overlay.Draw(g.canvas, g.clock())
	if g.hud {
		ebitenutil.DebugPrintAt(screen, hudText(g.overlay, ebiten.ActualFPS(), ebiten.ActualTPS()), 8, 8)
	}
	g.flushScreenshots(screen)
}

// Layout implements ebiten.Game and keeps the projector viewport in sync
// with the window.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.proj.Viewport = Rect{Width: float64(outsideWidth), Height: float64(outsideHeight)}
		g.proj.MarkDirty()
		g.overlay.Invalidate()
	}
	return outsideWidth, outsideHeight
}

// RunConfig configures Run.
type RunConfig struct {
	Title         string
	Width, Height int
}

// Run opens a window and runs g until the window closes.
func Run(g *Game, cfg RunConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 960, 720
	}
	if cfg.Title == "" {
		cfg.Title = "hazardmap"
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetScreenClearedEveryFrame(false)
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("run game: %w", err)
	}
	return nil
}
