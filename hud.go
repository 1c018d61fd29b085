package hazardmap

import "fmt"

// ShowHUD toggles a text line with frame rate and overlay counts in the top
// left corner. It refreshes whenever the overlay redraws.
func (g *Game) ShowHUD(show bool) {
	g.hud = show
	g.overlay.Invalidate()
}

func hudText(ov *Overlay, fps, tps float64) string {
	visible := 0
	clusters := ov.Clusters()
	for i := range clusters {
		visible += clusters[i].Len()
	}
	return fmt.Sprintf("FPS %.1f  TPS %.1f\nmarkers %d  visible %d  clusters %d (%d grouped)  morphing %d",
		fps, tps, ov.Store().Len(), visible, len(clusters), countClustered(clusters), ov.Animator().Count())
}
