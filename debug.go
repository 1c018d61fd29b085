package hazardmap

import (
	"time"

	"github.com/rs/zerolog"
)

// debugStats holds per-pass timing and counts.
// Only populated when Options.Debug is true.
type debugStats struct {
	cullTime    time.Duration
	clusterTime time.Duration
	drawTime    time.Duration
	sweepTime   time.Duration

	markers   int
	visible   int
	clusters  int // every group, singletons included
	grouped   int // groups with more than one member
	fills     int
	animating int
}

func (s debugStats) total() time.Duration {
	return s.cullTime + s.clusterTime + s.drawTime + s.sweepTime
}

// debugLog writes the pass stats at debug level.
func debugLog(log zerolog.Logger, stats debugStats) {
	log.Debug().
		Dur("cull", stats.cullTime).
		Dur("cluster", stats.clusterTime).
		Dur("draw", stats.drawTime).
		Dur("sweep", stats.sweepTime).
		Dur("total", stats.total()).
		Int("markers", stats.markers).
		Int("visible", stats.visible).
		Int("clusters", stats.clusters).
		Int("grouped", stats.grouped).
		Int("fills", stats.fills).
		Int("animating", stats.animating).
		Msg("frame")
}

// debugMaxVisible is the visible-marker count above which quadratic
// clustering starts to cost a noticeable slice of a 16 ms frame.
const debugMaxVisible = 2000

func debugCheckVisible(log zerolog.Logger, visible int) {
	if visible > debugMaxVisible {
		log.Warn().Int("visible", visible).Int("threshold", debugMaxVisible).
			Msg("many visible markers; clustering is quadratic")
	}
}

// countClustered returns how many clusters hold more than one member.
func countClustered(clusters []Cluster) int {
	n := 0
	for i := range clusters {
		if clusters[i].Len() > 1 {
			n++
		}
	}
	return n
}
