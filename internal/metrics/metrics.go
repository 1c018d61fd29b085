// Package metrics holds the overlay's Prometheus instruments. Nothing here
// serves HTTP; hosts register the collectors on their own registry and decide
// how to expose it.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hazardmap"

// Tap outcome label values.
const (
	TapMarker   = "marker"
	TapCluster  = "cluster"
	TapDeselect = "deselect"
)

// Overlay groups the per-frame and per-tap instruments. A nil *Overlay is
// valid and records nothing.
type Overlay struct {
	FramesDrawn    prometheus.Counter
	FramesSkipped  prometheus.Counter
	VisibleMarkers prometheus.Gauge
	Clusters       prometheus.Gauge
	Animating      prometheus.Gauge
	FrameSeconds   prometheus.Histogram
	Taps           *prometheus.CounterVec
}

// New creates the instruments and registers them on reg. A nil reg leaves them
// unregistered but usable.
func New(reg prometheus.Registerer) (*Overlay, error) {
	m := &Overlay{
		FramesDrawn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "frames_drawn_total",
			Help: "Draw passes that produced output.",
		}),
		FramesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "frames_skipped_total",
			Help: "Draw passes skipped because the viewport was unavailable.",
		}),
		VisibleMarkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "visible_markers",
			Help: "Markers inside the expanded viewport on the last pass.",
		}),
		Clusters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "clusters",
			Help: "Clusters (including singletons) on the last pass.",
		}),
		Animating: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "animating_entities",
			Help: "Markers and clusters morphing after the last pass.",
		}),
		FrameSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "frame_seconds",
			Help:    "Wall time of a draw pass.",
			Buckets: []float64{.0005, .001, .002, .004, .008, .016, .033},
		}),
		Taps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "taps_total",
			Help: "Tap resolutions by outcome.",
		}, []string{"outcome"}),
	}
	if reg == nil {
		return m, nil
	}
	// Overlays sharing a registry share its collectors.
	var err error
	if m.FramesDrawn, err = register(reg, m.FramesDrawn); err != nil {
		return nil, err
	}
	if m.FramesSkipped, err = register(reg, m.FramesSkipped); err != nil {
		return nil, err
	}
	if m.VisibleMarkers, err = register(reg, m.VisibleMarkers); err != nil {
		return nil, err
	}
	if m.Clusters, err = register(reg, m.Clusters); err != nil {
		return nil, err
	}
	if m.Animating, err = register(reg, m.Animating); err != nil {
		return nil, err
	}
	if m.FrameSeconds, err = register(reg, m.FrameSeconds); err != nil {
		return nil, err
	}
	if m.Taps, err = register(reg, m.Taps); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg. If an equal collector is already registered it is
// returned in place of c.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("register overlay metrics: %w", err)
}

// ObserveFrame records a completed draw pass.
func (m *Overlay) ObserveFrame(visible, clusters, animating int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.FramesDrawn.Inc()
	m.VisibleMarkers.Set(float64(visible))
	m.Clusters.Set(float64(clusters))
	m.Animating.Set(float64(animating))
	m.FrameSeconds.Observe(elapsed.Seconds())
}

// FrameSkipped records a pass skipped for lack of a viewport.
func (m *Overlay) FrameSkipped() {
	if m == nil {
		return
	}
	m.FramesSkipped.Inc()
}

// Tap records a tap resolution.
func (m *Overlay) Tap(outcome string) {
	if m == nil {
		return
	}
	m.Taps.WithLabelValues(outcome).Inc()
}
