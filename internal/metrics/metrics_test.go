package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveFrame(12, 4, 1, 2*time.Millisecond)
	m.Tap(TapMarker)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["hazardmap_frames_drawn_total"])
	assert.True(t, names["hazardmap_visible_markers"])
	assert.True(t, names["hazardmap_taps_total"])
	assert.True(t, names["hazardmap_frame_seconds"])
}

func TestNew_SharedRegistryReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := New(reg)
	require.NoError(t, err)
	b, err := New(reg)
	require.NoError(t, err)

	b.ObserveFrame(5, 2, 0, time.Millisecond)
	b.ObserveFrame(5, 2, 0, time.Millisecond)
	b.Tap(TapCluster)
	a.ObserveFrame(9, 4, 1, time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(a.FramesDrawn))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Taps.WithLabelValues(TapCluster)))
	assert.Equal(t, 9.0, testutil.ToFloat64(b.VisibleMarkers))

	n, err := testutil.GatherAndCount(reg, "hazardmap_frames_drawn_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNew_ConflictingRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	// Same name, different help text.
	require.NoError(t, reg.Register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "frames_drawn_total", Help: "something else",
	})))
	_, err := New(reg)
	assert.Error(t, err)
}

func TestObserveFrame(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	m.ObserveFrame(10, 3, 2, time.Millisecond)
	m.ObserveFrame(7, 2, 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesDrawn))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.VisibleMarkers))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Clusters))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Animating))
}

func TestTapAndSkipCounters(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	m.Tap(TapMarker)
	m.Tap(TapMarker)
	m.Tap(TapDeselect)
	m.FrameSkipped()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Taps.WithLabelValues(TapMarker)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Taps.WithLabelValues(TapDeselect)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Taps.WithLabelValues(TapCluster)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesSkipped))
}

func TestNilOverlayIsNoop(t *testing.T) {
	var m *Overlay
	assert.NotPanics(t, func() {
		m.ObserveFrame(1, 1, 1, time.Millisecond)
		m.FrameSkipped()
		m.Tap(TapCluster)
	})
}
