package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/phanxgames/hazardmap"
	"github.com/phanxgames/hazardmap/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// inspectReport is the headless view of one overlay pass.
type inspectReport struct {
	Places   int             `json:"places"`
	Markers  int             `json:"markers"`
	Visible  int             `json:"visible"`
	Fills    int             `json:"fills"`
	Badges   []string        `json:"badges"`
	Clusters []clusterReport `json:"clusters"`
	Taps     []tapReport     `json:"taps,omitempty"`
}

type clusterReport struct {
	Seed    int     `json:"seed"`
	Size    int     `json:"size"`
	Lon     float64 `json:"lon"`
	Lat     float64 `json:"lat"`
	ScreenX float64 `json:"screenX"`
	ScreenY float64 `json:"screenY"`
	Members []int   `json:"members"`
}

type tapReport struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Outcome     string  `json:"outcome"`
	MarkerID    *int    `json:"markerId,omitempty"`
	ClusterSize int     `json:"clusterSize,omitempty"`
	Title       string  `json:"title,omitempty"`
}

func newInspectCommand() *cobra.Command {
	var (
		placesPath string
		format     string
		taps       []string
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Report how a places file clusters at the configured camera",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			if placesPath == "" {
				placesPath = cliCtx.Config.Places.File
			}
			places, active, err := loadPlaces(placesPath)
			if err != nil {
				return err
			}
			points, err := parseTaps(taps)
			if err != nil {
				return err
			}
			rep, err := buildReport(cliCtx.Config, cliCtx.Logger, places, active, points)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), rep, format)
		},
	}
	cmd.Flags().StringVarP(&placesPath, "places", "p", "", "places JSON file (default: places.file)")
	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format (text, json)")
	cmd.Flags().StringArrayVar(&taps, "tap", nil, "resolve a tap at x,y screen pixels after the pass (repeatable)")
	return cmd
}

func parseTaps(raw []string) ([]hazardmap.Vec2, error) {
	out := make([]hazardmap.Vec2, 0, len(raw))
	for _, r := range raw {
		xs, ys, ok := strings.Cut(r, ",")
		if !ok {
			return nil, fmt.Errorf("tap %q: want x,y", r)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return nil, fmt.Errorf("tap %q: %w", r, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return nil, fmt.Errorf("tap %q: %w", r, err)
		}
		out = append(out, hazardmap.Vec2{X: x, Y: y})
	}
	return out, nil
}

// buildReport runs one pass over a recording canvas, then resolves taps in
// order. Each tap sees the selection left by the previous one.
func buildReport(cfg *config.Config, log zerolog.Logger, places []hazardmap.Place, active hazardmap.ActivePlace, taps []hazardmap.Vec2) (*inspectReport, error) {
	proj := newProjector(cfg)
	opts, err := overlayOptions(cfg, &log, nil)
	if err != nil {
		return nil, err
	}
	capture := &tapCapture{}
	opts.Sink = capture
	ov, err := hazardmap.NewOverlay(proj, opts)
	if err != nil {
		return nil, err
	}

	rep := &inspectReport{Places: len(places)}
	rep.Markers = ov.SetPlaces(places, active)

	canvas := &hazardmap.RecordingCanvas{}
	if !ov.Draw(canvas, 0) {
		return nil, fmt.Errorf("viewport unavailable at %vx%v", cfg.Window.Width, cfg.Window.Height)
	}
	rep.Fills = canvas.Count("fill")
	rep.Badges = canvas.Badges()

	for _, cl := range ov.Clusters() {
		at := proj.Project(cl.Centroid)
		cr := clusterReport{
			Seed:    cl.Seed().ID,
			Size:    cl.Len(),
			Lon:     cl.Centroid.Lon(),
			Lat:     cl.Centroid.Lat(),
			ScreenX: at.X,
			ScreenY: at.Y,
		}
		for _, m := range cl.Members {
			cr.Members = append(cr.Members, m.ID)
		}
		rep.Visible += cl.Len()
		rep.Clusters = append(rep.Clusters, cr)
	}

	for i, pt := range taps {
		ov.Tap(pt, int64(i+1)*1000)
		ev := capture.last
		tr := tapReport{X: pt.X, Y: pt.Y, Outcome: ev.Kind.String(), ClusterSize: ev.ClusterSize}
		if ev.HasMarker {
			id := ev.MarkerID
			tr.MarkerID = &id
		}
		if ev.Place != nil {
			tr.Title = ev.Place.Title
		}
		rep.Taps = append(rep.Taps, tr)
	}
	return rep, nil
}

// tapCapture keeps the last selection event.
type tapCapture struct {
	last hazardmap.SelectionEvent
}

func (c *tapCapture) EmitSelection(ev hazardmap.SelectionEvent) { c.last = ev }

func writeReport(w io.Writer, rep *inspectReport, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "", "text":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	fmt.Fprintf(w, "places %d  markers %d  visible %d  clusters %d  fills %d\n",
		rep.Places, rep.Markers, rep.Visible, len(rep.Clusters), rep.Fills)
	for _, c := range rep.Clusters {
		fmt.Fprintf(w, "  seed %-6d size %-4d at %.5f,%.5f  screen %.0f,%.0f  members %v\n",
			c.Seed, c.Size, c.Lat, c.Lon, c.ScreenX, c.ScreenY, c.Members)
	}
	for _, t := range rep.Taps {
		fmt.Fprintf(w, "  tap %.0f,%.0f -> %s", t.X, t.Y, t.Outcome)
		switch {
		case t.MarkerID == nil:
		case t.Outcome == "marker":
			fmt.Fprintf(w, " %d %q", *t.MarkerID, t.Title)
		case t.Outcome == "cluster":
			fmt.Fprintf(w, " seed %d size %d", *t.MarkerID, t.ClusterSize)
		case t.Outcome == "deselect":
			fmt.Fprintf(w, " cleared %d", *t.MarkerID)
		}
		fmt.Fprintln(w)
	}
	return nil
}
