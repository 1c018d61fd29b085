package main

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/phanxgames/hazardmap"
	"github.com/phanxgames/hazardmap/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	var placesPath, scriptPath, shotDir string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open a window showing the place overlay",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			if placesPath == "" {
				placesPath = cliCtx.Config.Places.File
			}
			return runWindow(cliCtx.Config, cliCtx.Logger, placesPath, scriptPath, shotDir)
		},
	}
	cmd.Flags().StringVarP(&placesPath, "places", "p", "", "places JSON file (default: places.file)")
	cmd.Flags().StringVar(&scriptPath, "script", "", "tap script to replay; the window closes when it ends")
	cmd.Flags().StringVar(&shotDir, "screenshots", hazardmap.DefaultScreenshotDir, "directory for script screenshots")
	return cmd
}

func newProjector(cfg *config.Config) *hazardmap.MercatorProjector {
	return hazardmap.NewMercatorProjector(
		orb.Point{cfg.Map.CenterLon, cfg.Map.CenterLat},
		cfg.Map.Zoom,
		hazardmap.Rect{Width: float64(cfg.Window.Width), Height: float64(cfg.Window.Height)},
	)
}

func runWindow(cfg *config.Config, log zerolog.Logger, placesPath, scriptPath, shotDir string) error {
	reg := prometheus.NewRegistry()
	opts, err := overlayOptions(cfg, &log, reg)
	if err != nil {
		return err
	}
	opts.OnSelectionChanged = func(p *hazardmap.Place) {
		if p == nil {
			log.Info().Msg("selection cleared")
			return
		}
		log.Info().Int("id", p.ID).Str("title", p.Title).Str("address", p.Address).Msg("place selected")
	}

	g, err := hazardmap.NewGame(newProjector(cfg), opts)
	if err != nil {
		return err
	}

	g.SetScreenshotDir(shotDir)
	g.ShowHUD(cfg.Debug)

	if scriptPath != "" {
		data, err := os.ReadFile(scriptPath)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		s, err := hazardmap.LoadScript(data)
		if err != nil {
			return err
		}
		g.SetScript(s)
		g.ExitWhenScriptDone(true)
		log.Info().Int("steps", s.Len()).Str("script", scriptPath).Msg("script attached")
	}

	if placesPath == "" {
		log.Warn().Msg("no places file; the map starts empty")
	} else {
		// Places load off the game loop, as a network refresh would.
		go func() {
			places, active, err := loadPlaces(placesPath)
			if err != nil {
				log.Error().Err(err).Str("file", placesPath).Msg("load places")
				return
			}
			log.Info().Int("places", len(places)).Str("file", placesPath).Msg("places loaded")
			g.SubmitPlaces(places, active)
		}()
	}

	err = hazardmap.Run(g, hazardmap.RunConfig{
		Title:  cfg.Window.Title,
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
	})
	logFrameSummary(log, reg)
	return err
}

// logFrameSummary logs the frame and tap counters gathered during the run.
func logFrameSummary(log zerolog.Logger, g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		log.Debug().Err(err).Msg("gather metrics")
		return
	}
	ev := log.Info()
	for _, mf := range families {
		switch mf.GetName() {
		case "hazardmap_frames_drawn_total", "hazardmap_frames_skipped_total":
			if m := mf.GetMetric(); len(m) > 0 {
				ev = ev.Float64(mf.GetName(), m[0].GetCounter().GetValue())
			}
		case "hazardmap_taps_total":
			total := 0.0
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			ev = ev.Float64(mf.GetName(), total)
		}
	}
	ev.Msg("session summary")
}
