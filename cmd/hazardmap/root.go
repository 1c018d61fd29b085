package main

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/phanxgames/hazardmap"
	"github.com/phanxgames/hazardmap/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// rootOptions holds the global flags.
type rootOptions struct {
	ConfigPath string
	LogLevel   string
	Debug      bool
}

// cliContext carries the loaded config and logger to subcommands.
type cliContext struct {
	Config *config.Config
	Logger zerolog.Logger
}

type cliContextKey struct{}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "hazardmap",
		Short: "Clustered, morphing place markers over a map",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: environment only)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (trace, debug, info, warn, error); overrides log.level")
	pf.BoolVar(&opts.Debug, "debug", false, "log per-frame timing")

	cmd.AddCommand(newRunCommand(), newInspectCommand())
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *rootOptions) error {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.Debug {
		cfg.Debug = true
	}

	log := newLogger(cmd.ErrOrStderr(), cfg.Log.Level)
	log.Debug().Str("config", opts.ConfigPath).Msg("configuration loaded")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, &cliContext{Config: cfg, Logger: log}))
	return nil
}

func getCLIContext(cmd *cobra.Command) (*cliContext, error) {
	if ctx := cmd.Context(); ctx != nil {
		if c, ok := ctx.Value(cliContextKey{}).(*cliContext); ok {
			return c, nil
		}
	}
	return nil, errors.New("cli context not initialized")
}

// newLogger returns a console logger at level. Unknown levels fall back to info.
func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}

// overlayOptions maps config onto overlay options.
func overlayOptions(cfg *config.Config, log *zerolog.Logger, reg prometheus.Registerer) (hazardmap.Options, error) {
	reselect, err := hazardmap.ParseReselectPolicy(cfg.Overlay.Reselect)
	if err != nil {
		return hazardmap.Options{}, err
	}
	return hazardmap.Options{
		Policy:          hazardmap.NewRandomPolicy(cfg.Overlay.Seed),
		Density:         cfg.Overlay.Density,
		ClusterRadiusDp: cfg.Overlay.ClusterRadiusDp,
		TapToleranceDp:  cfg.Overlay.TapToleranceDp,
		CullScale:       cfg.Overlay.CullScale,
		DurationMs:      cfg.Overlay.DurationMs,
		FrameIntervalMs: cfg.Overlay.FrameIntervalMs,
		Reselect:        reselect,
		Logger:          log,
		Registerer:      reg,
		Debug:           cfg.Debug,
	}, nil
}
