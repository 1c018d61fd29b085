// Package config loads hazardmap settings from a config file and HAZARDMAP_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for all settings.
const envPrefix = "HAZARDMAP"

// Reselect policy names accepted in overlay.reselect.
const (
	ReselectReshuffle = "reshuffle"
	ReselectDeselect  = "deselect"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full settings tree.
type Config struct {
	Overlay OverlayConfig `mapstructure:"overlay"`
	Map     MapConfig     `mapstructure:"map"`
	Window  WindowConfig  `mapstructure:"window"`
	Places  PlacesConfig  `mapstructure:"places"`
	Log     LogConfig     `mapstructure:"log"`
	Debug   bool          `mapstructure:"debug"`
}

// OverlayConfig tunes clustering, hit testing and animation.
type OverlayConfig struct {
	ClusterRadiusDp float64 `mapstructure:"clusterRadiusDp"`
	TapToleranceDp  float64 `mapstructure:"tapToleranceDp"`
	Density         float64 `mapstructure:"density"`
	DurationMs      int64   `mapstructure:"durationMs"`
	FrameIntervalMs int64   `mapstructure:"frameIntervalMs"`
	CullScale       float64 `mapstructure:"cullScale"`
	Reselect        string  `mapstructure:"reselect"`
	// Seed drives the random reshuffle policy; 0 seeds from the clock.
	Seed uint64 `mapstructure:"seed"`
}

// MapConfig is the initial camera.
type MapConfig struct {
	CenterLat float64 `mapstructure:"centerLat"`
	CenterLon float64 `mapstructure:"centerLon"`
	Zoom      float64 `mapstructure:"zoom"`
}

// WindowConfig sizes the demo window.
type WindowConfig struct {
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Title  string `mapstructure:"title"`
}

// PlacesConfig points at the places JSON file.
type PlacesConfig struct {
	File string `mapstructure:"file"`
}

// LogConfig selects the zerolog level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// newViper builds a viper instance with the HAZARDMAP_ prefix, automatic env
// binding and a "." → "_" replacer, so "overlay.durationMs" resolves to
// HAZARDMAP_OVERLAY_DURATIONMS.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

// setDefaults registers every key so env overrides reach Unmarshal even when
// no file mentions them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("overlay.clusterRadiusDp", 150.0)
	v.SetDefault("overlay.tapToleranceDp", 40.0)
	v.SetDefault("overlay.density", 1.0)
	v.SetDefault("overlay.durationMs", 500)
	v.SetDefault("overlay.frameIntervalMs", 16)
	v.SetDefault("overlay.cullScale", 1.5)
	v.SetDefault("overlay.reselect", ReselectReshuffle)
	v.SetDefault("overlay.seed", 0)

	v.SetDefault("map.centerLat", 50.4501)
	v.SetDefault("map.centerLon", 30.5234)
	v.SetDefault("map.zoom", 12.0)

	v.SetDefault("window.width", 960)
	v.SetDefault("window.height", 720)
	v.SetDefault("window.title", "hazardmap")

	v.SetDefault("places.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("debug", false)
}

// Load reads the file at path (format picked from its extension), applies
// HAZARDMAP_* overrides and validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return unmarshalAndValidate(v)
}

// LoadFromEnv builds a Config from defaults and HAZARDMAP_* variables only.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndValidate(newViper())
}

// Default returns the built-in settings.
func Default() *Config {
	cfg, err := LoadFromEnv()
	if err != nil {
		// Env overrides were bad; fall back to pure defaults.
		v := viper.New()
		setDefaults(v)
		cfg = &Config{}
		_ = v.Unmarshal(cfg)
	}
	return cfg
}

func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges. Errors wrap ErrInvalid.
func (c *Config) Validate() error {
	o := c.Overlay
	switch {
	case !(o.ClusterRadiusDp > 0) || math.IsInf(o.ClusterRadiusDp, 0):
		return fmt.Errorf("%w: overlay.clusterRadiusDp must be > 0", ErrInvalid)
	case !(o.TapToleranceDp > 0) || math.IsInf(o.TapToleranceDp, 0):
		return fmt.Errorf("%w: overlay.tapToleranceDp must be > 0", ErrInvalid)
	case !(o.Density > 0) || math.IsInf(o.Density, 0):
		return fmt.Errorf("%w: overlay.density must be > 0", ErrInvalid)
	case o.DurationMs <= 0:
		return fmt.Errorf("%w: overlay.durationMs must be > 0", ErrInvalid)
	case o.FrameIntervalMs <= 0:
		return fmt.Errorf("%w: overlay.frameIntervalMs must be > 0", ErrInvalid)
	case !(o.CullScale >= 1):
		return fmt.Errorf("%w: overlay.cullScale must be >= 1", ErrInvalid)
	}
	switch strings.ToLower(o.Reselect) {
	case ReselectReshuffle, ReselectDeselect:
	default:
		return fmt.Errorf("%w: overlay.reselect %q (want %q or %q)", ErrInvalid, o.Reselect, ReselectReshuffle, ReselectDeselect)
	}
	if c.Map.CenterLat < -90 || c.Map.CenterLat > 90 {
		return fmt.Errorf("%w: map.centerLat %v out of range", ErrInvalid, c.Map.CenterLat)
	}
	if c.Map.CenterLon < -180 || c.Map.CenterLon > 180 {
		return fmt.Errorf("%w: map.centerLon %v out of range", ErrInvalid, c.Map.CenterLon)
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 22 {
		return fmt.Errorf("%w: map.zoom %v out of range", ErrInvalid, c.Map.Zoom)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	return nil
}
