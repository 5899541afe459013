package config

import (
	"fmt"
	"image/color"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Config represents the complete application configuration
type Config struct {
	Video   VideoConfig   `mapstructure:"video"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Effect  EffectConfig  `mapstructure:"effect"`
	Preview PreviewConfig `mapstructure:"preview"`
	UI      UIConfig      `mapstructure:"ui"`
	Log     LogConfig     `mapstructure:"log"`
}

// VideoConfig names the two source locators of the pair. These are the only
// required settings.
type VideoConfig struct {
	Source string `mapstructure:"source"` // content video, the timing reference
	Mask   string `mapstructure:"mask"`   // mask video, corrected toward the content
	Loop   bool   `mapstructure:"loop"`
}

// SyncConfig tunes the drift corrector
type SyncConfig struct {
	IntervalMs  int `mapstructure:"interval_ms"`
	ThresholdMs int `mapstructure:"threshold_ms"`
}

// EffectConfig parameterizes the outline compositing
type EffectConfig struct {
	OutlineColor string  `mapstructure:"outline_color"` // hex, e.g. "#ff2d2d"
	OutlineWidth int     `mapstructure:"outline_width"`
	Opacity      float64 `mapstructure:"opacity"`
}

// PreviewConfig controls the ASCII preview pipeline
type PreviewConfig struct {
	Enabled bool `mapstructure:"enabled"`
	FPS     int  `mapstructure:"fps"`
	Width   int  `mapstructure:"width"`
}

// UIConfig contains user interface settings
type UIConfig struct {
	ProgressBarWidth int `mapstructure:"progress_bar_width"`
}

// LogConfig contains logging settings. File is optional; with the TUI on
// the terminal, logging to a file is usually what you want.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// GetInterval returns the drift check interval as a time.Duration
func (s *SyncConfig) GetInterval() time.Duration {
	return time.Duration(s.IntervalMs) * time.Millisecond
}

// GetThreshold returns the correction threshold in seconds
func (s *SyncConfig) GetThreshold() float64 {
	return float64(s.ThresholdMs) / 1000.0
}

// ParseOutlineColor parses the configured hex color
func (e *EffectConfig) ParseOutlineColor() (color.RGBA, error) {
	c, err := colorful.Hex(e.OutlineColor)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid outline color %q: %w", e.OutlineColor, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// Validate checks value ranges beyond the required-key checks in the loader
func (c *Config) Validate() error {
	if c.Effect.Opacity < 0 || c.Effect.Opacity > 1 {
		return fmt.Errorf("effect.opacity must be within [0,1], got %g", c.Effect.Opacity)
	}
	if c.Sync.IntervalMs <= 0 {
		return fmt.Errorf("sync.interval_ms must be positive, got %d", c.Sync.IntervalMs)
	}
	if c.Sync.ThresholdMs <= 0 {
		return fmt.Errorf("sync.threshold_ms must be positive, got %d", c.Sync.ThresholdMs)
	}
	if _, err := c.Effect.ParseOutlineColor(); err != nil {
		return err
	}
	return nil
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Video: VideoConfig{
			Loop: true,
		},
		Sync: SyncConfig{
			IntervalMs:  500,
			ThresholdMs: 100,
		},
		Effect: EffectConfig{
			OutlineColor: "#ff2d2d",
			OutlineWidth: 2,
			Opacity:      0.85,
		},
		Preview: PreviewConfig{
			Enabled: true,
			FPS:     4,
			Width:   96,
		},
		UI: UIConfig{
			ProgressBarWidth: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
