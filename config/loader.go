package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads the configuration from config.toml and returns a Config struct
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath("$HOME/.config/maskline/")
	viper.AddConfigPath(".")

	return load()
}

// LoadFile reads the configuration from an explicit path
func LoadFile(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("toml")

	return load()
}

func load() (*Config, error) {
	// Set defaults from DefaultConfig
	defaults := DefaultConfig()
	viper.SetDefault("video.loop", defaults.Video.Loop)
	viper.SetDefault("sync.interval_ms", defaults.Sync.IntervalMs)
	viper.SetDefault("sync.threshold_ms", defaults.Sync.ThresholdMs)
	viper.SetDefault("effect.outline_color", defaults.Effect.OutlineColor)
	viper.SetDefault("effect.outline_width", defaults.Effect.OutlineWidth)
	viper.SetDefault("effect.opacity", defaults.Effect.Opacity)
	viper.SetDefault("preview.enabled", defaults.Preview.Enabled)
	viper.SetDefault("preview.fps", defaults.Preview.FPS)
	viper.SetDefault("preview.width", defaults.Preview.Width)
	viper.SetDefault("ui.progress_bar_width", defaults.UI.ProgressBarWidth)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.file", defaults.Log.File)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// The two locators are the only external configuration without defaults
	required := []string{
		"video.source",
		"video.mask",
	}
	for _, key := range required {
		if !viper.IsSet(key) {
			return nil, fmt.Errorf("missing required config: %s", key)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
