// Package config handles map tool configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// Config holds all settings.
type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Atlas   AtlasConfig   `yaml:"atlas"`
	Assets  AssetsConfig  `yaml:"assets"`
	Logging LoggingConfig `yaml:"logging"`
}

// RenderConfig holds drawing and frame loop settings.
type RenderConfig struct {
	TileSize      int     `yaml:"tile_size"`
	ShowMarkers   bool    `yaml:"show_markers"` // Draw creature and control markers
	FixedTickRate float64 `yaml:"fixed_tick_rate"`
	FrameRate     float64 `yaml:"frame_rate"`
}

// AtlasConfig holds texture atlas settings.
type AtlasConfig struct {
	PageSize int `yaml:"page_size"`
}

// AssetsConfig holds asset source settings.
type AssetsConfig struct {
	Roots   []string `yaml:"roots"` // Searched last to first
	CacheMB int      `yaml:"cache_mb"`
	Watch   bool     `yaml:"watch"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			TileSize:      32,
			ShowMarkers:   false,
			FixedTickRate: 20,
			FrameRate:     60,
		},
		Atlas: AtlasConfig{
			PageSize: 1024,
		},
		Assets: AssetsConfig{
			Roots:   []string{"assets"},
			CacheMB: 64,
			Watch:   false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// CacheBytes returns the asset cache capacity in bytes.
func (c *Config) CacheBytes() int64 {
	return int64(c.Assets.CacheMB) << 20
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Render.TileSize <= 0 {
		errs = append(errs, fmt.Errorf("render.tile_size must be positive, got %d", c.Render.TileSize))
	}
	if c.Render.FixedTickRate <= 0 {
		errs = append(errs, fmt.Errorf("render.fixed_tick_rate must be positive, got %g", c.Render.FixedTickRate))
	}
	if c.Render.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("render.frame_rate must be positive, got %g", c.Render.FrameRate))
	}
	if c.Atlas.PageSize < c.Render.TileSize {
		errs = append(errs, fmt.Errorf("atlas.page_size %d is smaller than a tile", c.Atlas.PageSize))
	}
	if c.Assets.CacheMB < 0 {
		errs = append(errs, fmt.Errorf("assets.cache_mb must not be negative, got %d", c.Assets.CacheMB))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	return errors.Join(errs...)
}
