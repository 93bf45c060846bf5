package config

import (
	"flag"
	"path/filepath"
)

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagAssets   = flag.String("assets", "", "Extra asset roots, separated by the OS path list separator")
	flagTileSize = flag.Int("tile-size", 0, "Tile size in pixels")
	flagPageSize = flag.Int("page-size", 0, "Atlas page size in pixels")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Render.ShowMarkers = true
	}
	if *flagAssets != "" {
		// Flag roots come last and so take priority over configured ones.
		cfg.Assets.Roots = append(cfg.Assets.Roots, filepath.SplitList(*flagAssets)...)
	}
	if *flagTileSize > 0 {
		cfg.Render.TileSize = *flagTileSize
	}
	if *flagPageSize > 0 {
		cfg.Atlas.PageSize = *flagPageSize
	}
}
