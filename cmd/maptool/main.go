// maptool is a CLI utility for inspecting, rendering and previewing legacy
// tile maps.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/rpgmap/internal/config"
	"github.com/Faultbox/rpgmap/internal/content"
	"github.com/Faultbox/rpgmap/internal/logger"
	"github.com/Faultbox/rpgmap/pkg/atlas"
	"github.com/Faultbox/rpgmap/pkg/events"
	"github.com/Faultbox/rpgmap/pkg/render"
	"github.com/Faultbox/rpgmap/pkg/tile"
	"github.com/Faultbox/rpgmap/pkg/tilemap"
)

func main() {
	config.ParseFlags()
	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "info":
		err = cmdInfo(args)
	case "render":
		err = cmdRender(cfg, args)
	case "atlas":
		err = cmdAtlas(cfg, args)
	case "watch":
		err = cmdWatch(cfg, args)
	case "kinds":
		err = cmdKinds()
	case "demo":
		err = cmdDemo(args)
	case "config":
		err = cmdConfig(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`maptool - legacy tile map utility

Usage:
  maptool [-config file] [-debug] [-assets dirs] [-tile-size n] [-page-size n] <command> [options]

Commands:
  info <file.map>                  Show map header and kind usage
  render <file.map> <out.png>      Render one frame to a PNG (-watch to keep it current)
  atlas <out-dir> <texture...>     Pack textures and write the atlas pages
  watch <file.map> <out.png>       Re-render whenever an asset changes
  kinds                            Dump the built-in tile catalog as YAML
  demo <out.map> [width height]    Write a demo legacy map
  config [-save]                   Print or save the effective configuration

Examples:
  maptool demo village.map
  maptool info village.map
  maptool -assets ./tiles render -t 1.5 village.map village.png
  maptool -assets ./tiles watch village.map preview.png`)
}

type layerUsage struct {
	Kinds   map[string]int `yaml:"kinds"`
	Unknown int            `yaml:"unknown,omitempty"`
	IDs     []int          `yaml:"unknown_ids,omitempty,flow"`
}

type mapInfo struct {
	Name        string                `yaml:"name"`
	Width       int                   `yaml:"width"`
	Height      int                   `yaml:"height"`
	Environment string                `yaml:"environment"`
	Weather     string                `yaml:"weather"`
	Layers      map[string]layerUsage `yaml:"layers"`
}

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	asYAML := fs.Bool("yaml", false, "Print as YAML")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: maptool info [-yaml] <file.map>")
	}

	grid, report, err := loadGrid(fs.Arg(0))
	if err != nil {
		return err
	}

	info := mapInfo{
		Name:        grid.Name,
		Width:       grid.Width(),
		Height:      grid.Height(),
		Environment: grid.Environment.String(),
		Weather:     grid.Weather.String(),
		Layers:      make(map[string]layerUsage),
	}
	reg := grid.Registry()
	for _, l := range tile.Layers {
		usage := layerUsage{
			Kinds:   make(map[string]int),
			Unknown: report.Unknown[l],
		}
		for _, id := range report.UnknownIDs[l] {
			usage.IDs = append(usage.IDs, int(id))
		}
		for y := 0; y < grid.Height(); y++ {
			for x := 0; x < grid.Width(); x++ {
				id, _ := grid.At(l, x, y)
				if k := reg.Kind(id); !k.IsDefault() {
					usage.Kinds[k.ID]++
				}
			}
		}
		info.Layers[l.String()] = usage
	}

	if *asYAML {
		out, err := yaml.Marshal(info)
		if err != nil {
			return err
		}
		os.Stdout.Write(out)
		return nil
	}

	fmt.Printf("Map:         %s\n", info.Name)
	fmt.Printf("Size:        %dx%d\n", info.Width, info.Height)
	fmt.Printf("Environment: %s\n", info.Environment)
	fmt.Printf("Weather:     %s\n", info.Weather)
	for _, l := range tile.Layers {
		usage := info.Layers[l.String()]
		fmt.Printf("\n%s:\n", l)

		names := make([]string, 0, len(usage.Kinds))
		for name := range usage.Kinds {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			if usage.Kinds[names[i]] != usage.Kinds[names[j]] {
				return usage.Kinds[names[i]] > usage.Kinds[names[j]]
			}
			return names[i] < names[j]
		})
		for _, name := range names {
			fmt.Printf("  %-12s %d\n", name, usage.Kinds[name])
		}
		if usage.Unknown > 0 {
			fmt.Printf("  %-12s %d %v\n", "(unknown)", usage.Unknown, usage.IDs)
		}
	}
	return nil
}

func cmdRender(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	seconds := fs.Float64("t", 0, "Animation time in seconds")
	markers := fs.Bool("markers", cfg.Render.ShowMarkers, "Draw creature and control markers")
	watch := fs.Bool("watch", cfg.Assets.Watch, "Render again whenever an asset changes")
	fs.Parse(args)

	if fs.NArg() < 2 {
		return fmt.Errorf("usage: maptool render [-t seconds] [-markers] [-watch] <file.map> <out.png>")
	}
	cfg.Render.ShowMarkers = *markers
	out := fs.Arg(1)

	grid, _, err := loadGrid(fs.Arg(0))
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	p.renderer.SetGrid(grid)
	frame := render.Frame{
		Seconds: *seconds,
		Tick:    uint64(*seconds * cfg.Render.FixedTickRate),
	}
	draw := func() error {
		img, err := p.renderer.Render(frame)
		if err != nil {
			return err
		}
		if err := writePNG(out, img); err != nil {
			return err
		}
		stats := p.packer.Stats()
		fmt.Printf("Rendered %s (%dx%d px), %d textures on %d pages, %d missing\n",
			out, img.Bounds().Dx(), img.Bounds().Dy(), stats.Regions, stats.Pages, stats.Failed)
		return nil
	}
	if err := draw(); err != nil {
		return err
	}
	if !*watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	changes, err := p.assets.Watch(ctx)
	if err != nil {
		return err
	}
	return p.redrawOnChange(ctx, changes, draw)
}

func cmdConfig(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	save := fs.Bool("save", false, "Write the effective config to the user config directory")
	fs.Parse(args)

	if *save {
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
		return nil
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func cmdAtlas(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: maptool atlas <out-dir> <texture...>")
	}
	outDir := args[0]

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	type placed struct {
		Name   string `yaml:"name"`
		Kind   string `yaml:"kind"`
		Page   int    `yaml:"page"`
		X      int    `yaml:"x"`
		Y      int    `yaml:"y"`
		Width  int    `yaml:"width"`
		Height int    `yaml:"height"`
	}
	var regions []placed
	for _, name := range args[1:] {
		r := p.packer.Lookup(name)
		kind := "packed"
		switch r.Kind {
		case atlas.Placeholder:
			kind = "missing"
		case atlas.Standalone:
			kind = "standalone"
		}
		regions = append(regions, placed{
			Name: name, Kind: kind, Page: r.Page,
			X: r.Rect.Min.X, Y: r.Rect.Min.Y, Width: r.Rect.Dx(), Height: r.Rect.Dy(),
		})
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	for i := 0; i < p.packer.Pages(); i++ {
		path := filepath.Join(outDir, fmt.Sprintf("page_%02d.png", i))
		if err := writePNG(path, p.packer.Page(i)); err != nil {
			return err
		}
	}

	out, err := yaml.Marshal(map[string]any{
		"page_size": p.packer.PageSize(),
		"regions":   regions,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, "atlas.yaml"), out, 0644); err != nil {
		return err
	}
	fmt.Printf("Packed %d textures into %d pages in %s\n", len(regions), p.packer.Pages(), outDir)
	return nil
}

func cmdWatch(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: maptool watch <file.map> <out.png>")
	}
	out := args[1]

	grid, _, err := loadGrid(args[0])
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	changes, err := p.assets.Watch(ctx)
	if err != nil {
		return err
	}

	// The preview walks a player back and forth across the map, one cell
	// per second, so that event and single-fire tiles get exercised.
	route := walkRoute(grid)
	if len(route) == 0 {
		return fmt.Errorf("no walkable route across %s", args[0])
	}
	logger.Info("preview route", zap.Int("cells", len(route)), zap.Stringer("from", route[0]))

	clock := &events.Clock{Env: grid.Environment, Sky: grid.Weather}
	dispatcher := events.New(grid)
	p.renderer.SetGrid(grid)
	p.renderer.SetOccupancy(dispatcher)

	dt := 1 / cfg.Render.FixedTickRate
	perSecond := max(uint64(cfg.Render.FixedTickRate), 1)
	var written uint64
	first := true
	loop := &render.Loop{
		TickRate: cfg.Render.FixedTickRate,
		Changes:  changes,
		Packer:   p.packer,
		Update: func(tick uint64) error {
			clock.Advance(dt)
			step := int(tick / perSecond)
			return dispatcher.Step(clock, "player", pingPong(route, step))
		},
		Draw: func(f render.Frame) error {
			// An empty packer means the assets were just invalidated.
			stats := p.packer.Stats()
			stale := stats.Regions+stats.Failed == 0
			if !first && !stale && f.Tick-written < perSecond {
				return nil
			}
			first = false
			written = f.Tick
			img, err := p.renderer.Render(f)
			if err != nil {
				return err
			}
			logger.Info("preview written", zap.String("path", out), zap.Uint64("tick", f.Tick))
			return writePNG(out, img)
		},
	}

	start := time.Now()
	err = loop.Run(ctx, cfg.Render.FrameRate)
	logger.Info("watch finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("effects", len(clock.Effects)),
	)
	return err
}

// walkRoute finds a walkable path between the first walkable cells of the
// left and right map edges, scanning outward from the middle row.
func walkRoute(grid *tilemap.Grid) []tile.Point {
	edge := func(x int) (tile.Point, bool) {
		mid := grid.Height() / 2
		for d := 0; d <= grid.Height(); d++ {
			for _, y := range []int{mid - d, mid + d} {
				if grid.Walkable(x, y) {
					return tile.Point{X: x, Y: y}, true
				}
			}
		}
		return tile.Point{}, false
	}
	from, ok := edge(0)
	if !ok {
		return nil
	}
	to, ok := edge(grid.Width() - 1)
	if !ok {
		return nil
	}
	return grid.FindPath(from, to)
}

// pingPong returns the cell of a route at a step, walking it forwards then
// backwards.
func pingPong(route []tile.Point, step int) tile.Point {
	if len(route) == 1 {
		return route[0]
	}
	period := 2 * (len(route) - 1)
	i := step % period
	if i >= len(route) {
		i = period - i
	}
	return route[i]
}

func cmdKinds() error {
	type kindInfo struct {
		ID         string   `yaml:"id"`
		Layer      string   `yaml:"layer"`
		Texture    string   `yaml:"texture,omitempty"`
		Transition string   `yaml:"transition,omitempty"`
		Overlay    string   `yaml:"overlay,omitempty"`
		Priority   int      `yaml:"priority,omitempty"`
		Solid      bool     `yaml:"solid,omitempty"`
		Behavior   string   `yaml:"behavior"`
		Attributes []string `yaml:"attributes,omitempty,flow"`
	}

	var kinds []kindInfo
	for _, k := range content.Kinds() {
		info := kindInfo{
			ID:         k.ID,
			Layer:      k.Layer.String(),
			Texture:    k.Texture,
			Transition: k.Transition,
			Overlay:    k.Overlay,
			Priority:   k.Priority,
			Solid:      k.Solid,
			Behavior:   fmt.Sprintf("%T", k.Behavior),
		}
		if k.Behavior == nil {
			info.Behavior = "tile.Plain"
		}
		for _, a := range k.Attributes {
			info.Attributes = append(info.Attributes, a.Key)
		}
		kinds = append(kinds, info)
	}

	out, err := yaml.Marshal(kinds)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func cmdDemo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: maptool demo <out.map> [width height]")
	}
	width, height := int32(16), int32(12)
	if len(args) >= 3 {
		w, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid width: %w", err)
		}
		h, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid height: %w", err)
		}
		width, height = int32(w), int32(h)
	}

	name := filepath.Base(args[0])
	name = name[:len(name)-len(filepath.Ext(name))]
	if err := writeDemoMap(args[0], name, width, height); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%dx%d)\n", args[0], width, height)
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
