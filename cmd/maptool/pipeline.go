package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/rpgmap/internal/assets"
	"github.com/Faultbox/rpgmap/internal/config"
	"github.com/Faultbox/rpgmap/internal/content"
	"github.com/Faultbox/rpgmap/internal/logger"
	"github.com/Faultbox/rpgmap/pkg/atlas"
	"github.com/Faultbox/rpgmap/pkg/formats"
	"github.com/Faultbox/rpgmap/pkg/migrate"
	"github.com/Faultbox/rpgmap/pkg/render"
	"github.com/Faultbox/rpgmap/pkg/tile"
	"github.com/Faultbox/rpgmap/pkg/tilemap"
)

// loadGrid migrates a legacy map file using the built-in catalog.
func loadGrid(path string) (*tilemap.Grid, migrate.Report, error) {
	reg, err := content.NewRegistry()
	if err != nil {
		return nil, migrate.Report{}, err
	}
	m, err := content.NewMigrator(reg)
	if err != nil {
		return nil, migrate.Report{}, err
	}
	return m.MigrateFile(path)
}

// pipeline wires assets, atlas and renderer from the config.
type pipeline struct {
	assets   *assets.Manager
	packer   *atlas.Packer
	renderer *render.Renderer
}

func newPipeline(cfg *config.Config) (*pipeline, error) {
	mgr, err := assets.NewManager(cfg.CacheBytes())
	if err != nil {
		return nil, err
	}
	for _, root := range cfg.Assets.Roots {
		if err := mgr.AddRoot(root); err != nil {
			logger.Warn("skipping asset root", zap.String("dir", root), zap.Error(err))
		}
	}

	packer := atlas.New(cfg.Atlas.PageSize, mgr)
	r, err := render.New(render.Config{
		TileSize:    cfg.Render.TileSize,
		ShowMarkers: cfg.Render.ShowMarkers,
	}, packer)
	if err != nil {
		mgr.Close()
		return nil, err
	}
	return &pipeline{assets: mgr, packer: packer, renderer: r}, nil
}

func (p *pipeline) Close() {
	p.assets.Close()
}

// redrawOnChange invalidates the atlas and calls draw after each batch of
// asset changes until ctx is done or the stream closes.
func (p *pipeline) redrawOnChange(ctx context.Context, changes <-chan string, draw func() error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case name, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Info("asset changed, redrawing", zap.String("name", name))
		drain:
			for {
				select {
				case _, ok := <-changes:
					if !ok {
						break drain
					}
				default:
					break drain
				}
			}
			p.packer.Invalidate()
			if err := draw(); err != nil {
				return err
			}
		}
	}
}

// Legacy terrain ids written by demoMap, see content.LegacyTables.
const (
	fixtureGrass = 10
	fixtureDirt  = 11
	fixtureSand  = 12
	fixtureWater = 13
	fixturePath  = 14
)

// demoMap builds a small legacy map exercising every behavior: a dirt
// road through grass with a pond, a hedge row, trees, a rock cluster,
// tall grass, a house with its doormat and sign, a spawn and a warp.
func demoMap(name string, width, height int32) (*formats.LegacyMap, error) {
	if width < 12 || height < 10 {
		return nil, fmt.Errorf("demo map needs at least 12x10, got %dx%d", width, height)
	}
	m := &formats.LegacyMap{
		Version:     formats.LegacyVersion,
		Name:        name,
		Environment: uint8(tile.Overworld),
		Weather:     uint8(tile.Clear),
		Width:       width,
		Height:      height,
		Cells:       make([]formats.LegacyCell, int(width)*int(height)),
	}
	set := func(x, y, slot int, id int32) {
		m.Cells[y*int(width)+x][slot] = id
	}

	for y := 0; y < int(height); y++ {
		for x := 0; x < int(width); x++ {
			id := int32(fixtureGrass)
			switch {
			case y == int(height)/2:
				id = fixtureDirt
			case x == 2 && y < int(height)/2:
				id = fixturePath
			case x >= int(width)-4 && y >= int(height)-3:
				id = fixtureWater
			case x >= int(width)-5 && y >= int(height)-4:
				id = fixtureSand
			}
			set(x, y, formats.LegacyTerrain, id)
		}
	}

	deco := func(id int32, cells ...[2]int) {
		for _, c := range cells {
			set(c[0], c[1], formats.LegacyDecoration, id)
		}
	}
	deco(1, [2]int{4, 1}, [2]int{5, 1}, [2]int{6, 1}, [2]int{7, 1}, [2]int{8, 1})
	deco(2, [2]int{0, 3}, [2]int{1, 3})
	deco(3, [2]int{5, 3}, [2]int{6, 3}, [2]int{5, 4}, [2]int{6, 4}, [2]int{8, 3})
	for x := 0; x < 4; x++ {
		deco(4, [2]int{x, int(height) - 2})
	}
	deco(7, [2]int{2, 0})
	deco(5, [2]int{2, 1})
	deco(8, [2]int{3, 0})
	deco(6, [2]int{7, int(height) - 3})
	deco(9, [2]int{10, 2}, [2]int{10, 3})

	set(1, int(height)-2, formats.LegacyCreature, 1)
	set(int(width)-1, int(height)/2, formats.LegacyControl, 1)
	return m, nil
}

func writeDemoMap(path, name string, width, height int32) error {
	m, err := demoMap(name, width, height)
	if err != nil {
		return err
	}
	buf := new(bytes.Buffer)
	if err := formats.WriteLegacyMap(buf, m); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
