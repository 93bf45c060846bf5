// Package migrate rebuilds tile grids from legacy map streams.
package migrate

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/Faultbox/rpgmap/internal/logger"
	"github.com/Faultbox/rpgmap/pkg/formats"
	"github.com/Faultbox/rpgmap/pkg/tile"
	"github.com/Faultbox/rpgmap/pkg/tilemap"
)

// ErrBadTable is returned when a lookup table names a kind the registry
// does not know.
var ErrBadTable = errors.New("legacy table references unknown kind")

// Tables maps legacy numeric ids to kind ids, one table per layer.
type Tables [tile.LayerCount]map[uint8]string

// slots maps layers to their position in a legacy cell.
var slots = [tile.LayerCount]int{
	tile.Terrain:    formats.LegacyTerrain,
	tile.Decoration: formats.LegacyDecoration,
	tile.Creature:   formats.LegacyCreature,
	tile.Control:    formats.LegacyControl,
}

// Report summarises a migration.
type Report struct {
	Cells int
	// Unknown counts, per layer, cells whose non-zero id had no table
	// entry and were left at the layer default.
	Unknown [tile.LayerCount]int
	// UnknownIDs lists the distinct unmapped ids per layer.
	UnknownIDs [tile.LayerCount][]uint8
}

// Migrator converts legacy maps using fixed per-layer tables.
type Migrator struct {
	registry *tile.Registry
	lookup   [tile.LayerCount][256]tile.KindID
	mapped   [tile.LayerCount][256]bool
}

// New resolves the tables against a registry.
func New(reg *tile.Registry, tables Tables) (*Migrator, error) {
	m := &Migrator{registry: reg}
	for _, l := range tile.Layers {
		for legacyID, kindID := range tables[l] {
			id, err := reg.Lookup(l, kindID)
			if err != nil {
				return nil, fmt.Errorf("%w: %s id %d -> %q", ErrBadTable, l, legacyID, kindID)
			}
			m.lookup[l][legacyID] = id
			m.mapped[l][legacyID] = true
		}
	}
	return m, nil
}

// Resolve returns the kind for a legacy id on a layer, and false when the
// id has no table entry, in which case the layer default is returned.
func (m *Migrator) Resolve(layer tile.Layer, legacyID uint8) (tile.KindID, bool) {
	if !m.mapped[layer][legacyID] {
		return m.registry.Default(layer), false
	}
	return m.lookup[layer][legacyID], true
}

// Migrate builds a grid from a decoded legacy map. Legacy maps carry no
// metadata, so the grid has none.
func (m *Migrator) Migrate(lm *formats.LegacyMap) (*tilemap.Grid, Report, error) {
	var report Report

	grid, err := tilemap.New(m.registry, int(lm.Width), int(lm.Height))
	if err != nil {
		return nil, report, fmt.Errorf("creating grid: %w", err)
	}
	if len(lm.Cells) != int(lm.Width)*int(lm.Height) {
		return nil, report, &formats.FormatError{
			Reason: fmt.Sprintf("cell count %d does not match %dx%d", len(lm.Cells), lm.Width, lm.Height),
		}
	}

	grid.Name = lm.Name
	grid.Environment = tile.Environment(lm.Environment)
	grid.Weather = tile.Weather(lm.Weather)

	var seen [tile.LayerCount][256]bool
	width := int(lm.Width)
	for i, cell := range lm.Cells {
		x, y := i%width, i/width
		for _, l := range tile.Layers {
			legacyID := cell.ID(slots[l])
			id, ok := m.Resolve(l, legacyID)
			if !ok && legacyID != 0 {
				report.Unknown[l]++
				if !seen[l][legacyID] {
					seen[l][legacyID] = true
					report.UnknownIDs[l] = append(report.UnknownIDs[l], legacyID)
					logger.Debug("unknown legacy tile id",
						zap.Stringer("layer", l), zap.Uint8("id", legacyID), zap.Int("x", x), zap.Int("y", y))
				}
			}
			if err := grid.Set(l, x, y, id); err != nil {
				return nil, report, fmt.Errorf("setting %s at (%d,%d): %w", l, x, y, err)
			}
		}
		report.Cells++
	}

	logger.Info("legacy map migrated",
		zap.String("name", lm.Name),
		zap.Int("width", width),
		zap.Int("height", int(lm.Height)),
		zap.Ints("unknown", report.Unknown[:]),
	)
	return grid, report, nil
}

// MigrateReader decodes a legacy stream and migrates it.
func (m *Migrator) MigrateReader(r io.Reader) (*tilemap.Grid, Report, error) {
	lm, err := formats.ReadLegacyMap(r)
	if err != nil {
		return nil, Report{}, err
	}
	return m.Migrate(lm)
}

// MigrateFile migrates a legacy map file.
func (m *Migrator) MigrateFile(path string) (*tilemap.Grid, Report, error) {
	lm, err := formats.ParseLegacyMapFile(path)
	if err != nil {
		return nil, Report{}, err
	}
	return m.Migrate(lm)
}
