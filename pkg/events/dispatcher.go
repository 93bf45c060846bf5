// Package events dispatches walk and interact events to the kinds under
// moving entities and tracks per-cell occupancy for single-fire kinds.
package events

import (
	"go.uber.org/zap"

	"github.com/Faultbox/rpgmap/internal/logger"
	"github.com/Faultbox/rpgmap/pkg/tile"
	"github.com/Faultbox/rpgmap/pkg/tilemap"
)

// occupancy is the state of one occupied cell.
type occupancy struct {
	entered uint64
	count   int
}

// Dispatcher turns entity positions into tile events. Each entity is
// tracked by name; a cell stays occupied while any entity stands on it.
// The state is presentation state and is never persisted.
type Dispatcher struct {
	grid      *tilemap.Grid
	positions map[string]tile.Point
	cells     map[tile.Point]*occupancy
}

// New creates a dispatcher for a grid.
func New(grid *tilemap.Grid) *Dispatcher {
	return &Dispatcher{
		grid:      grid,
		positions: make(map[string]tile.Point),
		cells:     make(map[tile.Point]*occupancy),
	}
}

// Position returns an entity's tracked cell.
func (d *Dispatcher) Position(entity string) (tile.Point, bool) {
	p, ok := d.positions[entity]
	return p, ok
}

// Step reports an entity's position for the current tick. Walk events are
// per cell: OnWalkEnter and single-fire effects fire when a cell becomes
// occupied, OnWalkLeave when its last occupant moves off. An entity that
// stays fires OnStandingOn.
func (d *Dispatcher) Step(w tile.World, entity string, pos tile.Point) error {
	if !d.grid.InBounds(pos.X, pos.Y) {
		return &tilemap.OutOfBoundsError{X: pos.X, Y: pos.Y, Width: d.grid.Width(), Height: d.grid.Height()}
	}

	prev, tracked := d.positions[entity]
	if tracked && prev == pos {
		d.fire(w, pos, tile.EventHandler.OnStandingOn)
		return nil
	}
	if tracked {
		d.leave(w, entity, prev)
	}

	d.positions[entity] = pos
	c := d.cells[pos]
	if c == nil {
		c = &occupancy{entered: w.Tick()}
		d.cells[pos] = c
	}
	c.count++
	logger.Debug("entity entered cell",
		zap.String("entity", entity),
		zap.Stringer("at", pos),
		zap.Uint64("tick", w.Tick()),
	)
	if c.count == 1 {
		d.triggerSingleFire(w, pos)
		d.fire(w, pos, tile.EventHandler.OnWalkEnter)
	}
	return nil
}

// Leave stops tracking an entity, firing OnWalkLeave when it was the last
// occupant of its cell.
func (d *Dispatcher) Leave(w tile.World, entity string) {
	if pos, ok := d.positions[entity]; ok {
		d.leave(w, entity, pos)
	}
}

func (d *Dispatcher) leave(w tile.World, entity string, pos tile.Point) {
	delete(d.positions, entity)
	logger.Debug("entity left cell", zap.String("entity", entity), zap.Stringer("at", pos))
	c := d.cells[pos]
	if c == nil {
		return
	}
	c.count--
	if c.count > 0 {
		return
	}
	delete(d.cells, pos)
	d.fire(w, pos, tile.EventHandler.OnWalkLeave)
}

// Interact fires OnInteract for the kinds at pos.
func (d *Dispatcher) Interact(w tile.World, pos tile.Point) error {
	if !d.grid.InBounds(pos.X, pos.Y) {
		return &tilemap.OutOfBoundsError{X: pos.X, Y: pos.Y, Width: d.grid.Width(), Height: d.grid.Height()}
	}
	d.fire(w, pos, tile.EventHandler.OnInteract)
	return nil
}

// EnteredAt returns the tick at which an occupied cell was entered.
func (d *Dispatcher) EnteredAt(pos tile.Point) (uint64, bool) {
	c, ok := d.cells[pos]
	if !ok {
		return 0, false
	}
	return c.entered, true
}

// Occupied reports whether any entity stands on pos.
func (d *Dispatcher) Occupied(pos tile.Point) bool {
	_, ok := d.cells[pos]
	return ok
}

func (d *Dispatcher) triggerSingleFire(w tile.World, pos tile.Point) {
	reg := d.grid.Registry()
	for _, l := range tile.Layers {
		id, _ := d.grid.At(l, pos.X, pos.Y)
		if sf, ok := reg.Kind(id).Behavior.(tile.SingleFire); ok && sf.Effect != "" {
			w.Trigger(sf.Effect, pos)
		}
	}
}

// fire calls event on the handler of each layer's kind at pos, terrain
// first. Handlers receive the cell's metadata; reading it allocates
// nothing until a handler sets a value.
func (d *Dispatcher) fire(w tile.World, pos tile.Point, event func(tile.EventHandler, tile.World, tile.MetadataStore, tile.Point)) {
	reg := d.grid.Registry()
	for _, l := range tile.Layers {
		id, ok := d.grid.At(l, pos.X, pos.Y)
		if !ok {
			return
		}
		k := reg.Kind(id)
		if k.Events == nil {
			continue
		}
		meta, err := d.grid.Metadata(l, pos.X, pos.Y)
		if err != nil {
			logger.Warn("cell metadata unavailable", zap.Stringer("at", pos), zap.Error(err))
			continue
		}
		event(k.Events, w, meta, pos)
	}
}
