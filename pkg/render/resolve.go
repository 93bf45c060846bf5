package render

import (
	"github.com/Faultbox/rpgmap/pkg/tile"
	"github.com/Faultbox/rpgmap/pkg/tilemap"
)

// Frame is the time a frame is drawn at.
type Frame struct {
	// Seconds is the total elapsed time, driving animations.
	Seconds float64
	// Tick is the number of fixed updates so far, driving single-fire
	// stages.
	Tick uint64
}

// Occupancy reports when a cell was entered, for single-fire kinds.
type Occupancy interface {
	EnteredAt(at tile.Point) (tick uint64, ok bool)
}

// Sprite is one texture blit resolved for a cell.
type Sprite struct {
	Texture string
	// At is the cell the sprite is drawn on.
	At tile.Point
	// Part selects a slice of a Parts x Parts texture. Parts is 0 for
	// whole textures.
	Part  tile.Point
	Parts int
}

// Resolver computes the per-cell render parameters of a grid. It never
// mutates kinds; everything a draw needs is returned explicitly.
type Resolver struct {
	Grid      *tilemap.Grid
	Occupancy Occupancy
}

func (r *Resolver) params() tile.Params {
	return tile.Params{
		Environment: r.Grid.Environment,
		Weather:     r.Grid.Weather,
	}
}

// Sprites returns the base sprites of the cell at (x, y) on a layer, in
// draw order. Default kinds draw nothing.
func (r *Resolver) Sprites(layer tile.Layer, x, y int, f Frame) []Sprite {
	id, ok := r.Grid.At(layer, x, y)
	if !ok {
		return nil
	}
	k := r.Grid.Registry().Kind(id)
	if k.IsDefault() {
		return nil
	}

	if _, ok := k.Behavior.(tile.MatCarryThrough); ok {
		var out []Sprite
		if north, ok := r.Grid.At(layer, x, y-1); ok && north != id {
			// Only the single sprite the northern cell draws on itself.
			for _, s := range r.sprites(layer, x, y-1, north, f) {
				if s.At == (tile.Point{X: x, Y: y - 1}) {
					s.At = tile.Point{X: x, Y: y}
					out = append(out, s)
				}
			}
		}
		return append(out, Sprite{Texture: tile.ResolveTexture(k.Texture, r.params()), At: tile.Point{X: x, Y: y}})
	}
	return r.sprites(layer, x, y, id, f)
}

func (r *Resolver) sprites(layer tile.Layer, x, y int, id tile.KindID, f Frame) []Sprite {
	k := r.Grid.Registry().Kind(id)
	if k.IsDefault() {
		return nil
	}
	at := tile.Point{X: x, Y: y}
	p := r.params()

	switch b := k.Behavior.(type) {
	case tile.Animated:
		p.Frame = b.FrameAt(f.Seconds, x, y)
	case tile.Connected:
		p.Connection = r.Connection(layer, x, y)
		p.Variation = b.Variation(r.Grid.Registry().Random(), x, y, r.Grid.Width())
	case tile.AnimatedConnected:
		p.Frame = b.Animated.FrameAt(f.Seconds, x, y)
		p.Connection = r.Connection(layer, x, y)
		p.Variation = b.Connected.Variation(r.Grid.Registry().Random(), x, y, r.Grid.Width())
	case tile.OffsetDraw:
		at = at.Add(b.DX, b.DY)
	case tile.ClusterPromoted:
		if dx, dy, ok := r.ClusterOffset(layer, x, y); ok {
			return []Sprite{{
				Texture: tile.ResolveTexture(b.BigTexture, p),
				At:      at,
				Part:    tile.Point{X: dx, Y: dy},
				Parts:   tile.ClusterSize,
			}}
		}
	case tile.SingleFire:
		if stage, ok := r.Stage(b, at, f.Tick); ok {
			p.Stage = stage
			if tex := b.Stages[stage]; tex != "" {
				return []Sprite{{Texture: tile.ResolveTexture(tex, p), At: at}}
			}
		}
	}

	return []Sprite{{Texture: tile.ResolveTexture(k.Texture, p), At: at}}
}

// Connection derives the connection category of a cell from its
// orthogonal neighbors on the same layer.
func (r *Resolver) Connection(layer tile.Layer, x, y int) tile.Connection {
	id, _ := r.Grid.At(layer, x, y)
	same := func(dx, dy int) bool {
		n, ok := r.Grid.At(layer, x+dx, y+dy)
		return ok && n == id
	}
	return tile.ConnectionOf(same(-1, 0), same(1, 0), same(0, -1), same(0, 1))
}

// ClusterOffset finds the first 2x2 block of the cell's kind containing
// (x, y). Windows are scanned by top-left x, then y, both ascending. It
// returns the cell's offset inside the block.
func (r *Resolver) ClusterOffset(layer tile.Layer, x, y int) (dx, dy int, ok bool) {
	id, ok := r.Grid.At(layer, x, y)
	if !ok {
		return 0, 0, false
	}
	for ox := x - tile.ClusterSize + 1; ox <= x; ox++ {
		for oy := y - tile.ClusterSize + 1; oy <= y; oy++ {
			if r.block(layer, ox, oy, id) {
				return x - ox, y - oy, true
			}
		}
	}
	return 0, 0, false
}

func (r *Resolver) block(layer tile.Layer, ox, oy int, id tile.KindID) bool {
	for by := 0; by < tile.ClusterSize; by++ {
		for bx := 0; bx < tile.ClusterSize; bx++ {
			n, ok := r.Grid.At(layer, ox+bx, oy+by)
			if !ok || n != id {
				return false
			}
		}
	}
	return true
}

// Stage returns the single-fire stage of an occupied cell.
func (r *Resolver) Stage(b tile.SingleFire, at tile.Point, tick uint64) (int, bool) {
	if r.Occupancy == nil {
		return 0, false
	}
	entered, ok := r.Occupancy.EnteredAt(at)
	if !ok || tick < entered {
		return 0, false
	}
	return b.Stage(tick - entered + 1), true
}

// Overlays returns the after-transition sprites of a cell.
func (r *Resolver) Overlays(layer tile.Layer, x, y int, f Frame) []Sprite {
	id, ok := r.Grid.At(layer, x, y)
	if !ok {
		return nil
	}
	k := r.Grid.Registry().Kind(id)
	if k.Overlay == "" {
		return nil
	}
	at := tile.Point{X: x, Y: y}
	p := r.params()
	switch b := k.Behavior.(type) {
	case tile.OffsetDraw:
		at = at.Add(b.DX, b.DY)
	case tile.Animated:
		p.Frame = b.FrameAt(f.Seconds, x, y)
	}
	return []Sprite{{Texture: tile.ResolveTexture(k.Overlay, p), At: at}}
}
