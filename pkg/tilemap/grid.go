// Package tilemap provides the layered tile grid of a map and its sparse
// per-cell metadata.
package tilemap

import (
	"errors"
	"fmt"

	"github.com/Faultbox/rpgmap/pkg/tile"
)

// Grid errors.
var (
	ErrOutOfBounds   = errors.New("cell out of bounds")
	ErrLayerMismatch = errors.New("kind registered for another layer")
	ErrInvalidSize   = errors.New("invalid grid size")
	ErrForeignKind   = errors.New("kind not issued by the grid's registry")
)

// MaxDimension bounds the width and height of a grid.
const MaxDimension = 4096

// OutOfBoundsError is returned for coordinates outside the grid.
type OutOfBoundsError struct {
	X, Y          int
	Width, Height int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%s: (%d,%d) not in %dx%d", ErrOutOfBounds, e.X, e.Y, e.Width, e.Height)
}

// Is makes errors.Is(err, ErrOutOfBounds) match.
func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// Grid is a width x height map with one kind per cell on each of the four
// layers. Dimensions are fixed at construction.
type Grid struct {
	Name        string
	Environment tile.Environment
	Weather     tile.Weather

	width, height int
	registry      *tile.Registry
	cells         [tile.LayerCount][]tile.KindID
	meta          [tile.LayerCount]map[int]*cellData
}

// New creates a grid filled with each layer's default kind.
func New(reg *tile.Registry, width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	g := &Grid{
		width:    width,
		height:   height,
		registry: reg,
	}
	for _, l := range tile.Layers {
		cells := make([]tile.KindID, width*height)
		def := reg.Default(l)
		for i := range cells {
			cells[i] = def
		}
		g.cells[l] = cells
		g.meta[l] = make(map[int]*cellData)
	}
	return g, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Registry returns the registry the grid's kinds belong to.
func (g *Grid) Registry() *tile.Registry { return g.registry }

// InBounds reports whether (x, y) is a cell of the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

func (g *Grid) index(x, y int) (int, error) {
	if !g.InBounds(x, y) {
		return 0, &OutOfBoundsError{X: x, Y: y, Width: g.width, Height: g.height}
	}
	return y*g.width + x, nil
}

// Get returns the kind at (x, y) on a layer.
func (g *Grid) Get(layer tile.Layer, x, y int) (tile.KindID, error) {
	if !layer.Valid() {
		return 0, fmt.Errorf("%w: %d", tile.ErrInvalidLayer, layer)
	}
	i, err := g.index(x, y)
	if err != nil {
		return 0, err
	}
	return g.cells[layer][i], nil
}

// At returns the kind at (x, y) on a layer, or false when (x, y) is off
// the grid. Renderers use it for neighbor reads.
func (g *Grid) At(layer tile.Layer, x, y int) (tile.KindID, bool) {
	if !g.InBounds(x, y) || !layer.Valid() {
		return 0, false
	}
	return g.cells[layer][y*g.width+x], true
}

// Set stores a kind at (x, y). The kind must belong to the layer.
func (g *Grid) Set(layer tile.Layer, x, y int, id tile.KindID) error {
	if !layer.Valid() {
		return fmt.Errorf("%w: %d", tile.ErrInvalidLayer, layer)
	}
	i, err := g.index(x, y)
	if err != nil {
		return err
	}
	if !g.registry.Has(id) {
		return fmt.Errorf("%w: %d", ErrForeignKind, id)
	}
	if k := g.registry.Kind(id); k.Layer != layer {
		return fmt.Errorf("%w: %q is %s, not %s", ErrLayerMismatch, k.ID, k.Layer, layer)
	}
	g.cells[layer][i] = id
	return nil
}

// Kind returns the definition of the kind at (x, y).
func (g *Grid) Kind(layer tile.Layer, x, y int) (*tile.Kind, error) {
	id, err := g.Get(layer, x, y)
	if err != nil {
		return nil, err
	}
	return g.registry.Kind(id), nil
}

// Fill sets every cell of a layer to one kind.
func (g *Grid) Fill(layer tile.Layer, id tile.KindID) error {
	if err := g.Set(layer, 0, 0, id); err != nil {
		return err
	}
	cells := g.cells[layer]
	for i := range cells {
		cells[i] = id
	}
	return nil
}

// Metadata returns a handle on the metadata store of a cell. The store is
// created by the first Set through any handle, so reading never allocates
// grid state.
func (g *Grid) Metadata(layer tile.Layer, x, y int) (*Metadata, error) {
	if !layer.Valid() {
		return nil, fmt.Errorf("%w: %d", tile.ErrInvalidLayer, layer)
	}
	i, err := g.index(x, y)
	if err != nil {
		return nil, err
	}
	return newMetadata(g, int(layer), i), nil
}

// PeekMetadata returns the metadata store of a cell without creating one.
// It returns nil when the cell has none or (x, y) is off the grid.
func (g *Grid) PeekMetadata(layer tile.Layer, x, y int) *Metadata {
	if !g.InBounds(x, y) || !layer.Valid() {
		return nil
	}
	i := y*g.width + x
	if _, ok := g.meta[layer][i]; !ok {
		return nil
	}
	return newMetadata(g, int(layer), i)
}

// MetadataCount returns the number of cells holding a metadata store on a
// layer.
func (g *Grid) MetadataCount(layer tile.Layer) int {
	if !layer.Valid() {
		return 0
	}
	return len(g.meta[layer])
}

// Resized returns a new grid of the given size holding a copy of the
// overlapping cells and their metadata.
func (g *Grid) Resized(width, height int) (*Grid, error) {
	out, err := New(g.registry, width, height)
	if err != nil {
		return nil, err
	}
	out.Name = g.Name
	out.Environment = g.Environment
	out.Weather = g.Weather

	for _, l := range tile.Layers {
		for y := 0; y < min(height, g.height); y++ {
			for x := 0; x < min(width, g.width); x++ {
				out.cells[l][y*width+x] = g.cells[l][y*g.width+x]
				src := g.PeekMetadata(l, x, y)
				if src == nil {
					continue
				}
				dst, _ := out.Metadata(l, x, y)
				src.Range(func(k, v string) bool {
					dst.Set(k, v)
					return true
				})
			}
		}
	}
	return out, nil
}
