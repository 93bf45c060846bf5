// Package render draws tile grids: base sprites, blended terrain
// transitions and after-transition overlays.
package render

import (
	"slices"
	"strings"

	"github.com/Faultbox/rpgmap/pkg/tile"
	"github.com/Faultbox/rpgmap/pkg/tilemap"
)

// Direction is a set of neighbor directions.
type Direction uint8

// Directions. Orthogonal directions form edges, diagonal ones corners.
const (
	North Direction = 1 << iota
	East
	South
	West
	NorthEast
	SouthEast
	SouthWest
	NorthWest
)

// Edges holds the orthogonal directions.
const Edges = North | East | South | West

// neighbor is one step of the transition scan.
type neighbor struct {
	dir    Direction
	dx, dy int
	name   string
}

// neighbors lists directions in evaluation order. When two different
// kinds of equal priority both qualify, the one found first here draws
// first.
var neighbors = [8]neighbor{
	{North, 0, -1, "n"},
	{East, 1, 0, "e"},
	{South, 0, 1, "s"},
	{West, -1, 0, "w"},
	{NorthEast, 1, -1, "ne"},
	{SouthEast, 1, 1, "se"},
	{SouthWest, -1, 1, "sw"},
	{NorthWest, -1, -1, "nw"},
}

// cornerEdges are the two edges adjacent to each corner.
var cornerEdges = map[Direction]Direction{
	NorthEast: North | East,
	SouthEast: South | East,
	SouthWest: South | West,
	NorthWest: North | West,
}

// Has reports whether d contains all of o.
func (d Direction) Has(o Direction) bool {
	return d&o == o
}

// String returns the directions as "n", "ne", "nesw", with corners
// appended after a '+', as in "n+se".
func (d Direction) String() string {
	var edges, corners strings.Builder
	for _, n := range neighbors {
		if !d.Has(n.dir) {
			continue
		}
		if n.dir&Edges != 0 {
			edges.WriteString(n.name)
		} else {
			corners.WriteString("+")
			corners.WriteString(n.name)
		}
	}
	if edges.Len() == 0 && corners.Len() == 0 {
		return "none"
	}
	return edges.String() + corners.String()
}

// Overlay is one transition blend drawn over a terrain cell: the texture
// of a higher-priority neighbor kind masked to the directions it borders.
type Overlay struct {
	Kind    tile.KindID
	Texture string
	// Mask holds the qualifying edges plus corners not already covered by
	// an adjacent edge of the same kind.
	Mask Direction
}

// TransitionsAt returns the overlays for the terrain cell at (x, y) in
// draw order: ascending priority, then first qualifying direction.
// Neighbors of equal or lower priority never blend.
func TransitionsAt(g *tilemap.Grid, x, y int) []Overlay {
	base, ok := g.At(tile.Terrain, x, y)
	if !ok {
		return nil
	}
	reg := g.Registry()
	basePriority := reg.Kind(base).Priority

	var out []Overlay
	for _, n := range neighbors {
		id, ok := g.At(tile.Terrain, x+n.dx, y+n.dy)
		if !ok || id == base {
			continue
		}
		k := reg.Kind(id)
		if k.Priority <= basePriority {
			continue
		}
		i := slices.IndexFunc(out, func(o Overlay) bool { return o.Kind == id })
		if i < 0 {
			out = append(out, Overlay{Kind: id, Texture: k.TransitionTexture()})
			i = len(out) - 1
		}
		out[i].Mask |= n.dir
	}

	for i := range out {
		for corner, edges := range cornerEdges {
			if out[i].Mask.Has(corner) && out[i].Mask&edges != 0 {
				out[i].Mask &^= corner
			}
		}
	}

	slices.SortStableFunc(out, func(a, b Overlay) int {
		return reg.Kind(a.Kind).Priority - reg.Kind(b.Kind).Priority
	})
	return out
}

// Directional reports whether the overlay texture names one image per
// mask through a {mask} placeholder. Directional overlays are drawn as
// is; others are feathered with a generated mask.
func (o Overlay) Directional() bool {
	return strings.Contains(o.Texture, "{mask}")
}

// TextureName returns the overlay texture with {mask} replaced by the
// mask's string form, e.g. "grass_edge_{mask}" becomes "grass_edge_n".
func (o Overlay) TextureName() string {
	return strings.ReplaceAll(o.Texture, "{mask}", o.Mask.String())
}
