// Package tile defines tile kinds, their per-layer registry and the
// behaviors that decide how a kind is animated, connected and drawn.
package tile

import "fmt"

// Layer is one of the four independent tile planes of a map.
type Layer uint8

// Layers in draw order.
const (
	Terrain Layer = iota
	Decoration
	Creature
	Control
)

// LayerCount is the number of layers every map carries.
const LayerCount = 4

// Layers lists every layer in draw order.
var Layers = [LayerCount]Layer{Terrain, Decoration, Creature, Control}

// String returns a human-readable layer name.
func (l Layer) String() string {
	switch l {
	case Terrain:
		return "terrain"
	case Decoration:
		return "decoration"
	case Creature:
		return "creature"
	case Control:
		return "control"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(l))
	}
}

// Valid reports whether l is one of the four known layers.
func (l Layer) Valid() bool {
	return l < LayerCount
}

// Environment is the ambient setting a map is played in.
type Environment uint8

// Environment constants. Legacy maps store the ordinal as a single byte.
const (
	Overworld Environment = iota
	Cave
	Indoor
	Beach
)

// String returns a human-readable environment name.
func (e Environment) String() string {
	switch e {
	case Overworld:
		return "overworld"
	case Cave:
		return "cave"
	case Indoor:
		return "indoor"
	case Beach:
		return "beach"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(e))
	}
}

// Weather is the current weather of a map.
type Weather uint8

// Weather constants. Legacy maps store the ordinal as a single byte.
const (
	Clear Weather = iota
	Rain
	Snow
	Fog
)

// String returns a human-readable weather name.
func (w Weather) String() string {
	switch w {
	case Clear:
		return "clear"
	case Rain:
		return "rain"
	case Snow:
		return "snow"
	case Fog:
		return "fog"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(w))
	}
}

// Point is a cell position on a map.
type Point struct {
	X, Y int
}

// Add returns p offset by (dx, dy).
func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// String returns the point as "(x,y)".
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}
