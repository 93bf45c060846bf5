package tile

import "fmt"

// Connection is the neighbor pattern of a connected cell.
type Connection uint8

// Connection categories. Horizontal neighbors take precedence over
// vertical ones.
const (
	ConnNone Connection = iota
	ConnLeft
	ConnRight
	ConnLeftRight
	ConnUp
	ConnDown
	ConnUpDown
)

// String returns the name used in texture templates.
func (c Connection) String() string {
	switch c {
	case ConnNone:
		return "none"
	case ConnLeft:
		return "left"
	case ConnRight:
		return "right"
	case ConnLeftRight:
		return "leftright"
	case ConnUp:
		return "up"
	case ConnDown:
		return "down"
	case ConnUpDown:
		return "updown"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

// ConnectionOf derives the category from which neighbors match.
func ConnectionOf(left, right, up, down bool) Connection {
	switch {
	case left && right:
		return ConnLeftRight
	case left:
		return ConnLeft
	case right:
		return ConnRight
	case up && down:
		return ConnUpDown
	case up:
		return ConnUp
	case down:
		return ConnDown
	default:
		return ConnNone
	}
}
