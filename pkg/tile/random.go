package tile

import "math/rand/v2"

// DefaultRandomSeed seeds the variation table of every registry.
const DefaultRandomSeed = 0x5eed_711e

// RandomTableSize is the number of precomputed values in a RandomTable.
const RandomTableSize = 4096

// RandomTable is a fixed table of pseudo-random values indexed by cell
// position. It is filled eagerly so results never depend on call order.
type RandomTable struct {
	values [RandomTableSize]uint32
}

// NewRandomTable builds a table from a seed.
func NewRandomTable(seed uint64) *RandomTable {
	t := &RandomTable{}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := range t.values {
		t.values[i] = rng.Uint32()
	}
	return t
}

// At returns the value for cell (x, y) on a map of the given width.
func (t *RandomTable) At(x, y, width int) uint32 {
	if x < 0 {
		x = -x
	}
	if y < 0 {
		y = -y
	}
	return t.values[(y*width+x)%RandomTableSize]
}
