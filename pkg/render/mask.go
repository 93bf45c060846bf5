package render

import (
	"image"
	"math"
	"sync"
)

type maskKey struct {
	size int
	dir  Direction
}

// maskCache holds generated feather masks. Masks depend only on tile size
// and direction set, so one cache serves every renderer.
var maskCache = struct {
	sync.Mutex
	masks map[maskKey]*image.Alpha
}{masks: make(map[maskKey]*image.Alpha)}

// FeatherMask returns the alpha mask blending a neighbor's texture in from
// the given directions. Edges fade linearly over half a tile; corners fade
// radially from the corner point over the same distance. Overlapping
// directions combine by maximum.
func FeatherMask(size int, dir Direction) *image.Alpha {
	key := maskKey{size, dir}

	maskCache.Lock()
	defer maskCache.Unlock()
	if m, ok := maskCache.masks[key]; ok {
		return m
	}
	m := buildMask(size, dir)
	maskCache.masks[key] = m
	return m
}

func buildMask(size int, dir Direction) *image.Alpha {
	m := image.NewAlpha(image.Rect(0, 0, size, size))
	if size <= 0 {
		return m
	}
	reach := float64(size) / 2
	last := float64(size - 1)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx, fy := float64(x), float64(y)
			var a float64
			if dir.Has(North) {
				a = math.Max(a, ramp(fy, reach))
			}
			if dir.Has(South) {
				a = math.Max(a, ramp(last-fy, reach))
			}
			if dir.Has(West) {
				a = math.Max(a, ramp(fx, reach))
			}
			if dir.Has(East) {
				a = math.Max(a, ramp(last-fx, reach))
			}
			if dir.Has(NorthWest) {
				a = math.Max(a, ramp(math.Hypot(fx, fy), reach))
			}
			if dir.Has(NorthEast) {
				a = math.Max(a, ramp(math.Hypot(last-fx, fy), reach))
			}
			if dir.Has(SouthWest) {
				a = math.Max(a, ramp(math.Hypot(fx, last-fy), reach))
			}
			if dir.Has(SouthEast) {
				a = math.Max(a, ramp(math.Hypot(last-fx, last-fy), reach))
			}
			m.Pix[y*m.Stride+x] = uint8(math.Round(a * 255))
		}
	}
	return m
}

// ramp is 1 at distance 0 falling linearly to 0 at reach.
func ramp(d, reach float64) float64 {
	if d >= reach {
		return 0
	}
	return 1 - d/reach
}
