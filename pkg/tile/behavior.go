package tile

import "math"

// Behavior decides how cells of a kind are animated, connected and drawn.
// The set of behaviors is closed; renderers switch on the concrete type.
type Behavior interface {
	behavior()
}

// Plain kinds draw their texture as is.
type Plain struct{}

// Animated kinds cycle through Frames frames at FPS frames per second.
// With Variation set, cells with odd x+y run one frame ahead so that
// neighbors do not animate in lockstep.
type Animated struct {
	FPS       float64
	Frames    int
	Variation bool
}

// FrameAt returns the frame shown at the given time for cell (x, y).
func (a Animated) FrameAt(seconds float64, x, y int) int {
	if a.Frames <= 0 || a.FPS <= 0 {
		return 0
	}
	frame := int(math.Floor(seconds*a.FPS)) % a.Frames
	if frame < 0 {
		frame += a.Frames
	}
	if a.Variation {
		parity := (x + y) % 2
		if parity < 0 {
			parity = -parity
		}
		frame = (frame + parity) % a.Frames
	}
	return frame
}

// Period returns the time in seconds between two identical frames.
func (a Animated) Period() float64 {
	if a.FPS <= 0 {
		return 0
	}
	return float64(a.Frames) / a.FPS
}

// Connected kinds pick a sprite from which orthogonal neighbors hold the
// same kind, plus a positional variation in [0, Variations).
type Connected struct {
	Variations int
}

// Variation returns the variation index for cell (x, y).
func (c Connected) Variation(t *RandomTable, x, y, width int) int {
	if c.Variations <= 1 || t == nil {
		return 0
	}
	return int(t.At(x, y, width) % uint32(c.Variations))
}

// AnimatedConnected combines Animated and Connected.
type AnimatedConnected struct {
	Animated  Animated
	Connected Connected
}

// OffsetDraw kinds are drawn DX, DY cells away from the cell they occupy.
// Solidity still applies to the occupied cell.
type OffsetDraw struct {
	DX, DY int
}

// ClusterPromoted kinds draw a slice of BigTexture when the cell is part of
// a 2x2 block of the same kind.
type ClusterPromoted struct {
	BigTexture string
}

// ClusterSize is the edge length of a promoted block.
const ClusterSize = 2

// SingleFire kinds react once per contiguous occupancy. Stages holds the
// textures shown while settling after entry: ticks [1, StageTicks[0]] use
// Stages[0], up to StageTicks[1] use Stages[1], later ticks Stages[2].
// Effect is triggered on the world once on entry when non-empty.
type SingleFire struct {
	Stages     [3]string
	StageTicks [2]uint64
	Effect     string
}

// Default stage thresholds for SingleFire kinds.
var DefaultStageTicks = [2]uint64{4, 8}

// Stage returns the stage for a cell entered elapsed ticks ago, counting
// the entry tick as 1.
func (s SingleFire) Stage(elapsed uint64) int {
	limits := s.StageTicks
	if limits == [2]uint64{} {
		limits = DefaultStageTicks
	}
	switch {
	case elapsed <= limits[0]:
		return 0
	case elapsed <= limits[1]:
		return 1
	default:
		return 2
	}
}

// MatCarryThrough kinds first draw whatever the cell north of them draws on
// the same layer, then themselves.
type MatCarryThrough struct{}

func (Plain) behavior()             {}
func (Animated) behavior()          {}
func (Connected) behavior()         {}
func (AnimatedConnected) behavior() {}
func (OffsetDraw) behavior()        {}
func (ClusterPromoted) behavior()   {}
func (SingleFire) behavior()        {}
func (MatCarryThrough) behavior()   {}
