package events

import (
	"go.uber.org/zap"

	"github.com/Faultbox/rpgmap/internal/logger"
	"github.com/Faultbox/rpgmap/pkg/tile"
)

// Effect is one triggered world effect.
type Effect struct {
	Name string
	At   tile.Point
	Tick uint64
}

// Clock is a tile.World driven by explicit ticks. It records triggered
// effects instead of running them, for tools and tests.
type Clock struct {
	Ticks   uint64
	Elapsed float64
	Env     tile.Environment
	Sky     tile.Weather

	Effects []Effect
}

// Advance moves the clock forward by one fixed tick of dt seconds.
func (c *Clock) Advance(dt float64) {
	c.Ticks++
	c.Elapsed += dt
}

func (c *Clock) Tick() uint64                  { return c.Ticks }
func (c *Clock) Seconds() float64              { return c.Elapsed }
func (c *Clock) Environment() tile.Environment { return c.Env }
func (c *Clock) Weather() tile.Weather         { return c.Sky }

// Trigger records an effect.
func (c *Clock) Trigger(effect string, at tile.Point) {
	logger.Debug("effect triggered", zap.String("effect", effect), zap.Stringer("at", at), zap.Uint64("tick", c.Ticks))
	c.Effects = append(c.Effects, Effect{Name: effect, At: at, Tick: c.Ticks})
}
