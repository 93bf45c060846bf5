package render

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/rpgmap/internal/logger"
	"github.com/Faultbox/rpgmap/pkg/atlas"
)

// Loop defaults.
const (
	DefaultTickRate  = 20
	DefaultFrameRate = 60

	// maxTicksPerStep bounds catch-up after a stall.
	maxTicksPerStep = 8
)

// Loop interleaves fixed-rate updates with variable-rate frames on one
// goroutine. Updates and draws never run concurrently, and asset changes
// are applied to the atlas only between frames.
type Loop struct {
	// TickRate is the number of fixed updates per second.
	TickRate float64
	// Update advances world state by one tick.
	Update func(tick uint64) error
	// Draw renders one frame.
	Draw func(f Frame) error

	// Changes delivers names of changed assets. Any change invalidates
	// Packer as a whole.
	Changes <-chan string
	Packer  *atlas.Packer

	tick    uint64
	seconds float64
	acc     float64
}

// Frame returns the current time of the loop.
func (l *Loop) Frame() Frame {
	return Frame{Seconds: l.seconds, Tick: l.tick}
}

// Step advances the loop by dt seconds: it runs every fixed update that
// fell due, applies pending asset changes and draws one frame.
func (l *Loop) Step(dt float64) error {
	if dt < 0 {
		dt = 0
	}
	rate := l.TickRate
	if rate <= 0 {
		rate = DefaultTickRate
	}
	interval := 1 / rate

	l.seconds += dt
	l.acc += dt
	ran := 0
	for l.acc >= interval {
		if ran == maxTicksPerStep {
			logger.Debug("dropping update backlog", zap.Float64("seconds", l.acc))
			l.acc = 0
			break
		}
		l.acc -= interval
		l.tick++
		ran++
		if l.Update != nil {
			if err := l.Update(l.tick); err != nil {
				return fmt.Errorf("update tick %d: %w", l.tick, err)
			}
		}
	}

	l.applyChanges()

	if l.Draw != nil {
		if err := l.Draw(l.Frame()); err != nil {
			return fmt.Errorf("draw: %w", err)
		}
	}
	return nil
}

// applyChanges drains the change stream without blocking and invalidates
// the atlas once if anything changed.
func (l *Loop) applyChanges() {
	if l.Changes == nil {
		return
	}
	var changed []string
	for {
		select {
		case name, ok := <-l.Changes:
			if !ok {
				l.Changes = nil
				l.invalidate(changed)
				return
			}
			changed = append(changed, name)
		default:
			l.invalidate(changed)
			return
		}
	}
}

func (l *Loop) invalidate(changed []string) {
	if len(changed) == 0 || l.Packer == nil {
		return
	}
	logger.Info("assets changed", zap.Strings("names", changed))
	l.Packer.Invalidate()
}

// Run steps the loop at frameRate until ctx is cancelled or a step fails.
func (l *Loop) Run(ctx context.Context, frameRate float64) error {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / frameRate))
	defer ticker.Stop()

	logger.Info("starting frame loop",
		zap.Float64("tick_rate", l.TickRate),
		zap.Float64("frame_rate", frameRate),
	)

	last := time.Now()
	frames := 0
	fpsTimer := last
	for {
		select {
		case <-ctx.Done():
			logger.Info("frame loop stopped", zap.Uint64("ticks", l.tick))
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if err := l.Step(dt); err != nil {
				return err
			}

			frames++
			if now.Sub(fpsTimer) >= time.Second {
				logger.Debug("fps", zap.Int("count", frames), zap.Uint64("tick", l.tick))
				frames = 0
				fpsTimer = now
			}
		}
	}
}
