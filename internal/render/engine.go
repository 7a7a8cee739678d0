// Package render runs the frame loop: advance the stage machine, write the
// canvas to the output driver and pace to a fixed frame rate.
package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iimcz/caas-a01/internal/calib"
	diag "github.com/iimcz/caas-a01/internal/diagnostics"
	"github.com/iimcz/caas-a01/internal/led"
	"github.com/iimcz/caas-a01/internal/ring"
	"github.com/iimcz/caas-a01/internal/stage"
)

const DefaultFPS = 30

// Animator paints one frame of elapsed dt seconds onto the canvas.
type Animator interface {
	Update(dt float64, rs *ring.Rings)
}

var _ Animator = (*stage.Machine)(nil)

// Engine owns the canvas and the driver. Only the goroutine running Run (or
// calling Tick) may touch them.
type Engine struct {
	Anim  Animator
	Rings *ring.Rings
	Drv   led.Driver
	FPS   int
	Diag  diag.Sink

	calib *calib.Runner

	// metrics of the last frame
	Last struct {
		Frames  uint64
		FrameMS float64
		Errors  uint64
	}
}

// NewEngine wires an animator to a driver.
func NewEngine(a Animator, rs *ring.Rings, drv led.Driver, fps int) (*Engine, error) {
	if a == nil || rs == nil || drv == nil {
		return nil, errors.New("engine needs an animator, a canvas and a driver")
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Engine{Anim: a, Rings: rs, Drv: drv, FPS: fps}, nil
}

// Calibrate plays the runner's pattern before the animation resumes.
func (e *Engine) Calibrate(r *calib.Runner) {
	e.calib = r
	e.Diag.Push(diag.Diagnostic{Severity: diag.Info, Code: diag.CalibRunning, Summary: "Running calibration", Detail: string(r.Kind())})
}

// Tick renders and writes one frame covering dt seconds.
func (e *Engine) Tick(dt float64) error {
	start := time.Now()

	if e.calib != nil {
		if !e.calib.Step(e.Rings) {
			e.Diag.Push(diag.Diagnostic{Severity: diag.Info, Code: diag.CalibDone, Summary: "Calibration complete", Detail: string(e.calib.Kind())})
			e.calib = nil
			e.Rings.Clear()
		}
	}
	if e.calib == nil {
		e.Anim.Update(dt, e.Rings)
	}

	err := e.Drv.Write(e.Rings)
	e.Last.Frames++
	e.Last.FrameMS = float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		e.Last.Errors++
		return fmt.Errorf("write frame %d: %w", e.Last.Frames, err)
	}
	return nil
}

// Run drives Tick at FPS until ctx is done, then blanks the rings, writes
// one final frame and closes the driver.
func (e *Engine) Run(ctx context.Context) error {
	period := time.Second / time.Duration(e.FPS)
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	prev := time.Now()
	for {
		now := time.Now()
		dt := now.Sub(prev).Seconds()
		prev = now

		if err := e.Tick(dt); err != nil {
			log.Warn().Err(err).Msg("frame dropped")
			e.Diag.Push(diag.OutputWriteFailed(err))
		}

		// an overrun frame proceeds immediately
		wait := max(period-time.Since(now), 0)
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return e.shutdown()
		case <-timer.C:
		}
	}
}

func (e *Engine) shutdown() error {
	log.Info().Uint64("frames", e.Last.Frames).Msg("stopping frame loop")
	e.Rings.Clear()
	werr := e.Drv.Write(e.Rings)
	if werr != nil {
		werr = fmt.Errorf("final frame: %w", werr)
	}
	return errors.Join(werr, e.Drv.Close())
}
