// Package calib has bring-up patterns for checking wiring and segment
// addressing before the narrative starts.
package calib

import (
	"fmt"

	"github.com/iimcz/caas-a01/internal/ring"
)

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep"
	RGBWTest   Kind = "rgbw_channels"
	Rings      Kind = "rings"
)

// ParseKind maps a name to a Kind; the empty string means no calibration.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case None, IndexSweep, RGBWTest, Rings:
		return k, nil
	}
	return None, fmt.Errorf("unknown calibration pattern %q", s)
}

// Plan selects a pattern. Hold is how many frames each step stays lit.
type Plan struct {
	Kind Kind
	Hold int
}

type Runner struct {
	plan  Plan
	step  int
	frame int
}

func NewRunner(plan Plan) *Runner {
	if plan.Hold < 1 {
		plan.Hold = 1
	}
	return &Runner{plan: plan}
}

func (r *Runner) Kind() Kind { return r.plan.Kind }

// Step paints the current step into rs; returns false when complete.
func (r *Runner) Step(rs *ring.Rings) bool {
	rs.Clear()

	full := ring.Color{R: 255, G: 255, B: 255, W: 255}
	switch r.plan.Kind {
	case IndexSweep:
		// outer ring first, then inner, matching the SPI chain order
		idx := r.step
		switch {
		case idx < rs.Outer.Len():
			rs.Outer.Set(idx, full)
		case idx < rs.Outer.Len()+rs.Inner.Len():
			rs.Inner.Set(idx-rs.Outer.Len(), full)
		default:
			return false
		}
	case RGBWTest:
		if r.step >= 4 {
			return false
		}
		var c ring.Color
		switch r.step {
		case 0:
			c.R = 255
		case 1:
			c.G = 255
		case 2:
			c.B = 255
		case 3:
			c.W = 255
		}
		rs.Fill(1, c)
	case Rings:
		switch r.step {
		case 0:
			rs.Outer.Fill(1, full)
		case 1:
			rs.Inner.Fill(1, full)
		default:
			return false
		}
	default:
		return false
	}

	r.frame++
	if r.frame >= r.plan.Hold {
		r.frame = 0
		r.step++
	}
	return true
}
