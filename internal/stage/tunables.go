package stage

import (
	"fmt"

	"github.com/iimcz/caas-a01/internal/ring"
)

// Tunables are the timing and speed knobs of the narrative. Speeds are in
// degrees per second, times in seconds.
type Tunables struct {
	BlinkRate              float64
	IdleSpeed              float64
	AdvanceTime            float64
	StartingTime           float64
	CollisionTime          float64
	CollisionSpeed         float64
	ResetTime              float64
	AutoReset              bool
	AutoAdvance            bool
	AllowLowerStageAdvance bool
	FillStart              float64
	FillRate               float64
	FadeTime               float64
}

func DefaultTunables() Tunables {
	return Tunables{
		BlinkRate:      1.0,
		IdleSpeed:      80,
		AdvanceTime:    2.0,
		StartingTime:   1.0,
		CollisionTime:  5.0,
		CollisionSpeed: 180,
		ResetTime:      30,
		AutoReset:      true,
		AutoAdvance:    true,
		FillStart:      0.4,
		FillRate:       0.2,
		FadeTime:       10,
	}
}

// Validate rejects values that would stall or divide by zero.
func (t Tunables) Validate() error {
	switch {
	case t.StartingTime <= 0:
		return fmt.Errorf("starting_time must be positive, got %v", t.StartingTime)
	case t.CollisionTime <= 0:
		return fmt.Errorf("collision_time must be positive, got %v", t.CollisionTime)
	case t.IdleSpeed < 0 || t.CollisionSpeed < 0:
		return fmt.Errorf("speeds must not be negative")
	case t.FillRate < 0:
		return fmt.Errorf("fill_rate must not be negative, got %v", t.FillRate)
	}
	return nil
}

// Palette holds the three draw colors.
type Palette struct {
	Primary   ring.Color
	Secondary ring.Color
	Fill      ring.Color
}

func DefaultPalette() Palette {
	return Palette{
		Primary:   ring.Color{R: 250, G: 50, B: 50, W: 255},
		Secondary: ring.Color{R: 50, G: 250, B: 50, W: 255},
		Fill:      ring.Color{R: 250, G: 250, B: 50, W: 255},
	}
}
