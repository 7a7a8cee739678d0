// Package ring holds the circular RGBW pixel buffers and the angle-addressed
// paint operations used by the animation stages.
package ring

import (
	"fmt"
	"math"
)

// Ring is a fixed-size circular pixel buffer. Index arithmetic wraps modulo Len.
type Ring struct {
	px []Color
}

// New allocates a ring of n pixels. The size never changes afterwards.
func New(n int) *Ring {
	if n < 0 {
		n = 0
	}
	return &Ring{px: make([]Color, n)}
}

func (r *Ring) Len() int { return len(r.px) }

// Pixels exposes the backing buffer for encoders and drivers. Callers must not
// retain it across frames.
func (r *Ring) Pixels() []Color { return r.px }

func (r *Ring) At(i int) Color { return r.px[r.wrap(i)] }

func (r *Ring) Set(i int, c Color) { r.px[r.wrap(i)] = c }

func (r *Ring) String() string { return fmt.Sprintf("ring{%d}", len(r.px)) }

func (r *Ring) wrap(i int) int {
	n := len(r.px)
	return ((i % n) + n) % n
}

// Normalize maps any angle in degrees into [0, 360).
func Normalize(angle float64) float64 {
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// AngleToLed returns the fractional pixel index under angle: Len/360 * angle.
func (r *Ring) AngleToLed(angle float64) float64 {
	n := float64(len(r.px))
	led := n / 360 * Normalize(angle)
	if led >= n {
		led = math.Nextafter(n, 0)
	}
	return led
}

// DrawArc paints the arc between two angles. Whole pixels from the one under
// from up to and including the one under to get the full color; the pixel just
// past to gets half of its sub-pixel coverage. A zero-length arc only touches
// that boundary pixel.
func (r *Ring) DrawArc(from, to float64, clockwise bool, c Color) {
	n := len(r.px)
	if n == 0 {
		return
	}
	from, to = Normalize(from), Normalize(to)

	iFrom := int(r.AngleToLed(from))
	ledTo := r.AngleToLed(to)
	iTo := int(ledTo)
	frac := ledTo - float64(iTo)

	if clockwise {
		r.px[(iTo+1)%n] = c.Scale(frac * 0.5)
		switch {
		case to == from:
		case to > from:
			for i := iFrom; i <= iTo; i++ {
				r.px[i] = c
			}
		default:
			for i := iFrom; i < n; i++ {
				r.px[i] = c
			}
			for i := 0; i <= iTo; i++ {
				r.px[i] = c
			}
		}
		return
	}

	r.px[(iTo-1+n)%n] = c.Scale((1 - frac) * 0.5)
	switch {
	case to == from:
	case to < from:
		for i := iFrom; i >= iTo; i-- {
			r.px[i] = c
		}
	default:
		for i := iFrom; i >= 0; i-- {
			r.px[i] = c
		}
		for i := n - 1; i >= iTo; i-- {
			r.px[i] = c
		}
	}
}

// Fill raises every channel to at least c*ratio. Brighter pixels are kept.
func (r *Ring) Fill(ratio float64, c Color) {
	ratio = math.Max(0, math.Min(1, ratio))
	if ratio == 0 {
		return
	}
	tide := c.Scale(ratio)
	for i := range r.px {
		r.px[i] = r.px[i].Max(tide)
	}
}

// Decay sets every channel to channel*multiplier + addition, saturated.
func (r *Ring) Decay(multiplier float64, addition uint8) {
	add := float64(addition)
	for i, p := range r.px {
		r.px[i] = Color{
			R: sat(float64(p.R)*multiplier + add),
			G: sat(float64(p.G)*multiplier + add),
			B: sat(float64(p.B)*multiplier + add),
			W: sat(float64(p.W)*multiplier + add),
		}
	}
}

func (r *Ring) Clear() {
	for i := range r.px {
		r.px[i] = Black
	}
}
