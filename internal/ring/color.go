package ring

import "math"

// Color is one RGBW pixel. Channels are 8 bits wide across the whole build.
type Color struct{ R, G, B, W uint8 }

// Black is the zero pixel.
var Black = Color{}

// RGBW packs the color as 0xRRGGBBWW.
func (c Color) RGBW() uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.W)
}

// Scale multiplies every channel by ratio, saturating at 255 and clamping at 0.
func (c Color) Scale(ratio float64) Color {
	return Color{
		R: sat(float64(c.R) * ratio),
		G: sat(float64(c.G) * ratio),
		B: sat(float64(c.B) * ratio),
		W: sat(float64(c.W) * ratio),
	}
}

// Max returns the per-channel maximum of c and o.
func (c Color) Max(o Color) Color {
	return Color{
		R: max(c.R, o.R),
		G: max(c.G, o.G),
		B: max(c.B, o.B),
		W: max(c.W, o.W),
	}
}

// sat truncates v into a channel value.
func sat(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
