package ring_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/iimcz/caas-a01/internal/ring"
)

var red = Color{R: 200, G: 100, B: 40, W: 255}

func lit(r *Ring) []int {
	var out []int
	for i, p := range r.Pixels() {
		if p != Black {
			out = append(out, i)
		}
	}
	return out
}

func span(from, to int) []int {
	out := []int{}
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func TestAngleToLedRangeAndPeriod(t *testing.T) {
	for _, n := range []int{1, 10, 76, 78, 360} {
		r := New(n)
		for _, a := range []float64{0, 12.5, 90, 180.25, 359.5} {
			base := r.AngleToLed(a)
			for k := -3; k <= 3; k++ {
				t.Run(strconv.Itoa(n)+"/"+strconv.FormatFloat(a, 'f', -1, 64)+"/"+strconv.Itoa(k), func(t *testing.T) {
					got := r.AngleToLed(a + 360*float64(k))
					assert.GreaterOrEqual(t, got, 0.0)
					assert.Less(t, got, float64(n))
					assert.Equal(t, base, got)
				})
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 0.0, Normalize(360))
	assert.Equal(t, 350.0, Normalize(-10))
	assert.Equal(t, 10.0, Normalize(730))
	assert.Equal(t, 0.0, Normalize(-720))
}

func TestDrawArcClockwise(t *testing.T) {
	r := New(360)
	r.DrawArc(10, 50, true, red)

	assert.Equal(t, span(10, 50), lit(r))
	for i := 10; i <= 50; i++ {
		assert.Equal(t, red, r.At(i), "pixel %d", i)
	}
	// 50 degrees lands exactly on a pixel boundary: no coverage for 51.
	assert.Equal(t, Black, r.At(51))
}

func TestDrawArcClockwiseFractionalEdge(t *testing.T) {
	r := New(360)
	r.DrawArc(10, 50.5, true, red)

	assert.Equal(t, span(10, 51), lit(r))
	assert.Equal(t, red.Scale(0.25), r.At(51))
	assert.Equal(t, Color{R: 50, G: 25, B: 10, W: 63}, r.At(51))
}

func TestDrawArcClockwiseWraps(t *testing.T) {
	r := New(360)
	r.DrawArc(50, 10, true, red)

	want := append(span(0, 10), span(50, 359)...)
	assert.Equal(t, want, lit(r))
}

func TestDrawArcCounterClockwise(t *testing.T) {
	r := New(360)
	r.DrawArc(50, 10, false, red)

	assert.Equal(t, span(9, 50), lit(r))
	assert.Equal(t, Color{R: 100, G: 50, B: 20, W: 127}, r.At(9))
	assert.Equal(t, red, r.At(10))
	assert.Equal(t, red, r.At(50))
}

func TestDrawArcCounterClockwiseWraps(t *testing.T) {
	r := New(360)
	r.DrawArc(10, 50, false, red)

	want := append(span(0, 10), span(49, 359)...)
	assert.Equal(t, want, lit(r))
	assert.Equal(t, red.Scale(0.5), r.At(49))
}

func TestDrawArcDegenerate(t *testing.T) {
	r := New(360)
	r.DrawArc(30, 30, true, red)
	assert.Empty(t, lit(r), "zero-length arc on a pixel boundary paints nothing")

	r.DrawArc(30.5, 30.5, true, red)
	assert.Equal(t, []int{31}, lit(r))

	r.Clear()
	r.DrawArc(30.5, 30.5, false, red)
	assert.Equal(t, []int{29}, lit(r))
}

func TestDrawArcSmallRing(t *testing.T) {
	r := New(10)
	r.DrawArc(300, 30, true, red)

	assert.Equal(t, []int{0, 1, 8, 9}, lit(r))
	assert.Equal(t, red, r.At(8))
	assert.Equal(t, red, r.At(0))
	assert.Equal(t, uint8(83), r.At(1).R)
}

func TestFillIsRisingTide(t *testing.T) {
	r := New(4)
	r.Set(0, Color{R: 255})
	fill := Color{R: 100, G: 100, B: 100, W: 100}

	r.Fill(0, fill)
	assert.Equal(t, []int{0}, lit(r), "fill(0) is a no-op")

	r.Fill(0.5, fill)
	before := append([]Color(nil), r.Pixels()...)
	r.Fill(0.8, fill)
	for i, p := range r.Pixels() {
		assert.GreaterOrEqual(t, p.R, before[i].R)
		assert.GreaterOrEqual(t, p.G, before[i].G)
		assert.GreaterOrEqual(t, p.B, before[i].B)
		assert.GreaterOrEqual(t, p.W, before[i].W)
	}
	assert.Equal(t, Color{R: 255, G: 80, B: 80, W: 80}, r.At(0))
	assert.Equal(t, Color{R: 80, G: 80, B: 80, W: 80}, r.At(3))

	r.Fill(3, fill)
	assert.Equal(t, Color{R: 100, G: 100, B: 100, W: 100}, r.At(3), "ratio is clamped to 1")
}

func TestDecay(t *testing.T) {
	r := New(3)
	r.Set(0, Color{R: 200, G: 10, B: 1, W: 255})
	r.Set(2, Color{G: 80})
	want := append([]Color(nil), r.Pixels()...)

	r.Decay(1.0, 0)
	assert.Equal(t, want, r.Pixels())

	r.Decay(0.5, 0)
	assert.Equal(t, Color{R: 100, G: 5, B: 0, W: 127}, r.At(0))

	r.Decay(1, 200)
	assert.Equal(t, Color{R: 255, G: 205, B: 200, W: 255}, r.At(0), "addition saturates")

	r.Decay(0, 0)
	assert.Empty(t, lit(r))
}

func TestEmptyRing(t *testing.T) {
	r := New(0)
	require.Equal(t, 0, r.Len())
	assert.NotPanics(t, func() {
		r.DrawArc(10, 200, true, red)
		r.DrawArc(10, 200, false, red)
		r.Fill(1, red)
		r.Decay(0.8, 0)
		r.Clear()
	})
}

func TestRings(t *testing.T) {
	rs := NewRings(76, 78)
	assert.InDelta(t, 38.0, rs.AngleToLed(180, Inner), 1e-9)
	assert.InDelta(t, 39.0, rs.AngleToLed(180, Outer), 1e-9)

	rs.Fill(1, red)
	rs.Decay(0, 0)
	rs.Each(func(sel Selector, r *Ring) {
		assert.Empty(t, lit(r), sel.String())
	})
}

func TestColor(t *testing.T) {
	assert.Equal(t, uint32(0xC86428FF), red.RGBW())
	assert.Equal(t, Color{R: 255, G: 200, B: 80, W: 255}, red.Scale(2))
	assert.Equal(t, Black, red.Scale(-1))
}
