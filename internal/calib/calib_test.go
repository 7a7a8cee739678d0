package calib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iimcz/caas-a01/internal/ring"
)

func countLit(rs *ring.Rings) (n int) {
	rs.Each(func(_ ring.Selector, r *ring.Ring) {
		for _, p := range r.Pixels() {
			if p != ring.Black {
				n++
			}
		}
	})
	return n
}

func TestIndexSweepVisitsEveryPixelOnce(t *testing.T) {
	rs := ring.NewRings(3, 4)
	r := NewRunner(Plan{Kind: IndexSweep})

	steps := 0
	for r.Step(rs) {
		assert.Equal(t, 1, countLit(rs), "step %d", steps)
		steps++
	}
	assert.Equal(t, 7, steps)
	assert.Zero(t, countLit(rs))
}

func TestIndexSweepOrderAndHold(t *testing.T) {
	rs := ring.NewRings(2, 2)
	r := NewRunner(Plan{Kind: IndexSweep, Hold: 2})

	require.True(t, r.Step(rs))
	assert.NotEqual(t, ring.Black, rs.Outer.At(0))
	require.True(t, r.Step(rs))
	assert.NotEqual(t, ring.Black, rs.Outer.At(0), "held for two frames")
	require.True(t, r.Step(rs))
	assert.NotEqual(t, ring.Black, rs.Outer.At(1))
	require.True(t, r.Step(rs))
	require.True(t, r.Step(rs))
	assert.NotEqual(t, ring.Black, rs.Inner.At(0))
}

func TestRGBWChannels(t *testing.T) {
	rs := ring.NewRings(2, 2)
	r := NewRunner(Plan{Kind: RGBWTest})

	want := []ring.Color{{R: 255}, {G: 255}, {B: 255}, {W: 255}}
	for i, c := range want {
		require.True(t, r.Step(rs), "step %d", i)
		assert.Equal(t, c, rs.Inner.At(1))
		assert.Equal(t, c, rs.Outer.At(0))
	}
	assert.False(t, r.Step(rs))
}

func TestRingsPattern(t *testing.T) {
	rs := ring.NewRings(2, 3)
	r := NewRunner(Plan{Kind: Rings})

	require.True(t, r.Step(rs))
	assert.Equal(t, 3, countLit(rs))
	assert.Equal(t, ring.Black, rs.Inner.At(0))
	require.True(t, r.Step(rs))
	assert.Equal(t, 2, countLit(rs))
	assert.Equal(t, ring.Black, rs.Outer.At(0))
	assert.False(t, r.Step(rs))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("rings")
	require.NoError(t, err)
	assert.Equal(t, Rings, k)

	k, err = ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, None, k)

	_, err = ParseKind("plane_z")
	assert.Error(t, err)

	assert.False(t, NewRunner(Plan{}).Step(ring.NewRings(1, 1)))
}
