package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iimcz/caas-a01/internal/ring"
)

func TestDefaultSegments(t *testing.T) {
	l := Default()
	require.NoError(t, l.Validate())

	rs := l.NewRings()
	assert.Equal(t, 76, rs.Inner.Len())
	assert.Equal(t, 78, rs.Outer.Len())

	want := []Segment{
		{Ring: ring.Inner, Start: 0, Count: 35, Universe: 1},
		{Ring: ring.Inner, Start: 38, Count: -35, Universe: 3},
		{Ring: ring.Outer, Start: 0, Count: 36, Universe: 0},
		{Ring: ring.Outer, Start: 39, Count: -36, Universe: 2},
	}
	assert.Equal(t, want, l.Segments())
}

func TestSingleRingLayout(t *testing.T) {
	l := Default()
	l.Inner = RingLayout{}
	l.Net = 4

	segs := l.Segments()
	require.Len(t, segs, 2)
	for _, s := range segs {
		assert.Equal(t, ring.Outer, s.Ring)
		assert.Equal(t, uint8(4), s.Net)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Layout){
		"negative count":   func(l *Layout) { l.Inner.StartCount = -1 },
		"negative padding": func(l *Layout) { l.Outer.EndPadding = -2 },
		"padding too big":  func(l *Layout) { l.Outer.StartPadding = 40 },
		"too long":         func(l *Layout) { l.Inner.EndCount = 200 },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			l := Default()
			mut(&l)
			assert.Error(t, l.Validate())
		})
	}
}
