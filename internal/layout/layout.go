package layout

import (
	"fmt"

	"github.com/iimcz/caas-a01/internal/ring"
)

// MaxSegmentPixels is how many RGBW pixels fit in one 512-channel universe.
const MaxSegmentPixels = 512 / 4

// RingLayout describes how one physical ring is split into two wire segments
// that meet at a seam. The end segment is transmitted in reverse order.
type RingLayout struct {
	StartCount    int
	EndCount      int
	StartPadding  int
	EndPadding    int
	StartUniverse uint8
	EndUniverse   uint8
}

type Layout struct {
	Inner RingLayout
	Outer RingLayout
	Net   uint8
}

// Segment is one run of ring pixels mapped to a universe. A negative Count
// walks the run backwards from Start+|Count|-1 down to Start.
type Segment struct {
	Ring     ring.Selector
	Start    int
	Count    int
	Universe uint8
	Net      uint8
}

func Default() Layout {
	return Layout{
		Inner: RingLayout{StartCount: 38, EndCount: 38, StartPadding: 3, EndPadding: 3, StartUniverse: 1, EndUniverse: 3},
		Outer: RingLayout{StartCount: 39, EndCount: 39, StartPadding: 3, EndPadding: 3, StartUniverse: 0, EndUniverse: 2},
	}
}

// Size is the number of pixels in the ring.
func (r RingLayout) Size() int { return r.StartCount + r.EndCount }

// NewRings allocates a canvas sized by the layout.
func (l Layout) NewRings() *ring.Rings {
	return ring.NewRings(l.Inner.Size(), l.Outer.Size())
}

// Segments lists the universes in transmit order: inner start, inner end,
// outer start, outer end. Rings with no pixels are skipped.
func (l Layout) Segments() []Segment {
	var out []Segment
	add := func(sel ring.Selector, r RingLayout) {
		if r.Size() == 0 {
			return
		}
		out = append(out,
			Segment{Ring: sel, Start: 0, Count: r.StartCount - r.StartPadding, Universe: r.StartUniverse, Net: l.Net},
			Segment{Ring: sel, Start: r.Size() - r.EndCount, Count: -(r.EndCount - r.EndPadding), Universe: r.EndUniverse, Net: l.Net},
		)
	}
	add(ring.Inner, l.Inner)
	add(ring.Outer, l.Outer)
	return out
}

func (l Layout) Validate() error {
	for _, r := range []struct {
		name string
		r    RingLayout
	}{{"inner", l.Inner}, {"outer", l.Outer}} {
		switch {
		case r.r.StartCount < 0 || r.r.EndCount < 0:
			return fmt.Errorf("%s ring: negative led count", r.name)
		case r.r.StartPadding < 0 || r.r.EndPadding < 0:
			return fmt.Errorf("%s ring: negative padding", r.name)
		case r.r.StartPadding > r.r.StartCount || r.r.EndPadding > r.r.EndCount:
			return fmt.Errorf("%s ring: padding larger than segment", r.name)
		case r.r.StartCount-r.r.StartPadding > MaxSegmentPixels || r.r.EndCount-r.r.EndPadding > MaxSegmentPixels:
			return fmt.Errorf("%s ring: segment exceeds %d pixels", r.name, MaxSegmentPixels)
		}
	}
	return nil
}
