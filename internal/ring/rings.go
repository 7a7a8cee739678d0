package ring

// Selector picks one of the two concentric rings.
type Selector int

const (
	Inner Selector = iota
	Outer
)

func (s Selector) String() string {
	if s == Inner {
		return "inner"
	}
	return "outer"
}

// Rings is the full canvas: an inner and an outer ring. Either may be empty.
type Rings struct {
	Inner *Ring
	Outer *Ring
}

func NewRings(inner, outer int) *Rings {
	return &Rings{Inner: New(inner), Outer: New(outer)}
}

func (r *Rings) Get(sel Selector) *Ring {
	if sel == Inner {
		return r.Inner
	}
	return r.Outer
}

func (r *Rings) AngleToLed(angle float64, sel Selector) float64 {
	return r.Get(sel).AngleToLed(angle)
}

func (r *Rings) Decay(multiplier float64, addition uint8) {
	r.Inner.Decay(multiplier, addition)
	r.Outer.Decay(multiplier, addition)
}

func (r *Rings) Fill(ratio float64, c Color) {
	r.Inner.Fill(ratio, c)
	r.Outer.Fill(ratio, c)
}

func (r *Rings) Clear() {
	r.Inner.Clear()
	r.Outer.Clear()
}

// Each calls f for the inner then the outer ring.
func (r *Rings) Each(f func(sel Selector, rg *Ring)) {
	f(Inner, r.Inner)
	f(Outer, r.Outer)
}
