package stage

import (
	"math"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/iimcz/caas-a01/internal/ring"
)

// Decay multipliers applied per frame.
const (
	trailDecay = 0.8
	fadeDecay  = 0.97
)

// collisionGap is the largest first-minus-second angle that counts as a hit.
const collisionGap = 5.0

// Machine advances the current stage and paints it. Update and Current belong
// to the frame loop goroutine; every other method is safe to call from any
// goroutine.
type Machine struct {
	mu      sync.Mutex
	pending Data
	stage   Stage
	pulsing bool
	pulse   float64
	palette Palette
	tun     Tunables
	hook    func(from, to Stage)

	// loop goroutine only
	cur       Data
	pulseTime float64
}

// New returns a machine with Dark pending; the first Update makes it current.
func New(t Tunables, p Palette) *Machine {
	m := &Machine{stage: Dark, pulse: 0.5, palette: p, tun: t}
	m.pending = newData(Dark, t)
	return m
}

// AdvanceStage requests a transition. Unless force is set, a target at or
// below the current stage is rejected when lower advances are not allowed.
// The request takes effect at the start of the next Update.
func (m *Machine) AdvanceStage(target Stage, force bool) bool {
	if !target.Valid() {
		log.Warn().Int("stage", int(target)).Msg("ignoring unknown stage")
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !force && target <= m.stage && !m.tun.AllowLowerStageAdvance {
		log.Info().Stringer("current", m.stage).Stringer("target", target).Msg("ignoring switch to a lower stage")
		return false
	}
	if target == Dark {
		m.pulsing = false
	}
	m.pending = newData(target, m.tun)
	return true
}

// Update advances pulse time, swaps in any pending stage and runs one frame of
// the current stage against rs.
func (m *Machine) Update(dt float64, rs *ring.Rings) {
	m.mu.Lock()
	m.pulseTime += math.Pi * m.tun.BlinkRate * dt
	m.pulse = (math.Sin(m.pulseTime) + 1) / 2

	from, switched := m.stage, false
	if m.pending != nil {
		// the initial Dark payload is not a switch
		switched = m.cur != nil || m.pending.Stage() != from
		carry(m.cur, m.pending)
		m.cur, m.pending = m.pending, nil
		m.stage = m.cur.Stage()
	}
	f := frame{rings: rs, palette: m.palette, pulsing: m.pulsing, pulse: m.pulse}
	hook := m.hook
	m.mu.Unlock()

	if switched {
		log.Info().Stringer("from", from).Stringer("to", m.cur.Stage()).Msg("switching stage")
		if hook != nil {
			hook(from, m.cur.Stage())
		}
	}

	m.cur.elapsed().tick(dt)

	switch d := m.cur.(type) {
	case *DarkData:
		m.updateDark(d)
	case *StartingData:
		m.updateStarting(d, dt, f)
	case *IdleData:
		m.updateIdle(d, dt, f)
	case *WindupData:
		m.updateWindup(d, dt, f)
	case *ExplosionData:
		m.updateExplosion(d, dt, f)
	case *FadeData:
		m.updateFade(d, f)
	}
}

// frame is the per-tick snapshot of shared settings.
type frame struct {
	rings   *ring.Rings
	palette Palette
	pulsing bool
	pulse   float64
}

func (f frame) tint(c ring.Color) ring.Color {
	if f.pulsing {
		return c.Scale(f.pulse)
	}
	return c
}

func (m *Machine) updateDark(d *DarkData) {
	if d.AutoReset && d.Time > d.ResetTime {
		m.AdvanceStage(Starting, false)
	}
}

func (m *Machine) updateStarting(d *StartingData, dt float64, f frame) {
	f.rings.Decay(trailDecay, 0)

	last := d.Position
	d.Position = ring.Normalize(d.Position + d.Speed*dt)
	f.rings.Outer.DrawArc(last, d.Position, true, f.tint(f.palette.Primary))

	d.Speed += d.Accel * dt
	if d.Speed > d.TargetSpeed {
		d.Speed = d.TargetSpeed
		m.AdvanceStage(Idle, false)
	}
}

func (m *Machine) updateIdle(d *IdleData, dt float64, f frame) {
	f.rings.Decay(trailDecay, 0)

	last := d.Position
	d.Position = ring.Normalize(d.Position + d.Speed*dt)
	f.rings.Outer.DrawArc(last, d.Position, true, f.tint(f.palette.Primary))

	if d.AutoAdvance && d.Time > d.AdvanceTime {
		m.AdvanceStage(Windup, false)
	}
}

func (m *Machine) updateWindup(d *WindupData, dt float64, f frame) {
	f.rings.Decay(trailDecay, 0)

	lastFirst := d.FirstPosition
	d.FirstPosition = ring.Normalize(d.FirstPosition + d.FirstSpeed*dt)
	lastSecond := d.SecondPosition
	d.SecondPosition = ring.Normalize(d.SecondPosition - d.SecondSpeed*dt)

	d.FirstSpeed = min(d.FirstSpeed+d.FirstAccel*dt, d.TargetSpeed)
	d.SecondSpeed = min(d.SecondSpeed+d.SecondAccel*dt, d.TargetSpeed)

	if d.collided() {
		m.AdvanceStage(Explosion, false)
		return
	}
	f.rings.Outer.DrawArc(lastFirst, d.FirstPosition, true, f.tint(f.palette.Primary))
	f.rings.Inner.DrawArc(lastSecond, d.SecondPosition, false, f.tint(f.palette.Secondary))
}

// collided reports whether the particles meet at full speed away from the
// 0/180 degree seams.
func (d *WindupData) collided() bool {
	p := d.FirstPosition
	inArc := (p > 30 && p < 150) || (p > 210 && p < 330)
	return d.SecondSpeed == d.TargetSpeed && d.FirstPosition-d.SecondPosition < collisionGap && inArc
}

func (m *Machine) updateExplosion(d *ExplosionData, dt float64, f frame) {
	d.FillRatio += d.FillRate * dt
	if d.FillRatio > 1 {
		d.FillRatio = 1
		m.AdvanceStage(Fade, false)
	}
	ratio := d.FillRatio
	if f.pulsing {
		ratio *= f.pulse
	}
	f.rings.Fill(ratio, f.palette.Fill)
}

func (m *Machine) updateFade(d *FadeData, f frame) {
	f.rings.Decay(fadeDecay, 0)
	if d.Time > d.TargetTime {
		m.AdvanceStage(Dark, true)
	}
}

// Current is the stage payload being animated. Only the goroutine calling
// Update may use it; it is nil before the first Update.
func (m *Machine) Current() Data { return m.cur }

// Stage is the stage most recently made current.
func (m *Machine) Stage() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stage
}

func (m *Machine) SetPulsing(on bool) {
	m.mu.Lock()
	m.pulsing = on
	m.mu.Unlock()
}

func (m *Machine) Pulsing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pulsing
}

// Pulse is the current pulse brightness in [0,1].
func (m *Machine) Pulse() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pulse
}

func (m *Machine) SetColorScheme(p Palette) {
	m.mu.Lock()
	m.palette = p
	m.mu.Unlock()
}

func (m *Machine) Palette() Palette {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.palette
}

// SetTunables applies to stages entered after the call.
func (m *Machine) SetTunables(t Tunables) {
	m.mu.Lock()
	m.tun = t
	m.mu.Unlock()
}

// OnSwitch registers f to run on the loop goroutine whenever a pending stage
// becomes current.
func (m *Machine) OnSwitch(f func(from, to Stage)) {
	m.mu.Lock()
	m.hook = f
	m.mu.Unlock()
}
