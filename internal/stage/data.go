package stage

// Data is the payload of the current stage. It is implemented only by the
// *XxxData types of this package; Machine.Update switches over all of them.
type Data interface {
	Stage() Stage
	elapsed() *Elapsed
}

// Elapsed is the time in seconds since the stage became current.
type Elapsed struct {
	Time float64
}

func (e *Elapsed) elapsed() *Elapsed { return e }

func (e *Elapsed) tick(dt float64) { e.Time += dt }

type DarkData struct {
	Elapsed
	AutoReset bool
	ResetTime float64
}

type StartingData struct {
	Elapsed
	Position    float64
	Speed       float64
	Accel       float64
	TargetSpeed float64
}

type IdleData struct {
	Elapsed
	Position    float64
	Speed       float64
	AutoAdvance bool
	AdvanceTime float64
}

type WindupData struct {
	Elapsed
	FirstPosition  float64
	FirstSpeed     float64
	FirstAccel     float64
	SecondPosition float64
	SecondSpeed    float64
	SecondAccel    float64
	TargetSpeed    float64
}

type ExplosionData struct {
	Elapsed
	FillRatio float64
	FillRate  float64
}

type FadeData struct {
	Elapsed
	TargetTime float64
}

func (*DarkData) Stage() Stage      { return Dark }
func (*StartingData) Stage() Stage  { return Starting }
func (*IdleData) Stage() Stage      { return Idle }
func (*WindupData) Stage() Stage    { return Windup }
func (*ExplosionData) Stage() Stage { return Explosion }
func (*FadeData) Stage() Stage      { return Fade }

// startingSpeed is the particle speed in deg/s when Starting is entered.
const startingSpeed = 1.0

// newData builds the entry payload for s from the tunables. Continuity fields
// are filled in later by carry.
func newData(s Stage, t Tunables) Data {
	switch s {
	case Dark:
		return &DarkData{AutoReset: t.AutoReset, ResetTime: t.ResetTime}
	case Starting:
		return &StartingData{
			Speed:       startingSpeed,
			Accel:       t.IdleSpeed / t.StartingTime,
			TargetSpeed: t.IdleSpeed,
		}
	case Idle:
		return &IdleData{Speed: t.IdleSpeed, AutoAdvance: t.AutoAdvance, AdvanceTime: t.AdvanceTime}
	case Windup:
		accel := t.CollisionSpeed / t.CollisionTime
		return &WindupData{FirstAccel: accel, SecondAccel: accel, TargetSpeed: t.CollisionSpeed}
	case Explosion:
		return &ExplosionData{FillRatio: t.FillStart, FillRate: t.FillRate}
	case Fade:
		return &FadeData{TargetTime: t.FadeTime}
	}
	return nil
}

// carry copies position and speed from the outgoing stage into next.
func carry(prev, next Data) {
	switch n := next.(type) {
	case *IdleData:
		if s, ok := prev.(*StartingData); ok {
			n.Position = s.Position
		}
	case *WindupData:
		switch p := prev.(type) {
		case *IdleData:
			n.FirstPosition, n.FirstSpeed = p.Position, p.Speed
		case *StartingData:
			n.FirstPosition, n.FirstSpeed = p.Position, p.Speed
		}
		// updateWindup clamps both speeds to TargetSpeed on the first tick
		n.SecondSpeed = n.FirstSpeed / 2
	}
}
