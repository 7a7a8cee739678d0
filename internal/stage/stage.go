// Package stage runs the six-step light narrative: Dark, Starting, Idle,
// Windup, Explosion and Fade. The Machine owns the per-stage kinematics and
// paints each frame onto a ring.Rings canvas.
package stage

import (
	"fmt"
	"strconv"
	"strings"
)

// Stage is ordered; "lower" transitions compare by value.
type Stage int

const (
	Dark Stage = iota
	Starting
	Idle
	Windup
	Explosion
	Fade
)

var stageNames = [...]string{"dark", "starting", "idle", "windup", "explosion", "fade"}

func (s Stage) String() string {
	if s.Valid() {
		return stageNames[s]
	}
	return "stage(" + strconv.Itoa(int(s)) + ")"
}

func (s Stage) Valid() bool { return s >= Dark && s <= Fade }

// Parse accepts a stage number (0..5) or a case-insensitive stage name.
func Parse(v string) (Stage, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		if s := Stage(n); s.Valid() {
			return s, nil
		}
		return 0, fmt.Errorf("stage %d out of range", n)
	}
	for i, name := range stageNames {
		if strings.EqualFold(v, name) {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", v)
}
