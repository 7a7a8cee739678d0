// Package bridge turns telemetry published over MQTT into control commands
// for ringd. Each watched topic has a Decider; when the value rises through its
// boundary the bridge sends one command datagram to the control port.
package bridge

// Decider fires on an upward crossing of Boundary.
type Decider struct {
	Value    float64
	Boundary float64
}

// ShouldAnimate reports whether v crosses the boundary from below and records
// v as the new value. Landing exactly on the boundary does not count.
func (d *Decider) ShouldAnimate(v float64) bool {
	fire := d.Value < d.Boundary && v > d.Boundary
	d.Value = v
	return fire
}

// DefaultTopics are the watched topics with their boundaries; values start
// at zero.
func DefaultTopics() map[string]*Decider {
	return map[string]*Decider{
		"art01/star/yellow-loss-rate": {Boundary: 20},
		"art01/cern/i_b2":             {Boundary: 2000},
	}
}
