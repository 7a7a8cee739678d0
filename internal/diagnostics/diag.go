package diagnostics

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

const (
	StageSwitch      = "STAGE.SWITCH"
	OutputWrite      = "OUTPUT.WRITE"
	CalibRunning     = "CALIB.RUNNING"
	CalibDone        = "CALIB.DONE"
	ControlRejected  = "CONTROL.REJECTED"
	ControlApplied   = "CONTROL.APPLIED"
	MonitorConnected = "MONITOR.CONNECTED"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Sink receives diagnostics. A nil Sink drops them.
type Sink func(Diagnostic)

func (s Sink) Push(d Diagnostic) {
	if s != nil {
		s(d)
	}
}

// Level maps the severity onto a log level.
func (d Diagnostic) Level() zerolog.Level {
	switch d.Severity {
	case Warn:
		return zerolog.WarnLevel
	case Err:
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

// Log writes d to the global logger.
func Log(d Diagnostic) {
	ev := log.WithLevel(d.Level()).Str("code", d.Code)
	if d.Detail != "" {
		ev = ev.Str("detail", d.Detail)
	}
	if len(d.Evidence) > 0 {
		ev = ev.Interface("evidence", d.Evidence)
	}
	ev.Msg(d.Summary)
}

// Tee returns a sink that logs d and forwards it to every non-nil sink.
func Tee(sinks ...Sink) Sink {
	return func(d Diagnostic) {
		Log(d)
		for _, s := range sinks {
			s.Push(d)
		}
	}
}

// OutputWriteFailed describes a frame that did not reach the output.
func OutputWriteFailed(err error) Diagnostic {
	return Diagnostic{
		Severity: Warn,
		Code:     OutputWrite,
		Summary:  "Frame write failed",
		Detail:   err.Error(),
		LikelyCauses: []string{
			"Art-Net controller unreachable or its address misconfigured",
			"SPI port busy or LED count larger than the strip",
			"segment layout does not fit the ring sizes",
		},
		SuggestedFixes: []string{
			"check led_driver.artnet.controller_ip and the network route to port 6454",
			"run ringd -calibrate index_sweep to confirm wiring and segment order",
			"compare led_driver.artnet.leds and padding with the installed rings",
		},
	}
}

// ControlIgnored describes a valid command the stage machine refused.
func ControlIgnored(command, from string) Diagnostic {
	return Diagnostic{
		Severity: Info,
		Code:     ControlRejected,
		Summary:  "Control command ignored",
		Detail:   command,
		Evidence: map[string]any{"from": from},
		LikelyCauses: []string{
			"target stage is at or below the current stage",
			"plain AdvanceStage sent while a pulsing cycle runs",
		},
		SuggestedFixes: []string{
			"send AdvanceStagePulsing or wait for the cycle to return to dark",
			"set allow_lower_stage_advance to permit going back",
		},
	}
}
