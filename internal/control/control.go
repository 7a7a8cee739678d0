// Package control implements the plain-text UDP command protocol:
//
//	AdvanceStage <n>
//	AdvanceStagePulsing <n>
//	Palette <r g b w> <r g b w> <r g b w>
package control

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iimcz/caas-a01/internal/ring"
	"github.com/iimcz/caas-a01/internal/stage"
)

const DefaultPort = 13798

type Kind int

const (
	AdvanceStage Kind = iota + 1
	AdvanceStagePulsing
	Palette
)

func (k Kind) String() string {
	switch k {
	case AdvanceStage:
		return "AdvanceStage"
	case AdvanceStagePulsing:
		return "AdvanceStagePulsing"
	case Palette:
		return "Palette"
	}
	return "Unknown"
}

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrStageRange     = errors.New("stage out of range")
)

type Command struct {
	Kind    Kind
	Stage   stage.Stage
	Palette stage.Palette
}

func (c Command) String() string {
	if c.Kind == Palette {
		return fmt.Sprintf("%s %v", c.Kind, c.Palette)
	}
	return fmt.Sprintf("%s %d", c.Kind, c.Stage)
}

// Parse decodes one datagram. Trailing NULs and whitespace are ignored.
func Parse(line string) (Command, error) {
	line = strings.TrimRight(line, "\x00")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrUnknownCommand
	}

	switch fields[0] {
	case "AdvanceStage", "AdvanceStagePulsing":
		if len(fields) < 2 {
			return Command{}, fmt.Errorf("%s: missing stage", fields[0])
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return Command{}, fmt.Errorf("%s: %w", fields[0], err)
		}
		s := stage.Stage(n)
		if !s.Valid() {
			return Command{}, fmt.Errorf("%w: %d", ErrStageRange, n)
		}
		k := AdvanceStage
		if fields[0] == "AdvanceStagePulsing" {
			k = AdvanceStagePulsing
		}
		return Command{Kind: k, Stage: s}, nil

	case "Palette":
		if len(fields) < 13 {
			return Command{}, fmt.Errorf("Palette: want 12 channel values, got %d", len(fields)-1)
		}
		var ch [12]uint8
		for i := range ch {
			v, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return Command{}, fmt.Errorf("Palette: %w", err)
			}
			ch[i] = uint8(min(max(v, 0), 255))
		}
		color := func(i int) ring.Color { return ring.Color{R: ch[i], G: ch[i+1], B: ch[i+2], W: ch[i+3]} }
		return Command{Kind: Palette, Palette: stage.Palette{Primary: color(0), Secondary: color(4), Fill: color(8)}}, nil
	}
	return Command{}, fmt.Errorf("%w %q", ErrUnknownCommand, fields[0])
}

// Target is what commands act on; *stage.Machine implements it.
type Target interface {
	AdvanceStage(target stage.Stage, force bool) bool
	SetPulsing(on bool)
	Pulsing() bool
	SetColorScheme(p stage.Palette)
}

var _ Target = (*stage.Machine)(nil)

// Apply executes c against t and reports whether it took effect. Plain
// AdvanceStage is ignored while a pulsing cycle runs.
func Apply(t Target, c Command) bool {
	switch c.Kind {
	case AdvanceStagePulsing:
		t.SetPulsing(true)
		return t.AdvanceStage(c.Stage, false)
	case AdvanceStage:
		if t.Pulsing() {
			return false
		}
		return t.AdvanceStage(c.Stage, false)
	case Palette:
		t.SetColorScheme(c.Palette)
		return true
	}
	return false
}
