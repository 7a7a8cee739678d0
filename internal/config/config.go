package config

import (
	"fmt"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/iimcz/caas-a01/internal/layout"
	"github.com/iimcz/caas-a01/internal/ring"
	"github.com/iimcz/caas-a01/internal/stage"
)

// Output names accepted in led_driver.output.
const (
	OutputArtNet = "artnet"
	OutputDebug  = "debug"
	OutputSPI    = "spi"
	OutputTerm   = "term"
)

type Color struct {
	R   int    `yaml:"r"`
	G   int    `yaml:"g"`
	B   int    `yaml:"b"`
	W   int    `yaml:"w"`
	Hex string `yaml:"hex,omitempty"` // "#rrggbb", overrides r/g/b
}

type Colors struct {
	Primary   Color `yaml:"primary"`
	Secondary Color `yaml:"secondary"`
	Fill      Color `yaml:"fill"`
}

type Quad struct {
	InnerStart int `yaml:"inner_start"`
	InnerEnd   int `yaml:"inner_end"`
	OuterStart int `yaml:"outer_start"`
	OuterEnd   int `yaml:"outer_end"`
}

type ArtNet struct {
	ControllerIP string `yaml:"controller_ip"`
	Net          uint8  `yaml:"net"`
	Leds         Quad   `yaml:"leds"`
	Padding      Quad   `yaml:"padding"`
	Universes    Quad   `yaml:"universes"`
}

type SPI struct {
	Port string `yaml:"port"` // "" picks the first port
}

type Driver struct {
	Output string `yaml:"output"`
	FPS    int    `yaml:"fps"`

	ResetTime              float64 `yaml:"reset_time"`
	AutoReset              bool    `yaml:"auto_reset"`
	AutoAdvance            bool    `yaml:"auto_advance"`
	BlinkRate              float64 `yaml:"blink_rate"`
	IdleSpeed              float64 `yaml:"idle_speed"`
	AdvanceTime            float64 `yaml:"advance_time"`
	StartingTime           float64 `yaml:"starting_time"`
	CollisionSpeed         float64 `yaml:"collision_speed"`
	CollisionTime          float64 `yaml:"collision_time"`
	AllowLowerStageAdvance bool    `yaml:"allow_lower_stage_advance"`
	FillStart              float64 `yaml:"fill_start"`
	FillRate               float64 `yaml:"fill_rate"`
	FadeTime               float64 `yaml:"fade_time"`

	Colors Colors `yaml:"colors"`
	ArtNet ArtNet `yaml:"artnet"`
	SPI    SPI    `yaml:"spi"`
}

type Monitor struct {
	Addr string `yaml:"addr"` // e.g. ":8080"; empty disables the monitor
}

type Config struct {
	LedDriver   Driver  `yaml:"led_driver"`
	ControlPort int     `yaml:"control_port"`
	Monitor     Monitor `yaml:"monitor"`
}

func fromColor(c ring.Color) Color {
	return Color{R: int(c.R), G: int(c.G), B: int(c.B), W: int(c.W)}
}

// Default mirrors the built-in tunables, palette and ring layout.
func Default() *Config {
	t := stage.DefaultTunables()
	p := stage.DefaultPalette()
	l := layout.Default()
	return &Config{
		LedDriver: Driver{
			Output:                 OutputArtNet,
			FPS:                    30,
			ResetTime:              t.ResetTime,
			AutoReset:              t.AutoReset,
			AutoAdvance:            t.AutoAdvance,
			BlinkRate:              t.BlinkRate,
			IdleSpeed:              t.IdleSpeed,
			AdvanceTime:            t.AdvanceTime,
			StartingTime:           t.StartingTime,
			CollisionSpeed:         t.CollisionSpeed,
			CollisionTime:          t.CollisionTime,
			AllowLowerStageAdvance: t.AllowLowerStageAdvance,
			FillStart:              t.FillStart,
			FillRate:               t.FillRate,
			FadeTime:               t.FadeTime,
			Colors: Colors{
				Primary:   fromColor(p.Primary),
				Secondary: fromColor(p.Secondary),
				Fill:      fromColor(p.Fill),
			},
			ArtNet: ArtNet{
				ControllerIP: "127.0.0.1",
				Net:          l.Net,
				Leds:         Quad{l.Inner.StartCount, l.Inner.EndCount, l.Outer.StartCount, l.Outer.EndCount},
				Padding:      Quad{l.Inner.StartPadding, l.Inner.EndPadding, l.Outer.StartPadding, l.Outer.EndPadding},
				Universes: Quad{
					int(l.Inner.StartUniverse), int(l.Inner.EndUniverse),
					int(l.Outer.StartUniverse), int(l.Outer.EndUniverse),
				},
			},
		},
		ControlPort: 13798,
	}
}

// Load reads a YAML file over the defaults; keys missing from the file keep
// their default value.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Tunables() stage.Tunables {
	d := c.LedDriver
	return stage.Tunables{
		BlinkRate:              d.BlinkRate,
		IdleSpeed:              d.IdleSpeed,
		AdvanceTime:            d.AdvanceTime,
		StartingTime:           d.StartingTime,
		CollisionTime:          d.CollisionTime,
		CollisionSpeed:         d.CollisionSpeed,
		ResetTime:              d.ResetTime,
		AutoReset:              d.AutoReset,
		AutoAdvance:            d.AutoAdvance,
		AllowLowerStageAdvance: d.AllowLowerStageAdvance,
		FillStart:              d.FillStart,
		FillRate:               d.FillRate,
		FadeTime:               d.FadeTime,
	}
}

func clamp8(v int) uint8 { return uint8(min(max(v, 0), 255)) }

// Ring converts the entry; channel values are clamped into 0..255.
func (c Color) Ring() (ring.Color, error) {
	out := ring.Color{R: clamp8(c.R), G: clamp8(c.G), B: clamp8(c.B), W: clamp8(c.W)}
	if c.Hex == "" {
		return out, nil
	}
	h, err := colorful.Hex(c.Hex)
	if err != nil {
		return out, fmt.Errorf("color %q: %w", c.Hex, err)
	}
	out.R, out.G, out.B = h.RGB255()
	return out, nil
}

func (c *Config) Palette() (stage.Palette, error) {
	var p stage.Palette
	var err error
	cs := c.LedDriver.Colors
	if p.Primary, err = cs.Primary.Ring(); err != nil {
		return p, fmt.Errorf("primary: %w", err)
	}
	if p.Secondary, err = cs.Secondary.Ring(); err != nil {
		return p, fmt.Errorf("secondary: %w", err)
	}
	if p.Fill, err = cs.Fill.Ring(); err != nil {
		return p, fmt.Errorf("fill: %w", err)
	}
	return p, nil
}

func (c *Config) Layout() layout.Layout {
	a := c.LedDriver.ArtNet
	return layout.Layout{
		Inner: layout.RingLayout{
			StartCount: a.Leds.InnerStart, EndCount: a.Leds.InnerEnd,
			StartPadding: a.Padding.InnerStart, EndPadding: a.Padding.InnerEnd,
			StartUniverse: clamp8(a.Universes.InnerStart), EndUniverse: clamp8(a.Universes.InnerEnd),
		},
		Outer: layout.RingLayout{
			StartCount: a.Leds.OuterStart, EndCount: a.Leds.OuterEnd,
			StartPadding: a.Padding.OuterStart, EndPadding: a.Padding.OuterEnd,
			StartUniverse: clamp8(a.Universes.OuterStart), EndUniverse: clamp8(a.Universes.OuterEnd),
		},
		Net: a.Net,
	}
}

// Validate checks everything the daemon needs before it starts.
func (c *Config) Validate() error {
	switch c.LedDriver.Output {
	case OutputArtNet, OutputDebug, OutputSPI, OutputTerm:
	default:
		return fmt.Errorf("unknown output %q", c.LedDriver.Output)
	}
	if c.LedDriver.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.LedDriver.FPS)
	}
	if c.ControlPort < 0 || c.ControlPort > 65535 {
		return fmt.Errorf("control_port %d out of range", c.ControlPort)
	}
	if err := c.Tunables().Validate(); err != nil {
		return err
	}
	if _, err := c.Palette(); err != nil {
		return err
	}
	return c.Layout().Validate()
}
