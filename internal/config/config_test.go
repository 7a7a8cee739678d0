package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iimcz/caas-a01/internal/layout"
	"github.com/iimcz/caas-a01/internal/ring"
	"github.com/iimcz/caas-a01/internal/stage"
)

func write(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ringd.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestDefaultsRoundTrip(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, stage.DefaultTunables(), c.Tunables())
	assert.Equal(t, layout.Default(), c.Layout())

	p, err := c.Palette()
	require.NoError(t, err)
	assert.Equal(t, stage.DefaultPalette(), p)

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(path, c))
	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestMissingKeysKeepDefaults(t *testing.T) {
	c, err := Load(write(t, `
led_driver:
  idle_speed: 120
  auto_advance: false
  artnet:
    controller_ip: 10.0.0.7
    leds:
      inner_start: 20
control_port: 4000
`))
	require.NoError(t, err)

	tun := c.Tunables()
	assert.Equal(t, 120.0, tun.IdleSpeed)
	assert.False(t, tun.AutoAdvance)
	assert.Equal(t, 180.0, tun.CollisionSpeed)
	assert.Equal(t, 4000, c.ControlPort)
	assert.Equal(t, "10.0.0.7", c.LedDriver.ArtNet.ControllerIP)

	l := c.Layout()
	assert.Equal(t, 20, l.Inner.StartCount)
	assert.Equal(t, 38, l.Inner.EndCount)
	assert.Equal(t, uint8(3), l.Inner.EndUniverse)
}

func TestColors(t *testing.T) {
	c, err := Load(write(t, `
led_driver:
  colors:
    primary: {r: 300, g: -4, b: 7, w: 1}
    fill: {hex: "#0080ff", w: 200}
`))
	require.NoError(t, err)
	p, err := c.Palette()
	require.NoError(t, err)
	assert.Equal(t, ring.Color{R: 255, G: 0, B: 7, W: 1}, p.Primary)
	assert.Equal(t, stage.DefaultPalette().Secondary, p.Secondary)
	assert.Equal(t, ring.Color{R: 0, G: 128, B: 255, W: 200}, p.Fill)

	c.LedDriver.Colors.Secondary.Hex = "teal"
	_, err = c.Palette()
	assert.Error(t, err)
	assert.Error(t, c.Validate())
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"output":        func(c *Config) { c.LedDriver.Output = "dmx" },
		"fps":           func(c *Config) { c.LedDriver.FPS = 0 },
		"port":          func(c *Config) { c.ControlPort = 70000 },
		"starting time": func(c *Config) { c.LedDriver.StartingTime = 0 },
		"layout":        func(c *Config) { c.LedDriver.ArtNet.Padding.OuterEnd = 50 },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mut(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(write(t, "led_driver: [1, 2"))
	assert.Error(t, err)
}
