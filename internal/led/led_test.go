package led

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/iimcz/caas-a01/internal/ring"
)

func TestDebugHexLines(t *testing.T) {
	var buf bytes.Buffer
	d := NewDebug(&buf)

	rs := ring.NewRings(2, 3)
	rs.Inner.Set(1, ring.Color{R: 0xfa, G: 0x32, B: 0x32, W: 0xff})
	rs.Outer.Set(0, ring.Color{W: 1})
	require.NoError(t, d.Write(rs))
	require.NoError(t, d.Close())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "00000000 fa3232ff ", lines[0])
	assert.Equal(t, "00000001 00000000 00000000 ", lines[1])
}

func TestSPIWritesBothRings(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewSPI(spitest.NewRecordRaw(&buf), 5)
	require.NoError(t, err)
	assert.Equal(t, "nrzled{recordraw}", s.String())

	rs := ring.NewRings(2, 3)
	require.NoError(t, s.Write(rs))
	dark := append([]byte(nil), buf.Bytes()...)
	require.NotEmpty(t, dark)

	buf.Reset()
	rs.Inner.Set(0, ring.Color{R: 255, W: 255})
	require.NoError(t, s.Write(rs))
	assert.Len(t, buf.Bytes(), len(dark))
	assert.NotEqual(t, dark, buf.Bytes())

	assert.Error(t, s.Write(ring.NewRings(2, 2)), "pixel count mismatch")

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.Error(t, s.Write(rs))
}

func TestNewSPIRejectsEmptyStrip(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewSPI(spitest.NewRecordRaw(&buf), 0)
	assert.Error(t, err)
}

type recorder struct {
	frames int
	err    error
	closed bool
}

func (r *recorder) Write(*ring.Rings) error { r.frames++; return r.err }
func (r *recorder) Close() error            { r.closed = true; return r.err }

func TestFanout(t *testing.T) {
	a, b := &recorder{}, &recorder{err: errors.New("boom")}
	f := Fanout{a, b}

	err := f.Write(ring.NewRings(1, 1))
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, a.frames)
	assert.Equal(t, 1, b.frames)

	assert.Error(t, f.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)

	assert.NoError(t, Fanout{}.Write(ring.NewRings(1, 1)))
}

func TestTermDrawsRingsAndQuits(t *testing.T) {
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(80, 24)

	quit := make(chan struct{}, 1)
	term := NewTermScreen(s, func() { quit <- struct{}{} })

	rs := ring.NewRings(10, 20)
	rs.Outer.Set(0, ring.Color{R: 255})
	require.NoError(t, term.Write(rs))

	// outer radius is min(80/4, 24/2)-1 = 11, pixel 0 is straight up
	r, _, _, _ := s.GetContent(40, 12-11)
	assert.Equal(t, litCell, r)
	r, _, _, _ = s.GetContent(40+22, 12)
	assert.Equal(t, darkCell, r, "outer pixel 5 at three o'clock")

	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case <-quit:
	case <-time.After(2 * time.Second):
		t.Fatal("quit callback not called")
	}

	require.NoError(t, term.Close())
	assert.Error(t, term.Write(rs))
}

func TestPreviewColor(t *testing.T) {
	assert.Equal(t, tcell.NewRGBColor(255, 0, 0), previewColor(ring.Color{R: 255}))
	assert.Equal(t, tcell.NewRGBColor(0, 0, 0), previewColor(ring.Color{}))
}
