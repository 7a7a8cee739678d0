package led

import (
	"fmt"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/iimcz/caas-a01/internal/ring"
)

const (
	litCell  = '●'
	darkCell = '·'

	// innerScale is the inner ring radius relative to the outer one.
	innerScale = 0.6
)

var white = colorful.Color{R: 1, G: 1, B: 1}

// Term draws both rings as concentric circles in a terminal. Pixel 0 sits at
// the top and indices grow clockwise. q, Esc or Ctrl-C call quit.
type Term struct {
	mu     sync.Mutex
	screen tcell.Screen
	quit   func()
	done   chan struct{}
}

// NewTerm takes over the controlling terminal.
func NewTerm(quit func()) (*Term, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("terminal screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("terminal init: %w", err)
	}
	return NewTermScreen(s, quit), nil
}

// NewTermScreen uses an initialized screen.
func NewTermScreen(s tcell.Screen, quit func()) *Term {
	s.HideCursor()
	s.Clear()
	t := &Term{screen: s, quit: quit, done: make(chan struct{})}
	go t.poll(s)
	return t
}

func (t *Term) poll(s tcell.Screen) {
	defer close(t.done)
	for {
		ev := s.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				if t.quit != nil {
					t.quit()
				}
			}
		case *tcell.EventResize:
			s.Sync()
		}
	}
}

func (t *Term) Write(rs *ring.Rings) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.screen == nil {
		return fmt.Errorf("terminal closed")
	}

	s := t.screen
	s.Clear()
	w, h := s.Size()
	cx, cy := w/2, h/2
	// cells are roughly twice as tall as wide
	radius := float64(min(w/4, h/2) - 1)
	if radius < 1 {
		s.Show()
		return nil
	}
	t.drawRing(rs.Outer, cx, cy, radius)
	t.drawRing(rs.Inner, cx, cy, radius*innerScale)
	s.Show()
	return nil
}

func (t *Term) drawRing(r *ring.Ring, cx, cy int, radius float64) {
	n := r.Len()
	for i, p := range r.Pixels() {
		a := 2 * math.Pi * float64(i) / float64(n)
		x := cx + int(math.Round(2*radius*math.Sin(a)))
		y := cy - int(math.Round(radius*math.Cos(a)))
		if p == ring.Black {
			t.screen.SetContent(x, y, darkCell, nil, tcell.StyleDefault)
			continue
		}
		t.screen.SetContent(x, y, litCell, nil, tcell.StyleDefault.Foreground(previewColor(p)))
	}
}

// previewColor folds the white channel into RGB for display.
func previewColor(p ring.Color) tcell.Color {
	c := colorful.Color{R: float64(p.R) / 255, G: float64(p.G) / 255, B: float64(p.B) / 255}
	c = c.BlendRgb(white, float64(p.W)/255*0.5).Clamped()
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// Close restores the terminal.
func (t *Term) Close() error {
	t.mu.Lock()
	if t.screen == nil {
		t.mu.Unlock()
		return nil
	}
	t.screen.Fini()
	t.screen = nil
	t.mu.Unlock()
	<-t.done
	return nil
}
