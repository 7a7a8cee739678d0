package led

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/iimcz/caas-a01/internal/ring"
)

// Debug prints each ring as space separated 0xRRGGBBWW words, inner ring
// first, one line per ring. The underlying writer is never closed.
type Debug struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func NewDebug(w io.Writer) *Debug {
	return &Debug{w: bufio.NewWriter(w)}
}

func (d *Debug) Write(rs *ring.Rings) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	rs.Each(func(_ ring.Selector, r *ring.Ring) {
		for _, p := range r.Pixels() {
			fmt.Fprintf(d.w, "%08x ", p.RGBW())
		}
		d.w.WriteByte('\n')
	})
	return d.w.Flush()
}

func (d *Debug) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.w.Flush()
}
