package artnet

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/iimcz/caas-a01/internal/layout"
	"github.com/iimcz/caas-a01/internal/ring"
)

// Driver sends every layout segment of a frame as one ArtDmx datagram.
type Driver struct {
	mu       sync.Mutex
	conn     *net.UDPConn
	segments []layout.Segment
	pkt      Packet

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// Dial opens a UDP socket to host on the Art-Net port.
func Dial(host string, l layout.Layout) (*Driver, error) {
	return DialAddr(net.JoinHostPort(host, strconv.Itoa(Port)), l)
}

// DialAddr is Dial with an explicit host:port.
func DialAddr(addr string, l layout.Layout) (*Driver, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("artnet resolve %q: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("artnet dial %q: %w", addr, err)
	}
	return &Driver{conn: conn, segments: l.Segments()}, nil
}

// Write encodes and sends each segment. A segment that fails to encode or
// send is logged and counted; the rest of the frame still goes out.
func (d *Driver) Write(rs *ring.Rings) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return fmt.Errorf("artnet driver closed")
	}
	for _, s := range d.segments {
		if err := Encode(&d.pkt, rs.Get(s.Ring).Pixels(), s.Start, s.Count, s.Universe, s.Net); err != nil {
			d.dropped.Add(1)
			log.Warn().Err(err).Stringer("ring", s.Ring).Uint8("universe", s.Universe).Msg("artnet encode failed")
			continue
		}
		if _, err := d.conn.Write(d.pkt[:]); err != nil {
			d.dropped.Add(1)
			log.Warn().Err(err).Stringer("ring", s.Ring).Uint8("universe", s.Universe).Msg("artnet send failed")
			continue
		}
		d.sent.Add(1)
	}
	return nil
}

// Sent is the number of datagrams written since Dial.
func (d *Driver) Sent() uint64 { return d.sent.Load() }

// Dropped is the number of segments that failed to go out.
func (d *Driver) Dropped() uint64 { return d.dropped.Load() }

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}
