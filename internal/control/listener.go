package control

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/rs/zerolog/log"

	diag "github.com/iimcz/caas-a01/internal/diagnostics"
)

const maxDatagram = 512

// Listener receives commands on a UDP socket and applies them to a Target.
type Listener struct {
	conn   *net.UDPConn
	target Target
	Diag   diag.Sink
}

// Listen binds addr, e.g. ":13798".
func Listen(addr string, t Target) (*Listener, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("control resolve %q: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("control listen %q: %w", addr, err)
	}
	return &Listener{conn: conn, target: t}, nil
}

// ListenPort binds the port on all interfaces.
func ListenPort(port int, t Target) (*Listener, error) {
	return Listen(":"+strconv.Itoa(port), t)
}

func (l *Listener) Addr() net.Addr { return l.conn.LocalAddr() }

// Serve handles datagrams until the socket is closed. Malformed commands are
// logged and dropped.
func (l *Listener) Serve() error {
	buf := make([]byte, maxDatagram)
	for {
		n, from, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("control read: %w", err)
		}
		l.handle(string(buf[:n]), from)
	}
}

func (l *Listener) handle(msg string, from *net.UDPAddr) {
	cmd, err := Parse(msg)
	if err != nil {
		log.Debug().Err(err).Stringer("from", from).Msg("ignoring control message")
		return
	}
	ok := Apply(l.target, cmd)
	d := diag.Diagnostic{
		Severity: diag.Info,
		Code:     diag.ControlApplied,
		Summary:  "Control command applied",
		Detail:   cmd.String(),
		Evidence: map[string]any{"from": from.String()},
	}
	if !ok {
		d = diag.ControlIgnored(cmd.String(), from.String())
	}
	log.Info().Stringer("from", from).Stringer("command", cmd).Bool("applied", ok).Msg("control message")
	l.Diag.Push(d)
}

func (l *Listener) Close() error { return l.conn.Close() }
