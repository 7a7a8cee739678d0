package led

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/iimcz/caas-a01/internal/ring"
)

// SPIFreq drives SK6812 RGBW strips with three SPI bits per NRZ bit.
const SPIFreq = 2500 * physic.KiloHertz

// SPI writes both rings as one RGBW NRZ stream: outer ring first, then inner.
type SPI struct {
	mu     sync.Mutex
	dev    *nrzled.Dev
	closer spi.PortCloser
	pixels int
	buf    []byte
}

// OpenSPI initializes the host drivers and opens the named SPI port ("" picks
// the first one available).
func OpenSPI(name string, pixels int) (*SPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", name, err)
	}
	s, err := NewSPI(p, pixels)
	if err != nil {
		p.Close()
		return nil, err
	}
	s.closer = p
	return s, nil
}

// NewSPI wraps an already opened port. The port is not closed by Close.
func NewSPI(p spi.Port, pixels int) (*SPI, error) {
	if pixels <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", pixels)
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{NumPixels: pixels, Channels: 4, Freq: SPIFreq})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &SPI{dev: d, pixels: pixels, buf: make([]byte, pixels*4)}, nil
}

func (s *SPI) String() string { return s.dev.String() }

func (s *SPI) Write(rs *ring.Rings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return fmt.Errorf("SPI closed")
	}
	if n := rs.Inner.Len() + rs.Outer.Len(); n != s.pixels {
		return fmt.Errorf("frame has %d pixels, strip has %d", n, s.pixels)
	}
	off := 0
	for _, r := range []*ring.Ring{rs.Outer, rs.Inner} {
		for _, p := range r.Pixels() {
			s.buf[off+0] = p.R
			s.buf[off+1] = p.G
			s.buf[off+2] = p.B
			s.buf[off+3] = p.W
			off += 4
		}
	}
	if _, err := s.dev.Write(s.buf); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	return nil
}

// Close blanks the strip and releases the port if OpenSPI opened it.
func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return nil
	}
	err := s.dev.Halt()
	s.dev = nil
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
