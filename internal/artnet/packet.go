// Package artnet encodes ring pixels into ArtDmx packets and sends them over UDP.
package artnet

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/iimcz/caas-a01/internal/ring"
)

// ArtDmx packet layout.
// [ID:8][OpCode:2 LE][Version:2 BE][Seq:1][Physical:1][Universe:1][Net:1][LenHi:1][LenLo:1][Data:512]
const (
	ID              = "Art-Net"
	HeaderSize      = 18
	DataSize        = 512
	PacketSize      = HeaderSize + DataSize
	OpDmx           = 0x5000
	ProtocolVersion = 0x000e
	Port            = 6454

	// MaxPixels is the number of RGBW pixels one packet can carry.
	MaxPixels = DataSize / 4
)

const (
	offOpCode   = 8
	offVersion  = 10
	offSequence = 12
	offPhysical = 13
	offUniverse = 14
	offNet      = 15
	offLength   = 16
)

var (
	ErrSegmentRange = errors.New("artnet: segment outside of pixel buffer")
	ErrSegmentSize  = errors.New("artnet: segment longer than one universe")
	ErrShortPacket  = errors.New("artnet: short packet")
	ErrNotArtNet    = errors.New("artnet: bad packet id")
	ErrNotDmx       = errors.New("artnet: not an ArtDmx packet")
)

// Packet is one fixed-size ArtDmx datagram.
type Packet [PacketSize]byte

// Header is the decoded addressing part of a packet.
type Header struct {
	OpCode   uint16
	Version  uint16
	Sequence uint8
	Physical uint8
	Universe uint8
	Net      uint8
	Length   uint16
}

// Encode fills p with a DMX packet for universe/net carrying |count| pixels
// of pixels starting at start. With a negative count the run is copied in
// reverse: the pixel at start+|count|-1 goes first and start goes last.
// Unused channels are zero.
func Encode(p *Packet, pixels []ring.Color, start, count int, universe, net uint8) error {
	*p = Packet{}

	n, step, idx := count, 1, start
	if count < 0 {
		n, step, idx = -count, -1, start-count-1
	}
	if n > MaxPixels {
		return fmt.Errorf("%w: %d pixels", ErrSegmentSize, n)
	}
	if start < 0 || start+n > len(pixels) {
		return fmt.Errorf("%w: start %d count %d len %d", ErrSegmentRange, start, count, len(pixels))
	}

	copy(p[:], ID)
	binary.LittleEndian.PutUint16(p[offOpCode:], OpDmx)
	binary.BigEndian.PutUint16(p[offVersion:], ProtocolVersion)
	p[offSequence] = 0
	p[offPhysical] = 0
	p[offUniverse] = universe
	p[offNet] = net
	binary.BigEndian.PutUint16(p[offLength:], DataSize)

	data := p[HeaderSize:]
	for i := 0; i < n; i++ {
		c := pixels[idx]
		data[i*4+0] = c.R
		data[i*4+1] = c.G
		data[i*4+2] = c.B
		data[i*4+3] = c.W
		idx += step
	}
	return nil
}

// Decode parses an ArtDmx datagram. The returned data aliases b.
func Decode(b []byte) (Header, []byte, error) {
	var h Header
	if len(b) < HeaderSize {
		return h, nil, ErrShortPacket
	}
	if string(b[:len(ID)]) != ID || b[len(ID)] != 0 {
		return h, nil, ErrNotArtNet
	}
	h.OpCode = binary.LittleEndian.Uint16(b[offOpCode:])
	if h.OpCode != OpDmx {
		return h, nil, ErrNotDmx
	}
	h.Version = binary.BigEndian.Uint16(b[offVersion:])
	h.Sequence = b[offSequence]
	h.Physical = b[offPhysical]
	h.Universe = b[offUniverse]
	h.Net = b[offNet]
	h.Length = binary.BigEndian.Uint16(b[offLength:])
	if len(b) < HeaderSize+int(h.Length) {
		return h, nil, ErrShortPacket
	}
	return h, b[HeaderSize : HeaderSize+int(h.Length)], nil
}
