// Package led holds the frame sinks a render engine can write to: debug text,
// an SPI strip, a terminal preview and a fan-out of several of them.
package led

import (
	"errors"

	"github.com/iimcz/caas-a01/internal/ring"
)

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes one frame. Implementations must not retain rs.
	Write(rs *ring.Rings) error
	// Close releases resources.
	Close() error
}

// Fanout writes every frame to all of its drivers.
type Fanout []Driver

func (f Fanout) Write(rs *ring.Rings) error {
	var errs []error
	for _, d := range f {
		if err := d.Write(rs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, d := range f {
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
