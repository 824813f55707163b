package softi2c

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/mbalug7/go-softi2c/pkg/hal"
)

func (b *Bus) scl(high bool) error {
	if err := b.lines.SCL.Set(high); err != nil {
		return fmt.Errorf("failed to drive SCL line: %w", err)
	}
	return nil
}

func (b *Bus) sda(high bool) error {
	if err := b.lines.SDA.Set(high); err != nil {
		return fmt.Errorf("failed to drive SDA line: %w", err)
	}
	return nil
}

func (b *Bus) sense() (bool, error) {
	v, err := b.lines.SDA.Get()
	if err != nil {
		return false, fmt.Errorf("failed to sense SDA line: %w", err)
	}
	return v, nil
}

// Start emits a start condition: SDA falls while SCL is high. Called with SCL
// low after a byte it produces a repeated start. SCL is left low.
func (b *Bus) Start() error {
	if err := b.sda(true); err != nil {
		return err
	}
	b.delay()
	if err := b.scl(true); err != nil {
		return err
	}
	if err := b.waitClockHigh(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	b.delay()
	if err := b.sda(false); err != nil {
		return err
	}
	b.delay()
	if err := b.scl(false); err != nil {
		return err
	}
	b.delay()
	return nil
}

// Stop emits a stop condition: SDA rises while SCL is high. Both lines are
// left released, so the bus is idle once the peripheral lets go of SCL. If
// SCL stays low past the stretch timeout SDA is still released but no stop
// condition reached the wire.
func (b *Bus) Stop() error {
	if err := b.sda(false); err != nil {
		return err
	}
	b.delay()
	if err := b.scl(true); err != nil {
		return err
	}
	if err := b.waitClockHigh(); err != nil {
		return errors.Join(fmt.Errorf("stop: %w", err), b.sda(true))
	}
	b.delay()
	if err := b.sda(true); err != nil {
		return err
	}
	b.delay()
	return nil
}

// ReadByte clocks in 8 bits MSB first and then drives an ACK (ack true) or
// NACK bit. The peripheral may stretch any clock pulse, the data line is only
// sampled once SCL actually reads high.
func (b *Bus) ReadByte(ack bool) (byte, error) {
	var d byte
	if err := b.sda(true); err != nil {
		return 0, err
	}
	for i := 0; i < 8; i++ {
		d <<= 1
		if err := b.scl(true); err != nil {
			return 0, err
		}
		if err := b.waitClockHigh(); err != nil {
			return 0, fmt.Errorf("bit %d: %w", 7-i, err)
		}
		b.delay()
		bit, err := b.sense()
		if err != nil {
			return 0, err
		}
		if bit {
			d |= 1
		}
		if err := b.scl(false); err != nil {
			return 0, err
		}
		b.delay()
	}

	if err := b.sda(!ack); err != nil {
		return 0, err
	}
	b.delay()
	if err := b.scl(true); err != nil {
		return 0, err
	}
	if err := b.waitClockHigh(); err != nil {
		return 0, fmt.Errorf("ack bit: %w", err)
	}
	b.delay()
	if err := b.scl(false); err != nil {
		return 0, err
	}
	if err := b.sda(true); err != nil {
		return 0, err
	}
	b.delay()
	return d, nil
}

// WriteByte shifts b out MSB first and samples the acknowledge bit returned by
// the peripheral. A high acknowledge bit is reported as ErrAckFailure.
func (b *Bus) WriteByte(d byte) error {
	for i := 0; i < 8; i++ {
		if err := b.sda(d&0x80 != 0); err != nil {
			return err
		}
		b.delay()
		if err := b.scl(true); err != nil {
			return err
		}
		if err := b.waitClockHigh(); err != nil {
			return fmt.Errorf("bit %d: %w", 7-i, err)
		}
		b.delay()
		d <<= 1
		if err := b.scl(false); err != nil {
			return err
		}
		b.delay()
	}

	if err := b.sda(true); err != nil {
		return err
	}
	b.delay()
	if err := b.scl(true); err != nil {
		return err
	}
	if err := b.waitClockHigh(); err != nil {
		return fmt.Errorf("ack bit: %w", err)
	}
	b.delay()
	nack, err := b.sense()
	if err != nil {
		return err
	}
	if err := b.scl(false); err != nil {
		return err
	}
	b.delay()
	if nack {
		return ErrAckFailure
	}
	return nil
}

// waitClockHigh blocks while a peripheral stretches the clock
func (b *Bus) waitClockHigh() error {
	if w, ok := b.lines.SCL.(hal.ClockWaiter); ok {
		err := w.WaitHigh(b.stretchTimeout)
		if errors.Is(err, hal.ErrLineTimeout) {
			return fmt.Errorf("%w: SCL held low for more than %s", ErrBusTimeout, b.stretchTimeout)
		}
		if err != nil {
			return fmt.Errorf("failed to wait for SCL line: %w", err)
		}
		return nil
	}

	var deadline time.Time
	if b.stretchTimeout > 0 {
		deadline = time.Now().Add(b.stretchTimeout)
	}
	for {
		high, err := b.lines.SCL.Get()
		if err != nil {
			return fmt.Errorf("failed to sense SCL line: %w", err)
		}
		if high {
			return nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("%w: SCL held low for more than %s", ErrBusTimeout, b.stretchTimeout)
		}
		runtime.Gosched()
	}
}
