// Package softi2c implements a bit-banged two-wire bus master on top of two
// open-drain GPIO lines.
//
// The raw bus primitives (Start, Stop, ReadByte, WriteByte) are not
// synchronized and must be driven from a single goroutine. The transaction
// methods (RegisterWrite, RegisterRead, ReadRegisters, Tx) hold the bus for
// their whole duration and can be shared between goroutines. None of them may
// be called from an interrupt handler.
package softi2c

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/mbalug7/go-softi2c/pkg/hal"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// BusLines holds the clock and data lines of one bus
type BusLines struct {
	SCL hal.Line
	SDA hal.Line
}

// Close releases every line that owns an underlying resource
func (obj BusLines) Close() error {
	for _, l := range []hal.Line{obj.SCL, obj.SDA} {
		c, ok := l.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close bus line: %w", err)
		}
	}
	return nil
}

type Bus struct {
	lines          BusLines
	frequency      uint32
	delay          hal.Delay
	customDelay    bool
	stretchTimeout time.Duration
	logger         *log.Logger
	mu             sync.Mutex // held for the duration of a transaction
}

var (
	_ drivers.I2C   = (*Bus)(nil)
	_ i2c.BusCloser = (*Bus)(nil)
	_ hal.Bus       = (*Bus)(nil)
)

// New creates a bus master on lines and releases both lines so the bus starts idle
func New(lines BusLines, cfg Config) (*Bus, error) {
	if lines.SCL == nil || lines.SDA == nil {
		return nil, errors.New("both SCL and SDA lines are required")
	}
	b := &Bus{
		lines:          lines,
		logger:         cfg.Logger,
		stretchTimeout: cfg.StretchTimeout,
	}
	if b.stretchTimeout == 0 {
		b.stretchTimeout = DefaultStretchTimeout
	}
	if cfg.Delay != nil {
		b.delay = cfg.Delay
		b.customDelay = true
	}
	b.setFrequency(cfg.Frequency)

	if err := b.sda(true); err != nil {
		return nil, fmt.Errorf("failed to release bus: %w", err)
	}
	if err := b.scl(true); err != nil {
		return nil, fmt.Errorf("failed to release bus: %w", err)
	}
	b.delay()
	return b, nil
}

func (b *Bus) setFrequency(freq uint32) {
	if freq == 0 {
		freq = DefaultFrequency
	}
	b.frequency = freq
	if !b.customDelay {
		b.delay = spinDelay(halfPeriod(freq))
	}
}

// Frequency returns the configured SCL frequency in Hz
func (b *Bus) Frequency() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frequency
}

func (b *Bus) String() string {
	return fmt.Sprintf("softi2c(%s)", physic.Frequency(b.Frequency())*physic.Hertz)
}

// Close releases the bus lines
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lines.Close()
}

func (b *Bus) logf(format string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Printf(format, args...)
	}
}
