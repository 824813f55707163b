package softi2c

import (
	"log"
	"time"

	"github.com/mbalug7/go-softi2c/pkg/hal"
)

const (
	// DefaultFrequency is the standard-mode bus clock in Hz
	DefaultFrequency = 100000
	// DefaultStretchTimeout bounds how long a peripheral may hold the clock low
	DefaultStretchTimeout = 25 * time.Millisecond
)

// Config controls bus timing. All fields are optional.
type Config struct {
	// Frequency is the target SCL frequency in Hz. Zero selects DefaultFrequency.
	Frequency uint32
	// StretchTimeout bounds every clock-stretch wait. Zero selects
	// DefaultStretchTimeout, a negative value waits without bound.
	StretchTimeout time.Duration
	// Delay replaces the half-period busy wait derived from Frequency.
	Delay hal.Delay
	// Logger receives transaction failures. Nil disables logging.
	Logger *log.Logger
}

// NoDelay performs no timing at all between line transitions. The bus then
// runs as fast as the lines can be toggled, which only suits simulated lines.
func NoDelay() {}

// halfPeriod returns the time between two clock transitions for freq Hz
func halfPeriod(freq uint32) time.Duration {
	if freq == 0 {
		freq = DefaultFrequency
	}
	return time.Duration(500000000/freq) * time.Nanosecond
}

// spinDelay busy waits for d. time.Sleep granularity is far coarser than a
// bus half period.
func spinDelay(d time.Duration) hal.Delay {
	return func() {
		for start := time.Now(); time.Since(start) < d; {
		}
	}
}
