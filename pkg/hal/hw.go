package hal

import (
	"errors"
	"time"
)

// ErrLineTimeout is returned by ClockWaiter implementations when the line stays low too long
var ErrLineTimeout = errors.New("line did not go high in time")

// Line is one open-drain bus signal. Set drives it low or releases it high,
// Get senses the level actually present on the wire, which can differ from
// the driven level when another device holds the line low.
type Line interface {
	Set(high bool) error
	Get() (bool, error)
}

// ClockWaiter is implemented by lines that can block until the wire goes high
// instead of being polled. A negative timeout waits without bound.
type ClockWaiter interface {
	WaitHigh(timeout time.Duration) error
}

// Delay is the bit timing primitive called between line transitions
type Delay func()
