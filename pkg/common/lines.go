//go:build linux

// Package common drives the bus lines through the Linux GPIO character device.
package common

import (
	"fmt"
	"sync"
	"time"

	"github.com/mbalug7/go-softi2c/pkg/hal"
	"github.com/mbalug7/go-softi2c/pkg/softi2c"
	"github.com/warthog618/gpiod"
)

type options struct {
	consumer   string
	clockSense int
	pullUp     bool
}

type Option func(*options)

// WithConsumer sets the consumer label shown by gpioinfo
func WithConsumer(name string) Option {
	return func(o *options) {
		o.consumer = name
	}
}

// WithClockSense uses an extra input pin wired to SCL to detect the release
// of a stretched clock by rising edge events instead of polling.
func WithClockSense(pin int) Option {
	return func(o *options) {
		o.clockSense = pin
	}
}

// WithPullUp enables the internal pull-up bias on both lines. Needs Linux 5.5+.
func WithPullUp() Option {
	return func(o *options) {
		o.pullUp = true
	}
}

// Lines holds the requested SCL and SDA lines of one bus
type Lines struct {
	SCL *Line
	SDA *Line
}

// Line emulates an open-drain output the way a TRIS register does: high
// releases the pin as an input and lets the pull-up raise it, low switches it
// to an output driving 0.
type Line struct {
	name      string
	line      *gpiod.Line
	sense     *gpiod.Line // optional input view with rising edge events
	releaseAs []gpiod.LineConfigOption
	released  bool
	mu        sync.Mutex
	waiters   *edgeWaiters
}

// NewLines requests SCL and SDA on gpioChip and leaves both released
func NewLines(gpioChip string, sclPin int, sdaPin int, opts ...Option) (*Lines, error) {
	o := options{consumer: "softi2c", clockSense: -1}
	for _, opt := range opts {
		opt(&o)
	}

	c, err := gpiod.NewChip(gpioChip, gpiod.WithConsumer(o.consumer))
	if err != nil {
		return nil, fmt.Errorf("failed to create GPIO chip: %w", err)
	}
	// requested lines stay valid after the chip is closed
	defer c.Close()

	reqOpts := []gpiod.LineReqOption{gpiod.AsInput}
	releaseAs := []gpiod.LineConfigOption{gpiod.AsInput}
	if o.pullUp {
		reqOpts = append(reqOpts, gpiod.WithPullUp)
		releaseAs = append(releaseAs, gpiod.WithPullUp)
	}

	lines := &Lines{
		SCL: &Line{name: "SCL", releaseAs: releaseAs, released: true, waiters: newEdgeWaiters()},
		SDA: &Line{name: "SDA", releaseAs: releaseAs, released: true, waiters: newEdgeWaiters()},
	}
	lines.SCL.line, err = c.RequestLine(sclPin, reqOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to request SCL GPIO line: %w", err)
	}
	lines.SDA.line, err = c.RequestLine(sdaPin, reqOpts...)
	if err != nil {
		lines.SCL.line.Close()
		return nil, fmt.Errorf("failed to request SDA GPIO line: %w", err)
	}
	if o.clockSense >= 0 {
		lines.SCL.sense, err = c.RequestLine(o.clockSense,
			gpiod.AsInput,
			gpiod.WithRisingEdge,
			gpiod.WithEventHandler(lines.SCL.onRisingEdge))
		if err != nil {
			lines.Close()
			return nil, fmt.Errorf("failed to request SCL sense GPIO line: %w", err)
		}
	}
	return lines, nil
}

// BusLines returns the lines in the form the bus master takes
func (obj *Lines) BusLines() softi2c.BusLines {
	return softi2c.BusLines{SCL: obj.SCL, SDA: obj.SDA}
}

func (obj *Lines) Close() error {
	return obj.BusLines().Close()
}

func (obj *Line) Set(high bool) error {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	if obj.released == high {
		return nil
	}
	var err error
	if high {
		err = obj.line.Reconfigure(obj.releaseAs...)
	} else {
		err = obj.line.Reconfigure(gpiod.AsOutput(0))
	}
	if err != nil {
		return fmt.Errorf("failed to set %s line high=%t: %w", obj.name, high, err)
	}
	obj.released = high
	return nil
}

func (obj *Line) Get() (bool, error) {
	l := obj.sense
	if l == nil {
		l = obj.line
	}
	val, err := l.Value()
	if err != nil {
		return false, fmt.Errorf("failed to get %s line value: %w", obj.name, err)
	}
	return val == 1, nil
}

// WaitHigh blocks until the line reads high. Without a sense line the value is polled.
func (obj *Line) WaitHigh(timeout time.Duration) error {
	high, err := obj.Get()
	if err != nil || high {
		return err
	}
	if obj.sense == nil {
		return obj.pollHigh(timeout)
	}

	id, ch, err := obj.waiters.register()
	if err != nil {
		return err
	}
	// the edge may have fired before the waiter was registered
	if high, err := obj.Get(); err != nil || high {
		obj.waiters.unregister(id)
		return err
	}

	var expired <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	select {
	case <-expired:
		obj.waiters.unregister(id)
		return fmt.Errorf("%s: %w", obj.name, hal.ErrLineTimeout)
	case err := <-ch:
		return err
	}
}

func (obj *Line) pollHigh(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		high, err := obj.Get()
		if err != nil || high {
			return err
		}
		if timeout >= 0 && time.Now().After(deadline) {
			return fmt.Errorf("%s: %w", obj.name, hal.ErrLineTimeout)
		}
	}
}

func (obj *Line) onRisingEdge(evt gpiod.LineEvent) {
	obj.waiters.notify(nil)
}

func (obj *Line) Close() (err error) {
	if obj.sense != nil {
		err = obj.sense.Close()
		if err != nil {
			return fmt.Errorf("failed to close %s sense line: %w", obj.name, err)
		}
	}
	if obj.line == nil {
		return nil
	}
	err = obj.line.Close()
	if err != nil {
		return fmt.Errorf("failed to close %s line: %w", obj.name, err)
	}
	return nil
}
