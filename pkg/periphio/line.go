// Package periphio drives the bus lines through periph.io GPIO pins.
package periphio

import (
	"fmt"
	"time"

	"github.com/mbalug7/go-softi2c/pkg/hal"
	"github.com/mbalug7/go-softi2c/pkg/softi2c"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// pin is the part of gpio.PinIO the line needs, kept narrow so tests can fake it
type pin interface {
	Name() string
	In(pull gpio.Pull, edge gpio.Edge) error
	Out(l gpio.Level) error
	Read() gpio.Level
	WaitForEdge(timeout time.Duration) bool
}

// Line is an open-drain line on a periph.io pin: high switches the pin to a
// pulled-up input, low drives it as an output.
type Line struct {
	p    pin
	pull gpio.Pull
}

var _ hal.ClockWaiter = (*Line)(nil)

// NewLine wraps p using its internal pull-up for the released state
func NewLine(p gpio.PinIO) *Line {
	return &Line{p: p, pull: gpio.PullUp}
}

func (obj *Line) Set(high bool) error {
	var err error
	if high {
		err = obj.p.In(obj.pull, gpio.NoEdge)
	} else {
		err = obj.p.Out(gpio.Low)
	}
	if err != nil {
		return fmt.Errorf("failed to set %s high=%t: %w", obj.p.Name(), high, err)
	}
	return nil
}

func (obj *Line) Get() (bool, error) {
	return obj.p.Read() == gpio.High, nil
}

// WaitHigh arms rising edge detection and blocks on it until the pin reads high
func (obj *Line) WaitHigh(timeout time.Duration) (err error) {
	if obj.p.Read() == gpio.High {
		return nil
	}
	if err := obj.p.In(obj.pull, gpio.RisingEdge); err != nil {
		return fmt.Errorf("failed to arm edge detection on %s: %w", obj.p.Name(), err)
	}
	defer func() {
		disarmErr := obj.p.In(obj.pull, gpio.NoEdge)
		if disarmErr != nil && err == nil {
			err = fmt.Errorf("failed to disarm edge detection on %s: %w", obj.p.Name(), disarmErr)
		}
	}()

	deadline := time.Now().Add(timeout)
	for {
		if obj.p.Read() == gpio.High {
			return nil
		}
		wait := time.Duration(-1)
		if timeout >= 0 {
			wait = time.Until(deadline)
			if wait <= 0 {
				return fmt.Errorf("%s: %w", obj.p.Name(), hal.ErrLineTimeout)
			}
		}
		if !obj.p.WaitForEdge(wait) && obj.p.Read() != gpio.High {
			return fmt.Errorf("%s: %w", obj.p.Name(), hal.ErrLineTimeout)
		}
	}
}

// Open initializes the periph.io host drivers and looks up the two pins by name
func Open(sclName string, sdaName string) (softi2c.BusLines, error) {
	if _, err := host.Init(); err != nil {
		return softi2c.BusLines{}, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	scl := gpioreg.ByName(sclName)
	if scl == nil {
		return softi2c.BusLines{}, fmt.Errorf("failed to find SCL pin %q", sclName)
	}
	sda := gpioreg.ByName(sdaName)
	if sda == nil {
		return softi2c.BusLines{}, fmt.Errorf("failed to find SDA pin %q", sdaName)
	}
	return softi2c.BusLines{SCL: NewLine(scl), SDA: NewLine(sda)}, nil
}
