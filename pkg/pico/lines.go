//go:build pico

// Package pico drives the bus lines on a Raspberry Pi Pico through TinyGo's machine package.
package pico

import (
	"machine"

	"github.com/mbalug7/go-softi2c/pkg/softi2c"
)

// Line is an open-drain line on a machine.Pin: high switches the pin to a
// pulled-up input, low drives it as an output.
type Line struct {
	pin machine.Pin
}

func NewLine(pin machine.Pin) *Line {
	l := &Line{pin: pin}
	l.Set(true)
	return l
}

func (obj *Line) Set(high bool) error {
	if high {
		obj.pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		return nil
	}
	obj.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	obj.pin.Low()
	return nil
}

func (obj *Line) Get() (bool, error) {
	return obj.pin.Get(), nil
}

// NewBusLines builds bus lines on the given SCL and SDA pins
func NewBusLines(scl machine.Pin, sda machine.Pin) softi2c.BusLines {
	return softi2c.BusLines{SCL: NewLine(scl), SDA: NewLine(sda)}
}
