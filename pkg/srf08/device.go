// Package srf08 drives the Devantech SRF08 ultrasonic rangefinder.
package srf08

import (
	"errors"
	"fmt"
	"time"

	"github.com/mbalug7/go-softi2c/pkg/hal"
	"github.com/mbalug7/go-softi2c/pkg/softi2c"
)

// ErrNotReady is returned when ranging does not finish in time
var ErrNotReady = errors.New("ranging not finished")

const pollInterval = 5 * time.Millisecond

type Device struct {
	bus  hal.Bus
	addr uint8
}

func New(bus hal.Bus, addr uint8) *Device {
	return &Device{bus: bus, addr: addr}
}

func (obj *Device) Address() uint8 {
	return obj.addr
}

// StartRanging starts one ranging cycle with the result reported in unit
func (obj *Device) StartRanging(unit Unit) error {
	err := obj.bus.RegisterWrite(obj.addr, COMMAND, uint8(unit))
	if err != nil {
		return fmt.Errorf("failed to start ranging: %w", err)
	}
	return nil
}

// Revision reads the software revision. While ranging the device does not
// acknowledge its address.
func (obj *Device) Revision() (uint8, error) {
	v, err := obj.bus.RegisterRead(obj.addr, REVISION)
	if err != nil {
		return 0, fmt.Errorf("failed to read revision: %w", err)
	}
	return v, nil
}

// WaitReady polls the revision register until the device answers again.
// A negative timeout waits forever.
func (obj *Device) WaitReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		rev, err := obj.Revision()
		switch {
		case err == nil && rev != 0xFF:
			return nil
		case err != nil && !errors.Is(err, softi2c.ErrAckFailure):
			return err
		}
		if timeout >= 0 && time.Now().After(deadline) {
			return fmt.Errorf("%w after %s", ErrNotReady, timeout)
		}
		time.Sleep(pollInterval)
	}
}

// ReadRange reads the first echo of the last ranging cycle
func (obj *Device) ReadRange() (uint16, error) {
	var buf [2]byte
	err := obj.bus.Tx(uint16(obj.addr), []byte{RANGE.ToByte()}, buf[:])
	if err != nil {
		return 0, fmt.Errorf("failed to read range: %w", err)
	}
	return uint16(buf[0])<<8 | uint16(buf[1]), nil
}

// ReadLight reads the light sensor sample taken at the start of the last ranging cycle
func (obj *Device) ReadLight() (uint8, error) {
	v, err := obj.bus.RegisterRead(obj.addr, LIGHT)
	if err != nil {
		return 0, fmt.Errorf("failed to read light sensor: %w", err)
	}
	return v, nil
}

// Measure runs a complete ranging cycle and returns the first echo
func (obj *Device) Measure(unit Unit, timeout time.Duration) (uint16, error) {
	if err := obj.StartRanging(unit); err != nil {
		return 0, err
	}
	if err := obj.WaitReady(timeout); err != nil {
		return 0, err
	}
	return obj.ReadRange()
}

// SetGain limits the analogue gain, 0..MaxGain
func (obj *Device) SetGain(gain uint8) error {
	if gain > MaxGain {
		return fmt.Errorf("gain %d out of range 0..%d", gain, MaxGain)
	}
	err := obj.bus.RegisterWrite(obj.addr, GAIN, gain)
	if err != nil {
		return fmt.Errorf("failed to set gain: %w", err)
	}
	return nil
}

// SetMaxRange writes the range register, see RangeRegister
func (obj *Device) SetMaxRange(value uint8) error {
	err := obj.bus.RegisterWrite(obj.addr, RANGE, value)
	if err != nil {
		return fmt.Errorf("failed to set max range: %w", err)
	}
	return nil
}
