package srf08

import "github.com/mbalug7/go-softi2c/pkg/hal"

// Address is the factory default bus address
const Address uint8 = 0x70

// Writing a register and reading it back address different functions.
const (
	// write: command, read: software revision
	COMMAND hal.RegAddress = 0x00
	// write: max gain, read: light sensor
	GAIN hal.RegAddress = 0x01
	// write: range, read: first echo high byte
	RANGE hal.RegAddress = 0x02
	// read: first echo low byte
	RANGE_LOW hal.RegAddress = 0x03
)

const (
	REVISION = COMMAND
	LIGHT    = GAIN
)

type Unit uint8

const (
	UNIT_INCHES       Unit = 0x50
	UNIT_CENTIMETERS  Unit = 0x51
	UNIT_MICROSECONDS Unit = 0x52
)

func (obj Unit) String() string {
	switch obj {
	case UNIT_INCHES:
		return "in"
	case UNIT_CENTIMETERS:
		return "cm"
	case UNIT_MICROSECONDS:
		return "us"
	}
	return "unknown"
}

// MaxGain is the highest analogue gain setting, the power on default
const MaxGain uint8 = 31

// DefaultMaxRange is the power on range register value, about 11 m
const DefaultMaxRange uint8 = 0xFF

// RangeRegister converts a maximum range in millimetres to the range
// register value, range = (value * 43 mm) + 43 mm.
func RangeRegister(mm uint32) uint8 {
	if mm <= 43 {
		return 0
	}
	v := (mm - 43) / 43
	if v > 0xFF {
		return 0xFF
	}
	return uint8(v)
}
