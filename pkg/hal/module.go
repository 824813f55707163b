package hal

import "tinygo.org/x/drivers"

// Bus interface defines the set of methods peripheral drivers need to talk to a device
type Bus interface {
	drivers.I2C
	RegisterWrite(addr uint8, reg RegAddress, value uint8) error
	RegisterRead(addr uint8, reg RegAddress) (uint8, error)
}
