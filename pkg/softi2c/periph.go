package softi2c

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
)

// SetSpeed changes the SCL frequency. With a custom Delay only the reported
// frequency changes.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	hz := f / physic.Hertz
	if hz <= 0 || hz > 5*physic.MegaHertz/physic.Hertz {
		return fmt.Errorf("unsupported bus speed %s", f)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setFrequency(uint32(hz))
	return nil
}

// Register makes the bus available to periph.io consumers through
// i2creg.Open(name).
func (b *Bus) Register(name string) error {
	err := i2creg.Register(name, nil, -1, func() (i2c.BusCloser, error) {
		return b, nil
	})
	if err != nil {
		return fmt.Errorf("failed to register bus %q: %w", name, err)
	}
	return nil
}
