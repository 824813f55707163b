package softi2c

import (
	"errors"
	"fmt"

	"github.com/mbalug7/go-softi2c/pkg/hal"
)

const (
	dirWrite = 0
	dirRead  = 1
)

func addressByte(addr uint8, dir byte) byte {
	return addr<<1 | dir
}

func checkAddress(addr uint16) error {
	if addr > 0x7f {
		return fmt.Errorf("%w: %#x", ErrAddress, addr)
	}
	return nil
}

// transaction runs fn and always finishes with a stop condition, so a failed
// transfer still leaves the bus idle. Caller must hold b.mu.
func (b *Bus) transaction(op string, fn func() error) error {
	err := fn()
	stopErr := b.Stop()
	if err != nil {
		err = fmt.Errorf("%s: %w", op, err)
		b.logf("%s", err)
		if stopErr != nil {
			return errors.Join(err, stopErr)
		}
		return err
	}
	if stopErr != nil {
		return fmt.Errorf("%s: failed to send stop: %w", op, stopErr)
	}
	return nil
}

func (b *Bus) writeAddress(addr uint8, dir byte) error {
	if err := b.WriteByte(addressByte(addr, dir)); err != nil {
		return fmt.Errorf("device %#02x: %w", addr, err)
	}
	return nil
}

// RegisterWrite writes value into register reg of the device at addr:
// start, address+W, reg, value, stop.
func (b *Bus) RegisterWrite(addr uint8, reg hal.RegAddress, value uint8) error {
	if err := checkAddress(uint16(addr)); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.transaction("register write", func() error {
		if err := b.Start(); err != nil {
			return err
		}
		if err := b.writeAddress(addr, dirWrite); err != nil {
			return err
		}
		if err := b.WriteByte(reg.ToByte()); err != nil {
			return fmt.Errorf("register %#02x: %w", reg, err)
		}
		if err := b.WriteByte(value); err != nil {
			return fmt.Errorf("value %#02x: %w", value, err)
		}
		return nil
	})
}

// RegisterRead reads one byte from register reg of the device at addr:
// start, address+W, reg, repeated start, address+R, data (ACK), stop.
func (b *Bus) RegisterRead(addr uint8, reg hal.RegAddress) (uint8, error) {
	if err := checkAddress(uint16(addr)); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var value uint8
	err := b.transaction("register read", func() error {
		if err := b.Start(); err != nil {
			return err
		}
		if err := b.writeAddress(addr, dirWrite); err != nil {
			return err
		}
		if err := b.WriteByte(reg.ToByte()); err != nil {
			return fmt.Errorf("register %#02x: %w", reg, err)
		}
		if err := b.Start(); err != nil {
			return err
		}
		if err := b.writeAddress(addr, dirRead); err != nil {
			return err
		}
		v, err := b.ReadByte(true)
		if err != nil {
			return fmt.Errorf("register %#02x: %w", reg, err)
		}
		value = v
		return nil
	})
	return value, err
}

// ReadRegisters fills buf starting at register reg. The device is expected to
// auto-increment its register pointer. The last byte is NACKed.
func (b *Bus) ReadRegisters(addr uint8, reg hal.RegAddress, buf []byte) error {
	return b.Tx(uint16(addr), []byte{reg.ToByte()}, buf)
}

// Tx writes w to the device at addr and then, after a repeated start, reads
// len(r) bytes into r. Every read byte but the last is ACKed. With both w and
// r empty only the address is sent, which probes for the device.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if err := checkAddress(addr); err != nil {
		return err
	}
	a := uint8(addr)
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.transaction("tx", func() error {
		if err := b.Start(); err != nil {
			return err
		}
		if len(w) > 0 || len(r) == 0 {
			if err := b.writeAddress(a, dirWrite); err != nil {
				return err
			}
			for i, v := range w {
				if err := b.WriteByte(v); err != nil {
					return fmt.Errorf("write byte %d: %w", i, err)
				}
			}
			if len(r) == 0 {
				return nil
			}
			if err := b.Start(); err != nil {
				return err
			}
		}
		if err := b.writeAddress(a, dirRead); err != nil {
			return err
		}
		for i := range r {
			v, err := b.ReadByte(i < len(r)-1)
			if err != nil {
				return fmt.Errorf("read byte %d: %w", i, err)
			}
			r[i] = v
		}
		return nil
	})
}
