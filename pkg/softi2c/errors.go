package softi2c

import "errors"

// ErrAckFailure signals that the peripheral did not acknowledge an address or data byte.
var ErrAckFailure = errors.New("byte not acknowledged")

// ErrBusTimeout signals that the peripheral held the clock line low longer than the stretch timeout.
var ErrBusTimeout = errors.New("clock stretch timeout")

// ErrAddress signals a device address that does not fit in 7 bits.
var ErrAddress = errors.New("invalid 7-bit device address")
