package hal

type RegAddress uint8

func (r RegAddress) ToByte() byte {
	return byte(r)
}

// Register is a device register model: an address and the byte value staged for it
type Register interface {
	GetAddress() RegAddress
	GetValue() uint8
	SetValue(value uint8)
}
