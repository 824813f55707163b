// Package mpu6050 reads raw motion data from an InvenSense MPU6050 IMU over
// a register-addressed bus.
package mpu6050

import (
	"encoding/binary"
	"fmt"

	"github.com/mbalug7/go-softi2c/pkg/hal"
)

const (
	// Address with AD0 tied low
	Address uint8 = 0x68
	// AddressAlt with AD0 tied high
	AddressAlt uint8 = 0x69

	whoAmIValue = 0x68
)

type Vector struct {
	X, Y, Z int16
}

// Motion is one burst sample of every sensor output, in raw LSB
type Motion struct {
	Accel       Vector
	Temperature int16
	Gyro        Vector
}

type registerWrite struct {
	reg   hal.RegAddress
	value uint8
}

// setupSequence puts the device in a known state: 1 kHz sample rate, 260 Hz
// DLPF, ±500 °/s, ±2 g, motion detection, FIFO, aux I2C master and
// interrupts off, clock from the Y gyro PLL.
var setupSequence = []registerWrite{
	{SMPLRT_DIV, 0x07},
	{CONFIG, 0x00},
	{GYRO_CONFIG, uint8(GYRO_RANGE_500)},
	{ACCEL_CONFIG, uint8(ACCEL_RANGE_2G)},
	{FF_THR, 0x00},
	{FF_DUR, 0x00},
	{MOT_THR, 0x00},
	{MOT_DUR, 0x00},
	{ZRMOT_THR, 0x00},
	{ZRMOT_DUR, 0x00},
	{FIFO_EN, 0x00},
	{I2C_MST_CTRL, 0x00},
	{I2C_SLV0_ADDR, 0x00},
	{I2C_SLV0_REG, 0x00},
	{I2C_SLV0_CTRL, 0x00},
	{I2C_SLV1_ADDR, 0x00},
	{I2C_SLV1_REG, 0x00},
	{I2C_SLV1_CTRL, 0x00},
	{I2C_SLV2_ADDR, 0x00},
	{I2C_SLV2_REG, 0x00},
	{I2C_SLV2_CTRL, 0x00},
	{I2C_SLV3_ADDR, 0x00},
	{I2C_SLV3_REG, 0x00},
	{I2C_SLV3_CTRL, 0x00},
	{I2C_SLV4_ADDR, 0x00},
	{I2C_SLV4_REG, 0x00},
	{I2C_SLV4_DO, 0x00},
	{I2C_SLV4_CTRL, 0x00},
	{I2C_SLV4_DI, 0x00},
	{INT_PIN_CFG, 0x00},
	{INT_ENABLE, 0x00},
	{I2C_SLV0_DO, 0x00},
	{I2C_SLV1_DO, 0x00},
	{I2C_SLV2_DO, 0x00},
	{I2C_SLV3_DO, 0x00},
	{I2C_MST_DELAY_CTRL, 0x00},
	{SIGNAL_PATH_RESET, 0x00},
	{MOT_DETECT_CTRL, 0x00},
	{USER_CTRL, 0x00},
	{PWR_MGMT_1, uint8(CLOCK_PLL_YGYRO)},
	{PWR_MGMT_2, 0x00},
	{FIFO_R_W, 0x00},
}

type Device struct {
	bus        hal.Bus
	addr       uint8
	registers  registersCollection
	gyroOffset Vector
}

func New(bus hal.Bus, addr uint8) *Device {
	return &Device{
		bus:       bus,
		addr:      addr,
		registers: newRegistersCollection(),
	}
}

func (obj *Device) Address() uint8 {
	return obj.addr
}

// Configure runs the full setup sequence and stops at the first failed write
func (obj *Device) Configure() error {
	for _, w := range setupSequence {
		err := obj.bus.RegisterWrite(obj.addr, w.reg, w.value)
		if err != nil {
			return fmt.Errorf("failed to write register %#02x: %w", w.reg, err)
		}
		obj.registers.Update(w.reg, w.value)
	}
	return nil
}

// writeConfig writes the staged registers that differ from the device model
func (obj *Device) writeConfig(staged registersCollection) error {
	for i, reg := range staged {
		if reg.GetValue() == obj.registers[i].GetValue() {
			continue
		}
		err := obj.bus.RegisterWrite(obj.addr, reg.GetAddress(), reg.GetValue())
		if err != nil {
			return fmt.Errorf("failed to write register %#02x: %w", reg.GetAddress(), err)
		}
		obj.registers[i].SetValue(reg.GetValue())
	}
	return nil
}

func (obj *Device) WhoAmI() (uint8, error) {
	v, err := obj.bus.RegisterRead(obj.addr, WHO_AM_I)
	if err != nil {
		return 0, fmt.Errorf("failed to read WHO_AM_I: %w", err)
	}
	return v, nil
}

// Connected reports whether the device answers with the expected identity
func (obj *Device) Connected() bool {
	v, err := obj.WhoAmI()
	return err == nil && v&0x7E == whoAmIValue
}

func (obj *Device) readWord(high hal.RegAddress) (int16, error) {
	h, err := obj.bus.RegisterRead(obj.addr, high)
	if err != nil {
		return 0, fmt.Errorf("failed to read register %#02x: %w", high, err)
	}
	l, err := obj.bus.RegisterRead(obj.addr, high+1)
	if err != nil {
		return 0, fmt.Errorf("failed to read register %#02x: %w", high+1, err)
	}
	return int16(uint16(h)<<8 | uint16(l)), nil
}

func (obj *Device) readVector(xHigh hal.RegAddress) (Vector, error) {
	var v Vector
	var err error
	if v.X, err = obj.readWord(xHigh); err != nil {
		return Vector{}, err
	}
	if v.Y, err = obj.readWord(xHigh + 2); err != nil {
		return Vector{}, err
	}
	if v.Z, err = obj.readWord(xHigh + 4); err != nil {
		return Vector{}, err
	}
	return v, nil
}

// ReadAcceleration reads the raw accelerometer output one register at a time
func (obj *Device) ReadAcceleration() (Vector, error) {
	return obj.readVector(ACCEL_XOUT_H)
}

// ReadRotation reads the raw gyroscope output one register at a time
func (obj *Device) ReadRotation() (Vector, error) {
	return obj.readVector(GYRO_XOUT_H)
}

// CalibrateGyro averages samples rotation readings taken at rest into the
// zero rate offset subtracted by ReadGyroRate. The device must not move.
func (obj *Device) CalibrateGyro(samples int) (Vector, error) {
	if samples <= 0 {
		return Vector{}, fmt.Errorf("invalid sample count %d", samples)
	}
	var sumX, sumY, sumZ int64
	for i := 0; i < samples; i++ {
		v, err := obj.ReadRotation()
		if err != nil {
			return Vector{}, fmt.Errorf("calibration sample %d: %w", i, err)
		}
		sumX += int64(v.X)
		sumY += int64(v.Y)
		sumZ += int64(v.Z)
	}
	n := int64(samples)
	obj.gyroOffset = Vector{X: int16(sumX / n), Y: int16(sumY / n), Z: int16(sumZ / n)}
	return obj.gyroOffset, nil
}

func (obj *Device) GyroOffset() Vector {
	return obj.gyroOffset
}

// ReadGyroRate reads the raw rotation with the calibrated offset removed
func (obj *Device) ReadGyroRate() (Vector, error) {
	v, err := obj.ReadRotation()
	if err != nil {
		return Vector{}, err
	}
	return Vector{
		X: v.X - obj.gyroOffset.X,
		Y: v.Y - obj.gyroOffset.Y,
		Z: v.Z - obj.gyroOffset.Z,
	}, nil
}

func (obj *Device) ReadTemperature() (int16, error) {
	return obj.readWord(TEMP_OUT_H)
}

// ReadMotion reads all sensor outputs in one burst, so the sample is consistent
func (obj *Device) ReadMotion() (Motion, error) {
	var buf [14]byte
	err := obj.bus.Tx(uint16(obj.addr), []byte{ACCEL_XOUT_H.ToByte()}, buf[:])
	if err != nil {
		return Motion{}, fmt.Errorf("failed to read motion data: %w", err)
	}
	word := func(i int) int16 {
		return int16(binary.BigEndian.Uint16(buf[i:]))
	}
	return Motion{
		Accel:       Vector{X: word(0), Y: word(2), Z: word(4)},
		Temperature: word(6),
		Gyro:        Vector{X: word(8), Y: word(10), Z: word(12)},
	}, nil
}

func (obj *Device) GetConfiguration() string {
	var conf string
	for _, reg := range obj.registers {
		conf = conf + fmt.Sprintf("\nREG [%#02x]: %+v", reg.GetAddress(), reg)
	}
	return conf
}
