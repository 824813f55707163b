package mpu6050

import "github.com/mbalug7/go-softi2c/pkg/hal"

const (
	SMPLRT_DIV         hal.RegAddress = 0x19
	CONFIG             hal.RegAddress = 0x1A
	GYRO_CONFIG        hal.RegAddress = 0x1B
	ACCEL_CONFIG       hal.RegAddress = 0x1C
	FF_THR             hal.RegAddress = 0x1D
	FF_DUR             hal.RegAddress = 0x1E
	MOT_THR            hal.RegAddress = 0x1F
	MOT_DUR            hal.RegAddress = 0x20
	ZRMOT_THR          hal.RegAddress = 0x21
	ZRMOT_DUR          hal.RegAddress = 0x22
	FIFO_EN            hal.RegAddress = 0x23
	I2C_MST_CTRL       hal.RegAddress = 0x24
	I2C_SLV0_ADDR      hal.RegAddress = 0x25
	I2C_SLV0_REG       hal.RegAddress = 0x26
	I2C_SLV0_CTRL      hal.RegAddress = 0x27
	I2C_SLV1_ADDR      hal.RegAddress = 0x28
	I2C_SLV1_REG       hal.RegAddress = 0x29
	I2C_SLV1_CTRL      hal.RegAddress = 0x2A
	I2C_SLV2_ADDR      hal.RegAddress = 0x2B
	I2C_SLV2_REG       hal.RegAddress = 0x2C
	I2C_SLV2_CTRL      hal.RegAddress = 0x2D
	I2C_SLV3_ADDR      hal.RegAddress = 0x2E
	I2C_SLV3_REG       hal.RegAddress = 0x2F
	I2C_SLV3_CTRL      hal.RegAddress = 0x30
	I2C_SLV4_ADDR      hal.RegAddress = 0x31
	I2C_SLV4_REG       hal.RegAddress = 0x32
	I2C_SLV4_DO        hal.RegAddress = 0x33
	I2C_SLV4_CTRL      hal.RegAddress = 0x34
	I2C_SLV4_DI        hal.RegAddress = 0x35
	INT_PIN_CFG        hal.RegAddress = 0x37
	INT_ENABLE         hal.RegAddress = 0x38
	ACCEL_XOUT_H       hal.RegAddress = 0x3B
	ACCEL_XOUT_L       hal.RegAddress = 0x3C
	ACCEL_YOUT_H       hal.RegAddress = 0x3D
	ACCEL_YOUT_L       hal.RegAddress = 0x3E
	ACCEL_ZOUT_H       hal.RegAddress = 0x3F
	ACCEL_ZOUT_L       hal.RegAddress = 0x40
	TEMP_OUT_H         hal.RegAddress = 0x41
	TEMP_OUT_L         hal.RegAddress = 0x42
	GYRO_XOUT_H        hal.RegAddress = 0x43
	GYRO_XOUT_L        hal.RegAddress = 0x44
	GYRO_YOUT_H        hal.RegAddress = 0x45
	GYRO_YOUT_L        hal.RegAddress = 0x46
	GYRO_ZOUT_H        hal.RegAddress = 0x47
	GYRO_ZOUT_L        hal.RegAddress = 0x48
	I2C_SLV0_DO        hal.RegAddress = 0x63
	I2C_SLV1_DO        hal.RegAddress = 0x64
	I2C_SLV2_DO        hal.RegAddress = 0x65
	I2C_SLV3_DO        hal.RegAddress = 0x66
	I2C_MST_DELAY_CTRL hal.RegAddress = 0x67
	SIGNAL_PATH_RESET  hal.RegAddress = 0x68
	MOT_DETECT_CTRL    hal.RegAddress = 0x69
	USER_CTRL          hal.RegAddress = 0x6A
	PWR_MGMT_1         hal.RegAddress = 0x6B
	PWR_MGMT_2         hal.RegAddress = 0x6C
	FIFO_R_W           hal.RegAddress = 0x74
	WHO_AM_I           hal.RegAddress = 0x75
)

// positions in registersCollection
const (
	idxSmplrtDiv = iota
	idxConfig
	idxGyroConfig
	idxAccelConfig
	idxPwrMgmt1
	idxPwrMgmt2
)

// registersCollection holds the models of the configuration registers
type registersCollection [6]hal.Register

func newRegistersCollection() registersCollection {
	return registersCollection{
		&SmplrtDiv{},
		&FilterConfig{},
		&GyroConfig{},
		&AccelConfig{},
		&PwrMgmt1{clkSel: CLOCK_INTERNAL, sleep: SLEEP_ENABLE},
		&PwrMgmt2{},
	}
}

// Copy returns an independent collection with the same register values
func (obj registersCollection) Copy() registersCollection {
	c := newRegistersCollection()
	for i, reg := range obj {
		c[i].SetValue(reg.GetValue())
	}
	return c
}

func (obj registersCollection) EqualTo(other registersCollection) bool {
	for i, reg := range obj {
		if reg.GetValue() != other[i].GetValue() {
			return false
		}
	}
	return true
}

// Update stores value in the model of reg, unknown registers are ignored
func (obj registersCollection) Update(reg hal.RegAddress, value uint8) {
	for _, r := range obj {
		if r.GetAddress() == reg {
			r.SetValue(value)
			return
		}
	}
}

// SMPLRT_DIV register

type SmplrtDiv struct {
	divider uint8
}

func (obj *SmplrtDiv) GetAddress() hal.RegAddress {
	return SMPLRT_DIV
}

func (obj *SmplrtDiv) GetValue() uint8 {
	return obj.divider
}

func (obj *SmplrtDiv) SetValue(value uint8) {
	obj.divider = value
}

// CONFIG register

type extSync uint8

const (
	EXT_SYNC_DISABLED extSync = iota << 3
	EXT_SYNC_TEMP_OUT
	EXT_SYNC_GYRO_XOUT
	EXT_SYNC_GYRO_YOUT
	EXT_SYNC_GYRO_ZOUT
	EXT_SYNC_ACCEL_XOUT
	EXT_SYNC_ACCEL_YOUT
	EXT_SYNC_ACCEL_ZOUT
)

type dlpf uint8

const (
	DLPF_260_HZ dlpf = iota
	DLPF_184_HZ
	DLPF_94_HZ
	DLPF_44_HZ
	DLPF_21_HZ
	DLPF_10_HZ
	DLPF_5_HZ
)

type FilterConfig struct {
	extSync extSync
	dlpf    dlpf
}

func (obj *FilterConfig) GetAddress() hal.RegAddress {
	return CONFIG
}

func (obj *FilterConfig) GetValue() uint8 {
	return uint8(obj.extSync) | uint8(obj.dlpf)
}

func (obj *FilterConfig) SetValue(value uint8) {
	obj.extSync = extSync(value & 0x38) // bits 5:3
	obj.dlpf = dlpf(value & 0x07)       // bits 2:0
}

// GYRO_CONFIG register

type gyroRange uint8

const (
	GYRO_RANGE_250  gyroRange = 0x00
	GYRO_RANGE_500  gyroRange = 0x08
	GYRO_RANGE_1000 gyroRange = 0x10
	GYRO_RANGE_2000 gyroRange = 0x18
)

type GyroConfig struct {
	selfTest uint8
	fsSel    gyroRange
}

func (obj *GyroConfig) GetAddress() hal.RegAddress {
	return GYRO_CONFIG
}

func (obj *GyroConfig) GetValue() uint8 {
	return obj.selfTest | uint8(obj.fsSel)
}

func (obj *GyroConfig) SetValue(value uint8) {
	obj.selfTest = value & 0xE0 // XG_ST, YG_ST, ZG_ST
	obj.fsSel = gyroRange(value & 0x18)
}

// ACCEL_CONFIG register

type accelRange uint8

const (
	ACCEL_RANGE_2G  accelRange = 0x00
	ACCEL_RANGE_4G  accelRange = 0x08
	ACCEL_RANGE_8G  accelRange = 0x10
	ACCEL_RANGE_16G accelRange = 0x18
)

type AccelConfig struct {
	selfTest uint8
	afsSel   accelRange
	hpf      uint8
}

func (obj *AccelConfig) GetAddress() hal.RegAddress {
	return ACCEL_CONFIG
}

func (obj *AccelConfig) GetValue() uint8 {
	return obj.selfTest | uint8(obj.afsSel) | obj.hpf
}

func (obj *AccelConfig) SetValue(value uint8) {
	obj.selfTest = value & 0xE0
	obj.afsSel = accelRange(value & 0x18)
	obj.hpf = value & 0x07
}

// PWR_MGMT_1 register

type clockSource uint8

const (
	CLOCK_INTERNAL clockSource = iota
	CLOCK_PLL_XGYRO
	CLOCK_PLL_YGYRO
	CLOCK_PLL_ZGYRO
	CLOCK_PLL_EXT32K
	CLOCK_PLL_EXT19M
	_
	CLOCK_STOP
)

type sleep uint8

const (
	SLEEP_DISABLE sleep = 0x00
	SLEEP_ENABLE  sleep = 0x40
)

type PwrMgmt1 struct {
	sleep   sleep
	cycle   uint8
	tempDis uint8
	clkSel  clockSource
}

func (obj *PwrMgmt1) GetAddress() hal.RegAddress {
	return PWR_MGMT_1
}

func (obj *PwrMgmt1) GetValue() uint8 {
	return uint8(obj.sleep) | obj.cycle | obj.tempDis | uint8(obj.clkSel)
}

// SetValue ignores DEVICE_RESET (bit 7), it always reads back as 0
func (obj *PwrMgmt1) SetValue(value uint8) {
	obj.sleep = sleep(value & 0x40)
	obj.cycle = value & 0x20
	obj.tempDis = value & 0x08
	obj.clkSel = clockSource(value & 0x07)
}

// PWR_MGMT_2 register

type PwrMgmt2 struct {
	value uint8
}

func (obj *PwrMgmt2) GetAddress() hal.RegAddress {
	return PWR_MGMT_2
}

func (obj *PwrMgmt2) GetValue() uint8 {
	return obj.value
}

func (obj *PwrMgmt2) SetValue(value uint8) {
	obj.value = value
}
