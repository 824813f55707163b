package mpu6050

// ConfigBuilder stages configuration changes; only the registers that end up
// different from the device model are written.
type ConfigBuilder struct {
	device          *Device
	stagedRegisters registersCollection
}

// NewConfigBuilder constructs ConfigBuilder
func NewConfigBuilder(device *Device) *ConfigBuilder {
	return &ConfigBuilder{
		device:          device,
		stagedRegisters: device.registers.Copy(), // copy current values
	}
}

// SampleRateDivider sets sample rate = gyro output rate / (1 + divider)
func (obj *ConfigBuilder) SampleRateDivider(divider uint8) *ConfigBuilder {
	obj.stagedRegisters[idxSmplrtDiv].(*SmplrtDiv).divider = divider
	return obj
}

// DLPF sets the digital low pass filter bandwidth
func (obj *ConfigBuilder) DLPF(bandwidth dlpf) *ConfigBuilder {
	obj.stagedRegisters[idxConfig].(*FilterConfig).dlpf = bandwidth
	return obj
}

func (obj *ConfigBuilder) ExternalSync(sync extSync) *ConfigBuilder {
	obj.stagedRegisters[idxConfig].(*FilterConfig).extSync = sync
	return obj
}

// GyroRange sets the gyroscope full scale range
func (obj *ConfigBuilder) GyroRange(r gyroRange) *ConfigBuilder {
	obj.stagedRegisters[idxGyroConfig].(*GyroConfig).fsSel = r
	return obj
}

// AccelRange sets the accelerometer full scale range
func (obj *ConfigBuilder) AccelRange(r accelRange) *ConfigBuilder {
	obj.stagedRegisters[idxAccelConfig].(*AccelConfig).afsSel = r
	return obj
}

func (obj *ConfigBuilder) ClockSource(source clockSource) *ConfigBuilder {
	obj.stagedRegisters[idxPwrMgmt1].(*PwrMgmt1).clkSel = source
	return obj
}

func (obj *ConfigBuilder) Sleep(state sleep) *ConfigBuilder {
	obj.stagedRegisters[idxPwrMgmt1].(*PwrMgmt1).sleep = state
	return obj
}

// Write writes the staged config to the device
func (obj *ConfigBuilder) Write() error {
	return obj.device.writeConfig(obj.stagedRegisters)
}
