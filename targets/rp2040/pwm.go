//go:build rp2040

package main

import (
	"errors"
	"machine"

	"motorboard/core"
)

// System clock feeding the PWM counters with no fractional divider
const pwmClockHz = 125000000

// pwmPeripheral is an interface for PWM hardware peripherals
// This abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	SetTop(top uint32)
	Top() uint32
	Set(channel uint8, value uint32)
	Enable(enable bool)
}

// RP2040PWMDriver implements core.PWMDriver for RP2040
// Each of the 8 slices drives two pins (A even, B odd) from one counter,
// so both bridge legs share a wrap when they sit on the same slice.
type RP2040PWMDriver struct {
	// Key: slice number (0-7), Value: programmed wrap
	wraps map[uint8]uint32

	// Key: pin number, Value: PWM channel
	channels map[uint32]uint8

	// Key: slice number (0-7), Value: PWM peripheral
	peripherals map[uint8]pwmPeripheral
}

// NewRP2040PWMDriver creates a new RP2040 PWM driver
func NewRP2040PWMDriver() *RP2040PWMDriver {
	return &RP2040PWMDriver{
		wraps:       make(map[uint8]uint32),
		channels:    make(map[uint32]uint8),
		peripherals: make(map[uint8]pwmPeripheral),
	}
}

// ConfigureHardwarePWM sets the pin's slice counter to count 0..wrap at
// the system clock. The slice is left disabled.
func (d *RP2040PWMDriver) ConfigureHardwarePWM(pin core.PWMPin, wrap uint32) (uint32, error) {
	pinNum := uint32(pin)
	sliceNum := pwmSlice(pinNum)

	if existing, ok := d.wraps[sliceNum]; ok && existing != wrap {
		return 0, errors.New("pwm slice already configured with a different wrap")
	}

	pwm, exists := d.peripherals[sliceNum]
	if !exists {
		pwm = d.getPWMPeripheral(sliceNum)
		d.peripherals[sliceNum] = pwm
	}

	period := uint64(wrap+1) * 1000000000 / pwmClockHz
	if err := pwm.Configure(machine.PWMConfig{Period: period}); err != nil {
		return 0, err
	}
	// Configure picks its own top for the period; pin it to the exact wrap
	pwm.SetTop(wrap)
	pwm.Enable(false)

	channel, err := pwm.Channel(machine.Pin(pinNum))
	if err != nil {
		return 0, err
	}

	d.wraps[sliceNum] = wrap
	d.channels[pinNum] = channel
	return pwm.Top(), nil
}

// SetDutyCycle sets the compare level for a pin, 0 to wrap.
func (d *RP2040PWMDriver) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error {
	pwm, channel, err := d.lookup(pin)
	if err != nil {
		return err
	}
	pwm.Set(channel, uint32(value))
	return nil
}

// SetEnabled starts or stops the pin's slice counter. Both pins of a
// slice follow.
func (d *RP2040PWMDriver) SetEnabled(pin core.PWMPin, enabled bool) error {
	pwm, _, err := d.lookup(pin)
	if err != nil {
		return err
	}
	pwm.Enable(enabled)
	return nil
}

func (d *RP2040PWMDriver) lookup(pin core.PWMPin) (pwmPeripheral, uint8, error) {
	pinNum := uint32(pin)
	channel, exists := d.channels[pinNum]
	if !exists {
		return nil, 0, errors.New("pwm pin not configured")
	}
	pwm, exists := d.peripherals[pwmSlice(pinNum)]
	if !exists {
		return nil, 0, errors.New("pwm slice not configured")
	}
	return pwm, channel, nil
}

// pwmSlice maps GPIO N to slice (N >> 1) & 0x7
func pwmSlice(pinNum uint32) uint8 {
	return uint8((pinNum >> 1) & 0x7)
}

// getPWMPeripheral returns the PWM peripheral for a given slice number
func (d *RP2040PWMDriver) getPWMPeripheral(sliceNum uint8) pwmPeripheral {
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
