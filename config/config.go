// Package config holds the board's build-time configuration.
//
// Values come from Default, optionally overridden by a JSON board file
// embedded into the firmware image. Nothing here is settable at runtime.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"motorboard/core"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid board configuration")

// RP2040 limits
const (
	numGPIO       = 30
	numADCInputs  = 4
	maxPWMWrap    = 0xFFFF
	maxADCDivider = 0xFFFF

	fullScaleVolts = 3.3 // ADC reference
)

// PinConfig maps board functions to RP2040 GPIO numbers and ADC inputs.
type PinConfig struct {
	Forward      uint32 `json:"forward_pwm"`   // IN1
	Reverse      uint32 `json:"reverse_pwm"`   // IN2
	DriverAwake  uint32 `json:"nsleep"`        // Low active driver sleep
	CurrentLimit uint32 `json:"snsout"`        // Driver hit current limit
	Fault        uint32 `json:"nfault"`        // Driver fault, active low
	Toggle       uint32 `json:"toggle"`        // Enable push button
	Indicator    uint32 `json:"indicator_led"` // Enabled LED
	CurrentADC   uint8  `json:"current_adc"`   // Shunt amplifier out
	SetpointADC  uint8  `json:"setpoint_adc"`  // Potentiometer
}

// BoardConfig is the complete build-time configuration.
type BoardConfig struct {
	CaptureDepth    int     `json:"capture_depth"`     // Samples per block (D)
	SampleBits      uint8   `json:"sample_bits"`       // 8 or 12
	ADCClockDivider uint32  `json:"adc_clock_divider"` // 0 = back to back conversions
	CurrentScale    float32 `json:"current_scale"`     // Units per count of the block mean
	PWMWrap         uint32  `json:"pwm_wrap"`          // Bridge PWM counter top
	InvertDirection bool    `json:"invert_direction"`  // Swap bridge legs
	SettleDelayMs   uint32  `json:"settle_delay_ms"`   // Debounce settle delay
	ReportQueue     int     `json:"report_queue"`      // Status lines buffered before dropping

	Pins PinConfig `json:"pins"`
}

// Default returns the motor-control board's configuration.
func Default() *BoardConfig {
	return &BoardConfig{
		CaptureDepth:    512,
		SampleBits:      8,
		ADCClockDivider: 0,
		CurrentScale:    fullScaleVolts / 256,
		PWMWrap:         2560, // gain 20 over the 8-bit half range
		InvertDirection: false,
		SettleDelayMs:   20,
		ReportQueue:     16,
		Pins: PinConfig{
			Forward:      0,
			Reverse:      1,
			DriverAwake:  3,
			CurrentLimit: 4,
			Fault:        5,
			Toggle:       6,
			Indicator:    25,
			CurrentADC:   1, // GP27
			SetpointADC:  0, // GP26
		},
	}
}

// Load parses a JSON board file on top of Default, fills zero values and
// validates the result.
func Load(jsonData []byte) (*BoardConfig, error) {
	cfg := Default()
	// Derived from sample_bits unless the file sets it
	cfg.CurrentScale = 0
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, fmt.Errorf("parse board config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in zero values that have no meaning of their own
func applyDefaults(cfg *BoardConfig) {
	def := Default()

	if cfg.SampleBits == 0 {
		cfg.SampleBits = def.SampleBits
	}
	if cfg.CurrentScale == 0 {
		cfg.CurrentScale = fullScaleVolts / float32(cfg.SampleRange())
	}
	if cfg.PWMWrap == 0 {
		cfg.PWMWrap = def.PWMWrap
	}
	if cfg.SettleDelayMs == 0 {
		cfg.SettleDelayMs = def.SettleDelayMs
	}
	if cfg.ReportQueue == 0 {
		cfg.ReportQueue = def.ReportQueue
	}
}

// Validate checks the configuration against the hardware limits.
func (c *BoardConfig) Validate() error {
	if c.CaptureDepth < 1 || c.CaptureDepth > core.MaxCaptureDepth {
		return fmt.Errorf("%w: capture_depth %d not in 1..%d", ErrInvalidConfig, c.CaptureDepth, core.MaxCaptureDepth)
	}
	if c.SampleBits != 8 && c.SampleBits != 12 {
		return fmt.Errorf("%w: sample_bits must be 8 or 12, got %d", ErrInvalidConfig, c.SampleBits)
	}
	if c.ADCClockDivider > maxADCDivider {
		return fmt.Errorf("%w: adc_clock_divider %d exceeds %d", ErrInvalidConfig, c.ADCClockDivider, maxADCDivider)
	}
	if c.CurrentScale <= 0 {
		return fmt.Errorf("%w: current_scale must be positive", ErrInvalidConfig)
	}
	if c.PWMWrap > maxPWMWrap {
		return fmt.Errorf("%w: pwm_wrap %d exceeds %d", ErrInvalidConfig, c.PWMWrap, maxPWMWrap)
	}
	if c.Gain() == 0 {
		return fmt.Errorf("%w: pwm_wrap %d below half the sample range %d", ErrInvalidConfig, c.PWMWrap, c.SampleRange()/2)
	}
	if c.ReportQueue < 1 {
		return fmt.Errorf("%w: report_queue must be positive", ErrInvalidConfig)
	}
	return c.Pins.validate()
}

func (p PinConfig) validate() error {
	pins := []struct {
		name string
		pin  uint32
	}{
		{"forward_pwm", p.Forward},
		{"reverse_pwm", p.Reverse},
		{"nsleep", p.DriverAwake},
		{"snsout", p.CurrentLimit},
		{"nfault", p.Fault},
		{"toggle", p.Toggle},
		{"indicator_led", p.Indicator},
	}

	seen := make(map[uint32]string, len(pins))
	for _, entry := range pins {
		if entry.pin >= numGPIO {
			return fmt.Errorf("%w: %s pin %d out of range", ErrInvalidConfig, entry.name, entry.pin)
		}
		if other, dup := seen[entry.pin]; dup {
			return fmt.Errorf("%w: %s and %s share pin %d", ErrInvalidConfig, other, entry.name, entry.pin)
		}
		seen[entry.pin] = entry.name
	}

	if p.CurrentADC >= numADCInputs || p.SetpointADC >= numADCInputs {
		return fmt.Errorf("%w: ADC inputs must be 0..%d", ErrInvalidConfig, numADCInputs-1)
	}
	if p.CurrentADC == p.SetpointADC {
		return fmt.Errorf("%w: current and setpoint share ADC input %d", ErrInvalidConfig, p.CurrentADC)
	}
	return nil
}

// SampleRange is M, the number of distinct raw sample values.
func (c *BoardConfig) SampleRange() uint32 {
	return uint32(1) << c.SampleBits
}

// Gain is the compare counts per unit of setpoint offset.
func (c *BoardConfig) Gain() uint32 {
	return core.NewDutyMapper(c.SampleRange(), c.PWMWrap).Gain
}

// SettleDelay is the debounce settle delay.
func (c *BoardConfig) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

// Acquisition returns the scheduler configuration.
func (c *BoardConfig) Acquisition() core.AcquisitionConfig {
	return core.AcquisitionConfig{
		ADC: core.ADCConfig{
			SampleBits:   c.SampleBits,
			ClockDivider: c.ADCClockDivider,
		},
		Depth:         c.CaptureDepth,
		CurrentInput:  core.ADCChannelID(c.Pins.CurrentADC),
		SetpointInput: core.ADCChannelID(c.Pins.SetpointADC),
		CurrentScale:  c.CurrentScale,
	}
}

// Mapper returns the duty-cycle mapper for this board.
func (c *BoardConfig) Mapper() core.DutyMapper {
	return core.NewDutyMapper(c.SampleRange(), c.PWMWrap)
}
