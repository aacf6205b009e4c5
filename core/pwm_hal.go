package core

// PWMPin identifies a hardware pin capable of PWM output
type PWMPin uint32

// PWMValue is the compare level (0 to the configured wrap)
type PWMValue uint32

// PWMDriver is the abstract PWM interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type PWMDriver interface {
	// ConfigureHardwarePWM configures a pin for hardware PWM output
	// wrap: counter top; levels passed to SetDutyCycle are compared against it
	// Returns the wrap actually programmed
	ConfigureHardwarePWM(pin PWMPin, wrap uint32) (uint32, error)

	// SetDutyCycle sets the compare level for a pin
	// value: 0 (fully off) to wrap (fully on)
	SetDutyCycle(pin PWMPin, value PWMValue) error

	// SetEnabled starts or stops the counter driving the pin
	SetEnabled(pin PWMPin, enabled bool) error
}
