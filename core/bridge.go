package core

// Bridge drives the two PWM inputs of the H-bridge driver.
type Bridge struct {
	pwm     PWMDriver
	forward PWMPin // IN1
	reverse PWMPin // IN2
	wrap    uint32
	invert  bool

	last    DutyCommand
	enabled bool
}

// NewBridge configures both legs at wrap with zero duty. The output stage
// is left disabled.
func NewBridge(pwm PWMDriver, forward, reverse PWMPin, wrap uint32, invert bool) (*Bridge, error) {
	b := &Bridge{
		pwm:     pwm,
		forward: forward,
		reverse: reverse,
		invert:  invert,
	}

	actual, err := pwm.ConfigureHardwarePWM(forward, wrap)
	if err != nil {
		return nil, err
	}
	if _, err := pwm.ConfigureHardwarePWM(reverse, wrap); err != nil {
		return nil, err
	}
	b.wrap = actual

	if err := pwm.SetDutyCycle(forward, 0); err != nil {
		return nil, err
	}
	if err := pwm.SetDutyCycle(reverse, 0); err != nil {
		return nil, err
	}
	if err := b.SetEnabled(false); err != nil {
		return nil, err
	}
	return b, nil
}

// Apply drives cmd onto the legs. The leg that must be off is cleared
// first so a reversal never has both legs on.
func (b *Bridge) Apply(cmd DutyCommand) error {
	if b.invert {
		cmd.Direction = cmd.Direction.Inverted()
	}
	if uint32(cmd.Magnitude) > b.wrap {
		cmd.Magnitude = PWMValue(b.wrap)
	}

	fwd, rev := cmd.Levels()
	var err error
	if fwd != 0 {
		if err = b.pwm.SetDutyCycle(b.reverse, 0); err == nil {
			err = b.pwm.SetDutyCycle(b.forward, fwd)
		}
	} else {
		if err = b.pwm.SetDutyCycle(b.forward, 0); err == nil {
			err = b.pwm.SetDutyCycle(b.reverse, rev)
		}
	}
	if err != nil {
		return err
	}
	b.last = cmd
	return nil
}

// SetEnabled starts or stops the PWM output stage.
func (b *Bridge) SetEnabled(enabled bool) error {
	if err := b.pwm.SetEnabled(b.forward, enabled); err != nil {
		return err
	}
	if err := b.pwm.SetEnabled(b.reverse, enabled); err != nil {
		return err
	}
	b.enabled = enabled
	return nil
}

// Enabled reports whether the output stage is running.
func (b *Bridge) Enabled() bool {
	return b.enabled
}

// Last returns the command last applied, after polarity inversion.
func (b *Bridge) Last() DutyCommand {
	return b.last
}

// Wrap returns the programmed counter top.
func (b *Bridge) Wrap() uint32 {
	return b.wrap
}
