package core

import "time"

// MotorEnableState is the latched enable toggle.
type MotorEnableState uint8

const (
	MotorDisabled MotorEnableState = iota
	MotorEnabled
)

// Toggled returns the other state.
func (s MotorEnableState) Toggled() MotorEnableState {
	if s == MotorEnabled {
		return MotorDisabled
	}
	return MotorEnabled
}

func (s MotorEnableState) String() string {
	if s == MotorEnabled {
		return "enabled"
	}
	return "disabled"
}

// ButtonState holds the two reads of one debounce poll.
type ButtonState struct {
	Previous bool // Read before the settle delay
	Raw      bool // Read after it
}

// RisingEdge reports a low read followed by a high read.
func (b ButtonState) RisingEdge() bool {
	return !b.Previous && b.Raw
}

// EnableMachine debounces the enable toggle with a two-sample read around
// a fixed settle delay and flips MotorEnableState once per press.
type EnableMachine struct {
	gpio   GPIODriver
	pin    GPIOPin
	settle time.Duration
	sleep  func(time.Duration)

	button  ButtonState
	state   MotorEnableState
	pending bool
}

// NewEnableMachine starts disabled. A nil sleep uses time.Sleep.
func NewEnableMachine(gpio GPIODriver, pin GPIOPin, settle time.Duration, sleep func(time.Duration)) *EnableMachine {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &EnableMachine{
		gpio:   gpio,
		pin:    pin,
		settle: settle,
		sleep:  sleep,
		state:  MotorDisabled,
	}
}

// Poll performs read, settle delay, read. It blocks for the settle delay
// and reports whether the state flipped. Bounces that return to the first
// level inside the window are not seen.
func (m *EnableMachine) Poll() bool {
	m.button.Previous = m.gpio.ReadPin(m.pin)
	m.sleep(m.settle)
	m.button.Raw = m.gpio.ReadPin(m.pin)

	if !m.button.RisingEdge() {
		return false
	}
	m.state = m.state.Toggled()
	m.pending = true
	return true
}

// TakeChange returns the new state once per transition.
func (m *EnableMachine) TakeChange() (MotorEnableState, bool) {
	if !m.pending {
		return m.state, false
	}
	m.pending = false
	return m.state, true
}

// Retry re-arms the current state so the next TakeChange returns it
// again. Used when the side effects of a change could not be applied.
func (m *EnableMachine) Retry() {
	m.pending = true
}

// State returns the current enable state.
func (m *EnableMachine) State() MotorEnableState {
	return m.state
}

// Button returns the reads from the last poll.
func (m *EnableMachine) Button() ButtonState {
	return m.button
}
