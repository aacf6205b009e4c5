// Control loop
// Single cooperative loop consuming acquisition results: debounced enable,
// duty updates and current reports.
package core

import "errors"

// ErrStepPanic is returned by SafeStep when an iteration panicked.
var ErrStepPanic = errors.New("control step panicked")

// LoopConfig wires the loop to its collaborators.
type LoopConfig struct {
	Enable *EnableMachine
	Store  SampleConsumer
	Mapper DutyMapper
	Bridge *Bridge
	Report *Reporter

	// Faults is optional
	Faults *FaultMonitor

	GPIO        GPIODriver
	DriverAwake GPIOPin // nSLEEP, high keeps the driver awake
	Indicator   GPIOPin // Enabled LED
}

// Loop runs one iteration per Step. It holds no locks; the store is its
// only shared state.
type Loop struct {
	LoopConfig

	steps uint32
}

// NewLoop configures the awake and indicator outputs and drives them low
// to match the initial disabled state.
func NewLoop(cfg LoopConfig) (*Loop, error) {
	if err := cfg.GPIO.ConfigureOutput(cfg.DriverAwake); err != nil {
		return nil, err
	}
	if err := cfg.GPIO.ConfigureOutput(cfg.Indicator); err != nil {
		return nil, err
	}
	if err := cfg.GPIO.SetPin(cfg.DriverAwake, false); err != nil {
		return nil, err
	}
	if err := cfg.GPIO.SetPin(cfg.Indicator, false); err != nil {
		return nil, err
	}
	return &Loop{LoopConfig: cfg}, nil
}

// Step runs one iteration: debounce, enable side effects, setpoint, current.
func (l *Loop) Step() error {
	l.steps++

	// The settle delay inside Poll is the only blocking point.
	l.Enable.Poll()
	if state, changed := l.Enable.TakeChange(); changed {
		if err := l.applyEnable(state); err != nil {
			// Park the outputs and redo the whole transition next step
			l.forceIdle()
			l.Enable.Retry()
			return err
		}
	}

	if raw, ok := l.Store.TryConsume(Setpoint); ok {
		cmd := l.Mapper.Map(uint32(raw))
		if err := l.Bridge.Apply(cmd); err != nil {
			return err
		}
		l.Report.Duty(cmd, l.Mapper.PercentTenths(cmd))
	}

	if current, ok := l.Store.TryConsume(CurrentSense); ok {
		l.Report.Current(current)
	}

	if l.Faults != nil {
		l.Faults.Observe(l.Report)
	}
	return nil
}

// applyEnable performs the once-per-transition side effects
func (l *Loop) applyEnable(state MotorEnableState) error {
	on := state == MotorEnabled
	if err := l.Bridge.SetEnabled(on); err != nil {
		return err
	}
	if err := l.GPIO.SetPin(l.DriverAwake, on); err != nil {
		return err
	}
	if err := l.GPIO.SetPin(l.Indicator, on); err != nil {
		return err
	}
	l.Report.MotorState(state)
	return nil
}

// forceIdle drives the bridge stage, nSLEEP and the indicator off,
// ignoring errors.
func (l *Loop) forceIdle() {
	_ = l.Bridge.SetEnabled(false)
	_ = l.GPIO.SetPin(l.DriverAwake, false)
	_ = l.GPIO.SetPin(l.Indicator, false)
}

// SafeStep runs Step, turning a panic into ErrStepPanic so one bad
// iteration cannot take the firmware down.
func (l *Loop) SafeStep() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrStepPanic
		}
	}()
	return l.Step()
}

// Run calls SafeStep forever. Errors go to onError and the loop keeps
// going; there is no shutdown path.
func (l *Loop) Run(onError func(error)) {
	for {
		if err := l.SafeStep(); err != nil && onError != nil {
			onError(err)
		}
	}
}

// Steps returns the number of iterations run.
func (l *Loop) Steps() uint32 {
	return l.steps
}
