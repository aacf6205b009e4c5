package core

import (
	"errors"
	"testing"
	"time"
)

const (
	awakePin     GPIOPin = 3
	limitPin     GPIOPin = 4
	faultPin     GPIOPin = 5
	indicatorPin GPIOPin = 25
)

type loopHarness struct {
	loop   *Loop
	sched  *Scheduler
	adc    *MockBlockADC
	store  *SampleStore
	gpio   *MockGPIODriver
	pwm    *MockPWMDriver
	rec    *lineRecorder
	during *[]bool
	sleeps int
}

func newLoopHarness(t *testing.T) *loopHarness {
	t.Helper()
	h := &loopHarness{
		adc:   &MockBlockADC{},
		store: NewSampleStore(),
		gpio:  NewMockGPIODriver(),
		pwm:   NewMockPWMDriver(),
		rec:   &lineRecorder{},
	}

	sched, err := NewScheduler(h.adc, h.store, AcquisitionConfig{
		Depth:         512,
		CurrentInput:  1,
		SetpointInput: 0,
		CurrentScale:  3.3 / 256,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := sched.Start(); err != nil {
		t.Fatal(err)
	}
	h.sched = sched

	bridge, err := NewBridge(h.pwm, forwardPin, reversePin, 2560, false)
	if err != nil {
		t.Fatal(err)
	}

	var during []bool
	h.during = &during
	enable := NewEnableMachine(h.gpio, togglePin, 20*time.Millisecond, func(time.Duration) {
		h.sleeps++
		for _, level := range during {
			h.gpio.pins[togglePin] = level
		}
		during = nil
	})

	faults, err := NewFaultMonitor(h.gpio, faultPin, limitPin)
	if err != nil {
		t.Fatal(err)
	}

	h.loop, err = NewLoop(LoopConfig{
		Enable:      enable,
		Store:       h.store,
		Mapper:      DutyMapper{Range: 256, Gain: 20},
		Bridge:      bridge,
		Report:      NewReporter(h.rec.write),
		Faults:      faults,
		GPIO:        h.gpio,
		DriverAwake: awakePin,
		Indicator:   indicatorPin,
	})
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func (h *loopHarness) press() {
	h.gpio.pins[togglePin] = false
	*h.during = []bool{true}
}

func (h *loopHarness) step(t *testing.T) []string {
	t.Helper()
	before := len(h.rec.lines)
	if err := h.loop.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	return h.rec.lines[before:]
}

func TestLoopIdleStepReportsNothing(t *testing.T) {
	h := newLoopHarness(t)

	if lines := h.step(t); len(lines) != 0 {
		t.Errorf("idle step emitted %v", lines)
	}
	if h.sleeps != 1 {
		t.Errorf("settle delay ran %d times, want 1", h.sleeps)
	}
	if !h.gpio.outputs[awakePin] || !h.gpio.outputs[indicatorPin] {
		t.Error("awake and indicator pins not configured as outputs")
	}
}

func TestLoopEndToEnd(t *testing.T) {
	h := newLoopHarness(t)

	h.adc.complete(128) // current block
	lines := h.step(t)
	if len(lines) != 1 || lines[0] != "current value=1.6500" {
		t.Fatalf("current step lines = %v", lines)
	}

	h.adc.complete(64) // setpoint block
	lines = h.step(t)
	if len(lines) != 1 || lines[0] != "duty forward=0 reverse=1280 percent=-50.0" {
		t.Fatalf("setpoint step lines = %v", lines)
	}
	if h.pwm.levels[forwardPin] != 0 || h.pwm.levels[reversePin] != 1280 {
		t.Errorf("bridge levels = %v, want forward 0 reverse 1280", h.pwm.levels)
	}

	// Flags were consumed: nothing new to report
	if lines := h.step(t); len(lines) != 0 {
		t.Errorf("step without new samples emitted %v", lines)
	}
	if h.store.Ready(Setpoint) || h.store.Ready(CurrentSense) {
		t.Error("ready flags still set after consumption")
	}
}

func TestLoopDutyAppliedOncePerSample(t *testing.T) {
	h := newLoopHarness(t)

	h.adc.complete(0)   // current
	h.adc.complete(200) // setpoint
	h.step(t)
	writes := len(h.pwm.writes)

	for i := 0; i < 5; i++ {
		h.step(t)
	}
	if len(h.pwm.writes) != writes {
		t.Errorf("bridge rewritten %d times without a new setpoint", len(h.pwm.writes)-writes)
	}
}

func TestLoopEnableSideEffects(t *testing.T) {
	h := newLoopHarness(t)

	h.press()
	lines := h.step(t)
	if len(lines) != 1 || lines[0] != "motor enabled" {
		t.Fatalf("enable lines = %v", lines)
	}
	if !h.pwm.enabled[forwardPin] || !h.pwm.enabled[reversePin] {
		t.Error("PWM stage not enabled")
	}
	if !h.gpio.pins[awakePin] || !h.gpio.pins[indicatorPin] {
		t.Error("awake/indicator not driven high")
	}

	// Held button: no repeated side effects
	if lines := h.step(t); len(lines) != 0 {
		t.Errorf("held button emitted %v", lines)
	}

	h.press()
	lines = h.step(t)
	if len(lines) != 1 || lines[0] != "motor disabled" {
		t.Fatalf("disable lines = %v", lines)
	}
	if h.pwm.enabled[forwardPin] || h.gpio.pins[awakePin] || h.gpio.pins[indicatorPin] {
		t.Error("disable side effects not applied")
	}
}

func TestLoopEnableRetriedAfterDriverError(t *testing.T) {
	h := newLoopHarness(t)

	h.gpio.failSet[awakePin] = true
	h.press()
	if err := h.loop.Step(); !errors.Is(err, errMock) {
		t.Fatalf("Step = %v, want driver error", err)
	}
	if h.pwm.enabled[forwardPin] || h.pwm.enabled[reversePin] {
		t.Error("PWM stage left running after a failed enable")
	}
	if h.gpio.pins[indicatorPin] {
		t.Error("indicator lit after a failed enable")
	}
	if len(h.rec.lines) != 0 {
		t.Errorf("failed enable reported %v", h.rec.lines)
	}

	// Driver recovers: the same transition is applied in full
	h.gpio.failSet[awakePin] = false
	lines := h.step(t)
	if len(lines) != 1 || lines[0] != "motor enabled" {
		t.Fatalf("retry lines = %v", lines)
	}
	if !h.pwm.enabled[forwardPin] || !h.gpio.pins[awakePin] || !h.gpio.pins[indicatorPin] {
		t.Error("retried enable did not apply every side effect")
	}
	if h.loop.Enable.State() != MotorEnabled {
		t.Errorf("state = %s, want enabled", h.loop.Enable.State())
	}
}

func TestLoopStepOrder(t *testing.T) {
	h := newLoopHarness(t)

	h.adc.complete(128) // current
	h.adc.complete(255) // setpoint
	h.press()
	h.gpio.pins[faultPin] = false // nFAULT asserted

	lines := h.step(t)
	want := []string{
		"motor enabled",
		"duty forward=2540 reverse=0 percent=99.2",
		"current value=1.6500",
		"fault driver=asserted",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestFaultMonitorReportsChangesOnly(t *testing.T) {
	h := newLoopHarness(t)

	if !h.gpio.pullUps[faultPin] || !h.gpio.pullDown[limitPin] {
		t.Fatal("fault inputs not configured with pulls")
	}

	h.gpio.pins[limitPin] = true
	if lines := h.step(t); len(lines) != 1 || lines[0] != "limit current=asserted" {
		t.Fatalf("limit lines = %v", lines)
	}
	if lines := h.step(t); len(lines) != 0 {
		t.Errorf("unchanged limit reported again: %v", lines)
	}
	h.gpio.pins[limitPin] = false
	if lines := h.step(t); len(lines) != 1 || lines[0] != "limit current=cleared" {
		t.Fatalf("limit clear lines = %v", lines)
	}

	// Observational only: the bridge stays as it was
	if h.pwm.enabled[forwardPin] {
		t.Error("fault monitor changed the bridge")
	}
}

func TestLoopSteps(t *testing.T) {
	h := newLoopHarness(t)
	for i := 0; i < 3; i++ {
		h.step(t)
	}
	if h.loop.Steps() != 3 {
		t.Errorf("Steps = %d, want 3", h.loop.Steps())
	}
}

type panickingStore struct{}

func (panickingStore) TryConsume(AnalogChannel) (float32, bool) {
	panic("corrupt store")
}

func TestLoopSafeStepRecovers(t *testing.T) {
	h := newLoopHarness(t)
	h.loop.Store = panickingStore{}

	if err := h.loop.SafeStep(); !errors.Is(err, ErrStepPanic) {
		t.Fatalf("SafeStep = %v, want ErrStepPanic", err)
	}

	h.loop.Store = h.store
	if err := h.loop.SafeStep(); err != nil {
		t.Errorf("SafeStep after recovery = %v", err)
	}
	if h.loop.Steps() != 2 {
		t.Errorf("Steps = %d, want 2", h.loop.Steps())
	}
}

func TestLoopSafeStepPassesErrors(t *testing.T) {
	h := newLoopHarness(t)
	h.pwm.failSet = true
	h.adc.complete(0)   // current
	h.adc.complete(200) // setpoint

	err := h.loop.SafeStep()
	if err == nil || errors.Is(err, ErrStepPanic) {
		t.Errorf("SafeStep = %v, want the driver error", err)
	}
}
