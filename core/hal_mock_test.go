package core

import "errors"

var errMock = errors.New("mock failure")

// MockBlockADC records the scheduler's calls and lets tests complete blocks.
type MockBlockADC struct {
	ops        []string
	configured []ADCChannelID
	armed      ADCChannelID
	buf        []ADCValue
	handler    func()
	running    bool
	claimErr   error
	initCfg    ADCConfig
}

func (m *MockBlockADC) Init(cfg ADCConfig) error {
	m.initCfg = cfg
	m.ops = append(m.ops, "init")
	return nil
}

func (m *MockBlockADC) ConfigureChannel(ch ADCChannelID) error {
	m.configured = append(m.configured, ch)
	return nil
}

func (m *MockBlockADC) Claim() error {
	m.ops = append(m.ops, "claim")
	return m.claimErr
}

func (m *MockBlockADC) SetCompletionHandler(fn func()) {
	m.handler = fn
}

func (m *MockBlockADC) Arm(ch ADCChannelID, buf []ADCValue) {
	m.ops = append(m.ops, "arm")
	m.armed = ch
	m.buf = buf
}

func (m *MockBlockADC) Resume() {
	m.ops = append(m.ops, "resume")
	m.running = true
}

func (m *MockBlockADC) Halt() {
	m.ops = append(m.ops, "halt")
	m.running = false
}

func (m *MockBlockADC) Acknowledge() {
	m.ops = append(m.ops, "ack")
}

// complete fills the armed block with value and fires the completion handler
func (m *MockBlockADC) complete(value ADCValue) {
	for i := range m.buf {
		m.buf[i] = value
	}
	m.handler()
}

// completeWith copies samples into the armed block and fires the handler
func (m *MockBlockADC) completeWith(samples []ADCValue) {
	copy(m.buf, samples)
	m.handler()
}

// MockPWMDriver keeps the last level and enable state per pin.
type MockPWMDriver struct {
	levels  map[PWMPin]PWMValue
	enabled map[PWMPin]bool
	wraps   map[PWMPin]uint32
	writes  []pwmWrite
	failSet bool
}

type pwmWrite struct {
	pin   PWMPin
	value PWMValue
}

func NewMockPWMDriver() *MockPWMDriver {
	return &MockPWMDriver{
		levels:  make(map[PWMPin]PWMValue),
		enabled: make(map[PWMPin]bool),
		wraps:   make(map[PWMPin]uint32),
	}
}

func (m *MockPWMDriver) ConfigureHardwarePWM(pin PWMPin, wrap uint32) (uint32, error) {
	m.wraps[pin] = wrap
	return wrap, nil
}

func (m *MockPWMDriver) SetDutyCycle(pin PWMPin, value PWMValue) error {
	if m.failSet {
		return errMock
	}
	m.levels[pin] = value
	m.writes = append(m.writes, pwmWrite{pin, value})
	return nil
}

func (m *MockPWMDriver) SetEnabled(pin PWMPin, enabled bool) error {
	m.enabled[pin] = enabled
	return nil
}

// MockGPIODriver is a test implementation of GPIODriver
type MockGPIODriver struct {
	pins     map[GPIOPin]bool
	outputs  map[GPIOPin]bool
	pullUps  map[GPIOPin]bool
	pullDown map[GPIOPin]bool
	failSet  map[GPIOPin]bool
	reads    int
}

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		pins:     make(map[GPIOPin]bool),
		outputs:  make(map[GPIOPin]bool),
		pullUps:  make(map[GPIOPin]bool),
		pullDown: make(map[GPIOPin]bool),
		failSet:  make(map[GPIOPin]bool),
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	m.outputs[pin] = true
	m.pins[pin] = false
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullUp(pin GPIOPin) error {
	m.pullUps[pin] = true
	m.pins[pin] = true
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullDown(pin GPIOPin) error {
	m.pullDown[pin] = true
	m.pins[pin] = false
	return nil
}

func (m *MockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	if m.failSet[pin] {
		return errMock
	}
	m.pins[pin] = value
	return nil
}

func (m *MockGPIODriver) ReadPin(pin GPIOPin) bool {
	m.reads++
	return m.pins[pin]
}

// lineRecorder collects reporter output
type lineRecorder struct {
	lines []string
}

func (r *lineRecorder) write(line string) {
	r.lines = append(r.lines, line)
}

func (r *lineRecorder) last() string {
	if len(r.lines) == 0 {
		return ""
	}
	return r.lines[len(r.lines)-1]
}
