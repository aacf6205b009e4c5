// Acquisition scheduler
// Alternates DMA block captures between the current-sense and setpoint
// inputs, driven entirely by the block completion interrupt.
package core

import (
	"errors"
	"sync/atomic"
)

// MaxCaptureDepth keeps the uint32 block sum of 16-bit samples from overflowing.
const MaxCaptureDepth = 65536

// ErrInvalidCaptureDepth is returned for a depth outside 1..MaxCaptureDepth.
var ErrInvalidCaptureDepth = errors.New("capture depth out of range")

// AcquisitionConfig describes the fixed two-channel capture.
type AcquisitionConfig struct {
	ADC           ADCConfig
	Depth         int          // Samples per block (D)
	CurrentInput  ADCChannelID // Shunt amplifier input
	SetpointInput ADCChannelID // Operator potentiometer input
	CurrentScale  float32      // Engineering units per count of the block mean
}

// Scheduler owns the channel alternation state and the reused sample block.
type Scheduler struct {
	adc   BlockADC
	store SamplePublisher
	cfg   AcquisitionConfig

	block  []ADCValue
	inputs [numAnalogChannels]ADCChannelID

	// Only touched from the completion handler, or before it is armed
	active AnalogChannel

	completed [numAnalogChannels]atomic.Uint32
}

// NewScheduler allocates the sample block. Nothing touches the hardware
// until Start.
func NewScheduler(adc BlockADC, store SamplePublisher, cfg AcquisitionConfig) (*Scheduler, error) {
	if cfg.Depth < 1 || cfg.Depth > MaxCaptureDepth {
		return nil, ErrInvalidCaptureDepth
	}

	s := &Scheduler{
		adc:    adc,
		store:  store,
		cfg:    cfg,
		block:  make([]ADCValue, cfg.Depth),
		active: CurrentSense,
	}
	s.inputs[CurrentSense] = cfg.CurrentInput
	s.inputs[Setpoint] = cfg.SetpointInput
	return s, nil
}

// Start initializes the ADC, claims the transfer engine and arms the first
// block on the current-sense input. A claim failure is returned as is; no
// retry is attempted.
func (s *Scheduler) Start() error {
	if err := s.adc.Init(s.cfg.ADC); err != nil {
		return err
	}
	if err := s.adc.ConfigureChannel(s.cfg.CurrentInput); err != nil {
		return err
	}
	if err := s.adc.ConfigureChannel(s.cfg.SetpointInput); err != nil {
		return err
	}
	if err := s.adc.Claim(); err != nil {
		return err
	}

	s.adc.SetCompletionHandler(s.HandleCompletion)

	// The first completion must not observe a half-armed transfer.
	state := disableInterrupts()
	s.active = CurrentSense
	s.adc.Arm(s.inputs[s.active], s.block)
	s.adc.Resume()
	restoreInterrupts(state)

	return nil
}

// HandleCompletion runs in interrupt context when a block has landed.
func (s *Scheduler) HandleCompletion() {
	s.adc.Halt()
	s.adc.Acknowledge()

	mean := BlockMean(s.block)

	// Publish before switching: the loop may look at any instant.
	ch := s.active
	switch ch {
	case CurrentSense:
		s.store.Publish(CurrentSense, float32(mean)*s.cfg.CurrentScale)
	case Setpoint:
		s.store.Publish(Setpoint, float32(mean))
	}
	s.completed[ch].Add(1)

	s.active = ch.Next()
	s.adc.Arm(s.inputs[s.active], s.block)
	s.adc.Resume()
}

// Completed returns the number of blocks finished for ch.
func (s *Scheduler) Completed(ch AnalogChannel) uint32 {
	return s.completed[ch].Load()
}

// BlockMean is the integer arithmetic mean of block (0 for an empty block).
func BlockMean(block []ADCValue) uint32 {
	if len(block) == 0 {
		return 0
	}
	var sum uint32
	for _, v := range block {
		sum += uint32(v)
	}
	return sum / uint32(len(block))
}
