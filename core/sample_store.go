package core

import (
	"math"
	"sync/atomic"
)

// AnalogChannel is a logical acquisition channel.
type AnalogChannel uint8

const (
	CurrentSense AnalogChannel = iota
	Setpoint

	numAnalogChannels = 2
)

// Next returns the channel acquired after c.
func (c AnalogChannel) Next() AnalogChannel {
	if c == CurrentSense {
		return Setpoint
	}
	return CurrentSense
}

func (c AnalogChannel) String() string {
	switch c {
	case CurrentSense:
		return "current"
	case Setpoint:
		return "setpoint"
	default:
		return "unknown"
	}
}

// SamplePublisher is the write side of the store, held by the acquisition
// scheduler only.
type SamplePublisher interface {
	Publish(ch AnalogChannel, value float32)
}

// SampleConsumer is the read-and-clear side of the store, held by the
// control loop only.
type SampleConsumer interface {
	TryConsume(ch AnalogChannel) (float32, bool)
}

// slotReady marks a published, not yet consumed value. The low 32 bits of
// a slot hold the float32 bits of the value.
const slotReady = uint64(1) << 32

// SampleStore holds the latest value and ready flag per channel.
//
// Value and flag share one atomic word, so a reader that sees the flag
// also sees the value stored with it, and a consume that races a publish
// either takes the new value or leaves it ready.
type SampleStore struct {
	slots [numAnalogChannels]atomic.Uint64
}

// NewSampleStore returns an empty store with no channel ready.
func NewSampleStore() *SampleStore {
	return &SampleStore{}
}

// Publish stores value for ch and marks it ready.
func (s *SampleStore) Publish(ch AnalogChannel, value float32) {
	s.slots[ch].Store(uint64(math.Float32bits(value)) | slotReady)
}

// TryConsume returns the ready value for ch and clears the flag. It
// reports false if nothing was published since the last consume.
func (s *SampleStore) TryConsume(ch AnalogChannel) (float32, bool) {
	slot := &s.slots[ch]
	for {
		word := slot.Load()
		if word&slotReady == 0 {
			return 0, false
		}
		if slot.CompareAndSwap(word, word&^slotReady) {
			return math.Float32frombits(uint32(word)), true
		}
	}
}

// Ready reports whether ch holds an unconsumed value.
func (s *SampleStore) Ready(ch AnalogChannel) bool {
	return s.slots[ch].Load()&slotReady != 0
}
