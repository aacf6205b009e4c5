package monitor

import (
	"fmt"
	"math"
)

// Stats accumulates what the monitor has seen since it started.
type Stats struct {
	Lines     int
	Unknown   int
	Malformed int

	CurrentSamples int
	CurrentMin     float64
	CurrentMax     float64
	currentSum     float64

	LastDuty *Duty
	Enabled  bool
	Fault    bool
	Limit    bool
	Errors   int
	Halted   bool
}

// NewStats returns empty statistics.
func NewStats() *Stats {
	return &Stats{
		CurrentMin: math.Inf(1),
		CurrentMax: math.Inf(-1),
	}
}

// Observe folds one parse result into the statistics. A nil event with
// an error counts as a malformed line.
func (s *Stats) Observe(ev Event, err error) {
	s.Lines++
	if err != nil {
		s.Malformed++
		return
	}

	switch e := ev.(type) {
	case Current:
		s.CurrentSamples++
		s.currentSum += e.Value
		s.CurrentMin = math.Min(s.CurrentMin, e.Value)
		s.CurrentMax = math.Max(s.CurrentMax, e.Value)
	case Duty:
		d := e
		s.LastDuty = &d
	case MotorState:
		s.Enabled = e.Enabled
	case Fault:
		s.Fault = e.Asserted
	case Limit:
		s.Limit = e.Asserted
	case Error:
		s.Errors++
	case Halt:
		s.Halted = true
		s.Enabled = false
	case Boot:
		// A reboot resets the board's state, not the history
		s.Enabled = false
		s.Fault = false
		s.Limit = false
		s.Halted = false
		s.LastDuty = nil
	case Unknown:
		s.Unknown++
	}
}

// CurrentMean returns the mean of all current samples, 0 with none.
func (s *Stats) CurrentMean() float64 {
	if s.CurrentSamples == 0 {
		return 0
	}
	return s.currentSum / float64(s.CurrentSamples)
}

// Summary renders the statistics for the console.
func (s *Stats) Summary() string {
	out := fmt.Sprintf("lines %d (unknown %d, malformed %d), errors %d\n",
		s.Lines, s.Unknown, s.Malformed, s.Errors)
	if s.CurrentSamples > 0 {
		out += fmt.Sprintf("current: %d samples, min %.4f, max %.4f, mean %.4f\n",
			s.CurrentSamples, s.CurrentMin, s.CurrentMax, s.CurrentMean())
	} else {
		out += "current: no samples\n"
	}
	if s.LastDuty != nil {
		out += fmt.Sprintf("last duty: %+.1f%%\n", s.LastDuty.Percent())
	}
	out += fmt.Sprintf("motor enabled %v, fault %v, limit %v, halted %v",
		s.Enabled, s.Fault, s.Limit, s.Halted)
	return out
}
