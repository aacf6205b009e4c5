// Package monitor decodes the motor board's status lines into typed
// events and keeps running statistics over them.
package monitor

import "fmt"

// Event is one decoded status line.
type Event interface {
	// Line returns the text the event was parsed from
	Line() string
}

type raw struct{ text string }

func (r raw) Line() string { return r.text }

// Boot is emitted once after configuration is loaded.
type Boot struct {
	raw
	Depth int
	Bits  int
	Wrap  uint32
}

// MotorState reports a debounced enable transition.
type MotorState struct {
	raw
	Enabled bool
}

// Duty is a new bridge command.
type Duty struct {
	raw
	Forward       uint32
	Reverse       uint32
	PercentTenths int32
}

// Percent returns the signed duty as a float.
func (d Duty) Percent() float64 {
	return float64(d.PercentTenths) / 10
}

// Current is one scaled current-sense block mean.
type Current struct {
	raw
	Value float64
}

// Fault reports the driver fault line changing.
type Fault struct {
	raw
	Asserted bool
}

// Limit reports the driver current-limit line changing.
type Limit struct {
	raw
	Asserted bool
}

// Error reports a firmware error; Source is "acquisition" or "loop".
type Error struct {
	raw
	Source  string
	Message string
}

// Halt means the firmware stopped driving the motor for good.
type Halt struct {
	raw
	Reason string
}

// Unknown is any line the parser does not recognize.
type Unknown struct {
	raw
}

// Describe renders an event for the console.
func Describe(ev Event) string {
	switch e := ev.(type) {
	case Boot:
		return fmt.Sprintf("boot: depth %d, %d-bit samples, wrap %d", e.Depth, e.Bits, e.Wrap)
	case MotorState:
		if e.Enabled {
			return "motor: ENABLED"
		}
		return "motor: disabled"
	case Duty:
		return fmt.Sprintf("duty: %+.1f%% (forward %d, reverse %d)", e.Percent(), e.Forward, e.Reverse)
	case Current:
		return fmt.Sprintf("current: %.4f", e.Value)
	case Fault:
		return "fault: " + assertedWord(e.Asserted)
	case Limit:
		return "current limit: " + assertedWord(e.Asserted)
	case Error:
		return fmt.Sprintf("ERROR (%s): %s", e.Source, e.Message)
	case Halt:
		return "HALTED: " + e.Reason
	default:
		return ev.Line()
	}
}

func assertedWord(asserted bool) string {
	if asserted {
		return "ASSERTED"
	}
	return "cleared"
}
