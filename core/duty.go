package core

// Direction is the bridge leg a duty command drives.
type Direction uint8

const (
	DirectionNeutral Direction = iota
	DirectionForward
	DirectionReverse
)

// Inverted returns the opposite leg; neutral stays neutral.
func (d Direction) Inverted() Direction {
	switch d {
	case DirectionForward:
		return DirectionReverse
	case DirectionReverse:
		return DirectionForward
	default:
		return DirectionNeutral
	}
}

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionReverse:
		return "reverse"
	default:
		return "neutral"
	}
}

// DutyCommand is a bipolar bridge command. Only one leg can carry a
// magnitude, so forward and reverse can never both be on.
type DutyCommand struct {
	Direction Direction
	Magnitude PWMValue

	// Offset is the signed setpoint (sample - range/2) the command came from.
	Offset int32
}

// Levels splits the command into (forward, reverse) compare levels.
func (c DutyCommand) Levels() (forward, reverse PWMValue) {
	switch c.Direction {
	case DirectionForward:
		return c.Magnitude, 0
	case DirectionReverse:
		return 0, c.Magnitude
	default:
		return 0, 0
	}
}

// DutyMapper maps a raw setpoint sample in [0, Range) onto the bridge.
type DutyMapper struct {
	Range uint32 // Sample range M, e.g. 256 for 8-bit samples
	Gain  uint32 // Compare counts per unit of offset
}

// NewDutyMapper scales the half range onto wrap.
func NewDutyMapper(sampleRange, wrap uint32) DutyMapper {
	half := sampleRange / 2
	if half == 0 {
		return DutyMapper{Range: sampleRange}
	}
	return DutyMapper{Range: sampleRange, Gain: wrap / half}
}

// Map converts a sample to a command. Samples outside the range are not
// checked.
func (m DutyMapper) Map(sample uint32) DutyCommand {
	offset := int32(sample) - int32(m.Range/2)
	switch {
	case offset < 0:
		return DutyCommand{
			Direction: DirectionReverse,
			Magnitude: PWMValue(uint32(-offset) * m.Gain),
			Offset:    offset,
		}
	case offset > 0:
		return DutyCommand{
			Direction: DirectionForward,
			Magnitude: PWMValue(uint32(offset) * m.Gain),
			Offset:    offset,
		}
	default:
		return DutyCommand{Direction: DirectionNeutral}
	}
}

// PercentTenths is the signed offset as tenths of a percent of the half
// range: -1000 is full reverse, 1000 full forward.
func (m DutyMapper) PercentTenths(c DutyCommand) int32 {
	half := int32(m.Range / 2)
	if half == 0 {
		return 0
	}
	return c.Offset * 1000 / half
}
