package core

// FaultMonitor watches the driver's nFAULT (active low) and SNSOUT
// (current limit, active high) lines and reports level changes. It never
// acts on them.
type FaultMonitor struct {
	gpio   GPIODriver
	nFault GPIOPin
	snsOut GPIOPin

	fault bool
	limit bool
}

// NewFaultMonitor configures nFAULT with a pull-up and SNSOUT with a
// pull-down.
func NewFaultMonitor(gpio GPIODriver, nFault, snsOut GPIOPin) (*FaultMonitor, error) {
	if err := gpio.ConfigureInputPullUp(nFault); err != nil {
		return nil, err
	}
	if err := gpio.ConfigureInputPullDown(snsOut); err != nil {
		return nil, err
	}
	return &FaultMonitor{gpio: gpio, nFault: nFault, snsOut: snsOut}, nil
}

// Observe samples both lines and reports what changed since the last
// call. Both lines start out cleared, so an asserted line is reported on
// the first call.
func (f *FaultMonitor) Observe(r *Reporter) {
	fault := !f.gpio.ReadPin(f.nFault)
	limit := f.gpio.ReadPin(f.snsOut)

	if fault != f.fault {
		r.Fault(fault)
	}
	if limit != f.limit {
		r.Limit(limit)
	}
	f.fault, f.limit = fault, limit
}

// Fault reports the last observed driver fault level.
func (f *FaultMonitor) Fault() bool {
	return f.fault
}

// Limit reports the last observed current-limit level.
func (f *FaultMonitor) Limit() bool {
	return f.limit
}
