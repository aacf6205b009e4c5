package core

import "sync/atomic"

// LineWriter writes one status line; the writer adds the line ending.
type LineWriter func(string)

// Reporter formats status lines for the human-readable report sink.
// Lines are built without fmt to keep the firmware image small.
type Reporter struct {
	write   LineWriter
	queue   chan string
	dropped atomic.Uint32
}

// NewReporter writes lines synchronously until StartAsync is called.
func NewReporter(w LineWriter) *Reporter {
	if w == nil {
		w = func(string) {}
	}
	return &Reporter{write: w}
}

// StartAsync moves writing to a background goroutine behind a queue of
// depth lines. Lines that do not fit are dropped and counted, so callers
// never block on a slow link.
func (r *Reporter) StartAsync(depth int) {
	if r.queue != nil {
		return
	}
	if depth < 1 {
		depth = 1
	}
	r.queue = make(chan string, depth)
	go r.worker(r.queue)
}

// worker drains the queue in the background
func (r *Reporter) worker(queue chan string) {
	for line := range queue {
		r.write(line)
	}
}

func (r *Reporter) emit(line string) {
	if r.queue == nil {
		r.write(line)
		return
	}
	select {
	case r.queue <- line:
	default:
		r.dropped.Add(1)
	}
}

// Dropped returns how many lines were discarded on a full queue.
func (r *Reporter) Dropped() uint32 {
	return r.dropped.Load()
}

// Boot announces the firmware and its capture parameters.
func (r *Reporter) Boot(depth int, bits uint8, wrap uint32) {
	r.emit("boot motorboard depth=" + itoa(depth) +
		" bits=" + utoa(uint32(bits)) +
		" wrap=" + utoa(wrap))
}

// MotorState reports an enable transition.
func (r *Reporter) MotorState(s MotorEnableState) {
	r.emit("motor " + s.String())
}

// Duty reports a newly applied command with its percentage in tenths.
func (r *Reporter) Duty(cmd DutyCommand, percentTenths int32) {
	fwd, rev := cmd.Levels()
	r.emit("duty forward=" + utoa(uint32(fwd)) +
		" reverse=" + utoa(uint32(rev)) +
		" percent=" + tenthsToString(percentTenths))
}

// Current reports a measured current sample.
func (r *Reporter) Current(value float32) {
	r.emit("current value=" + ftoa(value, 4))
}

// Fault reports a change of the driver fault line.
func (r *Reporter) Fault(asserted bool) {
	r.emit("fault driver=" + assertedString(asserted))
}

// Limit reports a change of the current-limit indicator.
func (r *Reporter) Limit(asserted bool) {
	r.emit("limit current=" + assertedString(asserted))
}

// AcquisitionError reports a failure to start acquisition.
func (r *Reporter) AcquisitionError(err error) {
	r.emit("error acquisition " + err.Error())
}

// LoopError reports a failed control loop iteration.
func (r *Reporter) LoopError(err error) {
	r.emit("error loop " + err.Error())
}

// Halt reports that the firmware stopped operating.
func (r *Reporter) Halt(reason string) {
	r.emit("halt " + reason)
}

func assertedString(asserted bool) string {
	if asserted {
		return "asserted"
	}
	return "cleared"
}
