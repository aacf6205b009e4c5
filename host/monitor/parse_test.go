package monitor

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	testCases := []struct {
		line string
		want Event
	}{
		{"boot motorboard depth=512 bits=8 wrap=2560", Boot{Depth: 512, Bits: 8, Wrap: 2560}},
		{"motor enabled", MotorState{Enabled: true}},
		{"motor disabled\r", MotorState{Enabled: false}},
		{"duty forward=0 reverse=1280 percent=-50.0", Duty{Forward: 0, Reverse: 1280, PercentTenths: -500}},
		{"duty forward=2540 reverse=0 percent=99.2", Duty{Forward: 2540, Reverse: 0, PercentTenths: 992}},
		{"duty forward=0 reverse=10 percent=-0.5", Duty{Reverse: 10, PercentTenths: -5}},
		{"current value=1.6500", Current{Value: 1.65}},
		{"fault driver=asserted", Fault{Asserted: true}},
		{"limit current=cleared", Limit{Asserted: false}},
		{"error acquisition block transfer engine unavailable", Error{Source: "acquisition", Message: "block transfer engine unavailable"}},
		{"error loop it's \"quoted\"", Error{Source: "loop", Message: "it's \"quoted\""}},
		{"halt acquisition", Halt{Reason: "acquisition"}},
		{"something else entirely", Unknown{}},
		{"", Unknown{}},
	}

	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			ev, err := ParseLine(tc.line)
			if err != nil {
				t.Fatalf("ParseLine(%q) error: %v", tc.line, err)
			}
			if ev.Line() != strings.TrimRight(tc.line, "\r\n") {
				t.Errorf("Line() = %q", ev.Line())
			}
			if !sameEvent(ev, tc.want) {
				t.Errorf("ParseLine(%q) = %#v, want %#v", tc.line, ev, tc.want)
			}
			t.Logf("%s", Describe(ev))
		})
	}
}

// sameEvent compares events ignoring the source text
func sameEvent(got, want Event) bool {
	switch w := want.(type) {
	case Boot:
		g, ok := got.(Boot)
		return ok && g.Depth == w.Depth && g.Bits == w.Bits && g.Wrap == w.Wrap
	case MotorState:
		g, ok := got.(MotorState)
		return ok && g.Enabled == w.Enabled
	case Duty:
		g, ok := got.(Duty)
		return ok && g.Forward == w.Forward && g.Reverse == w.Reverse && g.PercentTenths == w.PercentTenths
	case Current:
		g, ok := got.(Current)
		return ok && math.Abs(g.Value-w.Value) < 1e-9
	case Fault:
		g, ok := got.(Fault)
		return ok && g.Asserted == w.Asserted
	case Limit:
		g, ok := got.(Limit)
		return ok && g.Asserted == w.Asserted
	case Error:
		g, ok := got.(Error)
		return ok && g.Source == w.Source && g.Message == w.Message
	case Halt:
		g, ok := got.(Halt)
		return ok && g.Reason == w.Reason
	case Unknown:
		_, ok := got.(Unknown)
		return ok
	}
	return false
}

func TestParseLineMalformed(t *testing.T) {
	lines := []string{
		"boot depth=512 bits=8 wrap=2560",
		"boot motorboard depth=x bits=8 wrap=2560",
		"motor sideways",
		"motor",
		"duty forward=0 reverse=0",
		"duty forward=0 reverse=0 percent=50",
		"current value=lots",
		"current 1.65",
		"fault driver=maybe",
		"limit",
		"error",
		"duty forward=\"0",
	}
	for _, line := range lines {
		ev, err := ParseLine(line)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("ParseLine(%q) = %v, %v; want ErrMalformed", line, ev, err)
		}
	}
}

func TestStats(t *testing.T) {
	s := NewStats()
	feed := func(line string) {
		ev, err := ParseLine(line)
		s.Observe(ev, err)
	}

	feed("boot motorboard depth=512 bits=8 wrap=2560")
	feed("motor enabled")
	feed("current value=1.0000")
	feed("current value=3.0000")
	feed("current value=2.0000")
	feed("duty forward=0 reverse=1280 percent=-50.0")
	feed("fault driver=asserted")
	feed("limit current=asserted")
	feed("garbage")
	feed("current value=oops")
	feed("error loop control step panicked")

	if s.Lines != 11 || s.Unknown != 1 || s.Malformed != 1 || s.Errors != 1 {
		t.Errorf("counts = lines %d unknown %d malformed %d errors %d", s.Lines, s.Unknown, s.Malformed, s.Errors)
	}
	if s.CurrentSamples != 3 || s.CurrentMin != 1 || s.CurrentMax != 3 || s.CurrentMean() != 2 {
		t.Errorf("current stats = n %d min %v max %v mean %v", s.CurrentSamples, s.CurrentMin, s.CurrentMax, s.CurrentMean())
	}
	if s.LastDuty == nil || s.LastDuty.PercentTenths != -500 {
		t.Errorf("LastDuty = %+v", s.LastDuty)
	}
	if !s.Enabled || !s.Fault || !s.Limit {
		t.Errorf("state = enabled %v fault %v limit %v", s.Enabled, s.Fault, s.Limit)
	}

	feed("halt acquisition")
	if !s.Halted || s.Enabled {
		t.Error("halt not tracked")
	}

	// Reboot clears board state but keeps history
	feed("boot motorboard depth=512 bits=8 wrap=2560")
	if s.Halted || s.Fault || s.LastDuty != nil || s.CurrentSamples != 3 {
		t.Errorf("after reboot: %+v", s)
	}
	t.Logf("\n%s", s.Summary())
}

func TestStatsEmpty(t *testing.T) {
	s := NewStats()
	if s.CurrentMean() != 0 {
		t.Errorf("CurrentMean = %v, want 0", s.CurrentMean())
	}
	if !strings.Contains(s.Summary(), "no samples") {
		t.Errorf("Summary = %q", s.Summary())
	}
}

func TestMonitorRun(t *testing.T) {
	input := "boot motorboard depth=512 bits=8 wrap=2560\r\n" +
		"current value=1.6500\r\n" +
		"duty forward=0 reverse=1280 percent=-50.0\r\n" +
		"hello\r\n"

	var got []Event
	var errs int
	m := New(func(ev Event, err error) {
		if err != nil {
			errs++
			return
		}
		got = append(got, ev)
	})

	if err := m.Run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 4 || errs != 0 {
		t.Fatalf("events = %d, errors = %d", len(got), errs)
	}
	if _, ok := got[3].(Unknown); !ok {
		t.Errorf("last event = %#v, want Unknown", got[3])
	}
	if m.Stats().CurrentSamples != 1 {
		t.Errorf("CurrentSamples = %d", m.Stats().CurrentSamples)
	}
}

func TestMonitorRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := New(nil)
	err := m.Run(ctx, strings.NewReader("motor enabled\n"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
	if m.Stats().Lines != 0 {
		t.Errorf("processed %d lines after cancel", m.Stats().Lines)
	}
}
