package monitor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

// Handler receives every line in arrival order. ev is nil when err is set.
type Handler func(ev Event, err error)

// Monitor reads status lines from a stream and feeds them to Stats and a
// Handler.
type Monitor struct {
	stats   *Stats
	handler Handler
}

// New creates a monitor. handler may be nil.
func New(handler Handler) *Monitor {
	return &Monitor{
		stats:   NewStats(),
		handler: handler,
	}
}

// Stats returns the running statistics. Not safe to read while Run is
// active on another goroutine.
func (m *Monitor) Stats() *Stats {
	return m.stats
}

// Run reads lines until r ends, fails, or ctx is cancelled. Cancellation
// is checked between lines; wrap a port in PollReader so it is also seen
// while the board is silent. A clean end of stream returns nil.
func (m *Monitor) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.Feed(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read status stream: %w", err)
	}
	return ctx.Err()
}

// Feed processes one line.
func (m *Monitor) Feed(line string) {
	ev, err := ParseLine(line)
	m.stats.Observe(ev, err)
	if m.handler != nil {
		m.handler(ev, err)
	}
}

// pollReader retries empty reads until data arrives or ctx ends.
type pollReader struct {
	ctx context.Context
	r   io.Reader
}

// PollReader adapts a port opened with a read timeout. Such a port
// reports an idle timeout as (0, io.EOF); PollReader treats that as
// "nothing yet" and checks ctx between attempts, so cancellation is seen
// within one timeout even when the board is silent.
func PollReader(ctx context.Context, r io.Reader) io.Reader {
	return &pollReader{ctx: ctx, r: r}
}

func (p *pollReader) Read(b []byte) (int, error) {
	for {
		if err := p.ctx.Err(); err != nil {
			return 0, err
		}
		n, err := p.r.Read(b)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
	}
}
