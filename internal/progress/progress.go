// Package progress provides domain.ProgressSink implementations.
package progress

import (
	"io"
	"sync/atomic"

	"github.com/teamcutter/unarc/internal/domain"
)

// Nop discards every call.
type Nop struct{}

func (Nop) SetTotal(int64)  {}
func (Nop) Increment(int64) {}
func (Nop) Finish()         {}

// OrNop returns s, or Nop when s is nil.
func OrNop(s domain.ProgressSink) domain.ProgressSink {
	if s == nil {
		return Nop{}
	}
	return s
}

// Counter keeps running totals and can be read while an extraction runs.
type Counter struct {
	total    atomic.Int64
	done     atomic.Int64
	finished atomic.Bool
}

func (c *Counter) SetTotal(total int64) { c.total.Store(total) }
func (c *Counter) Increment(n int64)    { c.done.Add(n) }
func (c *Counter) Finish()              { c.finished.Store(true) }

func (c *Counter) Total() int64   { return c.total.Load() }
func (c *Counter) Done() int64    { return c.done.Load() }
func (c *Counter) Finished() bool { return c.finished.Load() }

type tee []domain.ProgressSink

// Tee fans every call out to all non-nil sinks in order.
func Tee(sinks ...domain.ProgressSink) domain.ProgressSink {
	var t tee
	for _, s := range sinks {
		if s != nil {
			t = append(t, s)
		}
	}
	if len(t) == 0 {
		return Nop{}
	}
	if len(t) == 1 {
		return t[0]
	}
	return t
}

func (t tee) SetTotal(total int64) {
	for _, s := range t {
		s.SetTotal(total)
	}
}

func (t tee) Increment(n int64) {
	for _, s := range t {
		s.Increment(n)
	}
}

func (t tee) Finish() {
	for _, s := range t {
		s.Finish()
	}
}

// Reader reports every successful read to a sink.
type Reader struct {
	r    io.Reader
	sink domain.ProgressSink
	read int64
}

func NewReader(r io.Reader, sink domain.ProgressSink) *Reader {
	return &Reader{r: r, sink: OrNop(sink)}
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.read += int64(n)
		r.sink.Increment(int64(n))
	}
	return n, err
}

func (r *Reader) BytesRead() int64 {
	return r.read
}
