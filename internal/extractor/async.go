package extractor

import (
	"context"
)

// AsyncExtractor runs each extraction on its own goroutine. The work is
// the same as Extractor's.
type AsyncExtractor struct {
	sync *Extractor
}

func NewAsync(cfg Config) *AsyncExtractor {
	return &AsyncExtractor{sync: New(cfg)}
}

func (a *AsyncExtractor) Config() Config {
	return a.sync.Config()
}

// Pending is an extraction in flight.
type Pending struct {
	done  chan struct{}
	stats Stats
	err   error
}

func (a *AsyncExtractor) Extract(archive, dest string) *Pending {
	return start(func() (Stats, error) {
		return a.sync.Run(archive, dest)
	})
}

func (a *AsyncExtractor) ExtractFromURL(archive, dest, rawURL string) *Pending {
	return start(func() (Stats, error) {
		return a.sync.RunFromURL(archive, dest, rawURL)
	})
}

// ExtractContext waits for the extraction or for ctx. A cancelled ctx stops
// the wait, not the extraction.
func (a *AsyncExtractor) ExtractContext(ctx context.Context, archive, dest string) error {
	return a.Extract(archive, dest).Wait(ctx)
}

func start(fn func() (Stats, error)) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.stats, p.err = fn()
	}()
	return p
}

// Done is closed once the extraction has finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats is valid after Done is closed.
func (p *Pending) Stats() Stats {
	select {
	case <-p.done:
		return p.stats
	default:
		return Stats{}
	}
}
