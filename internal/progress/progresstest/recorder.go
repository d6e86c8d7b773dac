// Package progresstest provides a progress sink for tests.
package progresstest

import "sync"

// Recorder captures calls in order; handy for asserting sink behaviour.
type Recorder struct {
	mu         sync.Mutex
	Totals     []int64
	Increments []int64
	Finishes   int
}

func (r *Recorder) SetTotal(total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Totals = append(r.Totals, total)
}

func (r *Recorder) Increment(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Increments = append(r.Increments, n)
}

func (r *Recorder) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finishes++
}

func (r *Recorder) Sum() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, n := range r.Increments {
		sum += n
	}
	return sum
}
