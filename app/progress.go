package app

import "sync"

// progressTracker serializes progress callbacks from concurrent lookups
type progressTracker struct {
	mu       sync.Mutex
	total    int
	finished int
	fn       ProgressFunc
}

func newProgressTracker(total int, fn ProgressFunc) *progressTracker {
	return &progressTracker{total: total, fn: fn}
}

func (p *progressTracker) done() {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished++
	p.fn(p.finished, p.total)
}
