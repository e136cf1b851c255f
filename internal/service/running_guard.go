package service

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// jobGuard: at most one run per job key
// ─────────────────────────────────────────────────────────────

// jobGuard admits one run per key at a time and lets shutdown wait for the
// runs in flight. The zero value is ready to use.
type jobGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// Acquire claims key. It returns false while another run holds it.
func (g *jobGuard) Acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.running[key]; busy {
		return false
	}
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	g.running[key] = struct{}{}
	g.wg.Add(1)
	return true
}

// Release frees key. Call it exactly once per successful Acquire.
func (g *jobGuard) Release(key string) {
	g.mu.Lock()
	delete(g.running, key)
	g.mu.Unlock()
	g.wg.Done()
}

// Busy reports whether key is held.
func (g *jobGuard) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.running[key]
	return busy
}

// Wait blocks until every held key is released or ctx ends.
func (g *jobGuard) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
