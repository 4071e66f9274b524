// Package pool caches the per-task "stack" a scheduler hands a task on
// resume. Go gives every goroutine its own growable stack already, so this
// package does not allocate raw memory stacks the way fiberize's C++ core
// does (boost::context::make_fcontext); instead it pools the baton channel
// pair a task's goroutine parks on between handoffs. Creating
// that pair still costs two channel allocations, so caching it under a hot
// spawn/destroy loop is still worth doing, and the delayed-release discipline
// is still required: a task is still "on" its slot at the moment it
// initiates termination, so the slot cannot be reused until the terminating
// handoff completes.
package pool

import "sync"

// Slot is a task's baton: Resume is sent to by the scheduler to hand control
// to the task's goroutine; Done is sent to by the task's goroutine to hand
// control back (on suspend or on death).
type Slot struct {
	Resume chan struct{}
	Done   chan struct{}
}

func newSlot() *Slot {
	return &Slot{Resume: make(chan struct{}), Done: make(chan struct{})}
}

// StackPool is a mutex-guarded cache of Slots, safe to share among
// schedulers (a System shares one among all of its own), Get/Put shaped like
// sync.Pool but with an explicit allocation/eviction rule instead of
// sync.Pool's unspecified one.
type StackPool struct {
	mu      sync.Mutex
	cache   []*Slot
	inUse   int
	retired *Slot // single-slot holder used by DelayedDeallocate.
}

// NewStackPool constructs an empty pool.
func NewStackPool() *StackPool {
	return &StackPool{}
}

// Allocate returns a Slot, from cache if any, else newly constructed.
func (p *StackPool) Allocate() *Slot {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.inUse++
	if n := len(p.cache); n > 0 {
		s := p.cache[n-1]
		p.cache[n-1] = nil
		p.cache = p.cache[:n-1]
		return s
	}
	return newSlot()
}

// Deallocate returns s to the cache unless it is already oversized relative
// to current demand, per the |cache| < 32 + inUse/2 rule.
func (p *StackPool) Deallocate(s *Slot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.inUse--
	if len(p.cache) < 32+p.inUse/2 {
		p.cache = append(p.cache, s)
	}
}

// DelayedDeallocate stashes s in a single-slot retire holder; whatever Slot
// was stashed there before is released via Deallocate now that it is safe to
// reuse. This defers a terminating task's own slot from being handed back out
// until after the terminating handoff has actually completed.
func (p *StackPool) DelayedDeallocate(s *Slot) {
	p.mu.Lock()
	prev := p.retired
	p.retired = s
	p.mu.Unlock()

	if prev != nil {
		p.Deallocate(prev)
	}
}

// InUse reports the number of Slots currently checked out, for tests and
// metrics.
func (p *StackPool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inUse
}

// Cached reports the number of Slots currently idle in the cache.
func (p *StackPool) Cached() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cache)
}
