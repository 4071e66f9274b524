package fiberize

import "sync/atomic"

// handler is a callable bound to an event path within one task's Context. It
// carries a reference count so the public HandlerRef can outlive a dispatch
// without holding the task lock.
type handler struct {
	path Path
	fn   func(any)
	refs atomic.Int32
}

func newHandler(path Path, fn func(any)) *handler {
	h := &handler{path: path, fn: fn}
	h.refs.Store(1) // the HandlerRef returned to the caller owns the first reference.
	return h
}

// destroyed reports whether the last HandlerRef has been released. A
// destroyed handler is skipped during dispatch and compacted out of its
// HandlerBlock on the next pass.
func (h *handler) destroyed() bool { return h.refs.Load() <= 0 }

func (h *handler) retain() { h.refs.Add(1) }

func (h *handler) release() { h.refs.Add(-1) }

// HandlerRef is the public, ref-counted handle to a bound handler. Dropping
// every HandlerRef for a handler marks it destroyed; the next dispatch over
// its path prunes it from the HandlerBlock.
type HandlerRef struct {
	h *handler
}

// Release drops this reference. It is safe to call at most once per
// HandlerRef value; calling it again on an already-released ref decrements
// the count a second time and under-counts, so callers must not call Release
// twice on the same value.
func (r HandlerRef) Release() {
	if r.h != nil {
		r.h.release()
	}
}

// Rebind re-activates a handler that was previously released, by retaining a
// fresh reference and returning a new HandlerRef for it. Binding, releasing,
// and binding again via Event.Bind always produces a fresh handler rather
// than reusing a destroyed one, so no separate Rebind is required by most
// callers; it is kept for advanced use where the same handler value should
// be reactivated in place. Rebind only takes effect while the handler is
// still in its handler block: once a dispatch over its path has compacted
// it out, retaining it again does not put it back.
func (r HandlerRef) Rebind() HandlerRef {
	if r.h != nil {
		r.h.retain()
	}
	return r
}

// handlerBlock is the ordered sequence of handlers bound to one path within
// one task. New handlers are appended; dispatch runs them in
// reverse order (most recently bound first), compacting out destroyed
// handlers first.
type handlerBlock struct {
	handlers []*handler
}

func (b *handlerBlock) append(h *handler) {
	b.handlers = append(b.handlers, h)
}

// compact removes destroyed handlers in place, preserving relative order.
func (b *handlerBlock) compact() {
	live := b.handlers[:0]
	for _, h := range b.handlers {
		if !h.destroyed() {
			live = append(live, h)
		}
	}
	b.handlers = live
}

func (b *handlerBlock) empty() bool { return len(b.handlers) == 0 }

// dispatch invokes every live handler in reverse order of binding (most
// recent first).
func (b *handlerBlock) dispatch(payload any) {
	for i := len(b.handlers) - 1; i >= 0; i-- {
		h := b.handlers[i]
		if !h.destroyed() {
			h.fn(payload)
		}
	}
}
