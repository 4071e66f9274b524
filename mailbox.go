package fiberize

import "sync"

// PendingEvent is the in-mailbox representation of a sent event:
// a path, an opaque owned payload, and an optional drop thunk the owning task
// must invoke exactly once after dispatch (or on mailbox destruction) to
// release any resource the payload holds. Most payloads need no drop thunk;
// it exists for the rare payload that owns something GC won't reclaim on its
// own (a pooled buffer, an open handle).
type PendingEvent struct {
	path    Path
	payload any
	drop    func(any)
}

func (e PendingEvent) release() {
	if e.drop != nil {
		e.drop(e.payload)
	}
}

// Mailbox is the FIFO queue of pending events for one task.
// Enqueue is called from arbitrary goroutines; Dequeue is only ever called by
// the owning task's own goroutine. A mutex-guarded slice satisfies the
// contract: the simplest correct primitive over lock-free machinery.
type Mailbox struct {
	mu    sync.Mutex
	items []PendingEvent
}

// NewMailbox constructs an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Enqueue appends ev to the tail of the queue.
func (m *Mailbox) Enqueue(ev PendingEvent) {
	m.mu.Lock()
	m.items = append(m.items, ev)
	m.mu.Unlock()
}

// Dequeue removes and returns the event at the head of the queue. It reports
// false if the mailbox was empty.
func (m *Mailbox) Dequeue() (PendingEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return PendingEvent{}, false
	}
	ev := m.items[0]
	m.items[0] = PendingEvent{}
	m.items = m.items[1:]
	return ev, true
}

// Empty reports whether the queue currently holds no events.
func (m *Mailbox) Empty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items) == 0
}

// Clear drops every pending event, invoking each one's drop thunk. Task.finish
// calls it when a task dies with unshipped events still queued.
func (m *Mailbox) Clear() {
	m.mu.Lock()
	items := m.items
	m.items = nil
	m.mu.Unlock()

	for _, ev := range items {
		ev.release()
	}
}
