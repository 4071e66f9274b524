package fiberize

// waiter is one task's reservation in a Mutex's or Condition's FIFO wait
// queue: a waiter sits in queue order until whoever holds the resource hands
// it forward by popping the front entry and marking it granted.
//
// granted is guarded by waiter.task's own lock (Task.mu), not by the
// Mutex's or Condition's own queue lock: it must change atomically with the
// waiting task's own commit to Suspended (Task.tryPark), the same way a
// mailbox delivery does, or a grant racing a suspend can be dropped exactly
// like a lost Send.
type waiter struct {
	task    *Task
	granted bool
}

// grant marks w granted and, if its task is currently eligible, marks it
// scheduled. It reports whether the caller should dispatch w.task to a
// scheduler. See Task.wake for why the flag and the eligibility check share
// one critical section.
func (w *waiter) grant() bool {
	return w.task.wake(func() { w.granted = true })
}

// isGranted reports whether w has been granted. Callers waiting on it do so
// through Context.suspendWhile rather than polling this in a tight loop.
func (w *waiter) isGranted() bool {
	w.task.mu.Lock()
	defer w.task.mu.Unlock()
	return w.granted
}

// Mutex is a fully user-space mutual-exclusion lock. Unlike sync.Mutex,
// Lock/Unlock take the waiting task's Context, because a blocked task parks
// itself by processing its own mailbox rather than by blocking its carrier
// goroutine forever: only fiberize tasks may use it.
type Mutex struct {
	mu     Spinlock
	locked bool
	queue  []*waiter
}

// NewMutex constructs an unlocked Mutex.
func NewMutex() *Mutex { return &Mutex{} }

// NewLockedMutex constructs a Mutex that starts out locked, useful for
// building other primitives (e.g. a one-shot gate) on top of it.
func NewLockedMutex() *Mutex { return &Mutex{locked: true} }

// Lock acquires the mutex, processing ctx's task's mailbox while waiting.
func (m *Mutex) Lock(ctx *Context) {
	m.mu.Lock()
	if !m.locked {
		m.locked = true
		m.mu.Unlock()
		return
	}

	w := &waiter{task: ctx.task}
	m.queue = append(m.queue, w)
	m.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			m.cancel(w)
			panic(r)
		}
	}()

	for !w.isGranted() {
		if !ctx.Process() {
			ctx.suspendWhile(func() bool { return !w.granted })
		}
	}
}

// TryLock attempts to acquire the mutex without blocking.
func (m *Mutex) TryLock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locked {
		return false
	}
	m.locked = true
	return true
}

// Unlock releases the mutex, handing it directly to the next waiter (if any)
// rather than leaving it unlocked for whoever happens to try next.
func (m *Mutex) Unlock(ctx *Context) {
	m.mu.Lock()
	if len(m.queue) == 0 {
		m.locked = false
		m.mu.Unlock()
		return
	}

	w := m.queue[0]
	m.queue = m.queue[1:]
	m.mu.Unlock()

	if w.grant() {
		w.task.system.dispatch(w.task, nil)
	}
}

// cancel removes w's reservation if it is still queued. If it was already
// granted by a racing Unlock before this task could recover from its panic,
// the grant is forwarded to the next waiter instead of being silently
// dropped.
func (m *Mutex) cancel(w *waiter) {
	m.mu.Lock()
	for i, q := range m.queue {
		if q == w {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			m.mu.Unlock()
			return
		}
	}
	// w was already popped and granted the instant before we recovered: the
	// lock is ours, but we're abandoning it, so pass it along.
	if len(m.queue) == 0 {
		m.locked = false
		m.mu.Unlock()
		return
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	m.mu.Unlock()

	if next.grant() {
		next.task.system.dispatch(next.task, nil)
	}
}
