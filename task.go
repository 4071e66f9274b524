package fiberize

import (
	"fmt"
	"sync"

	"github.com/fiberize/fiberize-go/pool"
)

// Status is a task's lifecycle state.
type Status int

const (
	Starting Status = iota
	Running
	Suspended
	Dead
)

func (s Status) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// Runnable is the body a task executes once, on its own goroutine, with a
// Context through which it yields, suspends, and binds handlers.
type Runnable func(ctx *Context) (any, error)

// Task is one schedulable unit: a path, a mailbox, a set of bound handlers,
// and the lifecycle bookkeeping a Scheduler needs to hand it control and take
// it back. Every field below is guarded by mu except path and
// system, which never change after construction.
type Task struct {
	path   Path
	system *System

	mu         sync.Mutex
	status     Status
	scheduled  bool // true while this task sits in some scheduler's queue or is running
	reschedule bool // set by Yield, read by the scheduler after the handoff completes
	pin        Scheduler
	runningOn  Scheduler // whichever scheduler most recently resumed this task

	mailbox      *Mailbox
	handlers     map[Path]*handlerBlock
	builtinBound bool

	runnable Runnable
	result   any
	err      error

	onComplete func(*Task)

	slot *pool.Slot // lazily allocated on first resume
}

func newTask(system *System, path Path, runnable Runnable) *Task {
	return &Task{
		system:   system,
		path:     path,
		status:   Starting,
		mailbox:  NewMailbox(),
		handlers: make(map[Path]*handlerBlock),
		runnable: runnable,
	}
}

// wake applies mutate (if non-nil) under t.mu and then validates whether t is
// eligible to be handed to a scheduler, marking it scheduled if so. It
// reports whether the caller should actually enqueue t.
//
// Folding the state change a resume is conditioned on (a mailbox delivery, a
// Mutex/Condition grant) into the very same critical section that decides
// eligibility is what closes the lost-wakeup race: tryPark commits a task to
// Suspended only after confirming, under this same lock, that no such change
// is pending. Either mutate's effect is visible before tryPark commits (so
// tryPark refuses to park and the task's own loop observes it), or it lands
// after tryPark already committed (so wake sees Suspended and schedules it)
// — there is no gap in which a wakeup can land and be silently dropped.
func (t *Task) wake(mutate func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if mutate != nil {
		mutate()
	}
	if t.scheduled {
		return false
	}
	switch t.status {
	case Starting, Suspended:
		t.scheduled = true
		return true
	default:
		return false
	}
}

// beginResume validates that t is eligible to be handed to a scheduler and,
// if so, marks it scheduled. It reports whether the caller should actually
// enqueue t: a task that is Running, Dead, or already scheduled is a no-op.
func (t *Task) beginResume() bool {
	return t.wake(nil)
}

// deliver enqueues ev into t's mailbox and, atomically with that enqueue,
// marks t scheduled if it is currently eligible to resume. It reports
// whether the caller should hand t to a scheduler. See wake for why the
// enqueue and the eligibility check must share one critical section.
func (t *Task) deliver(ev PendingEvent) bool {
	return t.wake(func() { t.mailbox.Enqueue(ev) })
}

// pinTo pins t to s so future resumes always route to the same scheduler.
func (t *Task) pinTo(s Scheduler) {
	t.mu.Lock()
	t.pin = s
	t.mu.Unlock()
}

func (t *Task) pinnedTo() Scheduler {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pin
}

// setRunningOn records which scheduler is about to resume t. Called by a
// scheduler immediately before signaling t's slot.
func (t *Task) setRunningOn(s Scheduler) {
	t.mu.Lock()
	t.runningOn = s
	t.mu.Unlock()
}

func (t *Task) currentScheduler() Scheduler {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runningOn
}

func (t *Task) isDead() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status == Dead
}

// outcome returns the value/error a finished task's Runnable produced. It is
// only meaningful once isDead reports true.
func (t *Task) outcome() (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

// markRunning transitions a just-resumed task to Running and clears the
// reschedule flag the previous suspension may have left set.
func (t *Task) markRunning() {
	t.mu.Lock()
	t.status = Running
	t.reschedule = false
	t.mu.Unlock()
}

// requestYield is called by the task's own goroutine, through Context.Yield,
// to ask the scheduler to put it back at the front of the run queue after
// this handoff. Unlike a suspend, nothing external races a yield to wake
// this task up — the owning scheduler re-examines reschedule itself right
// after the handoff — so no eligibility recheck is needed here.
func (t *Task) requestYield() {
	t.mu.Lock()
	t.status = Suspended
	t.reschedule = true
	t.mu.Unlock()
}

// tryPark commits t to Suspended, but only if its mailbox is still empty
// and, when stillWaiting is non-nil, stillWaiting() still reports true —
// both checked under t.mu. It reports whether it actually parked.
//
// stillWaiting runs while t.mu is held, so a closure that reads state a
// racing wake also mutates under t.mu (a Mutex/Condition waiter's granted
// flag, say) observes a consistent snapshot: see wake's doc for why this
// pairing can never drop a wakeup.
func (t *Task) tryPark(stillWaiting func() bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.mailbox.Empty() {
		return false
	}
	if stillWaiting != nil && !stillWaiting() {
		return false
	}
	t.status = Suspended
	t.reschedule = false
	return true
}

// finish transitions t to Dead, records its outcome, drops its handler
// blocks so any further dispatch against t's path is silently a no-op, and
// clears the events still queued in its mailbox.
func (t *Task) finish(result any, err error) {
	t.mu.Lock()
	t.status = Dead
	t.result = result
	t.err = newTaskError(t.path, err)
	handlers := t.handlers
	t.handlers = nil
	t.mu.Unlock()

	t.mailbox.Clear()

	for _, block := range handlers {
		block.handlers = nil
	}

	if t.onComplete != nil {
		t.onComplete(t)
	}
}

// afterHandoff is read by a scheduler immediately after a Resume/Done
// round-trip completes, to decide what to do with t next.
func (t *Task) afterHandoff() (status Status, reschedule bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status, t.reschedule
}

// clearScheduled marks t as no longer owned by any scheduler queue. Called by
// a scheduler once it has decided not to immediately re-enqueue t.
func (t *Task) clearScheduled() {
	t.mu.Lock()
	t.scheduled = false
	t.mu.Unlock()
}

// bindHandler appends h to t's handler block for path, creating the block if
// necessary.
func (t *Task) bindHandler(path Path, h *handler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handlers == nil {
		return // task already finished; the binding is simply discarded.
	}
	block, ok := t.handlers[path]
	if !ok {
		block = &handlerBlock{}
		t.handlers[path] = block
	}
	block.append(h)
}

// handlerBlockFor returns the handler block bound to path, if any.
func (t *Task) handlerBlockFor(path Path) (*handlerBlock, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handlers == nil {
		return nil, false
	}
	b, ok := t.handlers[path]
	return b, ok
}

// pruneHandlerBlock removes path's handler block entirely once it is empty,
// rather than leaving empty entries around forever.
func (t *Task) pruneHandlerBlock(path Path) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handlers == nil {
		return
	}
	if b, ok := t.handlers[path]; ok && b.empty() {
		delete(t.handlers, path)
	}
}

// ensureLaunched allocates this task's baton slot and starts its persistent
// goroutine the first time any scheduler resumes it. Later resumes reuse the
// same slot and goroutine; the goroutine itself never exits until the task's
// Runnable returns or panics.
func (t *Task) ensureLaunched() *pool.Slot {
	t.mu.Lock()
	if t.slot != nil {
		slot := t.slot
		t.mu.Unlock()
		return slot
	}
	slot := t.system.stackPool.Allocate()
	t.slot = slot
	t.mu.Unlock()

	go t.run(slot)
	return slot
}

// currentSlot returns the slot ensureLaunched assigned to t. Callers must
// only invoke it after ensureLaunched has returned at least once.
func (t *Task) currentSlot() *pool.Slot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.slot
}

// run is the task's persistent goroutine body: block for the first Resume,
// execute the Runnable to completion (recovering any panic, including
// ErrKilled's propagation through a killed task), record the outcome, and
// hand control back one last time.
func (t *Task) run(slot *pool.Slot) {
	<-slot.Resume
	t.markRunning()

	ctx := newContext(t)
	result, err := t.invoke(ctx)
	t.finish(result, err)

	slot.Done <- struct{}{}
}

func (t *Task) invoke(ctx *Context) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%s: task panicked: %v", Namespace, r)
			}
		}
	}()
	return t.runnable(ctx)
}

// park is called by this task's own goroutine, through Context, to hand
// control back to whichever scheduler is currently running it and block
// until the next resume. reschedule asks the owning scheduler to put this
// task straight back at the front of its run queue (a yield) instead of
// leaving it parked until something external resumes it (a suspend).
//
// stillWaiting is only consulted on the suspend path (see tryPark); it is
// ignored when reschedule is true. If tryPark declines to commit to
// Suspended because the wait condition was already satisfied in the gap,
// park returns immediately without blocking: the caller's loop simply
// observes the satisfied condition on its next pass instead of this task
// ever truly yielding its goroutine.
func (t *Task) park(reschedule bool, stillWaiting func() bool) {
	if reschedule {
		t.requestYield()
	} else if !t.tryPark(stillWaiting) {
		return
	}

	slot := t.currentSlot()
	slot.Done <- struct{}{}
	<-slot.Resume
	t.markRunning()
}
