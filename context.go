package fiberize

import "time"

// killEvent is the well-known event every task has a builtin handler for:
// receiving it unwinds the task's Runnable via panic(ErrKilled).
var killEvent = NamedEvent[struct{}]("fiberize/kill")

// Context is the façade a task's Runnable uses to find out who it is, bind
// and await events, and hand control back to its scheduler. It is
// constructed once per task launch and lives for that task's entire run,
// even though the scheduler driving it may change between suspensions
// through work-stealing: Context never caches a *Scheduler, it always reads
// through to the Task, which is the single source of truth for routing.
type Context struct {
	task *Task

	selfRef     FiberRef
	selfRefInit bool
}

func newContext(task *Task) *Context {
	ctx := &Context{task: task}
	ctx.ensureBuiltins()
	return ctx
}

// ensureBuiltins binds the kill handler exactly once per task.
func (c *Context) ensureBuiltins() {
	c.task.mu.Lock()
	if c.task.builtinBound {
		c.task.mu.Unlock()
		return
	}
	c.task.builtinBound = true
	c.task.mu.Unlock()

	killEvent.Bind(c, func(struct{}) {
		panic(ErrKilled)
	})
}

// Self returns the path this task is addressed by.
func (c *Context) Self() Path { return c.task.path }

// FiberRef lazily materializes and caches a FiberRef addressing this task
// itself: callers that need to hand their own address to another task (as
// Send's reply-to, say) get it without constructing a FiberRef by hand each
// time.
func (c *Context) FiberRef() FiberRef {
	if !c.selfRefInit {
		c.selfRef = FiberRef{system: c.task.system, path: c.task.path}
		c.selfRefInit = true
	}
	return c.selfRef
}

// Yield gives up the remainder of this task's time slice but asks to be put
// straight back at the front of its scheduler's run queue.
func (c *Context) Yield() {
	c.task.park(true, nil)
}

// suspend blocks this task until something resumes it, without asking to be
// requeued immediately. Used when there is no pending mailbox work left to
// process.
func (c *Context) suspend() {
	c.task.park(false, nil)
}

// suspendWhile blocks like suspend, but only commits to parking if
// stillWaiting still reports true once this task's own lock is held; if a
// racing wakeup already satisfied it in the gap, suspendWhile returns
// immediately without blocking. Mutex and Condition use it to wait on a
// grant that lives outside the mailbox, so that grant and this task's
// commit to Suspended are checked atomically — see Task.tryPark.
func (c *Context) suspendWhile(stillWaiting func() bool) {
	c.task.park(false, stillWaiting)
}

// bind registers fn to fire whenever path is emitted against this task,
// returning a ref the caller releases to unbind it. Event.Bind is the typed
// entry point callers use; this is the untyped mechanism it wraps.
func (c *Context) bind(path Path, fn func(any)) HandlerRef {
	h := newHandler(path, fn)
	c.task.bindHandler(path, h)
	return HandlerRef{h: h}
}

// handleEvent dispatches one dequeued mailbox entry against its handler
// block, compacting out destroyed handlers first and pruning the block
// entirely if it ends up empty.
func (c *Context) handleEvent(pending PendingEvent) {
	defer pending.release()

	block, ok := c.task.handlerBlockFor(pending.path)
	if !ok {
		return
	}
	block.compact()
	block.dispatch(pending.payload)
	c.task.pruneHandlerBlock(pending.path)
}

// processOne handles at most one pending mailbox event without blocking,
// reporting whether it found one to handle.
func (c *Context) processOne() bool {
	pending, ok := c.task.mailbox.Dequeue()
	if !ok {
		return false
	}
	c.task.system.instr.mailboxDepth.Add(-1)

	start := time.Now()
	c.handleEvent(pending)
	c.task.system.instr.dispatchLatency.Record(time.Since(start).Seconds())
	return true
}

// Process drains every event currently sitting in this task's mailbox,
// without blocking: it never suspends, so it returns once the mailbox runs
// dry even if more events arrive later. It reports whether it handled at
// least one event.
func (c *Context) Process() bool {
	handled := false
	for c.processOne() {
		handled = true
	}
	return handled
}

// ProcessForever processes events for as long as this task lives, suspending
// between mailbox entries. It only returns if the task is killed or its
// Runnable otherwise unwinds out of the call, so it is normally the last
// statement in a long-lived fiber's body.
func (c *Context) ProcessForever() {
	for {
		if !c.processOne() {
			c.suspend()
		}
	}
}

// ProcessUntil processes events, suspending between them, until *done is
// true. It is how Event.Await and Promise waits drive the dispatch loop far
// enough to observe their own completion handler fire.
func (c *Context) ProcessUntil(done *bool) {
	for !*done {
		if !c.processOne() {
			c.suspend()
		}
	}
}
