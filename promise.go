package fiberize

// Promise is a one-shot, write-once slot a task waits on with Await.
// A Spinlock guards the completion flag and a Condition wakes every waiter
// once it is set.
// Delivering a Promise never itself needs a task Context, since it only ever
// takes the Spinlock briefly; only Await, which may have to suspend the
// calling task, does.
type Promise[A any] struct {
	guard     Spinlock
	cond      *Condition
	completed bool
	result    Result[A]
}

// NewPromise constructs an undelivered Promise.
func NewPromise[A any]() *Promise[A] {
	return &Promise[A]{cond: NewCondition()}
}

// NewPromiseFromEvent builds a Promise that delivers itself the first time
// ev fires against ctx's task.
func NewPromiseFromEvent[A any](ctx *Context, ev Event[A]) *Promise[A] {
	p := NewPromise[A]()
	var ref HandlerRef
	ref = ev.Bind(ctx, func(v A) {
		p.Deliver(v)
		ref.Release()
	})
	return p
}

// Deliver completes the promise with a value. Delivering an already-completed
// promise is a no-op: the first delivery wins.
func (p *Promise[A]) Deliver(value A) {
	p.complete(Result[A]{Value: value})
}

// Fail completes the promise with an error.
func (p *Promise[A]) Fail(err error) {
	p.complete(Result[A]{Err: err})
}

func (p *Promise[A]) complete(r Result[A]) {
	p.guard.Lock()
	if p.completed {
		p.guard.Unlock()
		return
	}
	p.completed = true
	p.result = r
	p.guard.Unlock()

	p.cond.SignalAll()
}

// Await blocks ctx's task, processing its mailbox, until the promise is
// completed, then returns its Result.
func (p *Promise[A]) Await(ctx *Context) Result[A] {
	p.guard.Lock()
	defer p.guard.Unlock()
	for !p.completed {
		p.cond.Await(ctx, &p.guard)
	}
	return p.result
}
