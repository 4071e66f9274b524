package fiberize

// Builder configures a task before spawning it. A Builder fresh from
// NewBuilder describes an unnamed, unpinned fiber scheduled on the shared
// multi-task pool. Each method mutates and returns the receiver, so calls
// chain; Run/Call seal the builder, and any further configuration call
// after that panics with ErrSealedBuilder.
type Builder[A any] struct {
	system   *System
	ident    Ident
	named    bool
	pinned   *SingleTaskScheduler
	pin      Scheduler
	detached bool
	sealed   bool
}

// NewBuilder constructs a Builder bound to system.
func NewBuilder[A any](system *System) *Builder[A] {
	return &Builder[A]{system: system}
}

func (b *Builder[A]) ensureUnsealed() {
	if b.sealed {
		panic(ErrSealedBuilder)
	}
}

// Named gives the spawned task a stable path component instead of a freshly
// generated unique one, so other code can address it by name without
// first receiving a FiberRef.
func (b *Builder[A]) Named(name string) *Builder[A] {
	b.ensureUnsealed()
	b.ident = Named(name)
	b.named = true
	return b
}

// Unnamed discards any name set by a previous Named call, reverting to a
// freshly generated unique identifier.
func (b *Builder[A]) Unnamed() *Builder[A] {
	b.ensureUnsealed()
	b.named = false
	return b
}

// Pinned locks the spawned task to scheduler s for its entire lifetime: s
// never loses the task to work-stealing, and every resume routes back to s
// regardless of which goroutine calls it.
// Passing one of a System's own MultiTaskSchedulers (see System.Schedulers)
// pins the task to a specific worker instead of the usual random choice.
func (b *Builder[A]) Pinned(s Scheduler) *Builder[A] {
	b.ensureUnsealed()
	b.pin = s
	return b
}

// Detached marks the spawned task as fire-and-forget: the caller does not
// intend to hold onto the returned ref. Go's garbage collector reclaims the
// Task once it is Dead and unregistered regardless, so Detached has no
// additional mechanical effect here; it exists so callers can express that
// intent explicitly, and as a hook future instrumentation (e.g. a "detached
// tasks in flight" gauge) can key off.
func (b *Builder[A]) Detached() *Builder[A] {
	b.ensureUnsealed()
	b.detached = true
	return b
}

// Microthread schedules the spawned task on the shared multi-task pool,
// the default. Calling it after OSThread or Pinned undoes either,
// reverting to ordinary work-stealing routing.
func (b *Builder[A]) Microthread() *Builder[A] {
	b.ensureUnsealed()
	b.pinned = nil
	b.pin = nil
	return b
}

// OSThread dedicates a whole carrier goroutine to the spawned task instead
// of scheduling it on the shared multi-task pool, for tasks that must not
// share a thread with others (blocking syscalls, thread-affine resources).
func (b *Builder[A]) OSThread() *Builder[A] {
	b.ensureUnsealed()
	b.pinned = newSingleTaskScheduler(b.system, b.system.cfg.NewIOContext())
	return b
}

func (b *Builder[A]) identOrFresh() Ident {
	if b.named {
		return b.ident
	}
	return b.system.newIdent()
}

// spawn registers and resumes a task, unless the system is shutting down, in
// which case it reports false and spawns nothing.
func (b *Builder[A]) spawn(runnable Runnable, onComplete func(*Task)) (*Task, bool) {
	if b.system.ShuttingDown() {
		return nil, false
	}

	path := b.system.Prefixed(b.identOrFresh())
	t := newTask(b.system, path, runnable)
	t.onComplete = onComplete

	if b.pinned != nil {
		// OSThread: dedicate a brand new goroutine to drive this task's
		// entire lifetime, so Run/Call returns to its caller immediately
		// instead of borrowing the caller's goroutine as the carrier.
		t.pinTo(b.pinned)
		b.system.register(t)
		if t.beginResume() {
			go b.pinned.runLoop(t)
		}
		return t, true
	}

	if b.pin != nil {
		t.pinTo(b.pin)
	}
	b.system.register(t)
	b.system.Resume(t, nil)
	return t, true
}

// Run spawns fn as a plain fiber with no result, returning a FiberRef other
// tasks can Send events to.
func (b *Builder[A]) Run(fn func(ctx *Context) error) FiberRef {
	b.ensureUnsealed()
	b.sealed = true

	t, spawned := b.spawn(func(ctx *Context) (any, error) {
		return nil, fn(ctx)
	}, nil)
	if !spawned {
		return FiberRef{system: b.system, path: DevNullPath()}
	}
	return FiberRef{system: b.system, path: t.path}
}

// Call spawns fn as a future, returning a FutureRef[A] whose Await blocks
// the calling task until fn completes. The promise is completed from the
// task's onComplete hook rather than from inside the wrapped Runnable, so a
// kill (which unwinds fn via panic, never reaching a normal return) still
// delivers ErrKilled to anything awaiting the future: Task.invoke's own
// recover already turns that panic into t's outcome, and every path through
// finish calls onComplete exactly once.
func (b *Builder[A]) Call(fn func(ctx *Context) (A, error)) FutureRef[A] {
	b.ensureUnsealed()
	b.sealed = true

	promise := NewPromise[A]()
	t, spawned := b.spawn(func(ctx *Context) (any, error) {
		return fn(ctx)
	}, func(t *Task) {
		result, err := t.outcome()
		if err != nil {
			promise.Fail(err)
			return
		}
		v, _ := result.(A)
		promise.Deliver(v)
	})
	if !spawned {
		promise.Fail(ErrNullAwaitable)
		return FutureRef[A]{FiberRef: FiberRef{system: b.system, path: DevNullPath()}, promise: promise}
	}

	return FutureRef[A]{FiberRef: FiberRef{system: b.system, path: t.path}, promise: promise}
}

// FiberRef is a handle to a spawned task, used to Send it events or Kill it.
// The zero value is a dev-null ref: every operation on it is silently
// discarded.
type FiberRef struct {
	system *System
	path   Path
}

// Path returns the path this ref addresses.
func (r FiberRef) Path() Path { return r.path }

// Kill asks the referenced task to unwind via ErrKilled.
func (r FiberRef) Kill() {
	if r.system == nil {
		return
	}
	r.system.Kill(r.path)
}

// Send delivers value, addressed by ev, to the referenced task's mailbox.
func Send[A any](r FiberRef, ev Event[A], value A) {
	if r.system == nil {
		return
	}
	r.system.Send(r.path, ev.Path(), value)
}

// FutureRef is a FiberRef for a task spawned with Builder.Call, adding Await
// to retrieve its eventual Result.
type FutureRef[A any] struct {
	FiberRef
	promise *Promise[A]
}

// Await blocks ctx's task, processing its mailbox, until the future
// completes, then returns its Result.
func (f FutureRef[A]) Await(ctx *Context) Result[A] {
	return f.promise.Await(ctx)
}
