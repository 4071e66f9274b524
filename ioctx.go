package fiberize

// IOContext is the pollable non-blocking I/O backend every scheduler needs a
// per-instance handle to. fiberize-go does not implement one: timers,
// filesystem, and socket polling are explicitly out of scope, left to a
// caller-supplied backend (e.g. an event loop wrapping epoll/kqueue or a
// library like libuv). A scheduler with no real I/O workload can be built
// with NoopIOContext.
type IOContext interface {
	// Poll performs one non-blocking pass and reports whether it did work.
	Poll() bool

	// ThrottledPoll performs a budgeted poll, called by a multi-task
	// scheduler after every context switch.
	ThrottledPoll()

	// RunLoop blocks until StopLoop is called.
	RunLoop()

	// RunLoopNoWait performs one non-blocking pass of the blocking loop.
	RunLoopNoWait()

	// StopLoop causes a blocked RunLoop to return.
	StopLoop()
}

// NoopIOContext is an IOContext that never has work to do. It is useful for
// schedulers whose tasks only synchronize via mailboxes, mutexes, and
// promises, never real I/O.
type NoopIOContext struct {
	stop chan struct{}
}

// NewNoopIOContext constructs a NoopIOContext.
func NewNoopIOContext() *NoopIOContext {
	return &NoopIOContext{stop: make(chan struct{}, 1)}
}

func (*NoopIOContext) Poll() bool     { return false }
func (*NoopIOContext) ThrottledPoll() {}
func (*NoopIOContext) RunLoopNoWait() {}

func (c *NoopIOContext) RunLoop() {
	<-c.stop
}

func (c *NoopIOContext) StopLoop() {
	select {
	case c.stop <- struct{}{}:
	default:
	}
}
