// Package fiberize implements a user-space actor/fiber runtime: lightweight
// tasks addressed by Path, communicating by sending typed Events into each
// other's mailboxes, scheduled cooperatively across a pool of multi-task
// schedulers with work-stealing.
//
// Construction
//   - NewSystem(opts ...Option): builds and starts a System, a self-contained
//     pool of schedulers plus the registry Send/Kill route through.
//   - System.Fiberize(fn): adopts the calling goroutine as a single-task
//     scheduler for the duration of fn.
//   - NewBuilder[A](system).Run(fn) / .Call(fn): spawns a fiber or a future
//     onto the shared multi-task pool.
//
// Defaults
// Unless overridden with an Option, a System starts with:
//   - Schedulers: runtime.GOMAXPROCS(0)
//   - IOContext: NewNoopIOContext() (no real I/O backend)
//   - Metrics: metrics.NewNoopProvider()
//
// Event dispatch
// A task binds handlers to Event paths through its Context, and drains its
// own mailbox with Context.Process/ProcessForever/ProcessUntil. Binding
// returns a ref-counted HandlerRef; releasing the last ref for a handler
// retires it on the next dispatch pass over its path.
//
// Synchronization
// Mutex and Condition are fully user-space primitives: blocking on either of
// them suspends the calling task (processing its own mailbox while it waits)
// rather than blocking its carrier goroutine, so they may only be used from
// inside a fiberize task. Spinlock is a plain busy-wait lock for short
// critical sections; it takes no Context and never suspends a task.
package fiberize
