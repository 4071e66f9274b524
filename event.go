package fiberize

// Event is a typed handle consisting of a Path and a phantom payload type A.
// Two events are equal iff their paths are equal; the type parameter never
// appears in an Event value, only in the methods that send and receive
// through it.
type Event[A any] struct {
	path Path
}

// NewEvent constructs a dev-null event.
func NewEvent[A any]() Event[A] { return Event[A]{path: DevNullPath()} }

// NamedEvent constructs a Global(Named(name)) event.
func NamedEvent[A any](name string) Event[A] { return Event[A]{path: GlobalPath(Named(name))} }

// EventFromPath wraps an existing path as a typed event handle.
func EventFromPath[A any](p Path) Event[A] { return Event[A]{path: p} }

// Path returns the event's path.
func (e Event[A]) Path() Path { return e.path }

// Equal reports whether e and other address the same path.
func (e Event[A]) Equal(other Event[A]) bool { return e.path == other.path }

// Bind registers handler for this event's path in ctx's task, returning a
// ref-counted handle that keeps the handler alive until released.
func (e Event[A]) Bind(ctx *Context, handler func(A)) HandlerRef {
	return ctx.bind(e.path, func(payload any) {
		handler(payload.(A))
	})
}

// Await suspends ctx's task, processing other events, until a value is sent
// to this event's path, then returns it.
func (e Event[A]) Await(ctx *Context) A {
	var (
		value A
		done  bool
	)

	ref := e.Bind(ctx, func(v A) {
		value = v
		done = true
	})
	defer ref.Release()

	ctx.ProcessUntil(&done)
	return value
}
