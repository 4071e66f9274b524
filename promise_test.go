package fiberize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPromise_DeliverThenAwaitReturnsValue(t *testing.T) {
	sys, err := NewSystem(WithSchedulers(1))
	require.NoError(t, err)
	defer sys.Shutdown()

	p := NewPromise[int]()
	p.Deliver(7)

	value, err := sys.Fiberize(func(ctx *Context) (any, error) {
		r := p.Await(ctx)
		return r.Value, r.Err
	})
	require.NoError(t, err)
	require.Equal(t, 7, value)
}

func TestPromise_AwaitBlocksUntilDeliveredFromAnotherTask(t *testing.T) {
	sys, err := NewSystem(WithSchedulers(2))
	require.NoError(t, err)
	defer sys.Shutdown()

	p := NewPromise[string]()

	NewBuilder[any](sys).Run(func(ctx *Context) error {
		p.Deliver("hello")
		return nil
	})

	value, err := sys.Fiberize(func(ctx *Context) (any, error) {
		r := p.Await(ctx)
		return r.Value, r.Err
	})
	require.NoError(t, err)
	require.Equal(t, "hello", value)
}

func TestPromise_FirstCompletionWins(t *testing.T) {
	p := NewPromise[int]()
	p.Deliver(1)
	p.Deliver(2)
	p.Fail(ErrInvalidState)

	sys, err := NewSystem(WithSchedulers(1))
	require.NoError(t, err)
	defer sys.Shutdown()

	value, err := sys.Fiberize(func(ctx *Context) (any, error) {
		r := p.Await(ctx)
		return r.Value, r.Err
	})
	require.NoError(t, err)
	require.Equal(t, 1, value)
}

func TestPromise_FailDeliversErrorResult(t *testing.T) {
	sys, err := NewSystem(WithSchedulers(1))
	require.NoError(t, err)
	defer sys.Shutdown()

	p := NewPromise[int]()
	p.Fail(ErrInvalidState)

	_, err = sys.Fiberize(func(ctx *Context) (any, error) {
		r := p.Await(ctx)
		return r.Value, r.Err
	})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestPromise_NewPromiseFromEventDeliversOnFirstFire(t *testing.T) {
	sys, err := NewSystem(WithSchedulers(2))
	require.NoError(t, err)
	defer sys.Shutdown()

	tick := NamedEvent[int]("fiberize/test/promise-from-event")

	value, err := sys.Fiberize(func(ctx *Context) (any, error) {
		p := NewPromiseFromEvent[int](ctx, tick)
		Send(FiberRef{system: sys, path: ctx.Self()}, tick, 99)
		r := p.Await(ctx)
		return r.Value, r.Err
	})
	require.NoError(t, err)
	require.Equal(t, 99, value)
}
