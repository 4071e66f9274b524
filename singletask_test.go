package fiberize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSingleTaskScheduler_IsNotMultiTasking(t *testing.T) {
	s := newSingleTaskScheduler(nil, NewNoopIOContext())
	require.False(t, s.IsMultiTasking())
}

// TestSingleTaskScheduler_OSThreadTaskRunsToCompletion exercises
// Builder.OSThread: the spawned task gets its own carrier goroutine via a
// dedicated SingleTaskScheduler instead of the shared multi-task pool.
func TestSingleTaskScheduler_OSThreadTaskRunsToCompletion(t *testing.T) {
	sys, err := NewSystem(WithSchedulers(2))
	require.NoError(t, err)
	defer sys.Shutdown()

	value, err := sys.Fiberize(func(parent *Context) (any, error) {
		fut := NewBuilder[int](sys).OSThread().Call(func(ctx *Context) (int, error) {
			return 42, nil
		})
		r := fut.Await(parent)
		return r.Value, r.Err
	})
	require.NoError(t, err)
	require.Equal(t, 42, value)
}

// TestSingleTaskScheduler_OSThreadTaskYieldsAndSuspends exercises that an
// OS-thread task can still Yield and suspend waiting on its own mailbox, the
// same as a microthread, just hosted on its own goroutine.
func TestSingleTaskScheduler_OSThreadTaskYieldsAndSuspends(t *testing.T) {
	sys, err := NewSystem(WithSchedulers(2))
	require.NoError(t, err)
	defer sys.Shutdown()

	tick := NamedEvent[int]("fiberize/test/os-thread-tick")

	fut := NewBuilder[int](sys).OSThread().Call(func(ctx *Context) (int, error) {
		ctx.Yield()
		return tick.Await(ctx), nil
	})

	time.Sleep(10 * time.Millisecond)
	Send(fut.FiberRef, tick, 7)

	value, err := sys.Fiberize(func(ctx *Context) (any, error) {
		r := fut.Await(ctx)
		return r.Value, r.Err
	})
	require.NoError(t, err)
	require.Equal(t, 7, value)
}
