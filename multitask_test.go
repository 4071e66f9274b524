package fiberize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newBareTask builds a Task with a no-op runnable, suitable for exercising a
// MultiTaskScheduler's queue directly without actually running it.
func newBareTask(path string) *Task {
	sys := &System{}
	return newTask(sys, GlobalPath(Named(path)), func(*Context) (any, error) { return nil, nil })
}

func TestMultiTaskScheduler_PopBackIsLIFO(t *testing.T) {
	s := newMultiTaskScheduler(nil, nil)
	a, b, c := newBareTask("a"), newBareTask("b"), newBareTask("c")
	s.enqueue(a)
	s.enqueue(b)
	s.enqueue(c)

	got, ok := s.popBack()
	require.True(t, ok)
	require.Same(t, c, got)

	got, ok = s.popBack()
	require.True(t, ok)
	require.Same(t, b, got)

	got, ok = s.popBack()
	require.True(t, ok)
	require.Same(t, a, got)

	_, ok = s.popBack()
	require.False(t, ok)
}

func TestMultiTaskScheduler_StealFromIsFIFOAndSkipsPinned(t *testing.T) {
	s := newMultiTaskScheduler(nil, nil)
	a, b, c := newBareTask("a"), newBareTask("b"), newBareTask("c")
	a.pinTo(s) // a is pinned; it must never be stolen.
	s.enqueue(a)
	s.enqueue(b)
	s.enqueue(c)

	got, ok := s.stealFrom()
	require.True(t, ok)
	require.Same(t, b, got, "stealFrom must take the oldest unpinned task")

	got, ok = s.stealFrom()
	require.True(t, ok)
	require.Same(t, c, got)

	// Only the pinned task a is left; stealFrom must refuse to take it.
	_, ok = s.stealFrom()
	require.False(t, ok)
}

func TestMultiTaskScheduler_PushFrontPutsTaskAheadOfQueue(t *testing.T) {
	s := newMultiTaskScheduler(nil, nil)
	a, b := newBareTask("a"), newBareTask("b")
	s.enqueue(a)
	s.pushFront(b)

	got, ok := s.popBack()
	require.True(t, ok)
	require.Same(t, a, got, "popBack is still LIFO from the back regardless of pushFront")

	got, ok = s.popBack()
	require.True(t, ok)
	require.Same(t, b, got)
}

// TestMultiTaskScheduler_PinnedTaskNeverMigrates runs a real System and
// checks that a task pinned to a specific scheduler keeps reporting that
// same scheduler as its home across repeated yields, i.e. work-stealing
// never relocates it.
func TestMultiTaskScheduler_PinnedTaskNeverMigrates(t *testing.T) {
	sys, err := NewSystem(WithSchedulers(4))
	require.NoError(t, err)
	defer sys.Shutdown()

	home := sys.Schedulers()[0]

	const rounds = 30
	mismatches := make(chan bool, 1)
	done := make(chan struct{})

	NewBuilder[any](sys).Pinned(home).Run(func(ctx *Context) error {
		for i := 0; i < rounds; i++ {
			if ctx.task.currentScheduler() != Scheduler(home) {
				mismatches <- true
				close(done)
				return nil
			}
			ctx.Yield()
		}
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pinned task")
	}

	select {
	case <-mismatches:
		t.Fatal("pinned task ran on a scheduler other than its pin")
	default:
	}
}
