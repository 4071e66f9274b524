package fiberize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestCondition_SignalWakesOldestWaiterFirst exercises the FIFO ticket
// ordering: two tasks Await the same Condition guarded by the same Spinlock,
// and single Signals must wake them in the order they queued, not in any
// other order.
func TestCondition_SignalWakesOldestWaiterFirst(t *testing.T) {
	sys, err := NewSystem(WithSchedulers(3))
	require.NoError(t, err)
	defer sys.Shutdown()

	var guard Spinlock
	cond := NewCondition()

	order := make(chan string, 2)
	firstReady := make(chan struct{})
	secondReady := make(chan struct{})

	NewBuilder[any](sys).Run(func(ctx *Context) error {
		guard.Lock()
		close(firstReady)
		cond.Await(ctx, &guard)
		guard.Unlock()
		order <- "first"
		return nil
	})

	<-firstReady
	time.Sleep(5 * time.Millisecond)

	NewBuilder[any](sys).Run(func(ctx *Context) error {
		guard.Lock()
		close(secondReady)
		cond.Await(ctx, &guard)
		guard.Unlock()
		order <- "second"
		return nil
	})

	<-secondReady
	time.Sleep(5 * time.Millisecond)

	cond.Signal()
	require.Equal(t, "first", <-order)

	cond.Signal()
	require.Equal(t, "second", <-order)
}

func TestCondition_SignalAllWakesEveryWaiter(t *testing.T) {
	sys, err := NewSystem(WithSchedulers(4))
	require.NoError(t, err)
	defer sys.Shutdown()

	var guard Spinlock
	cond := NewCondition()

	const n = 5
	woken := make(chan int, n)
	ready := make(chan struct{}, n)

	for i := 0; i < n; i++ {
		i := i
		NewBuilder[any](sys).Run(func(ctx *Context) error {
			guard.Lock()
			ready <- struct{}{}
			cond.Await(ctx, &guard)
			guard.Unlock()
			woken <- i
			return nil
		})
	}

	for i := 0; i < n; i++ {
		<-ready
	}
	time.Sleep(10 * time.Millisecond)

	cond.SignalAll()

	seen := map[int]bool{}
	for i := 0; i < n; i++ {
		select {
		case v := <-woken:
			seen[v] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for a waiter to wake")
		}
	}
	require.Len(t, seen, n)
}

// TestCondition_KillWhileWaitingCancelsReservationNotTheSignal verifies the
// cancellation-recovery rule: killing a waiting task removes its own ticket
// without swallowing a Signal meant for someone else.
func TestCondition_KillWhileWaitingCancelsReservationNotTheSignal(t *testing.T) {
	sys, err := NewSystem(WithSchedulers(2))
	require.NoError(t, err)
	defer sys.Shutdown()

	var guard Spinlock
	cond := NewCondition()

	victimReady := make(chan struct{})
	victim := NewBuilder[struct{}](sys).Call(func(ctx *Context) (struct{}, error) {
		guard.Lock()
		// Await re-locks guard before a kill unwinds it, so the release has to
		// be deferred for the survivor to be able to take guard afterwards.
		defer guard.Unlock()
		close(victimReady)
		cond.Await(ctx, &guard)
		return struct{}{}, nil
	})

	<-victimReady
	time.Sleep(5 * time.Millisecond)
	victim.Kill()

	survivorReady := make(chan struct{})
	survivorDone := make(chan struct{})
	NewBuilder[any](sys).Run(func(ctx *Context) error {
		guard.Lock()
		close(survivorReady)
		cond.Await(ctx, &guard)
		guard.Unlock()
		close(survivorDone)
		return nil
	})

	<-survivorReady
	time.Sleep(5 * time.Millisecond)
	cond.Signal()

	select {
	case <-survivorDone:
	case <-time.After(2 * time.Second):
		t.Fatal("surviving waiter was never woken")
	}

	killed, err := sys.Fiberize(func(ctx *Context) (any, error) {
		r := victim.Await(ctx)
		return nil, r.Err
	})
	_ = killed
	require.ErrorIs(t, err, ErrKilled)
}
