package fiberize

// SingleTaskScheduler hosts exactly one task for its entire lifetime, used
// for a Fiberize-adopted goroutine or a Builder.OSThread task that needs a
// whole carrier goroutine to itself. Unlike MultiTaskScheduler it has no run
// queue: exactly one goroutine owns it and runs runLoop for the task's
// entire lifetime — the adopted goroutine for Fiberize, or a goroutine
// dedicated to it for a Builder.OSThread task. Every other goroutine that
// wants to resume the hosted task (Send, Kill, a later Builder.Pinned
// resume) only ever calls enqueue, which just wakes that one owning
// goroutine up; it never drives the handoff itself. This mirrors spec.md
// §4.4: resume "transfers the lock into a pending slot owned by the
// scheduler" rather than running the task on the resuming thread.
type SingleTaskScheduler struct {
	system *System
	io     IOContext
}

func newSingleTaskScheduler(system *System, io IOContext) *SingleTaskScheduler {
	return &SingleTaskScheduler{system: system, io: io}
}

func (s *SingleTaskScheduler) IsMultiTasking() bool { return false }

// enqueue wakes this scheduler's runLoop by stopping its blocking I/O wait;
// it never runs the handoff itself and never blocks its caller. runLoop must
// already be running on this scheduler's owning goroutine by the time
// anything but that goroutine calls enqueue (true for every resume past the
// first, since the owning goroutine starts runLoop before the task can
// suspend for the first time).
func (s *SingleTaskScheduler) enqueue(t *Task) {
	s.io.StopLoop()
}

// runLoop drives t's entire lifetime on the calling goroutine: hand it the
// baton, wait for it to hand control back, then either resume it again
// immediately (it yielded), retire it (it finished), or park until some
// other goroutine calls enqueue (it suspended on its own mailbox). Parking
// between suspends is driven by the IOContext itself — spec.md §4.4: the
// owning goroutine blocks inside RunLoop, and enqueue's StopLoop is what
// wakes it — rather than a scheduler-private channel, so a real I/O-backed
// IOContext can fold waiting for the next resume and waiting for I/O into
// the same blocking call. The caller must have already marked t scheduled
// via Task.beginResume.
func (s *SingleTaskScheduler) runLoop(t *Task) {
	slot := t.ensureLaunched()
	t.setRunningOn(s)

	for {
		slot.Resume <- struct{}{}
		<-slot.Done

		status, reschedule := t.afterHandoff()
		if status == Dead {
			t.clearScheduled()
			s.system.unregister(t)
			s.system.stackPool.DelayedDeallocate(slot)
			return
		}
		if reschedule {
			continue
		}
		t.clearScheduled()
		s.io.RunLoop()
	}
}
