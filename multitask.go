package fiberize

import (
	"math/rand"
	"sync"
	"time"
)

// MultiTaskScheduler runs an unbounded number of tasks on one worker
// goroutine, switching between them cooperatively and stealing work from
// its peers when its own run queue is empty: local dequeue pops from the
// back (LIFO, cache-warm task first), stealing takes from the front of a
// peer's queue (FIFO, so a thief takes the peer's oldest, least cache-warm
// task), and a pinned task is never stolen.
type MultiTaskScheduler struct {
	system *System
	io     IOContext

	tasksMu sync.Mutex
	tasks   []*Task

	quit chan struct{}
}

func newMultiTaskScheduler(system *System, io IOContext) *MultiTaskScheduler {
	return &MultiTaskScheduler{
		system: system,
		io:     io,
		quit:   make(chan struct{}),
	}
}

func (s *MultiTaskScheduler) IsMultiTasking() bool { return true }

// enqueue appends an already scheduled-marked task to the back of this
// scheduler's run queue.
func (s *MultiTaskScheduler) enqueue(t *Task) {
	s.tasksMu.Lock()
	s.tasks = append(s.tasks, t)
	s.tasksMu.Unlock()
}

// pushFront puts a yielded task back at the very front. Local dequeue pops
// from the back, so every task already queued here runs before it does, and
// it is the first task a stealing peer would take.
func (s *MultiTaskScheduler) pushFront(t *Task) {
	s.tasksMu.Lock()
	s.tasks = append([]*Task{t}, s.tasks...)
	s.tasksMu.Unlock()
}

// popBack takes the most recently enqueued task off this scheduler's own
// queue (LIFO local dequeue).
func (s *MultiTaskScheduler) popBack() (*Task, bool) {
	s.tasksMu.Lock()
	defer s.tasksMu.Unlock()

	n := len(s.tasks)
	if n == 0 {
		return nil, false
	}
	t := s.tasks[n-1]
	s.tasks = s.tasks[:n-1]
	return t, true
}

// stealFrom takes the oldest unpinned task off the front of this
// scheduler's queue, for a peer scheduler that has run out of work of its
// own.
func (s *MultiTaskScheduler) stealFrom() (*Task, bool) {
	s.tasksMu.Lock()
	defer s.tasksMu.Unlock()

	for i, t := range s.tasks {
		if t.pinnedTo() != nil {
			continue
		}
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
		return t, true
	}
	return nil, false
}

func (s *MultiTaskScheduler) start() {
	go s.run()
}

func (s *MultiTaskScheduler) stop() {
	close(s.quit)
}

// run is this scheduler's idle loop: drain its own queue, then try stealing
// from a random peer, then poll I/O, falling back to a short sleep so the
// loop doesn't spin a core at 100% with nothing to do.
func (s *MultiTaskScheduler) run() {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(len(s.system.multitask))))

	for {
		select {
		case <-s.quit:
			return
		default:
		}

		if t, ok := s.popBack(); ok {
			s.switchTo(t)
			continue
		}

		peers := s.system.multitask
		if len(peers) > 1 {
			i := rng.Intn(len(peers) - 1)
			peer := peerExcluding(peers, s, i)
			if t, ok := peer.stealFrom(); ok {
				s.system.instr.stealsSucceeded.Add(1)
				s.switchTo(t)
				continue
			}
			s.system.instr.stealsFailed.Add(1)
		}

		if s.io == nil || !s.io.Poll() {
			time.Sleep(time.Nanosecond)
		}
	}
}

func peerExcluding(peers []*MultiTaskScheduler, self *MultiTaskScheduler, i int) *MultiTaskScheduler {
	idx := 0
	for _, p := range peers {
		if p == self {
			continue
		}
		if idx == i {
			return p
		}
		idx++
	}
	return self
}

// switchTo hands t its baton, blocks until it hands control back, then
// decides what to do with it based on the state it left itself in. Go's
// goroutines make the stack-context-switch machinery that would otherwise
// be needed here unnecessary.
func (s *MultiTaskScheduler) switchTo(t *Task) {
	slot := t.ensureLaunched()
	t.setRunningOn(s)

	slot.Resume <- struct{}{}
	<-slot.Done
	s.io.ThrottledPoll()

	status, reschedule := t.afterHandoff()
	switch {
	case status == Dead:
		t.clearScheduled()
		s.system.unregister(t)
		s.system.stackPool.DelayedDeallocate(slot)
	case reschedule:
		s.pushFront(t)
	default:
		t.clearScheduled()
	}
}
