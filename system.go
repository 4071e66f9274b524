package fiberize

import (
	"math/rand"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/fiberize/fiberize-go/metrics"
	"github.com/fiberize/fiberize-go/pool"
)

// System is a self-contained fiber runtime: a pool of multi-task schedulers,
// the stack pool they share, and the registry Send/Kill use to route events
// to a task by Path. Every System has its own uuid.UUID, used as the prefix
// for Prefixed paths so two Systems in the same process never collide.
type System struct {
	id uuid.UUID

	cfg       config
	metrics   metrics.Provider
	instr     instruments
	stackPool *pool.StackPool

	multitask []*MultiTaskScheduler

	mu           sync.RWMutex
	byPath       map[Path]*Task
	shuttingDown bool

	rng   *rand.Rand
	rngMu sync.Mutex
}

// instruments groups every metric instrument a System reports through, built
// once from cfg.Metrics at construction.
type instruments struct {
	tasksSpawned    metrics.Counter
	tasksActive     metrics.UpDownCounter
	mailboxDepth    metrics.UpDownCounter
	stealsSucceeded metrics.Counter
	stealsFailed    metrics.Counter
	dispatchLatency metrics.Histogram
}

func newInstruments(p metrics.Provider) instruments {
	return instruments{
		tasksSpawned: p.Counter("fiberize_tasks_spawned_total",
			metrics.WithDescription("tasks registered with a System"), metrics.WithUnit("1")),
		tasksActive: p.UpDownCounter("fiberize_tasks_active",
			metrics.WithDescription("tasks currently registered (not yet Dead)"), metrics.WithUnit("1")),
		mailboxDepth: p.UpDownCounter("fiberize_mailbox_depth",
			metrics.WithDescription("pending events across every task mailbox"), metrics.WithUnit("1")),
		stealsSucceeded: p.Counter("fiberize_scheduler_steals_succeeded_total",
			metrics.WithDescription("work-stealing attempts that found a task"), metrics.WithUnit("1")),
		stealsFailed: p.Counter("fiberize_scheduler_steals_failed_total",
			metrics.WithDescription("work-stealing attempts that found nothing"), metrics.WithUnit("1")),
		dispatchLatency: p.Histogram("fiberize_dispatch_latency_seconds",
			metrics.WithDescription("time spent inside one handler dispatch"), metrics.WithUnit("s")),
	}
}

// NewSystem constructs and starts a System.
func NewSystem(opts ...Option) (*System, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			panic("fiberize: nil option")
		}
		opt(&cfg)
	}
	if cfg.Schedulers == 0 {
		cfg.Schedulers = uint(runtime.GOMAXPROCS(0))
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	sys := &System{
		id:        uuid.New(),
		cfg:       cfg,
		metrics:   cfg.Metrics,
		instr:     newInstruments(cfg.Metrics),
		stackPool: pool.NewStackPool(),
		byPath:    make(map[Path]*Task),
		rng:       rand.New(rand.NewSource(int64(uuid.New().ID()))),
	}

	sys.multitask = make([]*MultiTaskScheduler, cfg.Schedulers)
	for i := range sys.multitask {
		sys.multitask[i] = newMultiTaskScheduler(sys, cfg.NewIOContext())
	}
	for _, s := range sys.multitask {
		s.start()
	}

	return sys, nil
}

// UUID returns the identity this System uses to build Prefixed paths.
func (s *System) UUID() uuid.UUID { return s.id }

// Schedulers returns this System's multi-task workers, in the order they were
// started, for callers that want to pin a Builder to a specific one
// (Builder.Pinned) rather than leaving placement to the usual pin/caller/
// random fallback.
func (s *System) Schedulers() []*MultiTaskScheduler {
	out := make([]*MultiTaskScheduler, len(s.multitask))
	copy(out, s.multitask)
	return out
}

// Prefixed builds a Path scoped to this System's identity.
func (s *System) Prefixed(ident Ident) Path {
	return PrefixedPath(s.id, ident)
}

// ShuttingDown reports whether Shutdown has been called.
func (s *System) ShuttingDown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shuttingDown
}

// Shutdown makes every later Builder Run/Call return a dev-null reference,
// sends the kill event to every registered task, and stops the multi-task
// workers. It does not wait for tasks to finish unwinding.
func (s *System) Shutdown() {
	s.mu.Lock()
	s.shuttingDown = true
	tasks := make([]*Task, 0, len(s.byPath))
	for _, t := range s.byPath {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	for _, t := range tasks {
		s.Kill(t.path)
	}
	for _, sched := range s.multitask {
		sched.stop()
	}
}

// Fiberize runs fn on the calling goroutine, adopting it as a single-task
// scheduler for fn's duration: this goroutine itself becomes the task's
// carrier, driving runLoop directly rather than handing off to a background
// goroutine. It blocks until fn returns or panics, then returns its outcome.
func (s *System) Fiberize(fn Runnable) (any, error) {
	t := newTask(s, s.Prefixed(s.newIdent()), fn)

	sched := newSingleTaskScheduler(s, s.cfg.NewIOContext())
	t.pinTo(sched)
	s.register(t)

	if t.beginResume() {
		sched.runLoop(t)
	}

	return t.outcome()
}

func (s *System) register(t *Task) {
	s.mu.Lock()
	s.byPath[t.path] = t
	s.mu.Unlock()

	s.instr.tasksSpawned.Add(1)
	s.instr.tasksActive.Add(1)
}

func (s *System) unregister(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byPath, t.path)
	s.instr.tasksActive.Add(-1)
}

func (s *System) lookup(p Path) (*Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byPath[p]
	return t, ok
}

// randomScheduler returns a uniformly random multi-task scheduler, used to
// pick a home for a task with no pin and no multi-tasking caller.
func (s *System) randomScheduler() *MultiTaskScheduler {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.multitask[s.rng.Intn(len(s.multitask))]
}

// dispatch hands an already-eligible t to a scheduler, choosing its home in
// priority order: t's pin, else caller (if caller is itself a multi-task
// scheduler, so work-stealing keeps hot tasks on the scheduler that last
// touched them), else a random multi-task scheduler. Callers must already
// have confirmed t is eligible (via Task.wake/beginResume/deliver) before
// calling dispatch; it does not recheck.
func (s *System) dispatch(t *Task, caller Scheduler) {
	home := t.pinnedTo()
	if home == nil {
		if caller != nil && caller.IsMultiTasking() {
			home = caller
		} else {
			home = s.randomScheduler()
		}
	}
	home.enqueue(t)
}

// Resume hands t to a scheduler if it is currently eligible to resume (see
// Task.beginResume); otherwise it is a no-op.
func (s *System) Resume(t *Task, caller Scheduler) {
	if !t.beginResume() {
		return
	}
	s.dispatch(t, caller)
}

// Send delivers payload, tagged with eventPath, to target's mailbox, waking
// target if it is currently suspended waiting on its own mailbox. eventPath
// is the key target's handlers are bound under (usually an Event's Path,
// distinct from target's own identity); it is a no-op if no task is
// registered under target, matching a DevNull send.
//
// The enqueue and the eligibility-to-resume check happen atomically inside
// Task.deliver, so a delivery racing target's own decision to suspend on an
// empty mailbox can never be silently dropped.
func (s *System) Send(target, eventPath Path, payload any) {
	if target.IsDevNull() {
		return
	}
	t, ok := s.lookup(target)
	if !ok {
		return
	}
	s.instr.mailboxDepth.Add(1)
	if t.deliver(PendingEvent{path: eventPath, payload: payload}) {
		s.dispatch(t, nil)
	}
}

// Kill sends the builtin kill event to path's task, unwinding its Runnable
// with ErrKilled the next time it processes its mailbox.
func (s *System) Kill(path Path) {
	t, ok := s.lookup(path)
	if !ok {
		return
	}
	s.instr.mailboxDepth.Add(1)
	if t.deliver(PendingEvent{path: killEvent.Path(), payload: struct{}{}}) {
		s.dispatch(t, nil)
	}
}

func (s *System) newIdent() Ident {
	s.rngMu.Lock()
	token := s.rng.Uint64()
	s.rngMu.Unlock()
	return Unique(token)
}
