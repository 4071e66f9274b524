package fiberize

// Scheduler is the common interface implemented by MultiTaskScheduler and
// SingleTaskScheduler. enqueue hands an already scheduled-marked task to
// this scheduler's home queue or wakes the one task a single-task scheduler
// hosts. A task gives control back to whichever scheduler is currently
// driving it directly through Task's own park/finish machinery (task.go),
// not through this interface: by the time a task parks, the scheduler side
// is simply blocked reading the task's Done channel, so no further
// scheduler-specific call is needed on that path.
type Scheduler interface {
	enqueue(t *Task)
	IsMultiTasking() bool
}
