package fiberize

// ScopedPin pins a task to whichever scheduler is currently running it, for
// the extent of a lexical scope, then restores whatever pin was in place
// before. While pinned, the task is never chosen by a peer's
// stealFrom, and a yield or suspend always hands it back to the same
// scheduler.
//
// Caveat: if something outside this task's control changes its pin while a
// ScopedPin is live, Unpin restores a value that may no longer reflect
// reality. ScopedPin is documented as safe only when nothing else re-pins
// the same task concurrently.
type ScopedPin struct {
	task     *Task
	previous Scheduler
}

// Pin pins ctx's task to its current scheduler. Callers should defer Unpin.
func Pin(ctx *Context) *ScopedPin {
	t := ctx.task
	previous := t.pinnedTo()
	t.pinTo(t.currentScheduler())
	return &ScopedPin{task: t, previous: previous}
}

// Unpin restores the pin that was in place before Pin was called.
func (p *ScopedPin) Unpin() {
	p.task.pinTo(p.previous)
}
