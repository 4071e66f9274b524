package fiberize

import (
	"errors"
	"fmt"
)

// Namespace prefixes every sentinel error this package defines.
const Namespace = "fiberize"

var (
	// ErrKilled is raised by the built-in kill handler every task installs on its
	// first dispatch. It unwinds fiber bodies and is captured
	// as Result.Err for futures.
	ErrKilled = errors.New(Namespace + ": task was killed")

	// ErrNullAwaitable is returned directly from a dev-null FutureRef's Await,
	// never raised on any fiber's stack.
	ErrNullAwaitable = errors.New(Namespace + ": await on a null awaitable")

	// ErrInvalidState covers operations attempted against a task in the wrong
	// lifecycle state. No operation in this package returns it: resuming a
	// Dead task through System.Resume is a silent no-op.
	ErrInvalidState = errors.New(Namespace + ": invalid task state for this operation")

	// ErrShuttingDown is never returned to callers directly; Builder.Run instead
	// yields a dev-null reference once System.Shutdown has been called.
	ErrShuttingDown = errors.New(Namespace + ": fiber system is shutting down")

	// ErrSealedBuilder is the value a Builder panics with when Run, Call, or
	// any configuration method is called after Run or Call has sealed it.
	ErrSealedBuilder = errors.New(Namespace + ": builder has already been run")

	// ErrInvalidConfig is returned by NewSystem when the options leave the
	// configuration invalid (a nil IOContext factory or metrics Provider).
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")
)

// TaskError correlates a task failure with the path of the task that
// produced it, so a caller several Awaits removed from the failing task can
// still identify which one failed.
type TaskError struct {
	Path Path
	Err  error
}

func newTaskError(path Path, err error) error {
	if err == nil {
		return nil
	}
	return &TaskError{Path: path, Err: err}
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s: %v", e.Path, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// ExtractTaskPath returns the path of the task that produced err, if err (or
// something it wraps) is a *TaskError.
func ExtractTaskPath(err error) (Path, bool) {
	var te *TaskError
	if errors.As(err, &te) {
		return te.Path, true
	}
	return Path{}, false
}
