package fiberize

// Result is the outcome of a completed Promise: a Promise is
// delivered exactly once, with either a value or an error, never both.
type Result[A any] struct {
	Value A
	Err   error
}

// Get projects a Result to the (value, error) pair idiomatic Go callers
// expect.
func (r Result[A]) Get() (A, error) {
	return r.Value, r.Err
}
