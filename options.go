package fiberize

import "github.com/fiberize/fiberize-go/metrics"

// Option configures a System. Use NewSystem(opts...) to construct one.
type Option func(*config)

// WithSchedulers sets the number of multi-task schedulers the System runs.
// n must be > 0.
func WithSchedulers(n uint) Option {
	return func(c *config) {
		if n == 0 {
			panic("fiberize: WithSchedulers requires n > 0")
		}
		c.Schedulers = n
	}
}

// WithIOContext installs the factory the System uses to build each
// scheduler's own I/O backend, called once per multi-task worker and once
// per single-task scheduler.
func WithIOContext(newIOContext func() IOContext) Option {
	return func(c *config) { c.NewIOContext = newIOContext }
}

// WithMetrics installs the Provider the System reports task and scheduler
// instrumentation to.
func WithMetrics(p metrics.Provider) Option {
	return func(c *config) { c.Metrics = p }
}
