// Package metrics is the ambient instrumentation surface fiberize-go reports
// scheduler and task activity through: tasks spawned/active, mailbox depth,
// work-stealing outcomes, dispatch latency (see the instruments struct built
// in system.go). It ships two Providers of its own, BasicProvider and
// NoopProvider, but any caller-supplied Provider satisfying this package's
// interfaces works equally well.
package metrics

// Provider constructs the instruments a System's instruments struct holds.
// Implementations must be safe for concurrent use: many
// scheduler goroutines record through the same instrument at once.
//
// Keep this interface minimal and stable. If fiberize-go ever needs a new
// instrument kind, add a separate optional interface rather than growing
// this one.
type Provider interface {
	Counter(name string, opts ...InstrumentOption) Counter
	UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	Histogram(name string, opts ...InstrumentOption) Histogram
}

// Counter records monotonically increasing counts, e.g.
// fiberize_tasks_spawned_total.
type Counter interface {
	Add(n int64)
}

// UpDownCounter records a value that moves up and down, e.g.
// fiberize_mailbox_depth summed across every task's mailbox.
type UpDownCounter interface {
	Add(n int64)
}

// Histogram records a distribution of float64 measurements, e.g.
// fiberize_dispatch_latency_seconds.
type Histogram interface {
	Record(v float64)
}

// InstrumentConfig carries optional, advisory instrument metadata supplied
// through InstrumentOption. A Provider is free to ignore it; BasicProvider
// retains it so it can be read back through Meta.
type InstrumentConfig struct {
	Description string
	Unit        string
	// Attributes are static key-value pairs describing the instrument
	// itself, not per-measurement labels. Keep cardinality bounded.
	Attributes map[string]string
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

// WithDescription sets an advisory description for the instrument.
func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// WithUnit sets an advisory unit for the instrument (e.g., "1", "s").
func WithUnit(unit string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Unit = unit }
}

// WithAttributes attaches static attributes to the instrument. Repeated
// calls merge into the same map instead of replacing it.
func WithAttributes(attrs map[string]string) InstrumentOption {
	return func(c *InstrumentConfig) {
		if len(attrs) == 0 {
			return
		}
		if c.Attributes == nil {
			c.Attributes = make(map[string]string, len(attrs))
		}
		for k, v := range attrs {
			c.Attributes[k] = v
		}
	}
}
