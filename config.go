package fiberize

import "github.com/fiberize/fiberize-go/metrics"

// config holds System configuration.
type config struct {
	// Schedulers sets the number of multi-task schedulers the System runs.
	// Zero (default) means runtime.GOMAXPROCS(0).
	Schedulers uint

	// NewIOContext builds one pollable I/O backend per scheduler: each
	// multi-task worker and each single-task scheduler owns its own
	// instance, mirroring a per-OS-thread event loop rather than one backend
	// shared across every scheduler in the System. Default: NewNoopIOContext.
	NewIOContext func() IOContext

	// Metrics is where the System reports task and scheduler instrumentation.
	// Default: metrics.NewNoopProvider().
	Metrics metrics.Provider
}

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		Schedulers:   0, // GOMAXPROCS
		NewIOContext: func() IOContext { return NewNoopIOContext() },
		Metrics:      metrics.NewNoopProvider(),
	}
}

// validateConfig performs lightweight invariant checks.
func validateConfig(cfg *config) error {
	if cfg.NewIOContext == nil {
		return ErrInvalidConfig
	}
	if cfg.Metrics == nil {
		return ErrInvalidConfig
	}
	return nil
}
