// Package resolverconfig holds the handful of options a Resolver is built
// with. It deliberately stays a plain struct plus functional-option
// constructors instead of a manifest-file loader: the core never parses its
// own configuration language, that is an external collaborator's job.
package resolverconfig

import "runtime"

// Config holds the options recognized by the resolver core.
type Config struct {
	// Lazy selects deferred task-graph execution over eager evaluation.
	Lazy bool

	// PluginSearchPaths is forwarded, unused, to whatever EntryProvider
	// loader the caller wires up. The core never walks the filesystem.
	PluginSearchPaths []string

	// StrictReturnTypeCheck makes a return-type mismatch after execution
	// fatal rather than a logged warning.
	StrictReturnTypeCheck bool

	// WorkerCount sizes the lazy-mode worker pool.
	WorkerCount int
}

// Option mutates a Config under construction.
type Option func(*Config)

// WithLazy enables or disables lazy (deferred) execution.
func WithLazy(lazy bool) Option {
	return func(c *Config) { c.Lazy = lazy }
}

// WithPluginSearchPaths sets the paths forwarded to the plugin loader.
func WithPluginSearchPaths(paths ...string) Option {
	return func(c *Config) { c.PluginSearchPaths = paths }
}

// WithStrictReturnTypeCheck toggles fatal-vs-warn handling of return-type
// mismatches.
func WithStrictReturnTypeCheck(strict bool) Option {
	return func(c *Config) { c.StrictReturnTypeCheck = strict }
}

// WithWorkerCount overrides the lazy-mode worker pool size. Values <= 0 are
// ignored and the default is kept.
func WithWorkerCount(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.WorkerCount = n
		}
	}
}

// New builds a Config with defaults (eager, strict return checking,
// WorkerCount == runtime.NumCPU()) and applies opts in order.
func New(opts ...Option) Config {
	c := Config{
		Lazy:                  false,
		StrictReturnTypeCheck: true,
		WorkerCount:           runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
