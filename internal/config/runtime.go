package config

import "sync/atomic"

// Runtime provides atomic access to configuration for hot-reload support.
// Reads are lock-free: in-flight operations complete with the config they
// loaded while new operations see the updated one.
type Runtime struct {
	ptr atomic.Pointer[Config]
}

// NewRuntime creates a Runtime holding the given initial configuration.
func NewRuntime(initial *Config) *Runtime {
	r := &Runtime{}
	r.ptr.Store(initial)
	return r
}

// Get returns the current configuration atomically.
func (r *Runtime) Get() *Config {
	return r.ptr.Load()
}

// Store atomically swaps in a new configuration. Called by the watcher
// when the config file changes. Readers see either the old or the new
// config, never a partial state.
func (r *Runtime) Store(cfg *Config) {
	r.ptr.Store(cfg)
}

var _ RuntimeConfig = (*Runtime)(nil)
