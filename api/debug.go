// Package api
// Author: momentics <momentics@gmail.com>
//
// Runtime introspection for a live client.

package api

// Debug exposes named probes evaluated on demand.
type Debug interface {
	// DumpState evaluates every probe and returns the results by name.
	DumpState() map[string]any

	// RegisterProbe adds or replaces a probe. fn must be safe to call from
	// any goroutine.
	RegisterProbe(name string, fn func() any)
}
