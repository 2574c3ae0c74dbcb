// Package pathresolver defines the Path Resolver collaborator interface
// (spec.md §4.2): a narrow black box around platform per-API path-length
// workarounds. The core consumes this interface; it never implements the
// platform-specific shortening logic itself.
package pathresolver

// Resolver shortens paths that would otherwise exceed a platform's per-API
// length limit, and releases any indirections it created once a run
// completes. Implementations must be idempotent on paths that are already
// short, and must reuse previously created indirections for the same input
// within a single run.
type Resolver interface {
	// Shorten returns a path that resolves to the same filesystem object as
	// path but whose textual length is below the platform's limit. If no
	// shortening is possible, it returns an error and the caller must skip
	// the file with a warning.
	Shorten(path string) (string, error)

	// ReleaseAll releases any temporary indirections created by prior calls
	// to Shorten. It is called exactly once, at orchestrator shutdown.
	ReleaseAll() error
}

// Identity is a Resolver that performs no shortening: Shorten returns its
// input unchanged. It is the correct choice on platforms without a
// meaningful per-API path-length limit, and is used as the default
// fallback when no platform-specific resolver is available.
type Identity struct{}

// Shorten implements Resolver.Shorten.
func (Identity) Shorten(path string) (string, error) {
	return path, nil
}

// ReleaseAll implements Resolver.ReleaseAll.
func (Identity) ReleaseAll() error {
	return nil
}

var _ Resolver = Identity{}
