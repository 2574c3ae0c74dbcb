//go:build windows

package pathresolver

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// longPathPrefix is the Windows extended-length path prefix that bypasses
// the MAX_PATH limit for Win32 file APIs.
const longPathPrefix = `\\?\`

// Windows shortens paths by rewriting them with the `\\?\` extended-length
// prefix (prepended directly to the absolute path), which lets the Win32 API address
// paths beyond MAX_PATH without truncation. Each distinct input is given a
// deterministic indirection so repeated calls for the same path are
// idempotent within a run.
type Windows struct {
	mu      sync.Mutex
	created map[string]string
}

// NewWindows constructs a Windows path resolver.
func NewWindows() *Windows {
	return &Windows{
		created: make(map[string]string),
	}
}

// Shorten implements Resolver.Shorten.
func (w *Windows) Shorten(path string) (string, error) {
	if len(path) < 248 {
		return path, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if existing, ok := w.created[path]; ok {
		return existing, nil
	}

	absolute, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(err, "unable to resolve absolute path")
	}
	if strings.HasPrefix(absolute, longPathPrefix) {
		w.created[path] = absolute
		return absolute, nil
	}

	// winio.GetFinalPathNameByHandle-backed helpers require an open handle;
	// for a path that may not yet exist (destination side of a copy) we
	// simply apply the extended-length prefix, which the Win32 API accepts
	// for both existing and not-yet-created paths.
	shortened := longPathPrefix + absolute
	w.created[path] = shortened
	return shortened, nil
}

// ReleaseAll implements Resolver.ReleaseAll. The extended-length prefix
// requires no cleanup, but the indirection cache is cleared so a Windows
// value can't be reused across runs with stale state.
func (w *Windows) ReleaseAll() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.created = make(map[string]string)
	return nil
}

var _ Resolver = (*Windows)(nil)

// NewPlatform returns the default Resolver for the current platform.
func NewPlatform() Resolver {
	return NewWindows()
}
