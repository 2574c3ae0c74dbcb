// Package index implements the in-memory Fingerprint→AbsolutePath mapping
// described in spec.md §4.4: repository-wide merge from per-snapshot
// sidecars, lookup, insertion of this-run entries, and export of a
// per-snapshot sidecar.
package index

import (
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/psbackup/psbackup/pkg/fingerprint"
	"github.com/psbackup/psbackup/pkg/pbfs"
)

// Index is an in-memory Fingerprint→AbsolutePath mapping. Keys are unique:
// first-write-wins on merge, so a key already present is never overwritten
// by a later import.
type Index struct {
	mu sync.RWMutex

	// entries is the full map consulted by Lookup, populated both by
	// MergeFrom and by InsertCurrent.
	entries map[fingerprint.Fingerprint]string

	// current holds only entries inserted during this run, the subset
	// that Export writes out.
	current map[fingerprint.Fingerprint]string
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		entries: make(map[fingerprint.Fingerprint]string),
		current: make(map[fingerprint.Fingerprint]string),
	}
}

// MergeStats reports what happened during a MergeFrom call.
type MergeStats struct {
	// SidecarsFound is the number of sidecar files located under root.
	SidecarsFound int
	// EntriesInserted is the number of entries newly added to the index.
	EntriesInserted int
	// EntriesSkippedExisting is the number of entries that were dropped
	// because the key already existed (first-write-wins).
	EntriesSkippedExisting int
	// EntriesMissingTarget is the number of rigorous-mode entries whose
	// resolved path did not exist on disk.
	EntriesMissingTarget int
}

// MergeFrom recursively locates every file under root named sidecarName
// (or, if sidecarName is "*", every file), deserializes each as a
// StoredIndex, and inserts its entries (first-write-wins) after resolving
// RelativePath against the sidecar's own containing directory. In rigorous
// mode every resolved path is stat-checked; missing targets are logged and
// counted but never abort the merge.
func (idx *Index) MergeFrom(root, sidecarName string, rigorous bool, logger *zap.SugaredLogger) (MergeStats, error) {
	var stats MergeStats

	sidecarPaths, err := pbfs.FindByName(root, sidecarName)
	if err != nil {
		return stats, err
	}
	stats.SidecarsFound = len(sidecarPaths)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, sidecarPath := range sidecarPaths {
		stored, err := LoadStoredIndex(sidecarPath)
		if err != nil {
			logger.Warnw("unable to load sidecar, skipping", "path", sidecarPath, "error", err)
			continue
		}

		containingDir := filepath.Dir(sidecarPath)
		droppedInThisSidecar := 0

		for fp, relativePath := range stored.Entries {
			if _, exists := idx.entries[fp]; exists {
				stats.EntriesSkippedExisting++
				continue
			}

			absolutePath := filepath.Join(containingDir, relativePath)

			if rigorous {
				if !pathExists(absolutePath) {
					stats.EntriesMissingTarget++
					droppedInThisSidecar++
					continue
				}
			}

			idx.entries[fp] = absolutePath
			stats.EntriesInserted++
		}

		if droppedInThisSidecar > 0 {
			logger.Warnw("sidecar referenced missing files, entries dropped",
				"path", sidecarPath, "dropped", droppedInThisSidecar)
		}
	}

	return stats, nil
}

// Lookup returns the absolute path associated with fp, if any.
func (idx *Index) Lookup(fp fingerprint.Fingerprint) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	path, ok := idx.entries[fp]
	return path, ok
}

// Empty reports whether the index currently has no entries at all (used by
// decision step 4 of spec.md §4.5, which treats an empty index the same as a
// missing key).
func (idx *Index) Empty() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries) == 0
}

// InsertCurrent records fp → absolutePath in both the full lookup map (so
// later files in this run can link against it) and the this-run-only map
// that Export writes out. It is a silent no-op if fp is already present in
// the this-run-only map.
func (idx *Index) InsertCurrent(fp fingerprint.Fingerprint, absolutePath string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.current[fp]; exists {
		return
	}

	idx.current[fp] = absolutePath
	if _, exists := idx.entries[fp]; !exists {
		idx.entries[fp] = absolutePath
	}
}

// InsertKnown records fp → absolutePath in the full lookup map only,
// first-write-wins, without marking it as a this-run entry. Used to fold in
// entries discovered via merges that must never appear in this run's own
// exported sidecar (spec.md §9's no-crossing invariant) — for example a
// LinkToDirectory or LinkToHashtables import during a Backup run.
func (idx *Index) InsertKnown(fp fingerprint.Fingerprint, absolutePath string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.entries[fp]; !exists {
		idx.entries[fp] = absolutePath
	}
}

// CurrentLen returns the number of entries inserted during this run.
func (idx *Index) CurrentLen() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.current)
}

// Export writes the this-run-only entries to sidecarDir/sidecarName,
// converting each absolute path to a path relative to sidecarDir.
func (idx *Index) Export(sidecarDir, sidecarName string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	stored := &StoredIndex{Entries: make(map[fingerprint.Fingerprint]string, len(idx.current))}
	for fp, absolutePath := range idx.current {
		relativePath, err := filepath.Rel(sidecarDir, absolutePath)
		if err != nil {
			return err
		}
		stored.Entries[fp] = relativePath
	}

	return SaveStoredIndex(filepath.Join(sidecarDir, sidecarName), stored)
}
