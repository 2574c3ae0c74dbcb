package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/psbackup/psbackup/pkg/fingerprint"
)

func mustFingerprint(t *testing.T, seed byte) fingerprint.Fingerprint {
	t.Helper()
	var fp fingerprint.Fingerprint
	fp[0] = seed
	return fp
}

func TestSidecarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fpA := mustFingerprint(t, 0xAA)
	fpB := mustFingerprint(t, 0xBB)

	stored := &StoredIndex{Entries: map[fingerprint.Fingerprint]string{
		fpA: filepath.FromSlash("/A.txt"),
		fpB: filepath.FromSlash("/nested/B.bin"),
	}}

	sidecarPath := filepath.Join(dir, SidecarName)
	require.NoError(t, SaveStoredIndex(sidecarPath, stored))

	loaded, err := LoadStoredIndex(sidecarPath)
	require.NoError(t, err)
	require.Equal(t, stored.Entries, loaded.Entries)
}

func TestInsertCurrentFirstWriteWins(t *testing.T) {
	idx := New()
	fp := mustFingerprint(t, 0x01)

	idx.InsertCurrent(fp, "/first")
	idx.InsertCurrent(fp, "/second")

	path, ok := idx.Lookup(fp)
	require.True(t, ok)
	require.Equal(t, "/first", path)
	require.Equal(t, 1, idx.CurrentLen())
}

func TestExportWritesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	snapshotDir := filepath.Join(dir, "2026-07-30")
	require.NoError(t, os.MkdirAll(snapshotDir, 0755))

	idx := New()
	fp := mustFingerprint(t, 0x02)
	idx.InsertCurrent(fp, filepath.Join(snapshotDir, "A.txt"))

	require.NoError(t, idx.Export(snapshotDir, SidecarName))

	stored, err := LoadStoredIndex(filepath.Join(snapshotDir, SidecarName))
	require.NoError(t, err)
	resolved := filepath.Join(snapshotDir, stored.Entries[fp])
	require.Equal(t, filepath.Join(snapshotDir, "A.txt"), resolved)
}

func TestMergeFromFirstWriteWinsAcrossSidecars(t *testing.T) {
	root := t.TempDir()
	dirA := filepath.Join(root, "2026-07-28")
	dirB := filepath.Join(root, "2026-07-29")
	require.NoError(t, os.MkdirAll(dirA, 0755))
	require.NoError(t, os.MkdirAll(dirB, 0755))

	fp := mustFingerprint(t, 0x03)

	require.NoError(t, SaveStoredIndex(filepath.Join(dirA, SidecarName), &StoredIndex{
		Entries: map[fingerprint.Fingerprint]string{fp: "first.txt"},
	}))
	require.NoError(t, SaveStoredIndex(filepath.Join(dirB, SidecarName), &StoredIndex{
		Entries: map[fingerprint.Fingerprint]string{fp: "second.txt"},
	}))

	idx := New()
	logger := zap.NewNop().Sugar()
	stats, err := idx.MergeFrom(root, SidecarName, false, logger)
	require.NoError(t, err)
	require.Equal(t, 2, stats.SidecarsFound)
	require.Equal(t, 1, stats.EntriesInserted)
	require.Equal(t, 1, stats.EntriesSkippedExisting)

	path, ok := idx.Lookup(fp)
	require.True(t, ok)
	require.Equal(t, filepath.Join(dirA, "first.txt"), path)
}

func TestMergeFromRigorousDropsMissingTargets(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, SaveStoredIndex(filepath.Join(root, SidecarName), &StoredIndex{
		Entries: map[fingerprint.Fingerprint]string{mustFingerprint(t, 0x04): "missing.txt"},
	}))

	idx := New()
	logger := zap.NewNop().Sugar()
	stats, err := idx.MergeFrom(root, SidecarName, true, logger)
	require.NoError(t, err)
	require.Equal(t, 1, stats.EntriesMissingTarget)
	require.Equal(t, 0, stats.EntriesInserted)
}
