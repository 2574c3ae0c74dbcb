package orchestrator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/psbackup/psbackup/pkg/fingerprint"
	"github.com/psbackup/psbackup/pkg/index"
	"github.com/psbackup/psbackup/pkg/pathresolver"
	"github.com/psbackup/psbackup/pkg/snapshotsource"
)

func newTestOrchestrator() *Orchestrator {
	return &Orchestrator{
		Resolver: pathresolver.Identity{},
		Logger:   zap.NewNop().Sugar(),
	}
}

// fixedMetadataProvider is a snapshotsource.Provider that reports the same
// fingerprint-relevant metadata for every file, regardless of its real
// on-disk birth time. Two files independently created on a real filesystem
// almost never share a birth time, so tests exercising cross-file
// deduplication use this instead of snapshotsource.Direct to keep the
// scenario deterministic without faking the file content itself.
type fixedMetadataProvider struct {
	meta fingerprint.Metadata
}

func (p fixedMetadataProvider) Open(sourcePath string) (snapshotsource.Handle, error) {
	file, err := os.Open(sourcePath)
	if err != nil {
		return snapshotsource.Handle{}, err
	}
	return snapshotsource.Handle{Reader: file, Metadata: p.meta, DisplayPath: sourcePath}, nil
}

func (fixedMetadataProvider) Translate(physicalPath string) string { return physicalPath }
func (fixedMetadataProvider) Release() error                       { return nil }

var _ snapshotsource.Provider = fixedMetadataProvider{}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func sameInode(t *testing.T, a, b string) bool {
	t.Helper()
	infoA, err := os.Stat(a)
	require.NoError(t, err)
	infoB, err := os.Stat(b)
	require.NoError(t, err)
	return os.SameFile(infoA, infoB)
}

// TestColdBackupCopiesEverything covers the "cold backup" scenario: an empty
// repository, every source file is new, so every destination is a fresh copy
// and the exported sidecar has one entry per file.
func TestColdBackupCopiesEverything(t *testing.T) {
	source := t.TempDir()
	repo := t.TempDir()

	writeFile(t, filepath.Join(source, "A.txt"), "hello")
	writeFile(t, filepath.Join(source, "sub", "B.txt"), "world")

	orch := newTestOrchestrator()
	summary, err := orch.Run(Config{
		Kind: Backup,
		Backup: &BackupConfig{
			SourcePath:  source,
			BackupRoot:  repo,
			NotShadowed: true,
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, summary.FilesCopied)
	require.Equal(t, 0, summary.FilesLinked)
	require.False(t, summary.Failed())
}

// TestWarmBackupUnchangedLinks covers the "warm backup, nothing changed"
// scenario: a second backup of the same unmodified source tree on a
// different (later) day links every file to the first day's copy instead of
// re-copying bytes.
func TestWarmBackupUnchangedLinks(t *testing.T) {
	source := t.TempDir()
	repo := t.TempDir()
	writeFile(t, filepath.Join(source, "A.txt"), "hello world")

	day1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	day1Dir := filepath.Join(repo, "2026-01-01")
	day2Dir := filepath.Join(repo, "2026-01-02")

	first := newTestOrchestrator()
	first.Now = func() time.Time { return day1 }
	_, err := first.Run(Config{
		Kind: Backup,
		Backup: &BackupConfig{
			SourcePath:  source,
			BackupRoot:  repo,
			NotShadowed: true,
		},
	})
	require.NoError(t, err)

	second := newTestOrchestrator()
	second.Now = func() time.Time { return day2 }
	summary, err := second.Run(Config{
		Kind: Backup,
		Backup: &BackupConfig{
			SourcePath:  source,
			BackupRoot:  repo,
			NotShadowed: true,
		},
	})
	require.NoError(t, err)

	require.Equal(t, 0, summary.FilesCopied)
	require.Equal(t, 1, summary.FilesLinked)
	require.True(t, sameInode(t, filepath.Join(day1Dir, "A.txt"), filepath.Join(day2Dir, "A.txt")))

	// A linked file must still be recorded in the exported sidecar under
	// its destination path, not left out because nothing was copied.
	stored, err := index.LoadStoredIndex(filepath.Join(day2Dir, index.SidecarName))
	require.NoError(t, err)
	require.Len(t, stored.Entries, 1)
	for _, relativePath := range stored.Entries {
		require.Equal(t, "A.txt", relativePath)
	}
}

// TestReadOnlySourceAlwaysCopied covers the read-only eligibility rule:
// read-only files are always copied fresh, never linked, even against an
// otherwise-matching candidate.
func TestReadOnlySourceAlwaysCopied(t *testing.T) {
	source := t.TempDir()
	repo := t.TempDir()
	path := filepath.Join(source, "readonly.txt")
	writeFile(t, path, "immutable")
	require.NoError(t, os.Chmod(path, 0444))
	t.Cleanup(func() { os.Chmod(path, 0644) })

	orch := newTestOrchestrator()
	summary, err := orch.Run(Config{
		Kind: Backup,
		Backup: &BackupConfig{
			SourcePath:  source,
			BackupRoot:  repo,
			NotShadowed: true,
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, summary.FilesCopied)
	require.Equal(t, 1, summary.FilesReadOnly)
	require.Equal(t, 0, summary.FilesLinked)
}

// TestBackupRunTwiceSameDayWithoutDeleteFails covers the precondition
// failure: a snapshot directory already exists for today and
// DeleteExistingBackup was not set.
func TestBackupRunTwiceSameDayWithoutDeleteFails(t *testing.T) {
	source := t.TempDir()
	repo := t.TempDir()
	writeFile(t, filepath.Join(source, "A.txt"), "hello")

	cfg := Config{
		Kind: Backup,
		Backup: &BackupConfig{
			SourcePath:  source,
			BackupRoot:  repo,
			NotShadowed: true,
		},
	}

	orch := newTestOrchestrator()
	_, err := orch.Run(cfg)
	require.NoError(t, err)

	_, err = orch.Run(cfg)
	require.Error(t, err)
	require.IsType(t, &PreconditionError{}, err)
}

// TestMakeIndexThenBackupLinksAgainstForeignDirectory covers LinkToDirectory:
// a MakeIndex sub-run over an unrelated directory makes its content
// available as hard-link candidates for a subsequent Backup run, without
// that directory's files appearing in the backup's own exported sidecar.
func TestMakeIndexThenBackupLinksAgainstForeignDirectory(t *testing.T) {
	foreign := t.TempDir()
	source := t.TempDir()
	repo := t.TempDir()

	writeFile(t, filepath.Join(foreign, "shared.bin"), "identical-content")
	writeFile(t, filepath.Join(source, "shared.bin"), "identical-content")

	// Two independently-created files essentially never share a real birth
	// time, which is folded into the Fingerprint alongside content — so a
	// fixed-metadata provider stands in for whatever real snapshot or live
	// read would otherwise report, keeping the scenario deterministic. The
	// Decision Engine's attribute re-check reads the candidate's real on-disk
	// last-write time, so both files are given the provider's fixed value.
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(foreign, "shared.bin"), fixed, fixed))
	require.NoError(t, os.Chtimes(filepath.Join(source, "shared.bin"), fixed, fixed))
	orch := newTestOrchestrator()
	orch.Provider = fixedMetadataProvider{meta: fingerprint.Metadata{
		LastWriteTimeUTC: fixed,
		CreationTimeUTC:  fixed,
	}}
	summary, err := orch.Run(Config{
		Kind: Backup,
		Backup: &BackupConfig{
			SourcePath:      source,
			BackupRoot:      repo,
			NotShadowed:     true,
			LinkToDirectory: foreign,
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, summary.FilesLinked)
	require.Equal(t, 0, summary.FilesCopied)
}

// TestVerifyReportsDivergence covers Verify mode: a file modified after its
// sidecar was written is reported as divergent, the rest as correct.
func TestVerifyReportsDivergence(t *testing.T) {
	source := t.TempDir()
	repo := t.TempDir()
	writeFile(t, filepath.Join(source, "A.txt"), "hello")
	writeFile(t, filepath.Join(source, "B.txt"), "world")

	orch := newTestOrchestrator()
	_, err := orch.Run(Config{
		Kind: Backup,
		Backup: &BackupConfig{
			SourcePath:  source,
			BackupRoot:  repo,
			NotShadowed: true,
		},
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(repo)
	require.NoError(t, err)
	var snapshotDir string
	for _, entry := range entries {
		if entry.IsDir() {
			snapshotDir = filepath.Join(repo, entry.Name())
		}
	}
	require.NotEmpty(t, snapshotDir)

	writeFile(t, filepath.Join(snapshotDir, "A.txt"), "modified-after-the-fact")

	summary, err := orch.Run(Config{
		Kind:   Verify,
		Verify: &VerifyConfig{Directory: repo},
	})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Verify.Divergent)
	require.Equal(t, 0, summary.Verify.Missing)
	require.Equal(t, 1, summary.Verify.Correct)
	require.True(t, summary.Failed())
}

// TestRehardlinkDeduplicatesInPlace covers Rehardlink mode: two
// byte-identical files under the same directory are collapsed into a single
// inode.
func TestRehardlinkDeduplicatesInPlace(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "A.txt"), "duplicate-content")
	writeFile(t, filepath.Join(dir, "B.txt"), "duplicate-content")

	pathA := filepath.Join(dir, "A.txt")
	pathB := filepath.Join(dir, "B.txt")

	// As in the LinkToDirectory scenario above, two independently-created
	// files won't share a real birth time, so fingerprinting is driven
	// through a fixed-metadata provider to keep the scenario deterministic,
	// and both files get that fixed last-write time on disk for the
	// candidate-side attribute re-check.
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(pathA, fixed, fixed))
	require.NoError(t, os.Chtimes(pathB, fixed, fixed))
	orch := newTestOrchestrator()
	orch.Provider = fixedMetadataProvider{meta: fingerprint.Metadata{
		LastWriteTimeUTC: fixed,
		CreationTimeUTC:  fixed,
	}}
	summary, err := orch.Run(Config{
		Kind:       Rehardlink,
		Rehardlink: &RehardlinkConfig{Directory: dir},
	})
	require.NoError(t, err)
	require.Equal(t, 1, summary.FilesLinked)
	require.True(t, sameInode(t, pathA, pathB))

	// A.txt and B.txt are byte-identical, so they share one fingerprint key
	// and the sidecar records a single entry (whichever path was seen
	// first) pointing at the now-shared inode.
	stored, err := index.LoadStoredIndex(filepath.Join(dir, index.SidecarName))
	require.NoError(t, err)
	require.Len(t, stored.Entries, 1)
}
