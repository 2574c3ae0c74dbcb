package orchestrator

import "time"

// Summary is the end-of-run bookkeeping described in spec.md §7: aggregate
// counts the Orchestrator produces regardless of per-file outcome, used to
// drive the colored pass/fail summary line and (optionally) a
// machine-readable JSON export. Not every field applies to every mode; a
// mode that doesn't produce a given count simply leaves it zero.
type Summary struct {
	BytesCopied            uint64
	BytesLinked            uint64
	FilesCopied            int
	FilesLinked            int
	FilesFailed            int
	FilesSkippedPathLength int
	FilesReadOnly          int

	// FilesIndexed is populated by MakeIndex mode: the number of files
	// fingerprinted and recorded in the exported sidecar.
	FilesIndexed int

	// Verify is populated by Verify mode only.
	Verify VerifyTotals

	Duration time.Duration
}

// VerifyTotals holds the per-run classification counts produced by Verify
// mode (spec.md §4.6): every sidecar entry found is classified as exactly
// one of correct, divergent, or missing.
type VerifyTotals struct {
	SidecarsChecked int
	Correct         int
	Divergent       int
	Missing         int
}

// Failed reports whether this run had any failures, the condition that
// distinguishes the colored "zero failures" summary from "any failures"
// (spec.md §7). A Verify run with any divergent or missing entries counts
// as failed for this purpose as well.
func (s Summary) Failed() bool {
	return s.FilesFailed > 0 || s.Verify.Divergent > 0 || s.Verify.Missing > 0
}
