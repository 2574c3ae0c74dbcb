package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/psbackup/psbackup/pkg/orchestrator"
)

// registerSummaryJSONFlag adds the --summary-json flag shared by every
// subcommand and returns a pointer to its value.
func registerSummaryJSONFlag(flags *pflag.FlagSet) *string {
	path := flags.String("summary-json", "", "write the end-of-run summary as JSON to this path")
	return path
}

// writeSummaryJSON marshals summary to path if path is non-empty, for
// scripted consumption alongside the colored human summary.
func writeSummaryJSON(path string, summary orchestrator.Summary) error {
	if path == "" {
		return nil
	}

	encoded, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to encode summary as JSON")
	}

	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return errors.Wrap(err, "unable to write summary JSON")
	}
	return nil
}

// printSummary renders the end-of-run Summary to standard output, colored
// green on a clean run and red if anything failed or diverged.
func printSummary(summary orchestrator.Summary) {
	heading := color.GreenString("run complete")
	if summary.Failed() {
		heading = color.RedString("run complete with problems")
	}
	fmt.Printf("%s (%s)\n", heading, summary.Duration)

	fmt.Printf("  copied:  %d files, %s\n", summary.FilesCopied, humanize.Bytes(summary.BytesCopied))
	fmt.Printf("  linked:  %d files, %s\n", summary.FilesLinked, humanize.Bytes(summary.BytesLinked))
	if summary.FilesIndexed > 0 {
		fmt.Printf("  indexed: %d files\n", summary.FilesIndexed)
	}
	if summary.FilesReadOnly > 0 {
		fmt.Printf("  read-only copies: %d\n", summary.FilesReadOnly)
	}
	if summary.FilesSkippedPathLength > 0 {
		color.Yellow("  skipped (path too long): %d", summary.FilesSkippedPathLength)
	}
	if summary.FilesFailed > 0 {
		color.Red("  failed: %d", summary.FilesFailed)
	}

	if summary.Verify.SidecarsChecked > 0 {
		fmt.Printf("  sidecars checked: %d\n", summary.Verify.SidecarsChecked)
		fmt.Printf("  correct: %d\n", summary.Verify.Correct)
		if summary.Verify.Divergent > 0 {
			color.Red("  divergent: %d", summary.Verify.Divergent)
		}
		if summary.Verify.Missing > 0 {
			color.Red("  missing: %d", summary.Verify.Missing)
		}
	}
}
