package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/psbackup/psbackup/cmd"
	"github.com/psbackup/psbackup/pkg/orchestrator"
)

var backupConfiguration struct {
	backupRoot           string
	exclusionFile        string
	deleteExistingBackup bool
	notShadowed          bool
	linkToDirectory      string
	linkToHashtables     []string
	verbose              bool
	summaryJSON          *string
}

var backupCommand = &cobra.Command{
	Use:   "backup <source-path>",
	Short: "Create a new dated snapshot, sharing unchanged content via hard links",
	Args:  cobra.ExactArgs(1),
	Run:   cmd.Mainify(backupMain),
}

func init() {
	flags := backupCommand.Flags()
	flags.StringVar(&backupConfiguration.backupRoot, "backup-root", "", "repository root under which the dated snapshot is created (required)")
	flags.StringVar(&backupConfiguration.exclusionFile, "exclusion-file", "", "optional line-oriented exclusion pattern file")
	flags.BoolVar(&backupConfiguration.deleteExistingBackup, "delete-existing-backup", false, "remove today's snapshot directory first, if present")
	flags.BoolVar(&backupConfiguration.notShadowed, "not-shadowed", false, "read source files directly from the live filesystem instead of a snapshot view")
	flags.StringVar(&backupConfiguration.linkToDirectory, "link-to-directory", "", "index this directory first and allow linking against it")
	flags.StringSliceVar(&backupConfiguration.linkToHashtables, "link-to-hashtables", nil, "additional sidecar files to import before backing up")
	flags.BoolVarP(&backupConfiguration.verbose, "verbose", "v", false, "enable debug logging")
	backupConfiguration.summaryJSON = registerSummaryJSONFlag(flags)
}

func backupMain(_ *cobra.Command, arguments []string) error {
	if backupConfiguration.backupRoot == "" {
		return errors.New("--backup-root is required")
	}

	logger := newLogger(backupConfiguration.verbose)
	defer logger.Sync() //nolint:errcheck

	run := orchestrator.New(logger)
	summary, err := run.Run(orchestrator.Config{
		Kind: orchestrator.Backup,
		Backup: &orchestrator.BackupConfig{
			SourcePath:           arguments[0],
			BackupRoot:           backupConfiguration.backupRoot,
			ExclusionFile:        backupConfiguration.exclusionFile,
			DeleteExistingBackup: backupConfiguration.deleteExistingBackup,
			NotShadowed:          backupConfiguration.notShadowed,
			LinkToDirectory:      backupConfiguration.linkToDirectory,
			LinkToHashtables:     backupConfiguration.linkToHashtables,
		},
	})
	if err != nil {
		if _, ok := err.(*orchestrator.PreconditionError); ok {
			return err
		}
		return errors.Wrap(err, "backup run failed")
	}

	printSummary(summary)
	if err := writeSummaryJSON(*backupConfiguration.summaryJSON, summary); err != nil {
		return err
	}
	if summary.Failed() {
		return errors.New("backup completed with failures")
	}
	return nil
}
