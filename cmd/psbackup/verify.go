package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/psbackup/psbackup/cmd"
	"github.com/psbackup/psbackup/pkg/orchestrator"
)

var verifyConfiguration struct {
	verbose     bool
	summaryJSON *string
}

var verifyCommand = &cobra.Command{
	Use:   "verify <directory>",
	Short: "Recompute fingerprints for every sidecar under a directory and report divergence",
	Args:  cobra.ExactArgs(1),
	Run:   cmd.Mainify(verifyMain),
}

func init() {
	flags := verifyCommand.Flags()
	flags.BoolVarP(&verifyConfiguration.verbose, "verbose", "v", false, "enable debug logging")
	verifyConfiguration.summaryJSON = registerSummaryJSONFlag(flags)
}

func verifyMain(_ *cobra.Command, arguments []string) error {
	logger := newLogger(verifyConfiguration.verbose)
	defer logger.Sync() //nolint:errcheck

	run := orchestrator.New(logger)
	summary, err := run.Run(orchestrator.Config{
		Kind: orchestrator.Verify,
		Verify: &orchestrator.VerifyConfig{
			Directory: arguments[0],
		},
	})
	if err != nil {
		return errors.Wrap(err, "verify run failed")
	}

	printSummary(summary)
	if err := writeSummaryJSON(*verifyConfiguration.summaryJSON, summary); err != nil {
		return err
	}
	if summary.Failed() {
		return errors.New("verify found divergent or missing content")
	}
	return nil
}
