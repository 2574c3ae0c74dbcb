package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/psbackup/psbackup/cmd"
	"github.com/psbackup/psbackup/pkg/orchestrator"
)

var makeIndexConfiguration struct {
	notShadowed bool
	verbose     bool
	summaryJSON *string
}

var makeIndexCommand = &cobra.Command{
	Use:   "make-index <directory>",
	Short: "Fingerprint every file under a directory and export a standalone sidecar",
	Args:  cobra.ExactArgs(1),
	Run:   cmd.Mainify(makeIndexMain),
}

func init() {
	flags := makeIndexCommand.Flags()
	flags.BoolVar(&makeIndexConfiguration.notShadowed, "not-shadowed", false, "read files directly from the live filesystem instead of a snapshot view")
	flags.BoolVarP(&makeIndexConfiguration.verbose, "verbose", "v", false, "enable debug logging")
	makeIndexConfiguration.summaryJSON = registerSummaryJSONFlag(flags)
}

func makeIndexMain(_ *cobra.Command, arguments []string) error {
	logger := newLogger(makeIndexConfiguration.verbose)
	defer logger.Sync() //nolint:errcheck

	run := orchestrator.New(logger)
	summary, err := run.Run(orchestrator.Config{
		Kind: orchestrator.MakeIndex,
		MakeIndex: &orchestrator.MakeIndexConfig{
			Directory:   arguments[0],
			NotShadowed: makeIndexConfiguration.notShadowed,
		},
	})
	if err != nil {
		return errors.Wrap(err, "make-index run failed")
	}

	printSummary(summary)
	if err := writeSummaryJSON(*makeIndexConfiguration.summaryJSON, summary); err != nil {
		return err
	}
	if summary.Failed() {
		return errors.New("make-index completed with failures")
	}
	return nil
}
