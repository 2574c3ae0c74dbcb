package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/psbackup/psbackup/cmd"
	"github.com/psbackup/psbackup/pkg/orchestrator"
)

var rehardlinkConfiguration struct {
	linkToHashtables []string
	verbose          bool
	summaryJSON      *string
}

var rehardlinkCommand = &cobra.Command{
	Use:   "rehardlink <directory>",
	Short: "Rewrite a directory tree in place, replacing duplicate content with hard links",
	Args:  cobra.ExactArgs(1),
	Run:   cmd.Mainify(rehardlinkMain),
}

func init() {
	flags := rehardlinkCommand.Flags()
	flags.StringSliceVar(&rehardlinkConfiguration.linkToHashtables, "link-to-hashtables", nil, "additional sidecar files to import before rewriting")
	flags.BoolVarP(&rehardlinkConfiguration.verbose, "verbose", "v", false, "enable debug logging")
	rehardlinkConfiguration.summaryJSON = registerSummaryJSONFlag(flags)
}

func rehardlinkMain(_ *cobra.Command, arguments []string) error {
	logger := newLogger(rehardlinkConfiguration.verbose)
	defer logger.Sync() //nolint:errcheck

	run := orchestrator.New(logger)
	summary, err := run.Run(orchestrator.Config{
		Kind: orchestrator.Rehardlink,
		Rehardlink: &orchestrator.RehardlinkConfig{
			Directory:        arguments[0],
			LinkToHashtables: rehardlinkConfiguration.linkToHashtables,
		},
	})
	if err != nil {
		return errors.Wrap(err, "rehardlink run failed")
	}

	printSummary(summary)
	if err := writeSummaryJSON(*rehardlinkConfiguration.summaryJSON, summary); err != nil {
		return err
	}
	if summary.Failed() {
		return errors.New("rehardlink completed with failures")
	}
	return nil
}
