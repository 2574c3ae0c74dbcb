package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psbackup/psbackup/cmd"
	"github.com/psbackup/psbackup/pkg/psbackupinfo"
)

func versionMain(_ *cobra.Command, _ []string) error {
	fmt.Println(psbackupinfo.Version)
	return nil
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cmd.DisallowArguments,
	Run:   cmd.Mainify(versionMain),
}
