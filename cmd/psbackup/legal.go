package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psbackup/psbackup/cmd"
	"github.com/psbackup/psbackup/pkg/psbackupinfo"
)

func legalMain(_ *cobra.Command, _ []string) error {
	fmt.Println(psbackupinfo.LegalNotice)
	return nil
}

var legalCommand = &cobra.Command{
	Use:   "legal",
	Short: "Show legal information",
	Args:  cmd.DisallowArguments,
	Run:   cmd.Mainify(legalMain),
}
