package main

import (
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"go.uber.org/zap"

	"github.com/psbackup/psbackup/cmd"
)

var rootCommand = &cobra.Command{
	Use:          "psbackup",
	Short:        "psbackup is a deduplicating, versioned file backup engine",
	SilenceUsage: true,
}

func init() {
	cobra.EnableCommandSorting = false

	// Shell completion generation shouldn't be polluted by ANSI color codes.
	if cmd.PerformingShellCompletion {
		color.NoColor = true
	}

	rootCommand.AddCommand(
		backupCommand,
		makeIndexCommand,
		rehardlinkCommand,
		verifyCommand,
		versionCommand,
		legalCommand,
	)
}

// newLogger constructs the process-wide structured logger. Verbose output
// goes to standard error so standard output stays reserved for the
// colored summary line.
func newLogger(verbose bool) *zap.SugaredLogger {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	logger, err := config.Build()
	if err != nil {
		cmd.Fatal(err)
	}
	return logger.Sugar()
}

// watchForTermination exits the process with code 130 if a termination signal
// arrives mid-run. The orchestrator has no in-flight rollback; only sidecar
// writes are atomic (file copies are not), so this only shortens the wait instead
// of leaving the process to the default signal disposition.
func watchForTermination() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, cmd.TerminationSignals...)
	go func() {
		<-signals
		cmd.Warning("terminating on signal")
		os.Exit(130)
	}()
}

func main() {
	cmd.HandleTerminalCompatibility()
	watchForTermination()

	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
