// Package cli provides the command-line interface for tracelag.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracelag/tracelag/internal/cli/commands"
	"github.com/tracelag/tracelag/internal/logger"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Usage, configuration, or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "tracelag",
		Short: "Find slow operations in entry/exit trace logs",
		Long: `Tracelag reconstructs call durations from trace logs that record method
entries and exits across threads, and reports the operations that met or
exceeded a threshold.

It matches each exit to the most recent open entry with the same thread id
and method name, so interleaved calls from different threads never pair
with each other.

Exit codes:
  0 - Analysis completed (slow operations may or may not exist)
  1 - No entry or exit events matched the patterns at all
  2 - Usage, configuration, or runtime error`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				logger.SetLevel(logLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log verbosity (debug|info|warn|error); overrides TRACELAG_LOG_LEVEL")

	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewProbeCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
