package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracelag/tracelag/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a tracelag configuration file without running analysis.

Checks:
  - YAML syntax
  - Required profile fields (name, entry, exit, threshold)
  - Threshold format (non-negative decimal seconds)
  - Webhook URLs and triggers
  - Log file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Printf("Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("\nConfiguration valid!\n")
	fmt.Printf("  Mode:     %s\n", cfg.Mode)
	fmt.Printf("  Profiles: %d\n", len(cfg.Profiles))
	fmt.Printf("  Webhooks: %d\n", len(cfg.Webhooks))

	fmt.Printf("\nProfiles:\n")
	for i, p := range cfg.Profiles {
		fmt.Printf("  %d. %s (threshold %.3fs)\n", i+1, p.Name, p.ThresholdDuration().Seconds())
		fmt.Printf("     entry %q, exit %q\n", p.Entry, p.Exit)
	}

	// The log path is optional in config; it can come from the command
	// line instead.
	if cfg.Log != "" {
		if _, err := os.Stat(cfg.Log); err != nil {
			fmt.Printf("\nWarning: log file %s is not readable: %v\n", cfg.Log, err)
		} else {
			fmt.Printf("\nLog file: %s\n", cfg.Log)
		}
	}

	return nil
}
