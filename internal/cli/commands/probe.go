package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/tracelag/tracelag/pkg/probe"
)

// ProbeOptions holds command-line options for the probe command.
type ProbeOptions struct {
	Sample int
	Entry  string
	Exit   string
	Output string
}

// NewProbeCommand creates the probe command.
func NewProbeCommand() *cobra.Command {
	opts := &ProbeOptions{}

	cmd := &cobra.Command{
		Use:   "probe <log-file>",
		Short: "Inspect a log sample before analyzing it",
		Long: `Read a sample from the head of a trace log and report what the scanner
would see: how many lines carry a bracketed timestamp, how many of those
parse, which thread ids appear, and (optionally) how often the entry and
exit patterns occur.

Use it when an analysis reports no pattern matches: the counts show
whether the problem is the timestamp format or the patterns themselves.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd, args, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Sample, "sample", 100, "Number of non-empty lines to sample")
	cmd.Flags().StringVar(&opts.Entry, "entry", "", "Entry pattern to count")
	cmd.Flags().StringVar(&opts.Exit, "exit", "", "Exit pattern to count")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")

	return cmd
}

func runProbe(cmd *cobra.Command, args []string, opts *ProbeOptions) error {
	path := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}

	p := probe.New(
		probe.WithSampleSize(opts.Sample),
		probe.WithPatterns(opts.Entry, opts.Exit),
	)
	result, err := p.FromFile(ctx, path)
	if err != nil {
		return fmt.Errorf("probing log: %w", err)
	}

	if opts.Output == "json" {
		data, err := sonic.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding probe result: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}

	printProbeResult(path, opts, result)
	return nil
}

func printProbeResult(path string, opts *ProbeOptions, r *probe.Result) {
	fmt.Printf("Probe: %s (first %d non-empty lines)\n\n", path, r.SampledLines)
	fmt.Printf("  Lines with timestamp token: %d\n", r.TimestampedLines)
	fmt.Printf("  Parseable timestamps:       %d\n", r.ParseableLines)

	if r.HasTimestamps() {
		fmt.Printf("  Time span:                  %s (%s to %s)\n",
			r.Span(),
			r.FirstTimestamp.Format("15:04:05.000"),
			r.LastTimestamp.Format("15:04:05.000"))
	}

	if len(r.Threads) > 0 {
		shown := r.Threads
		suffix := ""
		if len(shown) > 10 {
			shown = shown[:10]
			suffix = ", ..."
		}
		fmt.Printf("  Threads (%d): %s%s\n", len(r.Threads), strings.Join(shown, ", "), suffix)
	}

	if opts.Entry != "" || opts.Exit != "" {
		fmt.Printf("  Entry pattern hits:         %d\n", r.EntryHits)
		fmt.Printf("  Exit pattern hits:          %d\n", r.ExitHits)
	}

	if len(r.UnparseableSamples) > 0 {
		fmt.Printf("\n  Tokens that failed to parse:\n")
		for _, s := range r.UnparseableSamples {
			fmt.Printf("    %s\n", s)
		}
	}

	if !r.HasTimestamps() {
		fmt.Printf("\n  No parseable timestamps found. Expected tokens look like\n")
		fmt.Printf("  [9/12/25, 13:25:29:271 CDT] at the start of each event line.\n")
	}
}
