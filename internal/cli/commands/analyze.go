package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tracelag/tracelag/internal/logger"
	"github.com/tracelag/tracelag/pkg/analyzer"
	"github.com/tracelag/tracelag/pkg/config"
	"github.com/tracelag/tracelag/pkg/report"
	"github.com/tracelag/tracelag/pkg/scan"
	"github.com/tracelag/tracelag/pkg/webhook"
)

// ExitCode is set by commands to indicate the result.
var ExitCode = 0

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	Entry     string
	Exit      string
	Threshold string
	Config    string

	Output   string
	Mode     string
	Workers  int
	Profiles []string
	Progress bool
	Verbose  bool
	Quiet    bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <log-file>",
		Short: "Scan a trace log for slow operations",
		Long: `Scan a trace log once, pair method entries with their exits per thread,
and report the operations whose duration met or exceeded the threshold.

Patterns come either from flags:

  tracelag analyze trace.log --entry "processOrder ENTRY" \
      --exit "processOrder RETURN" --threshold 0.013

or from a configuration file defining one or more profiles:

  tracelag analyze trace.log --config tracelag.yaml

Thresholds are decimal seconds; the comparison is inclusive, so an
operation exactly at the threshold is reported.

Exit codes:
  0 - Analysis completed (slow operations may or may not exist)
  1 - No entry or exit events matched the patterns at all
  2 - Usage, configuration, or runtime error`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Entry, "entry", "", "Entry pattern (literal substring)")
	cmd.Flags().StringVar(&opts.Exit, "exit", "", "Exit pattern (literal substring)")
	cmd.Flags().StringVar(&opts.Threshold, "threshold", "", "Slow threshold in seconds (e.g. 0.013)")
	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "Configuration file with profiles")

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "Correlation mode (stream|batch); default from config")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Correlation workers; 0 or 1 keeps a single pass")
	cmd.Flags().StringSliceVar(&opts.Profiles, "profile", nil, "Run specific profile(s) only (can be repeated)")
	cmd.Flags().BoolVar(&opts.Progress, "progress", false, "Show scan progress on stderr")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "List unmatched entries individually")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Print slow operations only, one per line")

	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "on_slow", "When to fire webhook (on_slow|always|never)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := resolveConfig(ctx, opts)
	if err != nil {
		return err
	}

	logPath := cfg.Log
	if len(args) == 1 {
		logPath = args[0]
	}
	if logPath == "" {
		return fmt.Errorf("no log file given (pass it as an argument or set log: in the config)")
	}

	// Reject bad flag combinations before touching the input.
	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}
	if err := validateMode(opts.Mode); err != nil {
		return err
	}

	analyzerOpts := []analyzer.Option{
		analyzer.WithMode(config.Mode(opts.Mode)),
		analyzer.WithWorkers(opts.Workers),
	}
	if len(opts.Profiles) > 0 {
		analyzerOpts = append(analyzerOpts, analyzer.WithProfileFilter(opts.Profiles))
	}

	var bar *progressBar
	if opts.Progress {
		bar = newProgressBar(os.Stderr)
		analyzerOpts = append(analyzerOpts, analyzer.WithProgress(bar.update))
	}

	a, err := analyzer.New(cfg, analyzerOpts...)
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	source, err := scan.NewFileSource(logPath)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer source.Close()

	logger.Debug("starting analysis",
		zap.String("log", logPath),
		zap.Int("profiles", len(cfg.Profiles)),
		zap.Int64("bytes", source.Size()))

	result, err := a.Run(ctx, source)
	if bar != nil {
		bar.done()
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	logger.Debug("analysis complete",
		zap.String("mode", result.Mode),
		zap.Int("workers", result.Workers),
		zap.Int("lines", result.LinesScanned),
		zap.Duration("elapsed", result.EndTime.Sub(result.StartTime)))

	rep := report.Build(result, logPath, opts.Config)

	if err := formatter.Format(ctx, rep, os.Stdout); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Send webhooks (errors logged but don't fail analysis)
	sendWebhooks(ctx, cfg, opts, rep)

	// A scan that classified nothing at all is reported, but exits
	// distinctly so scripts can tell "patterns wrong" from "nothing slow".
	if rep.Summary.NoPatternMatch {
		ExitCode = 1
	}

	return nil
}

// resolveConfig builds the run configuration from either --config or the
// ad-hoc pattern flags.
func resolveConfig(ctx context.Context, opts *AnalyzeOptions) (*config.Config, error) {
	adHoc := opts.Entry != "" || opts.Exit != "" || opts.Threshold != ""

	if opts.Config != "" {
		if adHoc {
			return nil, fmt.Errorf("--entry/--exit/--threshold cannot be combined with --config")
		}
		cfg, err := config.Load(ctx, opts.Config)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	if opts.Entry == "" || opts.Exit == "" || opts.Threshold == "" {
		return nil, fmt.Errorf("--entry, --exit, and --threshold are all required without --config")
	}

	cfg := config.DefaultConfig()
	cfg.Profiles = []config.ProfileConfig{{
		Name:      "cli",
		Entry:     opts.Entry,
		Exit:      opts.Exit,
		Threshold: opts.Threshold,
	}}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateMode(mode string) error {
	switch mode {
	case "", config.ModeStream, config.ModeBatch:
		return nil
	default:
		return fmt.Errorf("invalid mode %q (use stream or batch)", mode)
	}
}

func createFormatter(opts *AnalyzeOptions) (report.Formatter, error) {
	formatOpts := report.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	}

	switch opts.Output {
	case "text":
		return report.NewTextFormatter(formatOpts), nil
	case "json":
		return report.NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
}

// sendWebhooks sends the report to all configured webhooks.
// Errors are logged to stderr but don't fail the analysis.
func sendWebhooks(ctx context.Context, cfg *config.Config, opts *AnalyzeOptions, rep *report.Report) {
	webhooks := collectWebhooks(cfg, opts)

	if len(webhooks) == 0 {
		return
	}

	client := webhook.NewClient()

	for _, wh := range webhooks {
		if !webhook.ShouldSend(wh.Trigger, rep) {
			continue
		}

		resp := client.Send(ctx, rep, webhook.SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			fmt.Fprintf(os.Stderr, "Webhook %s: sent (%d, %s)\n", name, resp.StatusCode, resp.Duration)
		} else {
			fmt.Fprintf(os.Stderr, "Webhook %s: failed (%v)\n", name, resp.Error)
		}
	}
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *AnalyzeOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)

	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnSlow
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}
