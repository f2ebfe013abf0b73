package report

import (
	"context"
	"io"
)

// Formatter renders a report to a writer.
type Formatter interface {
	// Format writes the report. Implementations must not retain w.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the formatter name (e.g., "text", "json").
	Name() string
}

// FormatOptions adjusts formatter verbosity.
type FormatOptions struct {
	// Verbose adds per-entry listings of unmatched entries.
	Verbose bool

	// Quiet reduces output to slow operations only, one per line.
	Quiet bool
}
