package report

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/tracelag/tracelag/pkg/correlate"
)

// TextFormatter renders a human-readable report.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the formatter name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format writes the report as text.
func (f *TextFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	var b strings.Builder

	if f.opts.Quiet {
		f.formatQuiet(&b, report)
	} else {
		f.formatFull(&b, report)
	}

	_, err := fmt.Fprint(w, b.String())
	return err
}

// formatQuiet emits one line per slow operation and nothing else.
func (f *TextFormatter) formatQuiet(b *strings.Builder, report *Report) {
	for _, p := range report.Profiles {
		for _, pair := range p.Slow {
			flag := ""
			if pair.Unreliable {
				flag = " !"
			}
			fmt.Fprintf(b, "%s %s %s %.3fs%s\n",
				p.Name, pair.ThreadID, pair.Method, pair.Seconds(), flag)
		}
	}
}

func (f *TextFormatter) formatFull(b *strings.Builder, report *Report) {
	b.WriteString("=== Tracelag Analysis Report ===\n\n")

	if report.Metadata.LogFile != "" {
		fmt.Fprintf(b, "Log:     %s\n", report.Metadata.LogFile)
	}
	if report.Metadata.ConfigFile != "" {
		fmt.Fprintf(b, "Config:  %s\n", report.Metadata.ConfigFile)
	}
	fmt.Fprintf(b, "Mode:    %s", report.Metadata.Mode)
	if report.Metadata.Workers > 1 {
		fmt.Fprintf(b, " (%d workers)", report.Metadata.Workers)
	}
	b.WriteByte('\n')
	fmt.Fprintf(b, "Scanned: %s lines in %s\n",
		formatCount(report.Summary.LinesScanned),
		report.Metadata.Elapsed().Round(time.Millisecond))

	for _, p := range report.Profiles {
		f.formatProfile(b, p)
	}

	b.WriteString("\nSummary:\n")
	fmt.Fprintf(b, "  Profiles checked: %d\n", report.Summary.ProfilesChecked)
	fmt.Fprintf(b, "  Matched pairs:    %s\n", formatCount(report.Summary.TotalMatched))
	fmt.Fprintf(b, "  Slow operations:  %s\n", formatCount(report.Summary.TotalSlow))
}

func (f *TextFormatter) formatProfile(b *strings.Builder, p *ProfileReport) {
	fmt.Fprintf(b, "\nProfile: %s\n", p.Name)
	fmt.Fprintf(b, "  Entry pattern: %q\n", p.EntryPattern)
	fmt.Fprintf(b, "  Exit pattern:  %q\n", p.ExitPattern)
	fmt.Fprintf(b, "  Threshold:     %.3fs\n", p.Threshold.Seconds())

	if p.NoPatternMatch {
		b.WriteString("\n  No entry or exit events matched. Check the patterns against the\n")
		b.WriteString("  log; \"tracelag probe <file>\" shows what the scanner sees.\n")
		return
	}

	c := p.Counts
	fmt.Fprintf(b, "  Matched pairs: %d", c.Matched)
	if c.Unreliable > 0 {
		fmt.Fprintf(b, " (%d unreliable)", c.Unreliable)
	}
	b.WriteByte('\n')

	if len(p.Slow) == 0 {
		fmt.Fprintf(b, "\n  No operations at or above %.3fs.\n", p.Threshold.Seconds())
	} else {
		fmt.Fprintf(b, "\n  Slow operations (%d at or above %.3fs):\n",
			len(p.Slow), p.Threshold.Seconds())
		writeSlowTable(b, p.Slow)
		fmt.Fprintf(b, "  Min %.3fs  Max %.3fs  Mean %.3fs\n",
			p.Stats.Min.Seconds(), p.Stats.Max.Seconds(), p.Stats.Mean.Seconds())
	}

	if c.UnmatchedEntries > 0 || c.OrphanExits > 0 || c.ParseWarnings > 0 {
		b.WriteByte('\n')
		fmt.Fprintf(b, "  Unmatched entries: %d\n", c.UnmatchedEntries)
		fmt.Fprintf(b, "  Orphan exits:      %d\n", c.OrphanExits)
		fmt.Fprintf(b, "  Parse warnings:    %d\n", c.ParseWarnings)
	}

	if f.opts.Verbose && len(p.Unmatched) > 0 {
		b.WriteString("\n  Unmatched entries (no exit before end of log):\n")
		for _, u := range p.Unmatched {
			fmt.Fprintf(b, "    %s %s %s\n", u.ThreadID, u.Method, u.Entry.RawTimestamp)
		}
	}
}

var slowHeaders = []string{"Thread", "Method", "Duration", "Entry", "Exit"}

// durationCol is the only right-aligned column in the slow table.
const durationCol = 2

func writeSlowTable(b *strings.Builder, pairs []correlate.Pair) {
	rows := make([][]string, 0, len(pairs))
	unreliable := false
	for _, p := range pairs {
		d := fmt.Sprintf("%.3fs", p.Seconds())
		if p.Unreliable {
			d += " !"
			unreliable = true
		}
		rows = append(rows, []string{
			p.ThreadID, p.Method, d, p.Entry.RawTimestamp, p.Exit.RawTimestamp,
		})
	}

	const indent = "  "
	widths := columnWidths(slowHeaders, rows)
	writeBorder(b, indent, widths, "┌", "┬", "┐")
	writeTableRow(b, indent, widths, slowHeaders)
	writeBorder(b, indent, widths, "├", "┼", "┤")
	for _, row := range rows {
		writeTableRow(b, indent, widths, row)
	}
	writeBorder(b, indent, widths, "└", "┴", "┘")

	if unreliable {
		b.WriteString(indent + "! duration computed from unparseable or backwards timestamps\n")
	}
}

// columnWidths sizes each column to its widest cell, header included.
// Widths are display widths, so wide runes in thread names or methods
// still line up.
func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func writeBorder(b *strings.Builder, indent string, widths []int, left, mid, right string) {
	b.WriteString(indent)
	b.WriteString(left)
	for i, w := range widths {
		b.WriteString(strings.Repeat("─", w+2))
		if i < len(widths)-1 {
			b.WriteString(mid)
		}
	}
	b.WriteString(right)
	b.WriteByte('\n')
}

func writeTableRow(b *strings.Builder, indent string, widths []int, cells []string) {
	b.WriteString(indent)
	b.WriteString("│")
	for i, cell := range cells {
		pad := widths[i] - runewidth.StringWidth(cell)
		if pad < 0 {
			pad = 0
		}
		if i == durationCol {
			fmt.Fprintf(b, " %s%s │", strings.Repeat(" ", pad), cell)
		} else {
			fmt.Fprintf(b, " %s%s │", cell, strings.Repeat(" ", pad))
		}
	}
	b.WriteByte('\n')
}

// formatCount groups digits for readability: 12345 becomes "12,345".
func formatCount(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
