package report

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func renderText(t *testing.T, r *Report, opts FormatOptions) string {
	t.Helper()
	var buf bytes.Buffer
	f := NewTextFormatter(opts)
	if err := f.Format(context.Background(), r, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	return buf.String()
}

func TestTextFormatter_FullReport(t *testing.T) {
	r := Build(fixtureResult(), "/var/log/trace.log", "")
	out := renderText(t, r, FormatOptions{})

	for _, want := range []string{
		"=== Tracelag Analysis Report ===",
		"Log:     /var/log/trace.log",
		"Mode:    stream",
		"Scanned: 1,234 lines",
		"Profile: orders",
		`Entry pattern: "processOrder ENTRY"`,
		"Threshold:     0.013s",
		"Matched pairs: 3",
		"Slow operations (2 at or above 0.013s):",
		"│ Thread │",
		"0.089s",
		"Min 0.013s  Max 0.089s  Mean 0.051s",
		"Unmatched entries: 1",
		"Profile: ghost",
		"No entry or exit events matched",
		"Profiles checked: 2",
		"Slow operations:  2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestTextFormatter_TableAlignment(t *testing.T) {
	r := Build(fixtureResult(), "", "")
	out := renderText(t, r, FormatOptions{})

	var tableLines []string
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "┌") || strings.HasPrefix(trimmed, "│") ||
			strings.HasPrefix(trimmed, "├") || strings.HasPrefix(trimmed, "└") {
			tableLines = append(tableLines, line)
		}
	}
	if len(tableLines) < 5 {
		t.Fatalf("expected a rendered table, got %d table lines", len(tableLines))
	}
	width := runewidth.StringWidth(tableLines[0])
	for i, line := range tableLines {
		if w := runewidth.StringWidth(line); w != width {
			t.Errorf("table line %d width = %d, want %d:\n%s", i, w, width, line)
		}
	}
}

func TestTextFormatter_Quiet(t *testing.T) {
	r := Build(fixtureResult(), "/var/log/trace.log", "")
	out := renderText(t, r, FormatOptions{Quiet: true})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("quiet output = %d lines, want 2:\n%s", len(lines), out)
	}
	if lines[0] != "orders t3 processOrder 0.089s" {
		t.Errorf("quiet line = %q", lines[0])
	}
	if strings.Contains(out, "===") {
		t.Error("quiet output contains report header")
	}
}

func TestTextFormatter_UnreliableMarker(t *testing.T) {
	res := fixtureResult()
	res.Profiles = res.Profiles[:1]
	res.Profiles[0].Correlation.Pairs[2].Unreliable = true
	res.Profiles[0].Correlation.Counts.Unreliable = 1

	r := Build(res, "", "")
	out := renderText(t, r, FormatOptions{})

	if !strings.Contains(out, "0.089s !") {
		t.Errorf("unreliable duration not marked:\n%s", out)
	}
	if !strings.Contains(out, "! duration computed from unparseable or backwards timestamps") {
		t.Error("unreliable footnote missing")
	}
	if !strings.Contains(out, "(1 unreliable)") {
		t.Error("unreliable count missing from matched line")
	}
}

func TestTextFormatter_VerboseListsUnmatched(t *testing.T) {
	r := Build(fixtureResult(), "", "")

	plain := renderText(t, r, FormatOptions{})
	if strings.Contains(plain, "no exit before end of log") {
		t.Error("unmatched listing shown without --verbose")
	}

	verbose := renderText(t, r, FormatOptions{Verbose: true})
	if !strings.Contains(verbose, "no exit before end of log") {
		t.Error("verbose output missing unmatched listing")
	}
	if !strings.Contains(verbose, "t4 processOrder") {
		t.Errorf("verbose output missing unmatched entry:\n%s", verbose)
	}
}

func TestTextFormatter_Name(t *testing.T) {
	if got := NewTextFormatter(FormatOptions{}).Name(); got != "text" {
		t.Errorf("Name() = %q, want text", got)
	}
}

func TestFormatCount(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{7, "7"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{1234567, "1,234,567"},
	}
	for _, tc := range cases {
		if got := formatCount(tc.in); got != tc.want {
			t.Errorf("formatCount(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
