// Package probe inspects a sample of a trace log and reports what the
// scanner would see: bracketed timestamp tokens, how many of them parse,
// pattern hits, and the thread ids present. It exists to debug pattern
// mismatches before running a full analysis.
package probe

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tracelag/tracelag/pkg/scan"
	"github.com/tracelag/tracelag/pkg/timestamp"
)

const (
	defaultSampleSize     = 100
	maxUnparseableSamples = 3
)

// Result holds what a sample of the log looked like to the scanner.
type Result struct {
	// SampledLines counts the non-empty lines inspected.
	SampledLines int `json:"sampled_lines"`

	// TimestampedLines counts lines carrying a bracketed token.
	TimestampedLines int `json:"timestamped_lines"`

	// ParseableLines counts lines whose token parsed as a timestamp.
	ParseableLines int `json:"parseable_lines"`

	// EntryHits and ExitHits count pattern occurrences; both stay zero
	// when no patterns were supplied.
	EntryHits int `json:"entry_hits"`
	ExitHits  int `json:"exit_hits"`

	// Threads lists distinct thread ids in first-seen order.
	Threads []string `json:"threads,omitempty"`

	// FirstTimestamp and LastTimestamp are the first and last parseable
	// timestamps in sample order. Zero when nothing parsed.
	FirstTimestamp time.Time `json:"first_timestamp"`
	LastTimestamp  time.Time `json:"last_timestamp"`

	// UnparseableSamples holds a few tokens that looked like timestamps
	// but failed to parse.
	UnparseableSamples []string `json:"unparseable_samples,omitempty"`
}

// HasTimestamps reports whether any sampled line parsed.
func (r *Result) HasTimestamps() bool {
	return r.ParseableLines > 0
}

// Span returns the time covered by the sample, or zero when fewer than
// two lines parsed.
func (r *Result) Span() time.Duration {
	if r.FirstTimestamp.IsZero() || r.LastTimestamp.IsZero() {
		return 0
	}
	return r.LastTimestamp.Sub(r.FirstTimestamp)
}

// Prober samples log lines and classifies what it finds.
type Prober struct {
	sampleSize int
	entry      string
	exit       string
}

// Option configures the Prober.
type Option func(*Prober)

// WithSampleSize sets the number of lines to sample (default 100).
func WithSampleSize(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.sampleSize = n
		}
	}
}

// WithPatterns adds entry/exit pattern counting to the probe. Either
// pattern may be empty.
func WithPatterns(entry, exit string) Option {
	return func(p *Prober) {
		p.entry = entry
		p.exit = exit
	}
}

// New creates a Prober.
func New(opts ...Option) *Prober {
	p := &Prober{sampleSize: defaultSampleSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromFile samples the head of a log file.
func (p *Prober) FromFile(ctx context.Context, path string) (*Result, error) {
	src, err := scan.NewFileSource(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	lines := make([]string, 0, p.sampleSize)
	for len(lines) < p.sampleSize {
		line, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sampling %s: %w", path, err)
		}
		if strings.TrimSpace(line.Text) == "" {
			continue
		}
		lines = append(lines, line.Text)
	}

	return p.FromLines(lines), nil
}

// FromLines inspects the given lines.
func (p *Prober) FromLines(lines []string) *Result {
	result := &Result{}
	seen := make(map[string]bool)

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		result.SampledLines++

		if p.entry != "" && strings.Contains(line, p.entry) {
			result.EntryHits++
		}
		if p.exit != "" && strings.Contains(line, p.exit) {
			result.ExitHits++
		}

		token, ok := timestamp.Extract(line)
		if !ok {
			continue
		}
		result.TimestampedLines++

		ts, err := timestamp.Parse(token)
		if err != nil {
			if len(result.UnparseableSamples) < maxUnparseableSamples {
				result.UnparseableSamples = append(result.UnparseableSamples, token)
			}
			continue
		}
		result.ParseableLines++
		if result.FirstTimestamp.IsZero() {
			result.FirstTimestamp = ts
		}
		result.LastTimestamp = ts

		if thread := threadAfterToken(line, token); thread != "" && !seen[thread] {
			seen[thread] = true
			result.Threads = append(result.Threads, thread)
		}
	}

	return result
}

// threadAfterToken returns the first whitespace-separated field after the
// timestamp token, the same position the classifier reads the thread id
// from.
func threadAfterToken(line, token string) string {
	idx := strings.Index(line, token)
	if idx < 0 {
		return ""
	}
	rest := strings.Fields(line[idx+len(token):])
	if len(rest) == 0 {
		return ""
	}
	return rest[0]
}
