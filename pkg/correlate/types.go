// Package correlate matches entry events to exit events and reconstructs
// call durations.
package correlate

import (
	"sort"
	"time"

	"github.com/tracelag/tracelag/pkg/event"
)

// Key identifies one operation on one thread. Matching considers nothing
// else: entry and exit must agree on both fields to pair.
type Key struct {
	ThreadID string
	Method   string
}

// Pair is a matched entry/exit with its reconstructed duration.
type Pair struct {
	ThreadID string        `json:"thread_id"`
	Method   string        `json:"method"`
	Duration time.Duration `json:"duration_ns"`
	Entry    event.Event   `json:"entry"`
	Exit     event.Event   `json:"exit"`

	// Unreliable marks durations computed from a parse-failed timestamp or
	// from non-monotonic timestamps (negative duration). Such pairs are
	// flagged and kept, never discarded.
	Unreliable bool `json:"unreliable,omitempty"`
}

// Seconds returns the duration as float seconds, the unit reports use.
func (p Pair) Seconds() float64 {
	return p.Duration.Seconds()
}

// Unmatched is an entry still open when the input ended.
type Unmatched struct {
	ThreadID string      `json:"thread_id"`
	Method   string      `json:"method"`
	Entry    event.Event `json:"entry"`
}

// Counts aggregates correlation outcomes for one pass. All counters are
// independent of any reporting threshold.
type Counts struct {
	Entries          int `json:"entries"`
	Exits            int `json:"exits"`
	Matched          int `json:"matched"`
	UnmatchedEntries int `json:"unmatched_entries"`
	OrphanExits      int `json:"orphan_exits"`
	ParseWarnings    int `json:"parse_warnings"`
	Unreliable       int `json:"unreliable"`
}

// Add merges another pass's counters, used when partitioned engines are
// combined.
func (c *Counts) Add(o Counts) {
	c.Entries += o.Entries
	c.Exits += o.Exits
	c.Matched += o.Matched
	c.UnmatchedEntries += o.UnmatchedEntries
	c.OrphanExits += o.OrphanExits
	c.ParseWarnings += o.ParseWarnings
	c.Unreliable += o.Unreliable
}

// Result is the outcome of one correlation pass.
type Result struct {
	Pairs     []Pair      `json:"pairs"`
	Unmatched []Unmatched `json:"unmatched"`
	Counts    Counts      `json:"counts"`
}

// Merge combines results from partitioned passes into one. Pairs keep
// their per-part emission order, concatenated in argument order; unmatched
// entries are re-sorted across parts; counters are summed.
func Merge(parts ...*Result) *Result {
	merged := &Result{}
	for _, part := range parts {
		if part == nil {
			continue
		}
		merged.Pairs = append(merged.Pairs, part.Pairs...)
		merged.Unmatched = append(merged.Unmatched, part.Unmatched...)
		merged.Counts.Add(part.Counts)
	}
	SortUnmatched(merged.Unmatched)
	return merged
}

// SortUnmatched orders unmatched entries by thread, method, then entry time
// so listings are reproducible regardless of table iteration order.
func SortUnmatched(u []Unmatched) {
	sort.Slice(u, func(i, j int) bool {
		if u[i].ThreadID != u[j].ThreadID {
			return u[i].ThreadID < u[j].ThreadID
		}
		if u[i].Method != u[j].Method {
			return u[i].Method < u[j].Method
		}
		if !u[i].Entry.Time.Equal(u[j].Entry.Time) {
			return u[i].Entry.Time.Before(u[j].Entry.Time)
		}
		return u[i].Entry.Seq < u[j].Entry.Seq
	})
}
