package analyzer

import (
	"time"

	"github.com/tracelag/tracelag/pkg/correlate"
)

// ProfileResult is one profile's correlation outcome, with the profile
// parameters snapshotted so downstream consumers need no config access.
type ProfileResult struct {
	Name      string
	Entry     string
	Exit      string
	Threshold time.Duration

	Correlation *correlate.Result
}

// Result is the complete outcome of one analysis run.
type Result struct {
	// Profiles holds one entry per profile, in configuration order.
	Profiles []ProfileResult

	// LinesScanned counts every line read from the source, whether or not
	// it classified as an event.
	LinesScanned int

	// Mode and Workers record how the run was executed.
	Mode    string
	Workers int

	// StartTime and EndTime bound the run.
	StartTime time.Time
	EndTime   time.Time
}

// TotalMatched returns the matched pair count across all profiles.
func (r *Result) TotalMatched() int {
	total := 0
	for i := range r.Profiles {
		total += r.Profiles[i].Correlation.Counts.Matched
	}
	return total
}

// NoPatternMatch reports whether the run saw zero entry and zero exit
// events across every profile. An empty input also qualifies.
func (r *Result) NoPatternMatch() bool {
	for i := range r.Profiles {
		c := r.Profiles[i].Correlation.Counts
		if c.Entries > 0 || c.Exits > 0 {
			return false
		}
	}
	return true
}

// Progress reports scan position during a run. Bytes and Total are zero
// when the source cannot report them.
type Progress struct {
	Lines int
	Bytes int64
	Total int64
}

// ProgressFunc receives throttled progress updates during a run. It is
// called from the scanning goroutine and must not block.
type ProgressFunc func(Progress)
