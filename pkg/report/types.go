// Package report filters correlation results against per-profile
// thresholds and renders the outcome for humans and machines.
package report

import (
	"time"

	"github.com/tracelag/tracelag/pkg/analyzer"
	"github.com/tracelag/tracelag/pkg/correlate"
)

// Report is the complete rendered view of one analysis run.
type Report struct {
	// Profiles holds one section per profile, in configuration order.
	Profiles []*ProfileReport `json:"profiles"`

	// Summary aggregates across profiles.
	Summary Summary `json:"summary"`

	// Metadata records how and when the run executed.
	Metadata Metadata `json:"metadata"`
}

// ProfileReport is one profile's findings.
type ProfileReport struct {
	Name         string        `json:"name"`
	EntryPattern string        `json:"entry_pattern"`
	ExitPattern  string        `json:"exit_pattern"`
	Threshold    time.Duration `json:"threshold_ns"`

	// Slow holds the pairs at or above the threshold, slowest first.
	Slow []correlate.Pair `json:"slow"`

	// Stats summarizes the slow pairs. Nil when nothing was slow.
	Stats *Stats `json:"stats,omitempty"`

	Counts    correlate.Counts      `json:"counts"`
	Unmatched []correlate.Unmatched `json:"unmatched,omitempty"`

	// NoPatternMatch is set when the scan produced no entry and no exit
	// events for this profile, a likely sign the patterns are wrong.
	NoPatternMatch bool `json:"no_pattern_match"`
}

// Stats summarizes slow-pair durations.
type Stats struct {
	Count int           `json:"count"`
	Min   time.Duration `json:"min_ns"`
	Max   time.Duration `json:"max_ns"`
	Mean  time.Duration `json:"mean_ns"`
}

// Summary aggregates findings across all profiles.
type Summary struct {
	ProfilesChecked int  `json:"profiles_checked"`
	LinesScanned    int  `json:"lines_scanned"`
	TotalMatched    int  `json:"total_matched"`
	TotalSlow       int  `json:"total_slow"`
	NoPatternMatch  bool `json:"no_pattern_match"`
}

// Metadata records the context of the run.
type Metadata struct {
	LogFile    string    `json:"log_file,omitempty"`
	ConfigFile string    `json:"config_file,omitempty"`
	Mode       string    `json:"mode"`
	Workers    int       `json:"workers,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

// Elapsed returns the wall time of the run.
func (m Metadata) Elapsed() time.Duration {
	return m.EndTime.Sub(m.StartTime)
}

// Build assembles a report from an analysis result. logFile and configFile
// are recorded for traceability; either may be empty.
func Build(res *analyzer.Result, logFile, configFile string) *Report {
	r := &Report{
		Profiles: make([]*ProfileReport, 0, len(res.Profiles)),
		Summary: Summary{
			ProfilesChecked: len(res.Profiles),
			LinesScanned:    res.LinesScanned,
		},
		Metadata: Metadata{
			LogFile:    logFile,
			ConfigFile: configFile,
			Mode:       res.Mode,
			Workers:    res.Workers,
			StartTime:  res.StartTime,
			EndTime:    res.EndTime,
		},
	}

	for i := range res.Profiles {
		pr := &res.Profiles[i]
		slow := SlowPairs(pr.Correlation.Pairs, pr.Threshold)
		section := &ProfileReport{
			Name:           pr.Name,
			EntryPattern:   pr.Entry,
			ExitPattern:    pr.Exit,
			Threshold:      pr.Threshold,
			Slow:           slow,
			Stats:          ComputeStats(slow),
			Counts:         pr.Correlation.Counts,
			Unmatched:      pr.Correlation.Unmatched,
			NoPatternMatch: pr.Correlation.Counts.Entries == 0 && pr.Correlation.Counts.Exits == 0,
		}
		r.Profiles = append(r.Profiles, section)
		r.Summary.TotalMatched += section.Counts.Matched
		r.Summary.TotalSlow += len(slow)
	}

	r.Summary.NoPatternMatch = res.NoPatternMatch()
	return r
}

// HasSlow reports whether any profile found slow operations.
func (r *Report) HasSlow() bool {
	return r.Summary.TotalSlow > 0
}
