package report

import (
	"sort"
	"time"

	"github.com/tracelag/tracelag/pkg/correlate"
)

// SlowPairs returns the pairs whose duration meets or exceeds the
// threshold, slowest first. The comparison is inclusive: an operation
// exactly at the threshold is reported. Unreliable pairs are eligible like
// any other. Ties order by thread, method, entry time, then arrival, so
// output is reproducible.
func SlowPairs(pairs []correlate.Pair, threshold time.Duration) []correlate.Pair {
	slow := make([]correlate.Pair, 0)
	for _, p := range pairs {
		if p.Duration >= threshold {
			slow = append(slow, p)
		}
	}
	sort.Slice(slow, func(i, j int) bool {
		if slow[i].Duration != slow[j].Duration {
			return slow[i].Duration > slow[j].Duration
		}
		if slow[i].ThreadID != slow[j].ThreadID {
			return slow[i].ThreadID < slow[j].ThreadID
		}
		if slow[i].Method != slow[j].Method {
			return slow[i].Method < slow[j].Method
		}
		if !slow[i].Entry.Time.Equal(slow[j].Entry.Time) {
			return slow[i].Entry.Time.Before(slow[j].Entry.Time)
		}
		return slow[i].Entry.Seq < slow[j].Entry.Seq
	})
	return slow
}

// ComputeStats returns min, max, and mean over the given pairs, or nil for
// an empty slice. Callers pass the slow subset: the statistics describe
// what the report shows, not the whole run.
func ComputeStats(pairs []correlate.Pair) *Stats {
	if len(pairs) == 0 {
		return nil
	}
	s := &Stats{
		Count: len(pairs),
		Min:   pairs[0].Duration,
		Max:   pairs[0].Duration,
	}
	var sum time.Duration
	for _, p := range pairs {
		if p.Duration < s.Min {
			s.Min = p.Duration
		}
		if p.Duration > s.Max {
			s.Max = p.Duration
		}
		sum += p.Duration
	}
	s.Mean = sum / time.Duration(s.Count)
	return s
}
