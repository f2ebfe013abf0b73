package correlate

import (
	"context"
	"io"
	"sort"

	"github.com/tracelag/tracelag/pkg/event"
)

// defaultSpillThreshold is how many events the batch realization holds in
// memory before writing a sorted run to disk.
const defaultSpillThreshold = 1 << 20

// SortMerge is the batch realization of correlation. Events are collected,
// sorted by (thread, method, timestamp, sequence), and replayed through a
// streaming Engine. Sorting makes each key's events contiguous and in
// timestamp order, so each exit consumes the most recent prior open entry
// for its key, and earlier overwritten entries stay discarded.
//
// For any input whose per-key file order agrees with timestamp order, the
// pair set and all counts are identical to processing the file with a
// streaming Engine directly. Total cost is O(n log n) from the sort.
type SortMerge struct {
	threshold int
	buf       []event.Event
	spill     *spill
}

// SortMergeOption configures a SortMerge.
type SortMergeOption func(*SortMerge)

// WithSpillThreshold sets how many events are held in memory before a
// sorted run is spilled to disk. Values below one are ignored.
func WithSpillThreshold(n int) SortMergeOption {
	return func(s *SortMerge) {
		if n > 0 {
			s.threshold = n
		}
	}
}

// NewSortMerge creates a batch correlator.
func NewSortMerge(opts ...SortMergeOption) *SortMerge {
	s := &SortMerge{threshold: defaultSpillThreshold}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add buffers one event, spilling a sorted run when the buffer is full.
func (s *SortMerge) Add(ev event.Event) error {
	s.buf = append(s.buf, ev)
	if len(s.buf) < s.threshold {
		return nil
	}
	return s.flushRun()
}

// Drain sorts everything accumulated and replays it through a fresh
// Engine, returning that engine's drained result. Spill files are removed
// before Drain returns, on success, error, and cancellation alike.
func (s *SortMerge) Drain(ctx context.Context) (*Result, error) {
	defer s.Close()

	eng := NewEngine()

	if s.spill == nil {
		sortEvents(s.buf)
		for _, ev := range s.buf {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			eng.Process(ev)
		}
		s.buf = nil
		return eng.Drain(), nil
	}

	if err := s.flushRun(); err != nil {
		return nil, err
	}
	merger, err := s.spill.openMerger()
	if err != nil {
		return nil, err
	}
	defer merger.Close()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		ev, err := merger.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		eng.Process(ev)
	}

	return eng.Drain(), nil
}

// Close removes any spill files. Safe to call more than once.
func (s *SortMerge) Close() error {
	if s.spill == nil {
		return nil
	}
	err := s.spill.Close()
	s.spill = nil
	return err
}

func (s *SortMerge) flushRun() error {
	if len(s.buf) == 0 {
		return nil
	}
	if s.spill == nil {
		sp, err := newSpill()
		if err != nil {
			return err
		}
		s.spill = sp
	}

	sortEvents(s.buf)
	if err := s.spill.writeRun(s.buf); err != nil {
		return err
	}
	s.buf = s.buf[:0]
	return nil
}

func sortEvents(evs []event.Event) {
	sort.Slice(evs, func(i, j int) bool {
		return eventLess(evs[i], evs[j])
	})
}
