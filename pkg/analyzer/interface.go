package analyzer

import (
	"context"

	"github.com/tracelag/tracelag/pkg/correlate"
	"github.com/tracelag/tracelag/pkg/event"
)

// correlator consumes classified events and yields a correlation result.
// Stream mode pairs events as they arrive; batch mode buffers, sorts, and
// replays them. Both produce equivalent results for inputs whose per-key
// file order agrees with timestamp order.
type correlator interface {
	// feed hands one classified event to the correlator.
	feed(ctx context.Context, ev event.Event) error

	// drain completes correlation and returns the result. A correlator is
	// done after drain; create a new one for another pass.
	drain(ctx context.Context) (*correlate.Result, error)

	// close releases any resources without draining. Safe to call after
	// drain, and more than once.
	close() error
}

type streamCorrelator struct {
	eng *correlate.Engine
}

func newStreamCorrelator() *streamCorrelator {
	return &streamCorrelator{eng: correlate.NewEngine()}
}

func (s *streamCorrelator) feed(_ context.Context, ev event.Event) error {
	s.eng.Process(ev)
	return nil
}

func (s *streamCorrelator) drain(_ context.Context) (*correlate.Result, error) {
	return s.eng.Drain(), nil
}

func (s *streamCorrelator) close() error { return nil }

type batchCorrelator struct {
	sm *correlate.SortMerge
}

func newBatchCorrelator() *batchCorrelator {
	return &batchCorrelator{sm: correlate.NewSortMerge()}
}

func (b *batchCorrelator) feed(_ context.Context, ev event.Event) error {
	return b.sm.Add(ev)
}

func (b *batchCorrelator) drain(ctx context.Context) (*correlate.Result, error) {
	return b.sm.Drain(ctx)
}

func (b *batchCorrelator) close() error { return b.sm.Close() }
