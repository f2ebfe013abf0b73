package analyzer

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"sync"

	"github.com/tracelag/tracelag/pkg/correlate"
	"github.com/tracelag/tracelag/pkg/event"
	"github.com/tracelag/tracelag/pkg/scan"
)

const workQueueDepth = 256

type workItem struct {
	profile int
	ev      event.Event
}

// poolWorker owns one correlator per profile and consumes its shard of
// events from ch. err is written only by the worker goroutine and read by
// the coordinator after the pool has been joined.
type poolWorker struct {
	ch          chan workItem
	correlators []correlator
	err         error
}

func (w *poolWorker) run(ctx context.Context) {
	for item := range w.ch {
		if w.err != nil {
			continue // keep consuming so the sender never blocks
		}
		if err := w.correlators[item.profile].feed(ctx, item.ev); err != nil {
			w.err = err
		}
	}
}

// shardFor maps a thread id to a worker index. Every event of a thread
// lands on the same worker, which preserves per-key arrival order.
func shardFor(threadID string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(threadID))
	return int(h.Sum32() % uint32(n))
}

// runParallel shards classified events across workers by thread id. The
// union of the per-worker results equals a single-worker run, so worker
// count never changes what is reported.
func (a *Analyzer) runParallel(ctx context.Context, source scan.LineSource, res *Result) error {
	workers := make([]*poolWorker, a.workers)
	for i := range workers {
		w := &poolWorker{
			ch:          make(chan workItem, workQueueDepth),
			correlators: make([]correlator, len(a.profiles)),
		}
		for j := range w.correlators {
			w.correlators[j] = a.newCorrelator()
		}
		workers[i] = w
	}

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *poolWorker) {
			defer wg.Done()
			w.run(ctx)
		}(w)
	}

	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		for _, w := range workers {
			close(w.ch)
		}
		wg.Wait()
	}
	defer func() {
		stop()
		for _, w := range workers {
			for _, c := range w.correlators {
				c.close()
			}
		}
	}()

	meter := newProgressMeter(a.progress, source)

	for {
		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading log source: %w", err)
		}

		res.LinesScanned++
		meter.tick(res.LinesScanned)

		for i, cl := range a.classifiers {
			ev, ok := cl.Classify(line.Text)
			if !ok {
				continue
			}
			w := workers[shardFor(ev.ThreadID, len(workers))]
			select {
			case w.ch <- workItem{profile: i, ev: ev}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	stop()

	for _, w := range workers {
		if w.err != nil {
			return fmt.Errorf("correlation worker: %w", w.err)
		}
	}

	// Drain profile-major so merged pair order is deterministic for a
	// fixed worker count.
	for i := range a.profiles {
		parts := make([]*correlate.Result, len(workers))
		for j, w := range workers {
			part, err := w.correlators[i].drain(ctx)
			if err != nil {
				return fmt.Errorf("draining profile %q: %w", a.profiles[i].Name, err)
			}
			parts[j] = part
		}
		res.Profiles[i].Correlation = correlate.Merge(parts...)
	}

	meter.finish(res.LinesScanned)
	return nil
}
