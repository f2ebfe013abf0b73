package correlate

import (
	"sync"

	"github.com/tracelag/tracelag/pkg/event"
)

// Engine is the streaming realization of entry/exit correlation. It keeps an
// open-entry table keyed by (thread, method) and mutates it one event at a
// time, so a pass over n events costs O(n) expected.
//
// At most one entry is open per key. A new entry for an already-open key
// replaces the held one silently: re-entrant calls are not tracked. The
// overwritten entry is neither matched nor reported unmatched.
type Engine struct {
	mu     sync.Mutex
	open   map[Key]event.Event
	pairs  []Pair
	counts Counts
}

// NewEngine creates an engine with an empty open-entry table.
func NewEngine() *Engine {
	return &Engine{
		open: make(map[Key]event.Event),
	}
}

// Process dispatches one event to OnEntry or OnExit.
func (e *Engine) Process(ev event.Event) {
	if ev.Kind == event.KindEntry {
		e.OnEntry(ev)
		return
	}
	e.OnExit(ev)
}

// OnEntry records ev as the open entry for its key, replacing any entry
// already held there.
func (e *Engine) OnEntry(ev event.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.counts.Entries++
	if !ev.ParseOK {
		e.counts.ParseWarnings++
	}
	e.open[Key{ev.ThreadID, ev.Method}] = ev
}

// OnExit matches ev against the open entry for its key. A match emits a
// pair and closes the key; an exit with no open entry is counted as an
// orphan and emits nothing.
func (e *Engine) OnExit(ev event.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.counts.Exits++
	if !ev.ParseOK {
		e.counts.ParseWarnings++
	}

	key := Key{ev.ThreadID, ev.Method}
	entry, ok := e.open[key]
	if !ok {
		e.counts.OrphanExits++
		return
	}
	delete(e.open, key)

	pair := newPair(entry, ev)
	if pair.Unreliable {
		e.counts.Unreliable++
	}
	e.pairs = append(e.pairs, pair)
	e.counts.Matched++
}

// Drain converts every entry still open into an Unmatched record, clears
// the table, and returns the accumulated result. Pairs keep emission order;
// unmatched entries are sorted for reproducible listings.
func (e *Engine) Drain() *Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	unmatched := make([]Unmatched, 0, len(e.open))
	for key, entry := range e.open {
		unmatched = append(unmatched, Unmatched{
			ThreadID: key.ThreadID,
			Method:   key.Method,
			Entry:    entry,
		})
	}
	SortUnmatched(unmatched)
	e.counts.UnmatchedEntries += len(unmatched)
	e.open = make(map[Key]event.Event)

	return &Result{
		Pairs:     e.pairs,
		Unmatched: unmatched,
		Counts:    e.counts,
	}
}

// Reset clears all state for reuse.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.open = make(map[Key]event.Event)
	e.pairs = nil
	e.counts = Counts{}
}

// newPair builds a matched pair. Durations computed from a parse-failed or
// non-monotonic timestamp are flagged unreliable.
func newPair(entry, exit event.Event) Pair {
	d := exit.Time.Sub(entry.Time)
	return Pair{
		ThreadID:   exit.ThreadID,
		Method:     exit.Method,
		Duration:   d,
		Entry:      entry,
		Exit:       exit,
		Unreliable: !entry.ParseOK || !exit.ParseOK || d < 0,
	}
}
