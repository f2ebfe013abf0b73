package correlate

import (
	"bufio"
	"container/heap"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/tracelag/tracelag/pkg/event"
)

// eventLess is the batch sort order: key fields first so one key's events
// are contiguous, then timestamp, then file sequence so duplicate
// timestamps keep file order.
func eventLess(a, b event.Event) bool {
	if a.ThreadID != b.ThreadID {
		return a.ThreadID < b.ThreadID
	}
	if a.Method != b.Method {
		return a.Method < b.Method
	}
	if !a.Time.Equal(b.Time) {
		return a.Time.Before(b.Time)
	}
	return a.Seq < b.Seq
}

// spill owns an on-disk directory of sorted event runs. The directory is
// created when the first run is written and must be removed on every exit
// path; Close is idempotent.
type spill struct {
	dir  string
	runs []string
}

func newSpill() (*spill, error) {
	dir, err := os.MkdirTemp("", "tracelag-sort-*")
	if err != nil {
		return nil, fmt.Errorf("creating spill directory: %w", err)
	}
	return &spill{dir: dir}, nil
}

// writeRun persists one already-sorted batch of events as a run file, one
// JSON document per line.
func (s *spill) writeRun(events []event.Event) error {
	path := filepath.Join(s.dir, fmt.Sprintf("run-%04d.jsonl", len(s.runs)))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating run file: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, ev := range events {
		data, err := sonic.Marshal(ev)
		if err != nil {
			f.Close()
			return fmt.Errorf("encoding event: %w", err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			f.Close()
			return fmt.Errorf("writing run file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing run file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing run file: %w", err)
	}

	s.runs = append(s.runs, path)
	return nil
}

// Close removes the spill directory and everything in it.
func (s *spill) Close() error {
	if s.dir == "" {
		return nil
	}
	dir := s.dir
	s.dir = ""
	return os.RemoveAll(dir)
}

// openMerger opens every run file for a k-way merge.
func (s *spill) openMerger() (*runMerger, error) {
	m := &runMerger{cursors: &runHeap{}}
	heap.Init(m.cursors)

	for _, path := range s.runs {
		f, err := os.Open(path)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("opening run file: %w", err)
		}
		m.files = append(m.files, f)

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		cur := &runCursor{scanner: scanner}

		ok, err := cur.advance()
		if err != nil {
			m.Close()
			return nil, err
		}
		if ok {
			heap.Push(m.cursors, cur)
		}
	}

	return m, nil
}

// runMerger streams events from sorted run files in eventLess order.
type runMerger struct {
	files   []*os.File
	cursors *runHeap
}

// Next returns the next event in sort order across all runs.
// Returns io.EOF when every run is exhausted.
func (m *runMerger) Next() (event.Event, error) {
	if m.cursors.Len() == 0 {
		return event.Event{}, io.EOF
	}

	cur := heap.Pop(m.cursors).(*runCursor)
	ev := cur.ev

	// Refill from the same run.
	ok, err := cur.advance()
	if err != nil {
		return event.Event{}, err
	}
	if ok {
		heap.Push(m.cursors, cur)
	}

	return ev, nil
}

// Close releases all run file handles.
func (m *runMerger) Close() error {
	var firstErr error
	for _, f := range m.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.files = nil
	return firstErr
}

// runCursor holds the current decoded event of one run file.
type runCursor struct {
	ev      event.Event
	scanner *bufio.Scanner
}

// advance decodes the cursor's next event. Returns false at end of run.
func (c *runCursor) advance() (bool, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return false, fmt.Errorf("reading run file: %w", err)
		}
		return false, nil
	}
	if err := sonic.Unmarshal(c.scanner.Bytes(), &c.ev); err != nil {
		return false, fmt.Errorf("decoding event: %w", err)
	}
	return true, nil
}

// runHeap implements heap.Interface for event-ordered merging.
type runHeap []*runCursor

func (h runHeap) Len() int { return len(h) }

func (h runHeap) Less(i, j int) bool {
	return eventLess(h[i].ev, h[j].ev)
}

func (h runHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *runHeap) Push(x interface{}) {
	*h = append(*h, x.(*runCursor))
}

func (h *runHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}
