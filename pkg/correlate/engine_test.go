package correlate

import (
	"testing"
	"time"

	"github.com/tracelag/tracelag/pkg/event"
	"github.com/tracelag/tracelag/pkg/timestamp"
)

var testBase = time.Date(2025, 9, 12, 13, 25, 29, 0, time.UTC)

func entryAt(thread, method string, ms int) event.Event {
	return event.Event{
		Kind:     event.KindEntry,
		ThreadID: thread,
		Method:   method,
		Time:     testBase.Add(time.Duration(ms) * time.Millisecond),
		ParseOK:  true,
	}
}

func exitAt(thread, method string, ms int) event.Event {
	ev := entryAt(thread, method, ms)
	ev.Kind = event.KindExit
	return ev
}

// sequenced assigns file-order sequence numbers.
func sequenced(evs ...event.Event) []event.Event {
	for i := range evs {
		evs[i].Seq = uint64(i)
	}
	return evs
}

func runStreaming(evs []event.Event) *Result {
	eng := NewEngine()
	for _, ev := range evs {
		eng.Process(ev)
	}
	return eng.Drain()
}

func TestEngineMatchesEntryToExit(t *testing.T) {
	res := runStreaming(sequenced(
		entryAt("WebContainer", "doRequest", 271),
		exitAt("WebContainer", "doRequest", 284),
	))

	if len(res.Pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(res.Pairs))
	}
	p := res.Pairs[0]
	if p.Duration != 13*time.Millisecond {
		t.Errorf("duration = %v, want 13ms", p.Duration)
	}
	if p.Seconds() != 0.013 {
		t.Errorf("seconds = %v, want 0.013", p.Seconds())
	}
	if p.ThreadID != "WebContainer" || p.Method != "doRequest" {
		t.Errorf("pair identity = %q %q", p.ThreadID, p.Method)
	}
	if p.Unreliable {
		t.Error("pair flagged unreliable, want reliable")
	}

	want := Counts{Entries: 1, Exits: 1, Matched: 1}
	if res.Counts != want {
		t.Errorf("counts = %+v, want %+v", res.Counts, want)
	}
}

func TestEngineThirteenMillisecondsFromRawTokens(t *testing.T) {
	entryTime, err := timestamp.Parse("[9/12/25, 13:25:29:271 CDT]")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	exitTime, err := timestamp.Parse("[9/12/25, 13:25:29:284 CDT]")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	eng := NewEngine()
	eng.OnEntry(event.Event{Kind: event.KindEntry, ThreadID: "t1", Method: "doRequest", Time: entryTime, ParseOK: true})
	eng.OnExit(event.Event{Kind: event.KindExit, ThreadID: "t1", Method: "doRequest", Time: exitTime, ParseOK: true, Seq: 1})

	res := eng.Drain()
	if len(res.Pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(res.Pairs))
	}
	if got := res.Pairs[0].Seconds(); got != 0.013 {
		t.Errorf("seconds = %v, want 0.013", got)
	}
}

func TestEngineOrphanExit(t *testing.T) {
	res := runStreaming(sequenced(
		exitAt("t1", "doRequest", 100),
	))

	if len(res.Pairs) != 0 {
		t.Fatalf("pairs = %d, want 0", len(res.Pairs))
	}
	want := Counts{Exits: 1, OrphanExits: 1}
	if res.Counts != want {
		t.Errorf("counts = %+v, want %+v", res.Counts, want)
	}
}

func TestEngineUnmatchedEntry(t *testing.T) {
	res := runStreaming(sequenced(
		entryAt("t1", "doRequest", 100),
	))

	if len(res.Unmatched) != 1 {
		t.Fatalf("unmatched = %d, want 1", len(res.Unmatched))
	}
	u := res.Unmatched[0]
	if u.ThreadID != "t1" || u.Method != "doRequest" {
		t.Errorf("unmatched identity = %q %q", u.ThreadID, u.Method)
	}
	want := Counts{Entries: 1, UnmatchedEntries: 1}
	if res.Counts != want {
		t.Errorf("counts = %+v, want %+v", res.Counts, want)
	}
}

func TestEngineCrossThreadIsolation(t *testing.T) {
	// An exit on thread-B never matches an open entry on thread-A, even for
	// the same method.
	res := runStreaming(sequenced(
		entryAt("thread-A", "doRequest", 100),
		exitAt("thread-B", "doRequest", 150),
	))

	if len(res.Pairs) != 0 {
		t.Fatalf("pairs = %d, want 0", len(res.Pairs))
	}
	want := Counts{Entries: 1, Exits: 1, OrphanExits: 1, UnmatchedEntries: 1}
	if res.Counts != want {
		t.Errorf("counts = %+v, want %+v", res.Counts, want)
	}
}

func TestEngineInterleavedThreads(t *testing.T) {
	res := runStreaming(sequenced(
		entryAt("t1", "doRequest", 0),
		entryAt("t2", "doRequest", 10),
		exitAt("t2", "doRequest", 30),
		exitAt("t1", "doRequest", 100),
	))

	if len(res.Pairs) != 2 {
		t.Fatalf("pairs = %d, want 2", len(res.Pairs))
	}
	// Emission order follows exit order.
	if res.Pairs[0].ThreadID != "t2" || res.Pairs[0].Duration != 20*time.Millisecond {
		t.Errorf("first pair = %q %v, want t2 20ms", res.Pairs[0].ThreadID, res.Pairs[0].Duration)
	}
	if res.Pairs[1].ThreadID != "t1" || res.Pairs[1].Duration != 100*time.Millisecond {
		t.Errorf("second pair = %q %v, want t1 100ms", res.Pairs[1].ThreadID, res.Pairs[1].Duration)
	}
}

func TestEngineOverwriteOnReentry(t *testing.T) {
	// Two entries then one exit: the exit matches the most recent entry and
	// the first is silently discarded, neither matched nor unmatched.
	res := runStreaming(sequenced(
		entryAt("t1", "doRequest", 0),
		entryAt("t1", "doRequest", 50),
		exitAt("t1", "doRequest", 80),
	))

	if len(res.Pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(res.Pairs))
	}
	if got := res.Pairs[0].Duration; got != 30*time.Millisecond {
		t.Errorf("duration = %v, want 30ms (matched against second entry)", got)
	}
	want := Counts{Entries: 2, Exits: 1, Matched: 1}
	if res.Counts != want {
		t.Errorf("counts = %+v, want %+v", res.Counts, want)
	}
	if len(res.Unmatched) != 0 {
		t.Errorf("unmatched = %d, want 0 (overwritten entry is discarded)", len(res.Unmatched))
	}
}

func TestEngineSecondExitAfterOverwriteIsOrphan(t *testing.T) {
	res := runStreaming(sequenced(
		entryAt("t1", "doRequest", 0),
		entryAt("t1", "doRequest", 50),
		exitAt("t1", "doRequest", 80),
		exitAt("t1", "doRequest", 90),
	))

	if len(res.Pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(res.Pairs))
	}
	want := Counts{Entries: 2, Exits: 2, Matched: 1, OrphanExits: 1}
	if res.Counts != want {
		t.Errorf("counts = %+v, want %+v", res.Counts, want)
	}
}

func TestEngineMethodsTrackedIndependently(t *testing.T) {
	res := runStreaming(sequenced(
		entryAt("t1", "alpha", 0),
		entryAt("t1", "beta", 10),
		exitAt("t1", "alpha", 40),
		exitAt("t1", "beta", 60),
	))

	if len(res.Pairs) != 2 {
		t.Fatalf("pairs = %d, want 2", len(res.Pairs))
	}
	if res.Pairs[0].Method != "alpha" || res.Pairs[0].Duration != 40*time.Millisecond {
		t.Errorf("first pair = %q %v", res.Pairs[0].Method, res.Pairs[0].Duration)
	}
	if res.Pairs[1].Method != "beta" || res.Pairs[1].Duration != 50*time.Millisecond {
		t.Errorf("second pair = %q %v", res.Pairs[1].Method, res.Pairs[1].Duration)
	}
}

func TestEngineUnreliableDurations(t *testing.T) {
	t.Run("parse failed entry", func(t *testing.T) {
		bad := entryAt("t1", "doRequest", 0)
		bad.Time = time.Time{}
		bad.ParseOK = false

		res := runStreaming(sequenced(bad, exitAt("t1", "doRequest", 50)))
		if len(res.Pairs) != 1 {
			t.Fatalf("pairs = %d, want 1 (unreliable pairs are kept)", len(res.Pairs))
		}
		if !res.Pairs[0].Unreliable {
			t.Error("pair not flagged unreliable")
		}
		if res.Counts.ParseWarnings != 1 || res.Counts.Unreliable != 1 {
			t.Errorf("counts = %+v, want one parse warning and one unreliable", res.Counts)
		}
	})

	t.Run("non-monotonic timestamps", func(t *testing.T) {
		res := runStreaming(sequenced(
			entryAt("t1", "doRequest", 100),
			exitAt("t1", "doRequest", 40),
		))
		if len(res.Pairs) != 1 {
			t.Fatalf("pairs = %d, want 1", len(res.Pairs))
		}
		p := res.Pairs[0]
		if p.Duration != -60*time.Millisecond {
			t.Errorf("duration = %v, want -60ms (negative kept)", p.Duration)
		}
		if !p.Unreliable {
			t.Error("negative duration not flagged unreliable")
		}
	})
}

func TestEngineDrainClearsTable(t *testing.T) {
	eng := NewEngine()
	eng.Process(entryAt("t1", "doRequest", 0))

	first := eng.Drain()
	if len(first.Unmatched) != 1 {
		t.Fatalf("unmatched = %d, want 1", len(first.Unmatched))
	}

	// A second drain reports nothing new.
	second := eng.Drain()
	if len(second.Unmatched) != 0 {
		t.Errorf("unmatched after second drain = %d, want 0", len(second.Unmatched))
	}
	if second.Counts.UnmatchedEntries != 1 {
		t.Errorf("unmatched count = %d, want 1 (carried, not recounted)", second.Counts.UnmatchedEntries)
	}
}

func TestEngineReset(t *testing.T) {
	eng := NewEngine()
	eng.Process(entryAt("t1", "doRequest", 0))
	eng.Process(exitAt("t1", "doRequest", 10))
	eng.Reset()

	res := eng.Drain()
	if len(res.Pairs) != 0 || res.Counts != (Counts{}) {
		t.Errorf("after Reset: pairs = %d, counts = %+v, want empty", len(res.Pairs), res.Counts)
	}
}

func TestEngineUnmatchedSorted(t *testing.T) {
	res := runStreaming(sequenced(
		entryAt("t9", "zeta", 0),
		entryAt("t1", "beta", 10),
		entryAt("t1", "alpha", 20),
	))

	if len(res.Unmatched) != 3 {
		t.Fatalf("unmatched = %d, want 3", len(res.Unmatched))
	}
	order := []string{"alpha", "beta", "zeta"}
	for i, want := range order {
		if res.Unmatched[i].Method != want {
			t.Errorf("unmatched[%d] = %q, want %q", i, res.Unmatched[i].Method, want)
		}
	}
}
