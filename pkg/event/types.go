// Package event classifies raw trace-log lines into entry and exit events.
package event

import (
	"time"
)

// Kind distinguishes entry events from exit events.
type Kind uint8

const (
	KindEntry Kind = iota
	KindExit
)

func (k Kind) String() string {
	if k == KindEntry {
		return "entry"
	}
	return "exit"
}

// Event is a single classified trace-log line. Events are immutable once
// produced by a Classifier.
type Event struct {
	Kind     Kind   `json:"kind"`
	ThreadID string `json:"thread_id"`

	// Method is derived from the caller's pattern string, not the log line,
	// so the same operation correlates across differently worded entry and
	// exit text.
	Method string `json:"method"`

	// Time is the parsed timestamp. Zero when ParseOK is false; durations
	// computed from a zero sentinel are unreliable, never fatal.
	Time    time.Time `json:"time"`
	ParseOK bool      `json:"parse_ok"`

	// RawTimestamp is the bracketed token as it appeared in the line,
	// kept for display.
	RawTimestamp string `json:"raw_timestamp"`

	// Seq is the file-order sequence number, used to keep duplicate
	// timestamps ordered deterministically.
	Seq uint64 `json:"seq"`
}
