package event

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tracelag/tracelag/pkg/timestamp"
)

// linePrefix matches the "123|" line-numbering artifact some tools prepend.
var linePrefix = regexp.MustCompile(`^\d+\|`)

// Classifier turns raw log lines into Events by literal substring
// containment of the caller's entry and exit patterns. Patterns are not
// regular expressions. A Classifier is not safe for concurrent use.
type Classifier struct {
	entryPattern string
	exitPattern  string
	entryMethod  string
	exitMethod   string

	seq uint64
}

// NewClassifier creates a classifier for one entry/exit pattern pair.
// The method name reported for an event is the first whitespace-delimited
// token of the corresponding pattern.
func NewClassifier(entryPattern, exitPattern string) (*Classifier, error) {
	entryMethod, err := firstToken(entryPattern)
	if err != nil {
		return nil, fmt.Errorf("entry pattern: %w", err)
	}
	exitMethod, err := firstToken(exitPattern)
	if err != nil {
		return nil, fmt.Errorf("exit pattern: %w", err)
	}

	return &Classifier{
		entryPattern: entryPattern,
		exitPattern:  exitPattern,
		entryMethod:  entryMethod,
		exitMethod:   exitMethod,
	}, nil
}

// Classify examines a single log line. It returns the classified event and
// true, or a zero event and false for lines that match neither pattern or
// carry no bracketed timestamp. Skipped lines are not errors.
func (c *Classifier) Classify(line string) (Event, bool) {
	text := linePrefix.ReplaceAllString(line, "")

	var kind Kind
	var method string
	switch {
	// Entry takes precedence when both patterns appear in one line.
	case strings.Contains(text, c.entryPattern):
		kind = KindEntry
		method = c.entryMethod
	case strings.Contains(text, c.exitPattern):
		kind = KindExit
		method = c.exitMethod
	default:
		return Event{}, false
	}

	token, ok := timestamp.Extract(text)
	if !ok {
		return Event{}, false
	}

	rest := text[strings.Index(text, token)+len(token):]
	threadID := ""
	if fields := strings.Fields(rest); len(fields) > 0 {
		threadID = fields[0]
	}

	ts, err := timestamp.Parse(token)
	ev := Event{
		Kind:         kind,
		ThreadID:     threadID,
		Method:       method,
		Time:         ts,
		ParseOK:      err == nil,
		RawTimestamp: token,
		Seq:          c.seq,
	}
	c.seq++
	return ev, true
}

func firstToken(pattern string) (string, error) {
	fields := strings.Fields(pattern)
	if len(fields) == 0 {
		return "", fmt.Errorf("pattern is empty")
	}
	return fields[0], nil
}
