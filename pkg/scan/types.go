// Package scan reads trace log files line by line.
package scan

// Line is a single raw line read from a log file.
type Line struct {
	// Text is the line content without the trailing newline.
	Text string

	// Num is the 1-based line number.
	Num int

	// Offset is the byte offset of the line start, used for progress
	// reporting.
	Offset int64
}
