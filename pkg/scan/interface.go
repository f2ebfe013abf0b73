package scan

import (
	"context"
)

// LineSource provides an iterator over raw log lines.
// Implementations are for sequential use, not concurrent.
type LineSource interface {
	// Next returns the next line. Returns io.EOF when the input is
	// exhausted.
	Next(ctx context.Context) (*Line, error)

	// Close releases any resources held by the source.
	Close() error
}
