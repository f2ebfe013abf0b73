package scan

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
)

// FileSource implements LineSource for a single log file. Every line is
// yielded, relevant or not; classification decides what matters downstream.
type FileSource struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
	lineNum int
	offset  int64
	size    int64
}

// NewFileSource opens path for line-by-line reading. Open and stat failures
// surface here, before any scanning starts.
func NewFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat log file %s: %w", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("log file %s is a directory", path)
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // 1MB max line size

	return &FileSource{
		path:    path,
		file:    f,
		scanner: scanner,
		size:    info.Size(),
	}, nil
}

// Next returns the next raw line. Returns io.EOF at end of file.
func (s *FileSource) Next(ctx context.Context) (*Line, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if s.scanner == nil {
		return nil, io.EOF
	}

	if s.scanner.Scan() {
		s.lineNum++
		start := s.offset
		s.offset += int64(len(s.scanner.Bytes())) + 1

		return &Line{
			Text:   s.scanner.Text(),
			Num:    s.lineNum,
			Offset: start,
		}, nil
	}

	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return nil, io.EOF
}

// Size returns the file size in bytes.
func (s *FileSource) Size() int64 {
	return s.size
}

// Offset returns how many bytes have been consumed so far.
func (s *FileSource) Offset() int64 {
	return s.offset
}

// Close releases the underlying file.
func (s *FileSource) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.scanner = nil
	return err
}
