package scan

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test log: %v", err)
	}
	return path
}

func TestFileSourceReadsAllLines(t *testing.T) {
	path := writeTestLog(t, "first\nsecond\nthird\n")
	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource() error = %v", err)
	}
	defer src.Close()

	ctx := context.Background()
	want := []string{"first", "second", "third"}
	for i, text := range want {
		line, err := src.Next(ctx)
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if line.Text != text {
			t.Errorf("line %d = %q, want %q", i, line.Text, text)
		}
		if line.Num != i+1 {
			t.Errorf("line %d num = %d, want %d", i, line.Num, i+1)
		}
	}

	if _, err := src.Next(ctx); err != io.EOF {
		t.Errorf("Next() after last line = %v, want io.EOF", err)
	}
}

func TestFileSourceOffsets(t *testing.T) {
	path := writeTestLog(t, "ab\ncdef\n")
	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource() error = %v", err)
	}
	defer src.Close()

	if src.Size() != 8 {
		t.Errorf("Size() = %d, want 8", src.Size())
	}

	ctx := context.Background()
	first, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if first.Offset != 0 {
		t.Errorf("first offset = %d, want 0", first.Offset)
	}

	second, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if second.Offset != 3 {
		t.Errorf("second offset = %d, want 3", second.Offset)
	}
	if src.Offset() != 8 {
		t.Errorf("Offset() = %d, want 8", src.Offset())
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	if _, err := NewFileSource(filepath.Join(t.TempDir(), "absent.log")); err == nil {
		t.Fatal("NewFileSource() error = nil, want open failure")
	}
}

func TestFileSourceDirectory(t *testing.T) {
	if _, err := NewFileSource(t.TempDir()); err == nil {
		t.Fatal("NewFileSource() error = nil, want directory rejection")
	}
}

func TestFileSourceContextCancellation(t *testing.T) {
	path := writeTestLog(t, "line\n")
	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource() error = %v", err)
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); err != context.Canceled {
		t.Errorf("Next() error = %v, want context.Canceled", err)
	}
}

func TestFileSourceLongLine(t *testing.T) {
	// Longer than the initial 64KB buffer, shorter than the 1MB cap.
	long := strings.Repeat("x", 200*1024)
	path := writeTestLog(t, long+"\nshort\n")
	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource() error = %v", err)
	}
	defer src.Close()

	ctx := context.Background()
	line, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if len(line.Text) != len(long) {
		t.Errorf("long line length = %d, want %d", len(line.Text), len(long))
	}

	line, err = src.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if line.Text != "short" {
		t.Errorf("line after long = %q, want %q", line.Text, "short")
	}
}

func TestFileSourceCloseIdempotent(t *testing.T) {
	path := writeTestLog(t, "line\n")
	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource() error = %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
