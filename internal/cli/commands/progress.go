package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/tracelag/tracelag/pkg/analyzer"
)

// progressBar renders scan progress on a terminal. On a non-terminal
// writer it stays silent until done, so piped stderr is not flooded with
// carriage returns.
type progressBar struct {
	w     io.Writer
	tty   bool
	width int
	start time.Time
	last  analyzer.Progress
}

func newProgressBar(w io.Writer) *progressBar {
	b := &progressBar{w: w, width: 80, start: time.Now()}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b.tty = true
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 20 {
			b.width = cols
		}
	}
	return b
}

// update is the analyzer progress hook. Throttling happens upstream.
func (b *progressBar) update(p analyzer.Progress) {
	b.last = p
	if !b.tty {
		return
	}

	line := fmt.Sprintf(" %s lines", formatLineCount(p.Lines))
	if p.Total > 0 {
		pct := float64(p.Bytes) / float64(p.Total)
		if pct > 1 {
			pct = 1
		}
		barWidth := b.width - len(line) - 10
		if barWidth > 50 {
			barWidth = 50
		}
		if barWidth > 4 {
			filled := int(pct * float64(barWidth))
			line = fmt.Sprintf("[%s%s] %3.0f%%%s",
				strings.Repeat("=", filled),
				strings.Repeat(" ", barWidth-filled),
				pct*100, line)
		}
	}
	fmt.Fprintf(b.w, "\r\033[K%s", line)
}

// done clears the bar and prints a final summary line.
func (b *progressBar) done() {
	if b.tty {
		fmt.Fprint(b.w, "\r\033[K")
	}
	fmt.Fprintf(b.w, "scanned %s lines in %s\n",
		formatLineCount(b.last.Lines), time.Since(b.start).Round(time.Millisecond))
}

// formatLineCount groups digits: 12345 becomes "12,345".
func formatLineCount(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		out.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if out.Len() > 0 {
			out.WriteByte(',')
		}
		out.WriteString(s[i : i+3])
	}
	return out.String()
}
