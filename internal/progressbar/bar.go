package progressbar

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/term"
)

const defaultWidth = 80

// Bar draws a single-line progress indicator. It stays silent unless the
// output is a terminal, so logs written to files or pipes are not polluted.
type Bar struct {
	w       io.Writer
	desc    string
	total   int
	n       int
	width   int
	enabled bool
	start   time.Time
}

// New draws on f when f is a terminal.
func New(f *os.File, desc string, total int) *Bar {
	fd := int(f.Fd())
	enabled := term.IsTerminal(fd)
	width := defaultWidth
	if enabled {
		if runtime.GOOS == "windows" {
			enableVT(f)
		}
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	}
	return NewWriter(f, desc, total, enabled, width)
}

// NewWriter draws on w when enabled, fitting the line into width columns.
func NewWriter(w io.Writer, desc string, total int, enabled bool, width int) *Bar {
	b := &Bar{w: w, desc: desc, total: total, width: width, enabled: enabled, start: time.Now()}
	b.redraw()
	return b
}

// Add advances the bar by n and redraws it.
func (b *Bar) Add(n int) {
	b.n += n
	b.redraw()
}

// Finish ends the line so subsequent output starts clean.
func (b *Bar) Finish() {
	if b.enabled {
		fmt.Fprintln(b.w)
	}
}

func (b *Bar) redraw() {
	if !b.enabled {
		return
	}
	fmt.Fprint(b.w, "\r\033[K"+b.line())
}

func (b *Bar) line() string {
	elapsed := time.Since(b.start).Truncate(time.Second)
	stats := fmt.Sprintf(" %d/%d [%v]", b.n, b.total, elapsed)

	pct := 100
	frac := 1.0
	if b.total > 0 {
		frac = float64(b.n) / float64(b.total)
		if frac > 1 {
			frac = 1
		}
		pct = int(frac * 100)
	}
	prefix := fmt.Sprintf("%s: %3d%%|", b.desc, pct)

	barWidth := b.width - len(prefix) - len(stats) - 2
	if barWidth < 10 {
		return prefix + "|" + stats
	}
	filled := int(frac * float64(barWidth))
	return prefix + strings.Repeat("█", filled) + strings.Repeat(" ", barWidth-filled) + "|" + stats
}
