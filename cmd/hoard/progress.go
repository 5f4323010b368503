package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"hoard-go/internal/worker"
)

const barWidth = 24

// progress draws worker progress events on one terminal line. When out is
// not a terminal only the final summary is printed.
type progress struct {
	out     io.Writer
	tty     bool
	width   int
	visible bool
	current int
	total   int
	message string
}

func newProgress(f *os.File) *progress {
	p := &progress{out: f, width: 80}
	fd := int(f.Fd())
	if term.IsTerminal(fd) {
		p.tty = true
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			p.width = w
		}
	}
	return p
}

// apply updates state from ev and redraws.
func (p *progress) apply(ev worker.Event) {
	switch e := ev.(type) {
	case worker.ShowProgress:
		p.visible = e.Visible
		if !e.Visible && p.tty {
			fmt.Fprint(p.out, "\r\033[K")
		}
	case worker.SetProgress:
		p.current, p.total = e.Current, e.Total
	case worker.SetProgressMessage:
		p.message = e.Text
	default:
		return
	}
	if p.visible && p.tty {
		fmt.Fprint(p.out, "\r\033[K"+p.line())
	}
}

// line renders the bar and message, cut to the terminal width.
func (p *progress) line() string {
	filled := 0
	if p.total > 0 {
		filled = barWidth * p.current / p.total
	}
	filled = min(max(filled, 0), barWidth)
	s := "[" + strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled) + "] " + p.message

	if r := []rune(s); len(r) > p.width-1 && p.width > 1 {
		s = string(r[:p.width-1])
	}
	return s
}
