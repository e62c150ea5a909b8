package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/gmsas95/medtrack/internal/adherence"
)

// Printer writes command output, styled only when w is a terminal.
type Printer struct {
	w     io.Writer
	color bool

	title   lipgloss.Style
	header  lipgloss.Style
	taken   lipgloss.Style
	missed  lipgloss.Style
	pending lipgloss.Style
	muted   lipgloss.Style
}

func NewPrinter(w io.Writer) *Printer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return newPrinter(w, color)
}

func newPrinter(w io.Writer, color bool) *Printer {
	p := &Printer{
		w:       w,
		color:   color,
		title:   lipgloss.NewStyle(),
		header:  lipgloss.NewStyle(),
		taken:   lipgloss.NewStyle(),
		missed:  lipgloss.NewStyle(),
		pending: lipgloss.NewStyle(),
		muted:   lipgloss.NewStyle(),
	}
	if color {
		p.title = p.title.Bold(true).Foreground(lipgloss.Color("205"))
		p.header = p.header.Bold(true).Foreground(lipgloss.Color("252"))
		p.taken = p.taken.Foreground(lipgloss.Color("42"))
		p.missed = p.missed.Foreground(lipgloss.Color("196"))
		p.pending = p.pending.Foreground(lipgloss.Color("214"))
		p.muted = p.muted.Foreground(lipgloss.Color("240"))
	}
	return p
}

func (p *Printer) Title(format string, args ...any) {
	fmt.Fprintln(p.w, p.title.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) Muted(format string, args ...any) {
	fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Status(s adherence.Status) string {
	switch s {
	case adherence.StatusTaken:
		return p.taken.Render(string(s))
	case adherence.StatusMissed:
		return p.missed.Render(string(s))
	}
	return p.pending.Render(string(s))
}

// Table renders rows under headers with a rounded border.
func (p *Printer) Table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.muted).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	fmt.Fprintln(p.w, t.Render())
}
