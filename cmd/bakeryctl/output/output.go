// Package output renders bakeryctl results for a terminal.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#B45309")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	keyStyle     = lipgloss.NewStyle().Foreground(colorMuted).Width(30)
)

// Printer writes styled lines to w.
type Printer struct {
	w io.Writer
}

func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, successStyle.Render("✓")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.w, warningStyle.Render("!")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.w, errorStyle.Render("✗")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Muted(format string, args ...any) {
	fmt.Fprintln(p.w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Section prints a title followed by an underline of the same width.
func (p *Printer) Section(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, primaryStyle.Render(title))
	fmt.Fprintln(p.w, mutedStyle.Render(strings.Repeat("═", lipgloss.Width(title))))
}

// KeyValue prints an aligned label followed by values.
func (p *Printer) KeyValue(key string, values ...any) {
	fmt.Fprintln(p.w, keyStyle.Render(key)+fmt.Sprint(values...))
}

// Line prints text as is.
func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}
