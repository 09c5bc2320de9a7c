package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	Gold      = lipgloss.Color("#C9A227")
	DimGray   = lipgloss.Color("#6B7280")
	LightGray = lipgloss.Color("#9CA3AF")
	White     = lipgloss.Color("#F9FAFB")
	Green     = lipgloss.Color("#10B981")
	Red       = lipgloss.Color("#EF4444")
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(White).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(Gold).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(DimGray)
	subtleStyle  = lipgloss.NewStyle().Foreground(LightGray)
	successStyle = lipgloss.NewStyle().Foreground(Green)
	errorStyle   = lipgloss.NewStyle().Foreground(Red)
)

// printer styles output only when it goes to a terminal, so piped output
// stays plain text.
type printer struct {
	styled bool
}

func newPrinter(w io.Writer) printer {
	f, ok := w.(*os.File)
	return printer{styled: ok && term.IsTerminal(int(f.Fd()))}
}

func (p printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

func (p printer) title(text string) string   { return p.render(titleStyle, text) }
func (p printer) header(text string) string  { return p.render(headerStyle, text) }
func (p printer) dim(text string) string     { return p.render(dimStyle, text) }
func (p printer) subtle(text string) string  { return p.render(subtleStyle, text) }
func (p printer) success(text string) string { return p.render(successStyle, text) }
func (p printer) failure(text string) string { return p.render(errorStyle, text) }
