package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/ragchat"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	UserMsg  lipgloss.Style
	Status   lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Document lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t ragchat.Theme) Styles {
	return Styles{
		UserMsg:  lipgloss.NewStyle().Foreground(ansiColor(t.UserMsg)).Bold(true),
		Status:   lipgloss.NewStyle().Foreground(ansiColor(t.Status)),
		Success:  lipgloss.NewStyle().Foreground(ansiColor(t.Success)),
		Error:    lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Warning:  lipgloss.NewStyle().Foreground(ansiColor(t.Warning)),
		Document: lipgloss.NewStyle().Foreground(ansiColor(t.Document)),
		Muted:    lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:   lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
	}
}

// Highlight returns the style for a status part.
func (s Styles) Highlight(h ragchat.Highlight) lipgloss.Style {
	switch h {
	case ragchat.HighlightSuccess:
		return s.Success
	case ragchat.HighlightError:
		return s.Error
	case ragchat.HighlightWarning:
		return s.Warning
	default:
		return s.Status
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
