package bubbletea

import tea "github.com/charmbracelet/bubbletea"

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// StatusLine exports statusLine for testing.
func StatusLine(m Model) string {
	return m.statusLine()
}

// FocusedBlock returns the focused block, or nil.
func FocusedBlock(m Model) MessageBlock {
	if m.blockFocus < 0 {
		return nil
	}
	return m.blocks[m.blockFocus]
}

// Listen exports Feed.listen for testing.
func Listen(f *Feed) tea.Cmd {
	return f.listen()
}
