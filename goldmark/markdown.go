// Package goldmark renders assistant answers, which arrive as markdown, to
// ANSI-styled terminal output using goldmark for parsing and lipgloss for
// styling.
package goldmark

import (
	"strings"

	"github.com/fwojciec/ragchat"
)

// DefaultWidth is used when Render is called with a non-positive width.
const DefaultWidth = 80

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs, quotes and list items are word-wrapped to width. Code blocks
// are rendered without reflow.
func Render(source string, width int, theme ragchat.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = DefaultWidth
	}
	return newRenderer(theme).render([]byte(source), width)
}

// RenderPartial renders an answer that is still streaming. A code fence
// left open by the chunks received so far is closed first so the rest of
// the answer is not swallowed by a code block that has no end yet.
func RenderPartial(source string, width int, theme ragchat.Theme) string {
	return Render(CloseFences(source), width, theme)
}

// CloseFences appends a closing fence when source ends inside a fenced
// code block.
func CloseFences(source string) string {
	var open string
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		if len(line)-len(trimmed) > 3 {
			continue
		}
		fence := fenceOf(trimmed)
		switch {
		case fence == "":
		case open == "":
			open = fence
		case strings.HasPrefix(fence, open) && strings.TrimSpace(trimmed[len(fence):]) == "":
			open = ""
		}
	}
	if open == "" {
		return source
	}
	if !strings.HasSuffix(source, "\n") {
		source += "\n"
	}
	return source + open
}

// fenceOf returns the run of at least three backticks or tildes that
// starts line, or "".
func fenceOf(line string) string {
	if line == "" || (line[0] != '`' && line[0] != '~') {
		return ""
	}
	n := 0
	for n < len(line) && line[n] == line[0] {
		n++
	}
	if n < 3 {
		return ""
	}
	return line[:n]
}
