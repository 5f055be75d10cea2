package bubbletea

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/ragchat"
	"github.com/fwojciec/ragchat/goldmark"
	"github.com/fwojciec/ragchat/i18n"
)

var _ MessageBlock = (*AssistantBlock)(nil)

// AssistantBlock renders one assistant message: its status parts, the
// answer as markdown and the cited documents. Once the message stops
// streaming the status parts and sources can be collapsed, and the
// rendering is cached per width.
type AssistantBlock struct {
	msg       ragchat.Message
	collapsed bool
	theme     ragchat.Theme
	styles    Styles
	tr        Translator

	renderedByWidth map[int]string
}

// NewAssistantBlock creates a block for msg.
func NewAssistantBlock(msg ragchat.Message, theme ragchat.Theme, styles Styles, tr Translator) *AssistantBlock {
	return &AssistantBlock{
		msg:             msg,
		theme:           theme,
		styles:          styles,
		tr:              tr,
		renderedByWidth: make(map[int]string),
	}
}

// Set replaces the displayed snapshot.
func (b *AssistantBlock) Set(msg ragchat.Message) {
	b.msg = msg
	clear(b.renderedByWidth)
}

// Message returns the displayed snapshot.
func (b *AssistantBlock) Message() ragchat.Message { return b.msg }

// Collapsed reports whether status parts and sources are folded.
func (b *AssistantBlock) Collapsed() bool { return b.collapsed }

func (b *AssistantBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok && !b.msg.Streaming {
		b.collapsed = !b.collapsed
		clear(b.renderedByWidth)
	}
	return b, nil
}

func (b *AssistantBlock) View(width int) string {
	if width <= 0 {
		width = goldmark.DefaultWidth
	}
	if cached, ok := b.renderedByWidth[width]; ok {
		return cached
	}

	var sections []string
	for _, s := range []string{b.statusView(width), b.answerView(width), b.sourcesView(width)} {
		if s != "" {
			sections = append(sections, s)
		}
	}
	out := strings.Join(sections, "\n")
	if !b.msg.Streaming {
		b.renderedByWidth[width] = out
	}
	return out
}

func (b *AssistantBlock) statusView(width int) string {
	parts := b.msg.StatusParts
	if len(parts) == 0 {
		return ""
	}
	if b.collapsed {
		last := parts[len(parts)-1]
		line := "▶ " + last.Text
		if len(parts) > 1 {
			line += fmt.Sprintf(" (+%d)", len(parts)-1)
		}
		return b.styles.Highlight(last.Highlight).Render(truncate(line, width))
	}
	lines := make([]string, len(parts))
	for i, p := range parts {
		lines[i] = b.styles.Highlight(p.Highlight).Render(truncate(statusIcon(p.Highlight)+" "+p.Text, width))
	}
	return strings.Join(lines, "\n")
}

func statusIcon(h ragchat.Highlight) string {
	switch h {
	case ragchat.HighlightSuccess:
		return "✓"
	case ragchat.HighlightError:
		return "✗"
	case ragchat.HighlightWarning:
		return "!"
	default:
		return "•"
	}
}

func (b *AssistantBlock) answerView(width int) string {
	content := b.msg.Content
	switch {
	case content == "":
		return ""
	case content == ragchat.Sentinel:
		return b.styles.Muted.Render(content)
	case content == ragchat.FailureText || content == ragchat.NoResponseText:
		return b.styles.Error.Render(lipgloss.NewStyle().Width(width).Render(content))
	case b.msg.Streaming:
		return goldmark.RenderPartial(content, width, b.theme)
	default:
		return goldmark.Render(content, width, b.theme)
	}
}

func (b *AssistantBlock) sourcesView(width int) string {
	docs := b.msg.Documents
	if len(docs) == 0 {
		return ""
	}
	header := b.tr.Translate(i18n.KeySources) + ":"
	if b.collapsed {
		return b.styles.Document.Render(truncate(fmt.Sprintf("%s %d", header, len(docs)), width))
	}
	lines := []string{b.styles.Document.Bold(true).Render(truncate(header, width))}
	for _, d := range docs {
		lines = append(lines, b.styles.Document.Render(truncate("  "+b.sourceLine(d), width)))
	}
	return strings.Join(lines, "\n")
}

func (b *AssistantBlock) sourceLine(d ragchat.DocumentRef) string {
	line := "[" + strconv.Itoa(d.ID) + "] " + d.FileName
	switch {
	case d.Page != nil && d.NumPages != nil:
		line += " · " + b.tr.Page(*d.Page, *d.NumPages)
	case d.Page != nil:
		line += " · p. " + strconv.Itoa(*d.Page)
	}
	return line
}
