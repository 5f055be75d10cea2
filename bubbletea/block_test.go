package bubbletea_test

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/ragchat"
	bt "github.com/fwojciec/ragchat/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssistantBlock(msg ragchat.Message) *bt.AssistantBlock {
	theme := ragchat.DefaultTheme()
	return bt.NewAssistantBlock(msg, theme, bt.NewStyles(theme), english)
}

func TestUserMessageBlock(t *testing.T) {
	t.Parallel()

	theme := ragchat.DefaultTheme()
	b := bt.NewUserMessageBlock(ragchat.Message{Role: ragchat.RoleUser, Content: "hello there"}, bt.NewStyles(theme))
	assert.Contains(t, b.View(80), "> hello there")

	long := strings.Repeat("word ", 20)
	b = bt.NewUserMessageBlock(ragchat.Message{Role: ragchat.RoleUser, Content: long}, bt.NewStyles(theme))
	lines := strings.Split(b.View(30), "\n")
	require.Greater(t, len(lines), 1)
	for _, line := range lines {
		assert.LessOrEqual(t, lipgloss.Width(line), 30)
	}
	assert.True(t, strings.HasPrefix(lines[1], "  "), "continuation lines align under the text")
}

func TestAssistantBlock(t *testing.T) {
	t.Parallel()

	t.Run("pending placeholder renders nothing", func(t *testing.T) {
		t.Parallel()
		b := newAssistantBlock(ragchat.Message{Role: ragchat.RoleAssistant, Streaming: true})
		assert.Empty(t, b.View(80))
	})

	t.Run("sentinel shows while waiting for the answer", func(t *testing.T) {
		t.Parallel()
		b := newAssistantBlock(ragchat.Message{
			Role:        ragchat.RoleAssistant,
			Streaming:   true,
			Content:     ragchat.Sentinel,
			StatusParts: []ragchat.StatusPart{{Text: "Thinking"}},
		})
		assert.Equal(t, "• Thinking\n"+ragchat.Sentinel, b.View(80))
	})

	t.Run("status parts carry highlight icons", func(t *testing.T) {
		t.Parallel()
		b := newAssistantBlock(ragchat.Message{
			Role: ragchat.RoleAssistant,
			StatusParts: []ragchat.StatusPart{
				{Text: "Searching documents"},
				{Text: "Yes", Highlight: ragchat.HighlightSuccess},
				{Text: "No (weak evidence)", Highlight: ragchat.HighlightError},
				{Text: "Slow backend", Highlight: ragchat.HighlightWarning},
			},
		})
		assert.Equal(t, "• Searching documents\n✓ Yes\n✗ No (weak evidence)\n! Slow backend", b.View(80))
	})

	t.Run("long status parts are truncated to width", func(t *testing.T) {
		t.Parallel()
		b := newAssistantBlock(ragchat.Message{
			Role:        ragchat.RoleAssistant,
			StatusParts: []ragchat.StatusPart{{Text: strings.Repeat("Überprüfung ", 10)}},
		})
		view := b.View(20)
		assert.Equal(t, 20, lipgloss.Width(view))
		assert.True(t, strings.HasSuffix(view, "…"))
	})

	t.Run("streaming answer with an open fence keeps later text outside the code", func(t *testing.T) {
		t.Parallel()
		msg := ragchat.Message{Role: ragchat.RoleAssistant, Streaming: true, Content: "Run:\n\n```sh\nmake test"}
		b := newAssistantBlock(msg)
		view := b.View(80)
		assert.Contains(t, view, "sh")
		assert.Contains(t, view, "│ make test")
		assert.NotContains(t, view, "```")
	})

	t.Run("failure text", func(t *testing.T) {
		t.Parallel()
		b := newAssistantBlock(ragchat.Message{Role: ragchat.RoleAssistant, Content: ragchat.FailureText})
		assert.Equal(t, ragchat.FailureText, strings.TrimSpace(b.View(80)))
	})

	t.Run("sources list page references", func(t *testing.T) {
		t.Parallel()
		b := newAssistantBlock(ragchat.Message{
			Role:    ragchat.RoleAssistant,
			Content: "answer",
			Documents: []ragchat.DocumentRef{
				{ID: 1, FileName: "rent.pdf", Page: intp(3), NumPages: intp(9)},
				{ID: 4, FileName: "notes.pdf", Page: intp(7)},
				{ID: 5, FileName: "faq.md"},
			},
		})
		view := b.View(80)
		assert.Contains(t, view, "Sources:\n  [1] rent.pdf · Page 3 of 9\n  [4] notes.pdf · p. 7\n  [5] faq.md")
	})

	t.Run("toggle collapses a finished reply", func(t *testing.T) {
		t.Parallel()
		b := newAssistantBlock(ragchat.Message{
			Role:        ragchat.RoleAssistant,
			Content:     "answer",
			StatusParts: []ragchat.StatusPart{{Text: "Searching documents"}, {Text: "Yes", Highlight: ragchat.HighlightSuccess}},
			Documents:   []ragchat.DocumentRef{{ID: 1, FileName: "rent.pdf"}},
		})
		expanded := b.View(80)
		b.Update(bt.ToggleMsg{})
		collapsed := b.View(80)

		assert.NotEqual(t, expanded, collapsed)
		assert.True(t, strings.HasPrefix(collapsed, "▶ Yes (+1)\n"))
		assert.True(t, strings.HasSuffix(collapsed, "Sources: 1"))

		b.Update(bt.ToggleMsg{})
		assert.Equal(t, expanded, b.View(80))
	})

	t.Run("toggle is ignored while streaming", func(t *testing.T) {
		t.Parallel()
		b := newAssistantBlock(ragchat.Message{Role: ragchat.RoleAssistant, Streaming: true, Content: "partial"})
		b.Update(bt.ToggleMsg{})
		assert.False(t, b.Collapsed())
	})

	t.Run("set replaces the snapshot and the cached rendering", func(t *testing.T) {
		t.Parallel()
		b := newAssistantBlock(ragchat.Message{ID: "a", Role: ragchat.RoleAssistant, Content: "first"})
		assert.Contains(t, b.View(80), "first")

		b.Set(ragchat.Message{ID: "a", Role: ragchat.RoleAssistant, Content: "second"})
		assert.Contains(t, b.View(80), "second")
		assert.Equal(t, "second", b.Message().Content)
	})
}
