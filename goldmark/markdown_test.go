package goldmark_test

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/ragchat"
	"github.com/fwojciec/ragchat/goldmark"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var csi = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func plain(s string) string {
	return csi.ReplaceAllString(s, "")
}

func TestMain(m *testing.M) {
	// Styled output must carry escape codes so styling differences are
	// observable.
	lipgloss.SetColorProfile(termenv.ANSI)
	os.Exit(m.Run())
}

func TestRender_Content(t *testing.T) {
	t.Parallel()

	theme := ragchat.DefaultTheme()
	tests := map[string]struct {
		src   string
		width int
		want  []string
	}{
		"paragraph":        {"The rent allowance is capped.", 80, []string{"The rent allowance is capped."}},
		"emphasis":         {"Up to **500 EUR** per *month*, ***no exceptions***", 80, []string{"500 EUR", "month", "no exceptions"}},
		"inline code":      {"Set `max_rent` in the form.", 80, []string{"max_rent"}},
		"heading":          {"## Eligibility", 80, []string{"Eligibility"}},
		"link":             {"See [the handbook](https://docs.example.org/handbook).", 80, []string{"the handbook", "docs.example.org/handbook"}},
		"image":            {"![floor plan](https://docs.example.org/plan.png)", 80, []string{"floor plan", "docs.example.org/plan.png"}},
		"code keeps lines": {"```json\n{\"document_ids\": [1, 2, 3]}\n```", 20, []string{"json", `{"document_ids": [1, 2, 3]}`}},
		"unlabelled code":  {"```\nGET /chat\n```", 80, []string{"GET /chat"}},
		"indented code":    {"Request:\n\n    POST /chat\n    thread_id=t1", 80, []string{"POST /chat", "thread_id=t1"}},
		"two paragraphs":   {"Rent is covered.\n\nHeating is covered too.", 80, []string{"Rent is covered.", "Heating is covered too."}},
		"nested list":      {"- Housing\n  - rent\n  - heating", 80, []string{"Housing", "rent", "heating"}},
		"zero width":       {"Short answer.", 0, []string{"Short answer."}},
		"thematic break":   {"Answer.\n\n***\n\nFootnote.", 80, []string{"Answer.", "───", "Footnote."}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := plain(goldmark.Render(tt.src, tt.width, theme))
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	theme := ragchat.DefaultTheme()

	t.Run("empty source", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, goldmark.Render("", 80, theme))
	})

	t.Run("heading is styled", func(t *testing.T) {
		t.Parallel()
		assert.NotEqual(t, goldmark.Render("Eligibility", 80, theme), goldmark.Render("# Eligibility", 80, theme))
	})

	t.Run("paragraph wraps", func(t *testing.T) {
		t.Parallel()
		src := "Applicants must submit the signed lease together with the last three utility statements."
		lines := strings.Split(plain(goldmark.Render(src, 30, theme)), "\n")
		require.Greater(t, len(lines), 1)
		assert.Equal(t, src, strings.Join(trimAll(lines), " "))
	})

	t.Run("list items wrap under their marker", func(t *testing.T) {
		t.Parallel()
		src := "- the lease must be signed by every adult living in the flat"
		lines := strings.Split(plain(goldmark.Render(src, 30, theme)), "\n")
		require.Greater(t, len(lines), 1)
		assert.True(t, strings.HasPrefix(lines[0], "- "))
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) != "" {
				assert.True(t, strings.HasPrefix(line, "  "), "line %q", line)
			}
		}
	})

	t.Run("ordered list", func(t *testing.T) {
		t.Parallel()
		got := plain(goldmark.Render("1. apply\n2. wait", 80, theme))
		assert.Contains(t, got, "1. apply")
		assert.Contains(t, got, "2. wait")
	})

	t.Run("blockquote lines carry a bar", func(t *testing.T) {
		t.Parallel()
		result := plain(goldmark.Render("> quoted text", 80, theme))
		assert.Equal(t, "▎ quoted text", strings.TrimRight(result, " "))
	})

	t.Run("table columns are aligned", func(t *testing.T) {
		t.Parallel()
		src := "| Name | Pages |\n|------|-------|\n| rent.pdf | 9 |"
		lines := strings.Split(plain(goldmark.Render(src, 80, theme)), "\n")
		assert.Equal(t, []string{
			"Name     │ Pages",
			"─────────┼──────",
			"rent.pdf │ 9",
		}, lines)
	})

	t.Run("strikethrough", func(t *testing.T) {
		t.Parallel()
		result := goldmark.Render("~~gone~~", 80, theme)
		assert.Equal(t, "gone", strings.TrimSpace(plain(result)))
		assert.NotEqual(t, goldmark.Render("gone", 80, theme), result)
	})

	t.Run("task list", func(t *testing.T) {
		t.Parallel()
		result := plain(goldmark.Render("- [x] done\n- [ ] open", 80, theme))
		assert.Contains(t, result, "- [x] done")
		assert.Contains(t, result, "- [ ] open")
	})

	t.Run("ordered list keeps its start number", func(t *testing.T) {
		t.Parallel()
		result := plain(goldmark.Render("3. third\n4. fourth", 80, theme))
		assert.Contains(t, result, "3. third")
		assert.Contains(t, result, "4. fourth")
	})
}

func TestCloseFences(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in   string
		want string
	}{
		"no fence":           {"plain text", "plain text"},
		"closed fence":       {"```go\nx := 1\n```", "```go\nx := 1\n```"},
		"open fence":         {"```go\nx := 1", "```go\nx := 1\n```"},
		"open fence newline": {"```\nx\n", "```\nx\n```"},
		"tilde fence":        {"~~~\ncode", "~~~\ncode\n~~~"},
		"shorter inner run":  {"````\n```\n", "````\n```\n````"},
		"two closed fences":  {"```\na\n```\n\n```\nb\n```", "```\na\n```\n\n```\nb\n```"},
		"indented too far":   {"    ```\ncode", "    ```\ncode"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, goldmark.CloseFences(tt.in))
		})
	}
}

func TestRenderPartial(t *testing.T) {
	t.Parallel()

	theme := ragchat.DefaultTheme()
	src := "Here is the snippet:\n\n```go\nfmt.Println(1)"
	assert.Equal(t, goldmark.Render(src+"\n```", 80, theme), goldmark.RenderPartial(src, 80, theme))
	assert.Contains(t, plain(goldmark.RenderPartial(src, 80, theme)), "fmt.Println(1)")
}

func trimAll(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}
