package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/ragchat"
	"github.com/fwojciec/ragchat/glob"
	"github.com/fwojciec/ragchat/i18n"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the chat TUI.
type Model struct {
	// Input holds the question being typed.
	Input textinput.Model
	// Viewport scrolls the rendered conversation.
	Viewport viewport.Model

	send     SendFunc
	conv     *ragchat.Conversation
	newConv  func() *ragchat.Conversation
	feed     *Feed
	theme    ragchat.Theme
	styles   Styles
	tr       Translator
	examples []string

	blocks     []MessageBlock
	byID       map[string]int // message id -> index into blocks
	blockFocus int            // index of focused collapsible block (-1 = none)

	selection []ragchat.DocumentRef
	notice    string

	running bool
	cancel  context.CancelFunc
	err     error
	ready   bool
}

// Option configures a Model.
type Option func(*Model)

// WithFeed sets the feed the model reads snapshots from. conv, and every
// conversation created by the /new command, must report to it.
func WithFeed(f *Feed) Option {
	return func(m *Model) { m.feed = f }
}

// WithTranslator sets the translator for interface text.
func WithTranslator(tr Translator) Option {
	return func(m *Model) { m.tr = tr }
}

// WithNewConversation sets the constructor used by the /new command.
func WithNewConversation(fn func() *ragchat.Conversation) Option {
	return func(m *Model) { m.newConv = fn }
}

// WithExamples sets example questions shown while the conversation is
// empty.
func WithExamples(questions []string) Option {
	return func(m *Model) { m.examples = questions }
}

// New creates a new TUI Model that sends turns of conv with send.
func New(send SendFunc, conv *ragchat.Conversation, theme ragchat.Theme, opts ...Option) Model {
	m := Model{
		send:       send,
		conv:       conv,
		theme:      theme,
		styles:     NewStyles(theme),
		byID:       make(map[string]int),
		blockFocus: -1,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.tr == nil {
		m.tr = i18n.New(i18n.DefaultLocale)
	}
	if m.feed == nil {
		m.feed = NewFeed()
	}
	if m.newConv == nil {
		tr, feed := m.tr, m.feed
		m.newConv = func() *ragchat.Conversation {
			return ragchat.NewConversation(ragchat.WithTranslator(tr), ragchat.WithObserver(feed.Observe))
		}
	}

	ti := textinput.New()
	ti.Placeholder = m.tr.Translate(i18n.KeyExampleHelp)
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0
	m.Input = ti
	return m
}

// Running returns whether a turn is in flight.
func (m Model) Running() bool { return m.running }

// Err returns the last error, if any.
func (m Model) Err() error { return m.err }

// Conversation returns the displayed conversation.
func (m Model) Conversation() *ragchat.Conversation { return m.conv }

// Selection returns the ids of the documents the next turn is restricted
// to, or nil.
func (m Model) Selection() []int { return glob.IDs(m.selection) }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.feed.listen())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SnapshotMsg:
		if msg.ConversationID == m.conv.ID() {
			m = m.applySnapshot(msg.Message)
			m.Viewport.SetContent(m.renderContent())
			m.Viewport.GotoBottom()
		}
		return m, m.feed.listen()

	case TurnDoneMsg:
		if m.cancel != nil {
			m.cancel()
		}
		m.running = false
		m.cancel = nil
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			m.err = msg.Err
		}
		m = m.syncConversation()
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		cmd := m.Input.Focus()
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	// Mouse and other messages scroll the transcript; the input only
	// accepts them between turns.
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	// input line, status line and the two separators
	vpHeight := max(msg.Height-4, 1)

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m = m.syncConversation()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		if strings.HasPrefix(text, "/") {
			return m.runCommand(text), nil
		}
		return m.submitInput(text)

	case tea.KeyTab:
		if !m.running && m.blockFocus >= 0 {
			block, cmd := m.blocks[m.blockFocus].Update(ToggleMsg{})
			m.blocks[m.blockFocus] = block
			m.Viewport.SetContent(m.renderContent())
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		if !m.running {
			m = m.cycleFocusPrev()
		}
		return m, nil
	}

	// Runes belong to the input; the transcript scrolls on everything else.
	if !m.running {
		var cmd tea.Cmd
		var cmds []tea.Cmd

		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

// runCommand handles a slash command typed into the input.
func (m Model) runCommand(text string) Model {
	m.Input.SetValue("")
	m.err = nil
	m.notice = ""

	name, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/docs":
		if arg == "" {
			m.selection = nil
			m.notice = "document selection cleared"
			return m
		}
		sel, err := glob.Select(m.conv.Documents(), arg)
		switch {
		case err != nil:
			m.err = err
		case len(sel) == 0:
			m.err = fmt.Errorf("no cited document matches %q", arg)
		default:
			m.selection = sel
			m.notice = fmt.Sprintf("%d document(s) selected", len(sel))
		}

	case "/new":
		m.conv = m.newConv()
		m.blocks = nil
		m.byID = make(map[string]int)
		m.blockFocus = -1
		m.selection = nil
		m.notice = m.tr.Translate(i18n.KeyNewChat)
		m.Viewport.SetContent(m.renderContent())

	default:
		m.err = fmt.Errorf("unknown command %q", name)
	}
	return m
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.err = nil
	m.notice = ""

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	m.Input.Blur()

	return m, startTurn(m.send, ctx, m.conv, text, glob.IDs(m.selection))
}

// syncConversation brings every block up to date with the conversation.
func (m Model) syncConversation() Model {
	for _, msg := range m.conv.Messages() {
		m = m.applySnapshot(msg)
	}
	return m
}

// applySnapshot updates the block displaying msg, creating it when msg is
// new.
func (m Model) applySnapshot(msg ragchat.Message) Model {
	if i, ok := m.byID[msg.ID]; ok {
		if b, ok := m.blocks[i].(*AssistantBlock); ok {
			b.Set(msg)
		}
		return m
	}
	switch msg.Role {
	case ragchat.RoleUser:
		m.blocks = append(m.blocks, NewUserMessageBlock(msg, m.styles))
	case ragchat.RoleAssistant:
		m.blocks = append(m.blocks, NewAssistantBlock(msg, m.theme, m.styles, m.tr))
	default:
		return m
	}
	m.byID[msg.ID] = len(m.blocks) - 1
	return m.updateBlockFocus()
}

func (m Model) renderContent() string {
	if len(m.blocks) == 0 {
		return m.emptyView()
	}
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

func (m Model) emptyView() string {
	if len(m.examples) == 0 {
		return ""
	}
	lines := []string{m.styles.Accent.Render(m.tr.Translate(i18n.KeyExampleTitle))}
	for _, q := range m.examples {
		lines = append(lines, m.styles.Muted.Render(truncate("  - "+q, m.Viewport.Width)))
	}
	return strings.Join(lines, "\n")
}

// updateBlockFocus focuses the last assistant block. Only the focused
// block responds to Tab. ShiftTab cycles to the previous one.
func (m Model) updateBlockFocus() Model {
	m.blockFocus = -1
	for i := len(m.blocks) - 1; i >= 0; i-- {
		if _, ok := m.blocks[i].(*AssistantBlock); ok {
			m.blockFocus = i
			return m
		}
	}
	return m
}

// cycleFocusPrev moves blockFocus to the previous assistant block, wrapping around.
func (m Model) cycleFocusPrev() Model {
	start := m.blockFocus - 1
	if start < 0 {
		start = len(m.blocks) - 1
	}
	for i := range len(m.blocks) {
		idx := (start - i + len(m.blocks)) % len(m.blocks)
		if _, ok := m.blocks[idx].(*AssistantBlock); ok {
			m.blockFocus = idx
			return m
		}
	}
	m.blockFocus = -1
	return m
}

func (m Model) statusLine() string {
	width := m.Viewport.Width
	if m.err != nil {
		return m.styles.Error.Render(truncate(fmt.Sprintf("Error: %v", m.err), width))
	}
	if m.running {
		return m.styles.Muted.Render(truncate(m.progress()+ragchat.Sentinel, width))
	}

	left := m.notice
	if left == "" {
		left = m.tr.Translate(i18n.KeyPressEnter)
	}
	var right string
	if ids := glob.IDs(m.selection); len(ids) > 0 {
		s := make([]string, len(ids))
		for i, id := range ids {
			s[i] = strconv.Itoa(id)
		}
		right = "docs: " + strings.Join(s, ",")
	}
	return m.styles.Muted.Render(spread(truncate(left, width), right, width))
}

// progress returns the latest status part of the streaming reply.
func (m Model) progress() string {
	for i := len(m.blocks) - 1; i >= 0; i-- {
		b, ok := m.blocks[i].(*AssistantBlock)
		if !ok {
			continue
		}
		if parts := b.Message().StatusParts; b.Message().Streaming && len(parts) > 0 {
			return parts[len(parts)-1].Text + " "
		}
		break
	}
	return ""
}

// startTurn runs one turn in a goroutine and reports its outcome. Progress
// reaches the model through the feed.
func startTurn(send SendFunc, ctx context.Context, conv *ragchat.Conversation, text string, ids []int) tea.Cmd {
	return func() tea.Msg {
		turn, err := send(ctx, conv, text, ragchat.WithDocuments(ids))
		if err == nil {
			err = turn.Err()
		}
		return TurnDoneMsg{Err: err}
	}
}
