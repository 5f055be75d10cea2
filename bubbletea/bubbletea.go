// Package bubbletea provides a Bubble Tea TUI for chatting with the
// retrieval backend.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/ragchat"
)

// SendFunc runs one turn of conv. It has the shape of [ragchat.Chat.Send]
// and blocks until the turn reaches a terminal state.
type SendFunc func(ctx context.Context, conv *ragchat.Conversation, text string, opts ...ragchat.SendOption) (*ragchat.Turn, error)

// Translator resolves interface text. [i18n.Translator] implements it.
type Translator interface {
	ragchat.Translator
	Page(page, numPages int) string
}

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits and returns the final model. The context is used for graceful
// shutdown: when cancelled, the program quits.
func Run(ctx context.Context, m Model) (Model, error) {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		m = fm
	}
	return m, err
}

// SnapshotMsg carries a message snapshot reported by a conversation
// observer.
type SnapshotMsg struct {
	ConversationID string
	Message        ragchat.Message
}

// TurnDoneMsg signals that a turn has ended. Err is the turn's failure, or
// the reason it could not start.
type TurnDoneMsg struct {
	Err error
}

// Feed forwards conversation snapshots into the program's message loop.
// Register [Feed.Observe] with every conversation the model displays.
type Feed struct {
	ch   chan SnapshotMsg
	done chan struct{}
}

// NewFeed creates a Feed.
func NewFeed() *Feed {
	return &Feed{
		ch:   make(chan SnapshotMsg, 256),
		done: make(chan struct{}),
	}
}

// Observe implements [ragchat.Observer]. It blocks while the feed is full
// and returns immediately once the feed is closed.
func (f *Feed) Observe(conversationID string, msg ragchat.Message) {
	select {
	case f.ch <- SnapshotMsg{ConversationID: conversationID, Message: msg}:
	case <-f.done:
	}
}

// Close releases observers blocked on a full feed. It must be called at
// most once, after the program has exited.
func (f *Feed) Close() {
	close(f.done)
}

// listen waits for the next snapshot.
func (f *Feed) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case snap := <-f.ch:
			return snap
		case <-f.done:
			return nil
		}
	}
}
