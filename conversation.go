package ragchat

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NewID returns a random UUID v4 string, used for thread and message ids.
func NewID() string {
	return uuid.NewString()
}

// Observer receives an immutable snapshot of a message every time the
// message is created or changed. Observers run synchronously on the
// goroutine driving the turn, in registration order.
type Observer func(conversationID string, msg Message)

// Conversation is an ordered, append-only sequence of messages keyed by a
// thread id. It owns its messages; callers only ever see snapshots.
//
// At most one turn is in flight at a time: Begin fails with
// ErrTurnInProgress while the last assistant message is still streaming.
type Conversation struct {
	mu        sync.Mutex
	id        string
	messages  []*Message
	active    *Turn
	createdAt time.Time
	updatedAt time.Time

	translator Translator
	now        func() time.Time
	newID      func() string
	observers  []Observer
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithTranslator sets the translator used for status and decision text.
func WithTranslator(tr Translator) ConversationOption {
	return func(c *Conversation) { c.translator = tr }
}

// WithClock sets the time source for timestamps. Useful for testing.
func WithClock(now func() time.Time) ConversationOption {
	return func(c *Conversation) { c.now = now }
}

// WithIDGenerator sets the message id generator. Useful for testing.
func WithIDGenerator(newID func() string) ConversationOption {
	return func(c *Conversation) { c.newID = newID }
}

// WithObserver registers an observer for message snapshots.
func WithObserver(o Observer) ConversationOption {
	return func(c *Conversation) { c.observers = append(c.observers, o) }
}

// WithThreadID sets the thread id instead of generating one.
func WithThreadID(id string) ConversationOption {
	return func(c *Conversation) { c.id = id }
}

// NewConversation creates an empty conversation with a fresh thread id.
func NewConversation(opts ...ConversationOption) *Conversation {
	c := &Conversation{
		translator: DefaultTranslator(),
		now:        time.Now,
		newID:      NewID,
	}
	for _, o := range opts {
		o(c)
	}
	if c.id == "" {
		c.id = c.newID()
	}
	c.createdAt = c.now()
	c.updatedAt = c.createdAt
	return c
}

// RestoreConversation rebuilds a conversation from persisted messages.
// An assistant message persisted while still streaming belongs to a turn
// that can no longer complete, so it is repaired as failed.
func RestoreConversation(id string, msgs []Message, createdAt, updatedAt time.Time, opts ...ConversationOption) *Conversation {
	c := NewConversation(append(opts, WithThreadID(id))...)
	c.createdAt = createdAt
	c.updatedAt = updatedAt
	for _, m := range msgs {
		m := m.Clone()
		if m.Role == RoleAssistant && m.Streaming {
			repairFailed(&m)
		}
		c.messages = append(c.messages, &m)
	}
	return c
}

// ID returns the thread id shared by every turn of the conversation.
func (c *Conversation) ID() string { return c.id }

// CreatedAt returns when the conversation was created.
func (c *Conversation) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns when a message was last appended or changed.
func (c *Conversation) UpdatedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updatedAt
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Messages returns snapshots of all messages in insertion order.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.Clone()
	}
	return out
}

// Documents returns every document cited so far, unique by id, in order of
// first citation.
func (c *Conversation) Documents() []DocumentRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[int]bool)
	var docs []DocumentRef
	for _, m := range c.messages {
		for _, d := range m.Documents {
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			docs = append(docs, d)
		}
	}
	return docs
}

// Active returns the in-flight turn, or nil when the conversation is idle.
func (c *Conversation) Active() *Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.state.Terminal() {
		return nil
	}
	return c.active
}

// Begin starts a turn: it appends the complete user message and a
// streaming assistant placeholder. It fails with ErrEmptyMessage for blank
// content and ErrTurnInProgress while another turn is in flight; in both
// cases nothing is appended.
func (c *Conversation) Begin(content string) (*Turn, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.inFlight() {
		c.mu.Unlock()
		return nil, ErrTurnInProgress
	}
	now := c.now()
	user := &Message{
		ID:        c.newID(),
		Role:      RoleUser,
		Content:   content,
		CreatedAt: now,
	}
	reply := &Message{
		ID:        c.newID(),
		Role:      RoleAssistant,
		Streaming: true,
		CreatedAt: now,
	}
	c.messages = append(c.messages, user, reply)
	c.updatedAt = now
	t := &Turn{conv: c, user: user, reply: reply, state: TurnAwaiting}
	c.active = t
	userSnap, replySnap := user.Clone(), reply.Clone()
	c.mu.Unlock()

	c.notify(userSnap)
	c.notify(replySnap)
	return t, nil
}

// inFlight reports whether a turn is still mutating its placeholder.
// Callers must hold c.mu.
func (c *Conversation) inFlight() bool {
	if c.active != nil && !c.active.state.Terminal() {
		return true
	}
	if n := len(c.messages); n > 0 {
		last := c.messages[n-1]
		return last.Role == RoleAssistant && last.Streaming
	}
	return false
}

func (c *Conversation) notify(snap Message) {
	for _, o := range c.observers {
		o(c.id, snap)
	}
}
