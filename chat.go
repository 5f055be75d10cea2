package ragchat

import (
	"context"
	"errors"
	"io"
)

// Chat drives turns of a Conversation against a Client.
type Chat struct {
	client Client
}

// NewChat creates a new Chat with the given client.
func NewChat(client Client) *Chat {
	return &Chat{client: client}
}

// SendOption configures a single Send invocation.
type SendOption func(*sendConfig)

type sendConfig struct {
	documentIDs []int
	onEvent     func(Event)
	onComplete  func()
	onError     func(error)
}

// WithDocuments restricts retrieval for this turn to the given document
// ids. An empty list means no restriction.
func WithDocuments(ids []int) SendOption {
	return func(c *sendConfig) { c.documentIDs = ids }
}

// WithEventHandler sets a callback that receives each event after it has
// been applied to the turn.
func WithEventHandler(h func(Event)) SendOption {
	return func(c *sendConfig) { c.onEvent = h }
}

// WithCompleteHandler sets a callback invoked when the turn finalizes.
func WithCompleteHandler(h func()) SendOption {
	return func(c *sendConfig) { c.onComplete = h }
}

// WithErrorHandler sets a callback invoked when the turn fails.
func WithErrorHandler(h func(error)) SendOption {
	return func(c *sendConfig) { c.onError = h }
}

// Send runs one turn: it appends the user message and placeholder, streams
// the backend response into the placeholder and finalizes or repairs it.
//
// The returned error is non-nil only when the turn could not be started
// (ErrEmptyMessage, ErrTurnInProgress); nothing is appended in that case.
// Transport failures, timeouts and cancellation end the turn in the
// errored state and are reported through Turn.Err and the error handler.
// Exactly one of the complete and error handlers runs for a started turn.
func (c *Chat) Send(ctx context.Context, conv *Conversation, text string, opts ...SendOption) (*Turn, error) {
	var cfg sendConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	turn, err := conv.Begin(text)
	if err != nil {
		return nil, err
	}

	if err := c.stream(ctx, conv, turn, &cfg); err != nil {
		if turn.Fail(err) && cfg.onError != nil {
			cfg.onError(err)
		}
		return turn, nil
	}
	if turn.Finalize() && cfg.onComplete != nil {
		cfg.onComplete()
	}
	return turn, nil
}

// stream opens the exchange and drains it into turn. It returns nil only
// when the stream ended with io.EOF.
func (c *Chat) stream(ctx context.Context, conv *Conversation, turn *Turn, cfg *sendConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := ChatRequest{
		Message:     turn.User().Content,
		ThreadID:    conv.ID(),
		DocumentIDs: cfg.documentIDs,
	}.Normalize()

	s, err := c.client.Chat(ctx, req)
	if err != nil {
		return err
	}
	defer s.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		evt, err := s.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		turn.Apply(evt)
		if cfg.onEvent != nil {
			cfg.onEvent(evt)
		}
	}
}
