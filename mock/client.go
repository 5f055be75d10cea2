// Package mock provides test doubles for ragchat interfaces using function
// fields.
package mock

import (
	"context"

	"github.com/fwojciec/ragchat"
)

// Interface compliance checks.
var (
	_ ragchat.Client     = (*Client)(nil)
	_ ragchat.Translator = (*Translator)(nil)
)

// Client is a test double for ragchat.Client.
// Set ChatFn before calling Chat.
type Client struct {
	ChatFn func(ctx context.Context, req ragchat.ChatRequest) (ragchat.Stream, error)
}

// Chat delegates to ChatFn.
func (c *Client) Chat(ctx context.Context, req ragchat.ChatRequest) (ragchat.Stream, error) {
	return c.ChatFn(ctx, req)
}

// Translator is a test double for ragchat.Translator.
// TranslateFn defaults to returning the key.
type Translator struct {
	TranslateFn func(key string) string
}

// Translate delegates to TranslateFn.
func (t *Translator) Translate(key string) string {
	if t.TranslateFn == nil {
		return key
	}
	return t.TranslateFn(key)
}
