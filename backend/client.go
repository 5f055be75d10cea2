package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/ragchat"
	"github.com/fwojciec/ragchat/wire"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a whole exchange, streaming included.
const DefaultTimeout = 30 * time.Second

// Interface compliance check.
var _ ragchat.Client = (*Client)(nil)

// Client implements [ragchat.Client] over HTTP.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets a bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the per-exchange timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger passed to each stream decoder.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a [Client] for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    DefaultTimeout,
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Chat posts req and returns a stream over the response body. The stream
// owns the exchange's timeout: it is released when the stream is closed.
func (c *Client) Chat(ctx context.Context, req ragchat.ChatRequest) (ragchat.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}
	req = req.Normalize()

	body, err := json.Marshal(apiRequest{
		Message:     req.Message,
		ThreadID:    req.ThreadID,
		DocumentIDs: req.DocumentIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}

	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("backend: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/octet-stream")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("backend: %w: %w", ragchat.ErrTimeout, err)
		}
		return nil, fmt.Errorf("backend: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer resp.Body.Close()
		err := parseHTTPError(resp)
		c.logger.Warn("request rejected", zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, err
	}

	return wire.NewDecoder(resp.Body,
		wire.WithContext(ctx),
		wire.WithLogger(c.logger.With(zap.String("thread_id", req.ThreadID))),
		wire.WithCloseHook(cancel),
	), nil
}
