package ragchat

import "context"

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving events.
	StreamStateComplete                     // Next() returned io.EOF.
	StreamStateError                        // Next() returned non-EOF error.
	StreamStateClosed                       // Close() called before terminal state.
)

// String returns a lowercase name for the state.
func (s StreamState) String() string {
	switch s {
	case StreamStateNew:
		return "new"
	case StreamStateStreaming:
		return "streaming"
	case StreamStateComplete:
		return "complete"
	case StreamStateError:
		return "error"
	case StreamStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stream uses a pull-based iterator pattern. Cancellation flows through the
// context passed to Client.Chat().
//
// Next returns validated events in arrival order. Malformed input never
// surfaces here: it yields fewer events, not an error. Next returns io.EOF
// when the backend closes the stream normally and any other error for a
// terminal transport failure. Once terminal, Next keeps returning the same
// result.
//
// Close releases the underlying connection. It is safe to call on every
// exit path and more than once.
type Stream interface {
	Next() (Event, error)
	State() StreamState
	Close() error
}

// Client opens one streaming chat exchange per user turn.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (Stream, error)
}
