package mock

import (
	"io"

	"github.com/fwojciec/ragchat"
)

// Interface compliance check.
var _ ragchat.Stream = (*Stream)(nil)

// Stream is a test double for ragchat.Stream.
// Set the function fields for the methods you need. NextFn panics when nil
// to catch missing setup. CloseFn and StateFn are nil-safe (no-op and zero
// value) because callers always defer stream.Close().
type Stream struct {
	NextFn  func() (ragchat.Event, error)
	StateFn func() ragchat.StreamState
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (ragchat.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() ragchat.StreamState {
	if s.StateFn == nil {
		return ragchat.StreamStateNew
	}
	return s.StateFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// Script is a Stream that replays Events in order and then returns Err,
// or io.EOF when Err is nil. It records how often it was closed.
type Script struct {
	Events []ragchat.Event
	Err    error
	Closed int

	pos   int
	state ragchat.StreamState
}

// Interface compliance check.
var _ ragchat.Stream = (*Script)(nil)

// NewScript returns a Script replaying events followed by io.EOF.
func NewScript(events ...ragchat.Event) *Script {
	return &Script{Events: events}
}

// Next returns the next scripted event.
func (s *Script) Next() (ragchat.Event, error) {
	if s.state == ragchat.StreamStateClosed {
		return nil, ragchat.ErrStreamClosed
	}
	if s.pos < len(s.Events) {
		evt := s.Events[s.pos]
		s.pos++
		s.state = ragchat.StreamStateStreaming
		return evt, nil
	}
	if s.Err != nil {
		s.state = ragchat.StreamStateError
		return nil, s.Err
	}
	s.state = ragchat.StreamStateComplete
	return nil, io.EOF
}

// State returns the replay state.
func (s *Script) State() ragchat.StreamState { return s.state }

// Close counts the call.
func (s *Script) Close() error {
	s.Closed++
	if s.state != ragchat.StreamStateComplete && s.state != ragchat.StreamStateError {
		s.state = ragchat.StreamStateClosed
	}
	return nil
}
