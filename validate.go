package ragchat

import (
	"fmt"
	"slices"
	"strings"
)

// allowedSenders is the fixed compatibility table between event types and
// the senders permitted to emit them.
var allowedSenders = map[EventType][]Sender{
	EventTypeStatus:    {SenderStatus},
	EventTypeDocuments: {SenderRetrieveAction},
	EventTypeAnswer:    {SenderAnswerAction, SenderBackoff},
	EventTypeDecision:  {SenderShouldRetrieve, SenderIsTruthful},
}

// KnownEventType reports whether t is part of the protocol.
func KnownEventType(t EventType) bool {
	_, ok := allowedSenders[t]
	return ok
}

// SenderAllowed reports whether sender may emit events of type t.
func SenderAllowed(t EventType, sender Sender) bool {
	return slices.Contains(allowedSenders[t], sender)
}

// ValidateEvent checks an event's (type, sender) pairing against the
// compatibility table.
func ValidateEvent(e Event) error {
	if e == nil {
		return fmt.Errorf("nil event: %w", ErrValidation)
	}
	if !SenderAllowed(e.EventType(), e.EventSender()) {
		return fmt.Errorf("sender %q not allowed for %s event: %w", e.EventSender(), e.EventType(), ErrValidation)
	}
	return nil
}

// Validate checks universal constraints on ChatRequest.
func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("message must not be blank: %w", ErrValidation)
	}
	if r.ThreadID == "" {
		return fmt.Errorf("thread id is required: %w", ErrValidation)
	}
	for _, id := range r.DocumentIDs {
		if id < 0 {
			return fmt.Errorf("document id must be non-negative, got %d: %w", id, ErrValidation)
		}
	}
	return nil
}
