package ragchat

import "fmt"

// Fixed texts written into assistant messages by the assembler.
const (
	// Sentinel marks an answer that is pending, as opposed to empty.
	Sentinel = "…"

	// NoResponseText replaces the content of a turn that completed without
	// any answer event.
	NoResponseText = "No response or stream ended."

	// FailureText replaces the content of a turn that failed.
	FailureText = "Failed to send message."

	// FailureStatusText is the single status part left on a failed turn.
	FailureStatusText = "Error: Failed to process message"
)

// TurnState is the lifecycle state of a single turn.
type TurnState int

const (
	TurnAwaiting     TurnState = iota // Placeholder appended, no event yet.
	TurnAccumulating                  // At least one event applied.
	TurnFinalized                     // Stream completed normally.
	TurnErrored                       // Stream or request failed.
)

// Terminal reports whether no further mutation is possible.
func (s TurnState) Terminal() bool {
	return s == TurnFinalized || s == TurnErrored
}

// String returns a lowercase name for the state.
func (s TurnState) String() string {
	switch s {
	case TurnAwaiting:
		return "awaiting"
	case TurnAccumulating:
		return "accumulating"
	case TurnFinalized:
		return "finalized"
	case TurnErrored:
		return "errored"
	default:
		return fmt.Sprintf("TurnState(%d)", int(s))
	}
}

// Turn folds protocol events into the assistant placeholder of one user
// turn. Events are applied strictly in call order. Once the turn is
// terminal every method is a no-op that returns false.
type Turn struct {
	conv  *Conversation
	user  *Message
	reply *Message
	state TurnState
	err   error
}

// State returns the turn's lifecycle state.
func (t *Turn) State() TurnState {
	t.conv.mu.Lock()
	defer t.conv.mu.Unlock()
	return t.state
}

// Err returns the failure passed to Fail, or nil.
func (t *Turn) Err() error {
	t.conv.mu.Lock()
	defer t.conv.mu.Unlock()
	return t.err
}

// User returns a snapshot of the turn's user message.
func (t *Turn) User() Message {
	t.conv.mu.Lock()
	defer t.conv.mu.Unlock()
	return t.user.Clone()
}

// Reply returns a snapshot of the turn's assistant message.
func (t *Turn) Reply() Message {
	t.conv.mu.Lock()
	defer t.conv.mu.Unlock()
	return t.reply.Clone()
}

// Apply folds one event into the placeholder. It returns false when the
// turn is already terminal or the event is nil.
func (t *Turn) Apply(evt Event) bool {
	return t.mutate(func(m *Message) bool {
		switch e := evt.(type) {
		case EventStatus:
			m.StatusParts = append(m.StatusParts, StatusPart{
				Text:   t.conv.translator.Translate(e.TranslationKey),
				Sender: e.Sender,
			})
			if m.Content == "" {
				m.Content = Sentinel
			}
		case EventDecision:
			m.StatusParts = append(m.StatusParts, t.decisionPart(e))
		case EventDocuments:
			m.Documents = e.Documents
		case EventAnswer:
			if m.Content == "" || m.Content == Sentinel {
				m.Content = e.Text
			} else {
				m.Content += e.Text
			}
		default:
			return false
		}
		t.state = TurnAccumulating
		return true
	})
}

// Finalize ends the turn after normal stream completion. A turn that
// produced no answer gets NoResponseText. It returns false if the turn was
// already terminal.
func (t *Turn) Finalize() bool {
	return t.mutate(func(m *Message) bool {
		m.Streaming = false
		if m.Content == "" || m.Content == Sentinel {
			m.Content = NoResponseText
		}
		t.state = TurnFinalized
		return true
	})
}

// Fail ends the turn after a transport failure, cancellation or timeout.
// Content and status parts are replaced by fixed failure texts. It returns
// false if the turn was already terminal.
func (t *Turn) Fail(err error) bool {
	return t.mutate(func(m *Message) bool {
		repairFailed(m)
		t.err = err
		t.state = TurnErrored
		return true
	})
}

// mutate runs fn on the placeholder under the conversation lock and
// notifies observers with the resulting snapshot when fn reports a change.
func (t *Turn) mutate(fn func(m *Message) bool) bool {
	c := t.conv
	c.mu.Lock()
	if t.state.Terminal() || !fn(t.reply) {
		c.mu.Unlock()
		return false
	}
	c.updatedAt = c.now()
	snap := t.reply.Clone()
	c.mu.Unlock()

	c.notify(snap)
	return true
}

func (t *Turn) decisionPart(e EventDecision) StatusPart {
	tr := t.conv.translator
	part := StatusPart{Sender: e.Sender}
	switch e.Sender {
	case SenderIsTruthful:
		if e.Decision {
			part.Text = tr.Translate(KeyYes)
			part.Highlight = HighlightSuccess
		} else {
			part.Text = fmt.Sprintf("%s (%s)", tr.Translate(KeyNo), e.Reason)
			part.Highlight = HighlightError
		}
	case SenderShouldRetrieve:
		if e.Decision {
			part.Text = tr.Translate(KeyDecisionRetrieve)
		} else {
			part.Text = tr.Translate(KeyDecisionAnswer)
		}
	}
	return part
}

func repairFailed(m *Message) {
	m.Content = FailureText
	m.StatusParts = []StatusPart{{Text: FailureStatusText, Highlight: HighlightError}}
	m.Streaming = false
}
