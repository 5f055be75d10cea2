package ragchat

// Sender identifies the backend component that emitted an event.
type Sender string

const (
	SenderStatus         Sender = "status"
	SenderRetrieveAction Sender = "retrieve_action"
	SenderAnswerAction   Sender = "answer_action"
	SenderBackoff        Sender = "backoff"
	SenderShouldRetrieve Sender = "should_retrieve"
	SenderIsTruthful     Sender = "is_truthful"
)

// EventType is the wire-level discriminator of an event.
type EventType string

const (
	EventTypeStatus    EventType = "status"
	EventTypeDocuments EventType = "documents"
	EventTypeAnswer    EventType = "answer"
	EventTypeDecision  EventType = "decision"
)

// Event is a sealed interface representing a validated protocol event.
// Events are purely semantic. Transport failures come from Stream.Next's
// error return, never from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
	// EventType returns the wire discriminator of the event.
	EventType() EventType
	// EventSender returns the component that emitted the event.
	EventSender() Sender
}

// EventStatus reports an intermediate processing step. TranslationKey is
// resolved to display text by a Translator.
type EventStatus struct {
	Sender         Sender
	TranslationKey string
}

func (EventStatus) event() {}

// EventType returns EventTypeStatus.
func (EventStatus) EventType() EventType { return EventTypeStatus }

// EventSender returns the emitting sender.
func (e EventStatus) EventSender() Sender { return e.Sender }

// EventDocuments carries the documents retrieved for the current answer.
type EventDocuments struct {
	Sender    Sender
	Documents []DocumentRef
}

func (EventDocuments) event() {}

// EventType returns EventTypeDocuments.
func (EventDocuments) EventType() EventType { return EventTypeDocuments }

// EventSender returns the emitting sender.
func (e EventDocuments) EventSender() Sender { return e.Sender }

// EventAnswer carries an incremental chunk of the answer text.
type EventAnswer struct {
	Sender Sender
	Text   string
}

func (EventAnswer) event() {}

// EventType returns EventTypeAnswer.
func (EventAnswer) EventType() EventType { return EventTypeAnswer }

// EventSender returns the emitting sender.
func (e EventAnswer) EventSender() Sender { return e.Sender }

// EventDecision reports a boolean decision taken by a grading or routing
// step, together with the backend's reason.
type EventDecision struct {
	Sender   Sender
	Decision bool
	Reason   string
}

func (EventDecision) event() {}

// EventType returns EventTypeDecision.
func (EventDecision) EventType() EventType { return EventTypeDecision }

// EventSender returns the emitting sender.
func (e EventDecision) EventSender() Sender { return e.Sender }

// Interface compliance checks.
var (
	_ Event = EventStatus{}
	_ Event = EventDocuments{}
	_ Event = EventAnswer{}
	_ Event = EventDecision{}
)
