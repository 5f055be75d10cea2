package ragchat_test

import (
	"testing"

	"github.com/fwojciec/ragchat"
	"github.com/stretchr/testify/assert"
)

func TestValidateEvent(t *testing.T) {
	t.Parallel()

	valid := []ragchat.Event{
		ragchat.EventStatus{Sender: ragchat.SenderStatus},
		ragchat.EventDocuments{Sender: ragchat.SenderRetrieveAction},
		ragchat.EventAnswer{Sender: ragchat.SenderAnswerAction},
		ragchat.EventAnswer{Sender: ragchat.SenderBackoff},
		ragchat.EventDecision{Sender: ragchat.SenderShouldRetrieve},
		ragchat.EventDecision{Sender: ragchat.SenderIsTruthful},
	}
	for _, e := range valid {
		assert.NoError(t, ragchat.ValidateEvent(e), "%s/%s", e.EventType(), e.EventSender())
	}

	invalid := []ragchat.Event{
		nil,
		ragchat.EventStatus{Sender: ragchat.SenderAnswerAction},
		ragchat.EventDocuments{Sender: ragchat.SenderStatus},
		ragchat.EventAnswer{Sender: ragchat.SenderIsTruthful},
		ragchat.EventDecision{Sender: ragchat.SenderBackoff},
		ragchat.EventAnswer{Sender: "Answer_Action"},
	}
	for _, e := range invalid {
		assert.ErrorIs(t, ragchat.ValidateEvent(e), ragchat.ErrValidation)
	}
}

func TestKnownEventType(t *testing.T) {
	t.Parallel()

	assert.True(t, ragchat.KnownEventType(ragchat.EventTypeDecision))
	assert.False(t, ragchat.KnownEventType("thinking"))
	assert.False(t, ragchat.SenderAllowed("thinking", ragchat.SenderStatus))
}

func TestChatRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     ragchat.ChatRequest
		wantErr bool
	}{
		{"valid", ragchat.ChatRequest{Message: "hi", ThreadID: "t"}, false},
		{"with documents", ragchat.ChatRequest{Message: "hi", ThreadID: "t", DocumentIDs: []int{0, 7}}, false},
		{"blank message", ragchat.ChatRequest{Message: " \n", ThreadID: "t"}, true},
		{"no thread", ragchat.ChatRequest{Message: "hi"}, true},
		{"negative document", ragchat.ChatRequest{Message: "hi", ThreadID: "t", DocumentIDs: []int{-1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ragchat.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestChatRequest_Normalize(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ragchat.ChatRequest{DocumentIDs: []int{}}.Normalize().DocumentIDs)
	assert.Equal(t, []int{1}, ragchat.ChatRequest{DocumentIDs: []int{1}}.Normalize().DocumentIDs)
}

func TestStreamState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "new", ragchat.StreamStateNew.String())
	assert.Equal(t, "streaming", ragchat.StreamStateStreaming.String())
	assert.Equal(t, "complete", ragchat.StreamStateComplete.String())
	assert.Equal(t, "error", ragchat.StreamStateError.String())
	assert.Equal(t, "closed", ragchat.StreamStateClosed.String())
	assert.Equal(t, "unknown", ragchat.StreamState(42).String())
}

func TestDefaultTranslator(t *testing.T) {
	t.Parallel()

	tr := ragchat.DefaultTranslator()
	assert.Equal(t, "Yes", tr.Translate(ragchat.KeyYes))
	assert.Equal(t, "No", tr.Translate(ragchat.KeyNo))
	assert.Equal(t, "chat.status.unknown", tr.Translate("chat.status.unknown"))
}
