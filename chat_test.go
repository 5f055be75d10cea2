package ragchat_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/ragchat"
	"github.com/fwojciec/ragchat/backend"
	"github.com/fwojciec/ragchat/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callbacks struct {
	events    []ragchat.Event
	completes int
	errs      []error
}

func (c *callbacks) options() []ragchat.SendOption {
	return []ragchat.SendOption{
		ragchat.WithEventHandler(func(e ragchat.Event) { c.events = append(c.events, e) }),
		ragchat.WithCompleteHandler(func() { c.completes++ }),
		ragchat.WithErrorHandler(func(err error) { c.errs = append(c.errs, err) }),
	}
}

func scripted(s *mock.Script, captured *ragchat.ChatRequest) *mock.Client {
	return &mock.Client{
		ChatFn: func(ctx context.Context, req ragchat.ChatRequest) (ragchat.Stream, error) {
			if captured != nil {
				*captured = req
			}
			return s, nil
		},
	}
}

func TestChat_Send(t *testing.T) {
	t.Parallel()

	script := mock.NewScript(status("x"), answer("Hel"), answer("lo"))
	var req ragchat.ChatRequest
	chat := ragchat.NewChat(scripted(script, &req))
	conv := ragchat.NewConversation(ragchat.WithThreadID("t1"))

	var cb callbacks
	turn, err := chat.Send(context.Background(), conv, "hi", cb.options()...)
	require.NoError(t, err)

	assert.Equal(t, ragchat.ChatRequest{Message: "hi", ThreadID: "t1"}, req)
	assert.Nil(t, req.DocumentIDs)
	assert.Equal(t, "Hello", turn.Reply().Content)
	assert.Equal(t, ragchat.TurnFinalized, turn.State())
	assert.Len(t, cb.events, 3)
	assert.Equal(t, 1, cb.completes)
	assert.Empty(t, cb.errs)
	assert.Equal(t, 1, script.Closed)
}

func TestChat_SendWithDocuments(t *testing.T) {
	t.Parallel()

	var req ragchat.ChatRequest
	chat := ragchat.NewChat(scripted(mock.NewScript(), &req))
	conv := ragchat.NewConversation()

	_, err := chat.Send(context.Background(), conv, "hi", ragchat.WithDocuments([]int{4, 2}))
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2}, req.DocumentIDs)

	_, err = chat.Send(context.Background(), conv, "again", ragchat.WithDocuments([]int{}))
	require.NoError(t, err)
	assert.Nil(t, req.DocumentIDs)
	assert.Equal(t, conv.ID(), req.ThreadID)
}

func TestChat_SendStreamError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	script := &mock.Script{Events: []ragchat.Event{status("x")}, Err: cause}
	chat := ragchat.NewChat(scripted(script, nil))
	conv := ragchat.NewConversation()

	var cb callbacks
	turn, err := chat.Send(context.Background(), conv, "hi", cb.options()...)
	require.NoError(t, err)

	assert.ErrorIs(t, turn.Err(), cause)
	assert.Equal(t, ragchat.TurnErrored, turn.State())
	assert.Equal(t, ragchat.FailureText, turn.Reply().Content)
	assert.Zero(t, cb.completes)
	require.Len(t, cb.errs, 1)
	assert.ErrorIs(t, cb.errs[0], cause)
	assert.Equal(t, 1, script.Closed)
}

func TestChat_SendRequestRejected(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial failed")
	chat := ragchat.NewChat(&mock.Client{
		ChatFn: func(ctx context.Context, req ragchat.ChatRequest) (ragchat.Stream, error) {
			return nil, cause
		},
	})
	conv := ragchat.NewConversation()

	var cb callbacks
	turn, err := chat.Send(context.Background(), conv, "hi", cb.options()...)
	require.NoError(t, err)
	assert.ErrorIs(t, turn.Err(), cause)
	assert.Len(t, cb.errs, 1)
	assert.Zero(t, cb.completes)
	assert.Equal(t, 2, conv.Len())
}

func TestChat_SendCancelledContext(t *testing.T) {
	t.Parallel()

	called := false
	chat := ragchat.NewChat(&mock.Client{
		ChatFn: func(ctx context.Context, req ragchat.ChatRequest) (ragchat.Stream, error) {
			called = true
			return mock.NewScript(), nil
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	turn, err := chat.Send(ctx, ragchat.NewConversation(), "hi")
	require.NoError(t, err)
	assert.False(t, called)
	assert.ErrorIs(t, turn.Err(), context.Canceled)
	assert.Equal(t, ragchat.FailureText, turn.Reply().Content)
}

func TestChat_SendCancelledMidStream(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The stream ignores ctx; the turn must still end on cancellation.
	events := []ragchat.Event{status("x"), answer("partial"), answer(" never")}
	closed := 0
	pos := 0
	stream := &mock.Stream{
		NextFn: func() (ragchat.Event, error) {
			if pos == len(events) {
				return nil, io.EOF
			}
			evt := events[pos]
			pos++
			if pos == 2 {
				cancel()
			}
			return evt, nil
		},
		CloseFn: func() error {
			closed++
			return nil
		},
	}
	chat := ragchat.NewChat(&mock.Client{
		ChatFn: func(ctx context.Context, req ragchat.ChatRequest) (ragchat.Stream, error) {
			return stream, nil
		},
	})

	var cb callbacks
	turn, err := chat.Send(ctx, ragchat.NewConversation(), "hi", cb.options()...)
	require.NoError(t, err)

	assert.Equal(t, ragchat.TurnErrored, turn.State())
	assert.ErrorIs(t, turn.Err(), context.Canceled)
	assert.Equal(t, 2, pos)
	assert.Len(t, cb.events, 2)
	assert.Zero(t, cb.completes)
	assert.Len(t, cb.errs, 1)
	assert.Equal(t, 1, closed)
}

func TestChat_SendCallerErrors(t *testing.T) {
	t.Parallel()

	chat := ragchat.NewChat(scripted(mock.NewScript(), nil))
	conv := ragchat.NewConversation()

	_, err := chat.Send(context.Background(), conv, " ")
	assert.ErrorIs(t, err, ragchat.ErrEmptyMessage)
	assert.Zero(t, conv.Len())

	_, err = conv.Begin("pending")
	require.NoError(t, err)
	var cb callbacks
	_, err = chat.Send(context.Background(), conv, "hi", cb.options()...)
	assert.ErrorIs(t, err, ragchat.ErrTurnInProgress)
	assert.Equal(t, 2, conv.Len())
	assert.Zero(t, cb.completes)
	assert.Empty(t, cb.errs)
}

func TestChat_EndToEnd(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)

		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"type":"status","sender":"status","metadata":{"translation_key":"chat.status.retrieving"}}`+"\x00")
		_, _ = io.WriteString(w, `{"type":"documents","sender":"retrieve_action","metadata":{"documents":[{"metadata":{"id":1,"file_name":"benefits.pdf","document_path":"/hr/benefits.pdf","mime_type":"application/pdf","num_pages":4,"page":2,"access_roles":[]}}]}}`+"\x00")
		_, _ = io.WriteString(w, `{"type":"answer","sender":"answer_action","metadata":{"answer":"Up to 500."}}`+"\x00")
	}))
	defer srv.Close()

	chat := ragchat.NewChat(backend.New(srv.URL))
	conv := ragchat.NewConversation(ragchat.WithThreadID("t1"))

	var cb callbacks
	_, err := chat.Send(context.Background(), conv, "What is the rent allowance?", cb.options()...)
	require.NoError(t, err)

	assert.Equal(t, "What is the rent allowance?", body["message"])
	assert.Equal(t, "t1", body["thread_id"])
	assert.Nil(t, body["document_ids"])

	msgs := conv.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, ragchat.RoleUser, msgs[0].Role)
	assert.Equal(t, "What is the rent allowance?", msgs[0].Content)

	reply := msgs[1]
	assert.Equal(t, "Up to 500.", reply.Content)
	assert.False(t, reply.Streaming)
	assert.Len(t, reply.StatusParts, 1)
	require.Len(t, reply.Documents, 1)
	assert.Equal(t, 1, reply.Documents[0].ID)
	assert.Equal(t, "benefits.pdf", reply.Documents[0].FileName)
	assert.Equal(t, 1, cb.completes)
	assert.Empty(t, cb.errs)
}

func TestChat_EndToEndConnectionDrop(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4096")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"type":"status","sender":"status","metadata":{"translation_key":"chat.status.thinking"}}`+"\x00")
		w.(http.Flusher).Flush()
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	defer srv.Close()

	chat := ragchat.NewChat(backend.New(srv.URL))
	conv := ragchat.NewConversation()

	var cb callbacks
	turn, err := chat.Send(context.Background(), conv, "hi", cb.options()...)
	require.NoError(t, err)

	reply := turn.Reply()
	assert.False(t, reply.Streaming)
	assert.Equal(t, ragchat.FailureText, reply.Content)
	require.Len(t, reply.StatusParts, 1)
	assert.Equal(t, ragchat.HighlightError, reply.StatusParts[0].Highlight)
	assert.Len(t, cb.events, 1)
	assert.Len(t, cb.errs, 1)
	assert.Zero(t, cb.completes)
}

func TestChat_EndToEndRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"statusCode":401,"statusMessage":"Unauthorized"}`)
	}))
	defer srv.Close()

	chat := ragchat.NewChat(backend.New(srv.URL))
	turn, err := chat.Send(context.Background(), ragchat.NewConversation(), "hi")
	require.NoError(t, err)
	assert.ErrorIs(t, turn.Err(), ragchat.ErrUnauthorized)
	assert.Equal(t, ragchat.FailureText, turn.Reply().Content)
}
