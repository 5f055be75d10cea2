package mockserver_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fwojciec/ragchat"
	"github.com/fwojciec/ragchat/backend"
	"github.com/fwojciec/ragchat/mockserver"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T, opts ...mockserver.Option) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(mockserver.New(opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestChat_DefaultScriptEndToEnd(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	chat := ragchat.NewChat(backend.New(srv.URL))
	conv := ragchat.NewConversation()

	var events []ragchat.Event
	turn, err := chat.Send(context.Background(), conv, "What is the rent allowance?",
		ragchat.WithEventHandler(func(e ragchat.Event) { events = append(events, e) }))
	require.NoError(t, err)
	require.NoError(t, turn.Err())

	assert.Equal(t, mockserver.DefaultScript(mockserver.Request{Message: "What is the rent allowance?", ThreadID: conv.ID()}), events)

	reply := turn.Reply()
	assert.False(t, reply.Streaming)
	assert.Contains(t, reply.Content, "You asked: *What is the rent allowance?*")
	assert.Len(t, reply.Documents, len(mockserver.Library))
	last := reply.StatusParts[len(reply.StatusParts)-1]
	assert.Equal(t, ragchat.HighlightSuccess, last.Highlight)
}

func TestChat_DocumentSelection(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	chat := ragchat.NewChat(backend.New(srv.URL))
	conv := ragchat.NewConversation()

	turn, err := chat.Send(context.Background(), conv, "Inheritance?", ragchat.WithDocuments([]int{3}))
	require.NoError(t, err)

	docs := turn.Reply().Documents
	require.Len(t, docs, 1)
	assert.Equal(t, 3, docs[0].ID)
}

func TestChat_NoRetrieval(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	chat := ragchat.NewChat(backend.New(srv.URL))
	turn, err := chat.Send(context.Background(), ragchat.NewConversation(), "hello")
	require.NoError(t, err)

	reply := turn.Reply()
	assert.Nil(t, reply.Documents)
	assert.Contains(t, reply.Content, "without consulting any documents")
}

func TestChat_Token(t *testing.T) {
	t.Parallel()

	srv := newServer(t, mockserver.WithToken("secret"))

	_, err := backend.New(srv.URL).Chat(context.Background(), ragchat.ChatRequest{Message: "hi", ThreadID: "t"})
	require.ErrorIs(t, err, ragchat.ErrUnauthorized)
	assert.Contains(t, err.Error(), "invalid or missing token")

	s, err := backend.New(srv.URL, backend.WithToken("secret")).Chat(context.Background(), ragchat.ChatRequest{Message: "hi", ThreadID: "t"})
	require.NoError(t, err)
	s.Close()
}

func TestChat_BadRequest(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader(`{"message":"hi"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader(`{"message":"  ","thread_id":"t"}`))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestChat_CustomScript(t *testing.T) {
	t.Parallel()

	srv := newServer(t, mockserver.WithScript(func(req mockserver.Request) []ragchat.Event {
		return []ragchat.Event{
			ragchat.EventAnswer{Sender: ragchat.SenderBackoff, Text: "echo: " + req.Message},
			ragchat.EventAnswer{Sender: ragchat.SenderStatus, Text: "invalid, skipped"},
		}
	}))
	chat := ragchat.NewChat(backend.New(srv.URL))
	turn, err := chat.Send(context.Background(), ragchat.NewConversation(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "echo: ping", turn.Reply().Content)
}

func TestNoRoute(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
