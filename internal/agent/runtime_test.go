package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/openchat-bot/internal/logger"
)

type stubGenerator struct {
	text   string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.text, s.err
}

func TestRuntimeReply(t *testing.T) {
	t.Parallel()
	gen := &stubGenerator{text: "  Hi there!  \n"}
	rt := NewRuntime(logger.Discard(), Character{Name: "Eliza", Bio: StringList{"A helper."}}, gen)

	reply, err := rt.Reply(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", reply)
	assert.Equal(t, "You are Eliza. A helper.\n\nUser: hello\n\nEliza:", gen.prompt)
}

func TestRuntimeReplyError(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(logger.Discard(), DefaultCharacter(), &stubGenerator{err: errors.New("boom")})
	_, err := rt.Reply(context.Background(), "hello")
	assert.Error(t, err)
}

func TestStaticGeneratorChain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tests := []struct {
		name string
		c    Character
		want string
	}{
		{"post example", Character{PostExamples: StringList{"post"}, Bio: StringList{"bio"}}, "post"},
		{"bio", Character{Bio: StringList{"bio"}}, "bio"},
		{"greeting", Character{}, FallbackGreeting},
	}
	for _, tt := range tests {
		got, err := StaticGenerator{Character: tt.c}.Generate(ctx, "ignored")
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestMentionHandling(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(logger.Discard(), Character{Name: "Eliza"}, nil)
	assert.True(t, rt.IsMentioned("hey @Eliza what's up"))
	assert.False(t, rt.IsMentioned("hey Eliza"))
	assert.Equal(t, "hey  what's up", rt.StripMention("hey @Eliza what's up"))
}

func TestDeterministicIDs(t *testing.T) {
	t.Parallel()
	assert.Equal(t, RoomUUID("openchat-group-42"), RoomUUID("openchat-group-42"))
	assert.NotEqual(t, RoomUUID("openchat-group-42"), RoomUUID("openchat-group-43"))
	assert.Equal(t, EntityUUID("u1"), EntityUUID("u1"))
	assert.NotEqual(t, EntityUUID(""), EntityUUID(""))

	rt := NewRuntime(logger.Discard(), Character{Name: "Eliza"}, nil)
	mem := rt.NewMemory("openchat-group-42", "u1", "hi")
	assert.Equal(t, SourceOpenChat, mem.Content.Source)
	assert.Equal(t, RoomUUID("openchat-group-42"), mem.RoomUUID)
	assert.Equal(t, rt.AgentID, mem.AgentID)
}

func TestLLMClientGenerate(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "test-model" || len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"pong"}}]}`))
	}))
	defer srv.Close()

	client, err := NewLLMClient(logger.Discard(), srv.URL+"/v1/", "key", "test-model", "be nice", time.Second)
	require.NoError(t, err)
	out, err := client.Generate(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", out)
}

func TestLLMClientErrorStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := NewLLMClient(logger.Discard(), srv.URL, "", "m", "", time.Second)
	require.NoError(t, err)
	_, err = client.Generate(context.Background(), "ping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestNewLLMClientValidation(t *testing.T) {
	t.Parallel()
	_, err := NewLLMClient(logger.Discard(), "", "", "m", "", 0)
	assert.Error(t, err)
	_, err = NewLLMClient(logger.Discard(), "http://x", "", "", "", 0)
	assert.Error(t, err)
}
