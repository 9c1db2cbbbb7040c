package openchat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/memohai/openchat-bot/internal/logger"
)

func TestGatewaySendMessage(t *testing.T) {
	t.Parallel()
	var (
		gotPath string
		gotAuth string
		gotBody scopedRequest
		rawBody []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		rawBody, _ = io.ReadAll(r.Body)
		_ = json.Unmarshal(rawBody, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	scope := Scope{Kind: KindGroup, ChatID: "42"}
	client := NewGatewayClient(logger.Discard(), srv.Client(), srv.URL+"/", "tok", scope, nil)
	msg := NewTextMessage("hi").SetFinalised(true)
	if err := client.SendMessage(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/bot/send_message" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth %s", gotAuth)
	}
	if gotBody.Scope.Key() != "group-42" {
		t.Fatalf("unexpected scope in body: %s", string(rawBody))
	}
	var decoded struct {
		Body Message `json:"body"`
	}
	_ = json.Unmarshal(rawBody, &decoded)
	if decoded.Body.Text() != "hi" || !decoded.Body.Finalised {
		t.Fatalf("unexpected message body: %s", string(rawBody))
	}
}

func TestGatewayAPIError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "NotAuthorized", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewGatewayClient(logger.Discard(), srv.Client(), srv.URL, "tok", Scope{Kind: KindDirect, ChatID: "1"}, nil)
	err := client.PinMessage(context.Background(), "9")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.Op != "pin_message" || apiErr.Body != "NotAuthorized" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestGatewayChatEvents(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Body map[string]int `json:"body"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Body["max_messages"] != 10 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"events":[{"message_id":2,"sender":"bob","text":"second","timestamp":2000},{"message_id":"1","sender":"alice","text":"first","timestamp":1000}]}`))
	}))
	defer srv.Close()

	client := NewGatewayClient(logger.Discard(), srv.Client(), srv.URL, "tok", Scope{Kind: KindGroup, ChatID: "1"}, nil)
	events, err := client.ChatEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 2 || events[0].MessageID != "2" || events[1].Sender != "alice" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestMessageToResponse(t *testing.T) {
	t.Parallel()
	msg := NewTextMessage("Thinking...")
	if msg.Finalised {
		t.Fatal("new messages start non-finalised")
	}
	b, err := json.Marshal(msg.ToResponse())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	content := out["message"]["content"].(map[string]any)
	if content["Text"].(map[string]any)["text"] != "Thinking..." {
		t.Fatalf("unexpected response %s", string(b))
	}
	if out["message"]["finalised"] != false {
		t.Fatalf("placeholder should not be finalised: %s", string(b))
	}
}
