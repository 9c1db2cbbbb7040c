package openchat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/memohai/openchat-bot/internal/metrics"
	"github.com/memohai/openchat-bot/internal/version"
)

// Gateway operation names, appended to "<gateway>/bot/".
const (
	opSendMessage    = "send_message"
	opDeleteMessages = "delete_messages"
	opAddReaction    = "add_reaction"
	opRemoveReaction = "remove_reaction"
	opPinMessage     = "pin_message"
	opUnpinMessage   = "unpin_message"
	opInviteUsers    = "invite_users"
	opRemoveUsers    = "remove_users"
	opCreateChannel  = "create_channel"
	opDeleteChannel  = "delete_channel"
	opChatSummary    = "chat_summary"
	opChatEvents     = "chat_events"
)

// GatewayClient talks to the bot API gateway over HTTP with a bearer token.
type GatewayClient struct {
	baseURL string
	token   string
	scope   Scope
	perms   Permissions
	http    *http.Client
	logger  *slog.Logger
}

// NewGatewayClient creates a client for one scope. token is either the command
// JWT or a self-signed autonomous token.
func NewGatewayClient(log *slog.Logger, httpClient *http.Client, baseURL, token string, scope Scope, perms Permissions) *GatewayClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &GatewayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		scope:   scope,
		perms:   perms,
		http:    httpClient,
		logger:  log.With(slog.String("client", "openchat"), slog.String("scope", scope.Key())),
	}
}

func (c *GatewayClient) Scope() Scope             { return c.scope }
func (c *GatewayClient) Permissions() Permissions { return c.perms }

type scopedRequest struct {
	Scope Scope `json:"scope"`
	Body  any   `json:"body,omitempty"`
}

func (c *GatewayClient) call(ctx context.Context, op string, body any, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.PlatformCalls.WithLabelValues(op, metrics.Status(err)).Inc()
		metrics.PlatformCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	payload, err := json.Marshal(scopedRequest{Scope: c.scope, Body: body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bot/"+op, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("openchat %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openchat %s: decode response: %w", op, err)
	}
	return nil
}

func (c *GatewayClient) SendMessage(ctx context.Context, msg *Message) error {
	if msg == nil {
		return fmt.Errorf("openchat %s: nil message", opSendMessage)
	}
	c.logger.Debug("send message", slog.String("message_id", msg.ID), slog.Bool("finalised", msg.Finalised))
	return c.call(ctx, opSendMessage, msg, nil)
}

func (c *GatewayClient) DeleteMessages(ctx context.Context, messageIDs []string) error {
	return c.call(ctx, opDeleteMessages, map[string]any{"message_ids": messageIDs}, nil)
}

func (c *GatewayClient) AddReaction(ctx context.Context, messageID, reaction string) error {
	return c.call(ctx, opAddReaction, map[string]string{"message_id": messageID, "reaction": reaction}, nil)
}

func (c *GatewayClient) RemoveReaction(ctx context.Context, messageID, reaction string) error {
	return c.call(ctx, opRemoveReaction, map[string]string{"message_id": messageID, "reaction": reaction}, nil)
}

func (c *GatewayClient) PinMessage(ctx context.Context, messageID string) error {
	return c.call(ctx, opPinMessage, map[string]string{"message_id": messageID}, nil)
}

func (c *GatewayClient) UnpinMessage(ctx context.Context, messageID string) error {
	return c.call(ctx, opUnpinMessage, map[string]string{"message_id": messageID}, nil)
}

func (c *GatewayClient) InviteUsers(ctx context.Context, userIDs []string) error {
	return c.call(ctx, opInviteUsers, map[string]any{"user_ids": userIDs}, nil)
}

func (c *GatewayClient) RemoveUsers(ctx context.Context, userIDs []string) error {
	return c.call(ctx, opRemoveUsers, map[string]any{"user_ids": userIDs}, nil)
}

func (c *GatewayClient) CreateChannel(ctx context.Context, spec ChannelSpec) (ChannelResult, error) {
	var out ChannelResult
	err := c.call(ctx, opCreateChannel, spec, &out)
	return out, err
}

func (c *GatewayClient) DeleteChannel(ctx context.Context, channelID string) error {
	return c.call(ctx, opDeleteChannel, map[string]string{"channel_id": channelID}, nil)
}

func (c *GatewayClient) ChatSummary(ctx context.Context) (ChatSummary, error) {
	var out ChatSummary
	err := c.call(ctx, opChatSummary, nil, &out)
	return out, err
}

func (c *GatewayClient) ChatEvents(ctx context.Context, limit int) ([]ChatEvent, error) {
	var out struct {
		Events []ChatEvent `json:"events"`
	}
	if err := c.call(ctx, opChatEvents, map[string]int{"max_messages": limit}, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}
