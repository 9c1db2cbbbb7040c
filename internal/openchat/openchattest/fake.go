// Package openchattest provides in-memory platform fakes for tests.
package openchattest

import (
	"context"
	"sync"

	"github.com/memohai/openchat-bot/internal/openchat"
)

// Call records one platform operation.
type Call struct {
	Op   string
	Args []string
}

// Client is a recording openchat.Client. Set Errors[op] to make an operation fail.
type Client struct {
	mu      sync.Mutex
	scope   openchat.Scope
	perms   openchat.Permissions
	Sent    []*openchat.Message
	Calls   []Call
	Errors  map[string]error
	Summary openchat.ChatSummary
	Events  []openchat.ChatEvent
	Channel openchat.ChannelResult
}

// NewClient creates a fake client bound to scope.
func NewClient(scope openchat.Scope, perms openchat.Permissions) *Client {
	return &Client{scope: scope, perms: perms, Errors: map[string]error{}}
}

func (c *Client) Scope() openchat.Scope             { return c.scope }
func (c *Client) Permissions() openchat.Permissions { return c.perms }

func (c *Client) record(op string, args ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, Call{Op: op, Args: args})
	return c.Errors[op]
}

// Ops returns the operation names in call order.
func (c *Client) Ops() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.Calls))
	for i, call := range c.Calls {
		out[i] = call.Op
	}
	return out
}

// SentMessages returns a copy of the successfully sent messages.
func (c *Client) SentMessages() []*openchat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*openchat.Message(nil), c.Sent...)
}

// SentTexts returns the text bodies of sent text messages.
func (c *Client) SentTexts() []string {
	var out []string
	for _, m := range c.SentMessages() {
		if m.Content.Text != nil {
			out = append(out, m.Content.Text.Text)
		}
	}
	return out
}

func (c *Client) SendMessage(_ context.Context, msg *openchat.Message) error {
	if err := c.record("send_message", msg.ID); err != nil {
		return err
	}
	c.mu.Lock()
	c.Sent = append(c.Sent, msg)
	c.mu.Unlock()
	return nil
}

func (c *Client) DeleteMessages(_ context.Context, ids []string) error {
	return c.record("delete_messages", ids...)
}

func (c *Client) AddReaction(_ context.Context, messageID, reaction string) error {
	return c.record("add_reaction", messageID, reaction)
}

func (c *Client) RemoveReaction(_ context.Context, messageID, reaction string) error {
	return c.record("remove_reaction", messageID, reaction)
}

func (c *Client) PinMessage(_ context.Context, messageID string) error {
	return c.record("pin_message", messageID)
}

func (c *Client) UnpinMessage(_ context.Context, messageID string) error {
	return c.record("unpin_message", messageID)
}

func (c *Client) InviteUsers(_ context.Context, userIDs []string) error {
	return c.record("invite_users", userIDs...)
}

func (c *Client) RemoveUsers(_ context.Context, userIDs []string) error {
	return c.record("remove_users", userIDs...)
}

func (c *Client) CreateChannel(_ context.Context, spec openchat.ChannelSpec) (openchat.ChannelResult, error) {
	if err := c.record("create_channel", spec.Name); err != nil {
		return openchat.ChannelResult{}, err
	}
	return c.Channel, nil
}

func (c *Client) DeleteChannel(_ context.Context, channelID string) error {
	return c.record("delete_channel", channelID)
}

func (c *Client) ChatSummary(_ context.Context) (openchat.ChatSummary, error) {
	if err := c.record("chat_summary"); err != nil {
		return openchat.ChatSummary{}, err
	}
	return c.Summary, nil
}

func (c *Client) ChatEvents(_ context.Context, limit int) ([]openchat.ChatEvent, error) {
	if err := c.record("chat_events"); err != nil {
		return nil, err
	}
	if limit > 0 && len(c.Events) > limit {
		return c.Events[:limit], nil
	}
	return c.Events, nil
}

// Factory hands out one fake client per scope key.
type Factory struct {
	mu         sync.Mutex
	clients    map[string]*Client
	Command    *openchat.Command
	CommandErr error
	ScopeErr   error
	// Configure is applied to every newly created client.
	Configure func(*Client)
}

// NewFactory creates an empty fake factory.
func NewFactory() *Factory {
	return &Factory{clients: map[string]*Client{}}
}

// Client returns the fake for scope, creating it if needed.
func (f *Factory) Client(scope openchat.Scope, perms openchat.Permissions) *Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.clients[scope.Key()]; ok {
		return c
	}
	c := NewClient(scope, perms)
	if f.Configure != nil {
		f.Configure(c)
	}
	f.clients[scope.Key()] = c
	return c
}

// Lookup returns the fake for a scope key if one was created.
func (f *Factory) Lookup(key string) (*Client, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[key]
	return c, ok
}

// TotalSent counts messages sent across all scopes.
func (f *Factory) TotalSent() int {
	f.mu.Lock()
	clients := make([]*Client, 0, len(f.clients))
	for _, c := range f.clients {
		clients = append(clients, c)
	}
	f.mu.Unlock()
	n := 0
	for _, c := range clients {
		n += len(c.SentMessages())
	}
	return n
}

func (f *Factory) FromCommandToken(string) (*openchat.Command, openchat.Client, error) {
	if f.CommandErr != nil {
		return nil, nil, f.CommandErr
	}
	if f.Command == nil {
		return nil, nil, openchat.ErrInvalidCommandToken
	}
	return f.Command, f.Client(f.Command.Scope, f.Command.Permissions), nil
}

func (f *Factory) ForScope(scope openchat.Scope, perms openchat.Permissions) (openchat.Client, error) {
	if f.ScopeErr != nil {
		return nil, f.ScopeErr
	}
	return f.Client(scope, perms), nil
}
