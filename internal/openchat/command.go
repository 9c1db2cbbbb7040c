package openchat

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ArgValue is a typed command argument; exactly one field is set.
type ArgValue struct {
	String  *string  `json:"String,omitempty"`
	Integer *int64   `json:"Integer,omitempty"`
	Decimal *float64 `json:"Decimal,omitempty"`
	Boolean *bool    `json:"Boolean,omitempty"`
	User    *string  `json:"User,omitempty"`
}

// Any returns the set value as a plain Go value, or nil.
func (v ArgValue) Any() any {
	switch {
	case v.String != nil:
		return *v.String
	case v.Integer != nil:
		return *v.Integer
	case v.Decimal != nil:
		return *v.Decimal
	case v.Boolean != nil:
		return *v.Boolean
	case v.User != nil:
		return *v.User
	}
	return nil
}

// CommandArg is a named argument supplied by the user.
type CommandArg struct {
	Name  string   `json:"name"`
	Value ArgValue `json:"value"`
}

// CommandPayload is the invocation carried inside the command token.
type CommandPayload struct {
	Name      string       `json:"name"`
	Args      []CommandArg `json:"args"`
	Initiator ID           `json:"initiator"`
}

// CommandClaims are the claims of a platform-signed command token.
type CommandClaims struct {
	jwt.RegisteredClaims
	BotAPIGateway      string         `json:"bot_api_gateway"`
	Command            CommandPayload `json:"command"`
	Scope              Scope          `json:"scope"`
	GrantedPermissions []string       `json:"granted_permissions"`
}

// Command is a verified command invocation.
type Command struct {
	Name        string
	Args        []CommandArg
	Initiator   string
	Scope       Scope
	APIGateway  string
	Permissions Permissions
	Token       string
}

func newCommand(token string, claims *CommandClaims) *Command {
	return &Command{
		Name:        strings.TrimSpace(claims.Command.Name),
		Args:        claims.Command.Args,
		Initiator:   string(claims.Command.Initiator),
		Scope:       claims.Scope,
		APIGateway:  claims.BotAPIGateway,
		Permissions: NewPermissions(claims.GrantedPermissions),
		Token:       token,
	}
}

// StringArg returns the named string argument. Empty strings count as missing.
func (c *Command) StringArg(name string) (string, bool) {
	for _, arg := range c.Args {
		if arg.Name == name && arg.Value.String != nil && *arg.Value.String != "" {
			return *arg.Value.String, true
		}
	}
	return "", false
}

// ArgMap returns the supplied arguments keyed by name.
func (c *Command) ArgMap() map[string]any {
	out := make(map[string]any, len(c.Args))
	for _, arg := range c.Args {
		out[arg.Name] = arg.Value.Any()
	}
	return out
}
