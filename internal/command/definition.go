// Package command serves platform command invocations: the bot definition,
// argument validation and the per-command handlers.
package command

import (
	"github.com/memohai/openchat-bot/internal/agent"
	"github.com/memohai/openchat-bot/internal/openchat"
)

// Command names.
const (
	NameChat     = "chat"
	NameHelp     = "help"
	NameInfo     = "info"
	NameModerate = "moderate"
	NamePoll     = "poll"
)

// Choice is one allowed value of a string parameter.
type Choice struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StringParam constrains a string argument.
type StringParam struct {
	MinLength int      `json:"min_length"`
	MaxLength int      `json:"max_length"`
	Choices   []Choice `json:"choices"`
	MultiLine bool     `json:"multi_line"`
}

// ParamType is a tagged union; only string parameters are used.
type ParamType struct {
	StringParam *StringParam `json:"StringParam,omitempty"`
}

// Param describes one command argument.
type Param struct {
	Name        string    `json:"name"`
	Required    bool      `json:"required"`
	Description string    `json:"description"`
	Placeholder string    `json:"placeholder,omitempty"`
	ParamType   ParamType `json:"param_type"`
}

// Definition describes one command in the bot definition.
type Definition struct {
	Name           string                      `json:"name"`
	DefaultRole    string                      `json:"default_role"`
	Description    string                      `json:"description"`
	Permissions    openchat.EncodedPermissions `json:"permissions"`
	DirectMessages bool                        `json:"direct_messages"`
	Params         []Param                     `json:"params"`
}

// AutonomousConfig lists permissions the bot may use outside commands.
type AutonomousConfig struct {
	Permissions openchat.EncodedPermissions `json:"permissions"`
}

// Subscriptions lists the events the bot receives by default.
type Subscriptions struct {
	Community []string `json:"community"`
	Chat      []string `json:"chat"`
}

// BotDefinition is the capability manifest served at /bot_definition.
type BotDefinition struct {
	Description          string           `json:"description"`
	AutonomousConfig     AutonomousConfig `json:"autonomous_config"`
	DefaultSubscriptions Subscriptions    `json:"default_subscriptions"`
	Commands             []Definition     `json:"commands"`
}

// Command returns the definition for name.
func (d BotDefinition) Command(name string) (Definition, bool) {
	for _, c := range d.Commands {
		if c.Name == name {
			return c, true
		}
	}
	return Definition{}, false
}

func stringParam(name, description, placeholder string, minLen, maxLen int, multiLine bool, choices ...string) Param {
	sp := &StringParam{MinLength: minLen, MaxLength: maxLen, Choices: []Choice{}, MultiLine: multiLine}
	for _, c := range choices {
		sp.Choices = append(sp.Choices, Choice{Name: c, Value: c})
	}
	return Param{
		Name:        name,
		Required:    true,
		Description: description,
		Placeholder: placeholder,
		ParamType:   ParamType{StringParam: sp},
	}
}

var textAndSummary = openchat.PermissionSet{
	Message: []string{"Text"},
	Chat:    []string{"ReadChatSummary"},
}.Encode()

// NewBotDefinition builds the manifest for a persona.
func NewBotDefinition(c agent.Character) BotDefinition {
	return BotDefinition{
		Description: c.Description(),
		AutonomousConfig: AutonomousConfig{
			Permissions: openchat.PermissionSet{
				Message: []string{"Text", "Image", "Video", "Audio", "File"},
				Chat:    []string{"ReactToMessages", "ReadMessages", "ReadChatSummary", "DeleteMessages"},
			}.Encode(),
		},
		DefaultSubscriptions: Subscriptions{
			Community: []string{},
			Chat:      []string{"Message", "MembersJoined", "MembersLeft"},
		},
		Commands: []Definition{
			{
				Name:           NameChat,
				DefaultRole:    "Participant",
				Description:    "Chat with " + c.Name,
				Permissions:    textAndSummary,
				DirectMessages: true,
				Params: []Param{
					stringParam("message", "Your message to the agent", "Hello! How can you help me?", 1, 2000, true),
				},
			},
			{
				Name:           NameHelp,
				DefaultRole:    "Participant",
				Description:    "Get information about available commands and capabilities",
				Permissions:    textAndSummary,
				DirectMessages: true,
				Params:         []Param{},
			},
			{
				Name:           NameInfo,
				DefaultRole:    "Participant",
				Description:    "Get information about " + c.Name,
				Permissions:    textAndSummary,
				DirectMessages: true,
				Params:         []Param{},
			},
			{
				Name:        NameModerate,
				DefaultRole: "Moderator",
				Description: "Enable or configure moderation for this chat",
				Permissions: openchat.PermissionSet{
					Message: []string{"Text"},
					Chat:    []string{"ReadMessages", "DeleteMessages"},
				}.Encode(),
				Params: []Param{
					stringParam("action", "Moderation action (enable, disable, status)", "enable", 1, 20, false,
						"enable", "disable", "status"),
				},
			},
			{
				Name:        NamePoll,
				DefaultRole: "Participant",
				Description: "Create a poll in the chat",
				Permissions: openchat.PermissionSet{
					Message: []string{"Text", "Poll"},
					Chat:    []string{"ReadChatSummary"},
				}.Encode(),
				Params: []Param{
					stringParam("question", "Poll question", "What should we do next?", 1, 200, false),
					stringParam("options", "Poll options (comma-separated)", "Option 1, Option 2, Option 3", 1, 500, false),
				},
			},
		},
	}
}
