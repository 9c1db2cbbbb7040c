package command

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/openchat-bot/internal/agent"
)

func TestBotDefinitionCommands(t *testing.T) {
	t.Parallel()
	def := NewBotDefinition(agent.Character{Name: "Eliza", Bio: agent.StringList{"A helper."}})

	names := make([]string, 0, len(def.Commands))
	for _, c := range def.Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{NameChat, NameHelp, NameInfo, NameModerate, NamePoll}, names)

	chat, ok := def.Command(NameChat)
	require.True(t, ok)
	assert.Equal(t, "Chat with Eliza", chat.Description)
	assert.True(t, chat.DirectMessages)
	require.Len(t, chat.Params, 1)
	assert.Equal(t, 2000, chat.Params[0].ParamType.StringParam.MaxLength)
	assert.True(t, chat.Params[0].ParamType.StringParam.MultiLine)

	moderate, ok := def.Command(NameModerate)
	require.True(t, ok)
	assert.Equal(t, "Moderator", moderate.DefaultRole)
	assert.False(t, moderate.DirectMessages)

	_, ok = def.Command("nope")
	assert.False(t, ok)
}

func TestBotDefinitionPermissionBits(t *testing.T) {
	t.Parallel()
	def := NewBotDefinition(agent.DefaultCharacter())

	assert.Equal(t, uint32(0b11111), def.AutonomousConfig.Permissions.Message)
	// ReactToMessages(7) ReadMessages(10) ReadChatSummary(12) DeleteMessages(5)
	assert.Equal(t, uint32(1<<7|1<<10|1<<12|1<<5), def.AutonomousConfig.Permissions.Chat)

	poll, _ := def.Command(NamePoll)
	assert.Equal(t, uint32(1<<0|1<<5), poll.Permissions.Message)
	assert.Equal(t, []string{"Message", "MembersJoined", "MembersLeft"}, def.DefaultSubscriptions.Chat)
}

func TestBotDefinitionJSONShape(t *testing.T) {
	t.Parallel()
	raw, err := json.Marshal(NewBotDefinition(agent.DefaultCharacter()))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "autonomous_config")
	assert.Contains(t, decoded, "default_subscriptions")

	commands := decoded["commands"].([]any)
	moderate := commands[3].(map[string]any)
	param := moderate["params"].([]any)[0].(map[string]any)
	stringParam := param["param_type"].(map[string]any)["StringParam"].(map[string]any)
	assert.Len(t, stringParam["choices"], 3)
}
