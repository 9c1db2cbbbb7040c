package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCharacterYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "modbot.yaml")
	content := `
name: ModBot
bio: I'm ModBot, your friendly community moderator.
topics: [moderation, polls, rules, support, chat, extra]
style:
  chat: [welcoming]
postExamples:
  - Remember to be kind!
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := LoadCharacter(path)
	require.NoError(t, err)
	assert.Equal(t, "ModBot", c.Name)
	assert.Equal(t, StringList{"I'm ModBot, your friendly community moderator."}, c.Bio)
	assert.Equal(t, "moderation, polls, rules, support, chat", c.TopicsLine())
	assert.Equal(t, "welcoming", c.StyleLine())
}

func TestLoadCharacterDefaults(t *testing.T) {
	t.Parallel()
	c, err := LoadCharacter("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCharacter().Name, c.Name)
}

func TestLoadCharacterRequiresName(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nameless.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bio: [hello]\n"), 0o600))
	_, err := LoadCharacter(path)
	assert.Error(t, err)
}

func TestCharacterFallbacks(t *testing.T) {
	t.Parallel()
	c := Character{Name: "Bare"}
	assert.Equal(t, "various topics", c.TopicsLine())
	assert.Equal(t, "friendly and helpful", c.StyleLine())
	assert.True(t, strings.HasPrefix(c.Description(), "An AI agent"))
}

func TestHelpTextListsCommands(t *testing.T) {
	t.Parallel()
	text := HelpText(Character{Name: "ModBot", Bio: StringList{"Keeps things tidy."}})
	for _, cmd := range []string{"/chat", "/help", "/info", "/moderate", "/poll"} {
		assert.Contains(t, text, cmd)
	}
	assert.Contains(t, text, "ModBot")
	assert.Contains(t, text, "Keeps things tidy.")
}

func TestMemberTexts(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Welcome to the chat, alice! 👋", MemberWelcomeText("alice"))
	assert.Contains(t, MemberGoodbyeText(""), "friend")
}
