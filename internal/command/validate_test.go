package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/openchat-bot/internal/agent"
	"github.com/memohai/openchat-bot/internal/openchat"
)

func strArg(name, value string) openchat.CommandArg {
	return openchat.CommandArg{Name: name, Value: openchat.ArgValue{String: &value}}
}

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(NewBotDefinition(agent.DefaultCharacter()))
	require.NoError(t, err)
	return v
}

func TestValidatorChoices(t *testing.T) {
	t.Parallel()
	v := newTestValidator(t)

	tests := []struct {
		name    string
		cmd     *openchat.Command
		wantErr bool
	}{
		{"choice accepted", &openchat.Command{Name: NameModerate, Args: []openchat.CommandArg{strArg("action", "status")}}, false},
		{"choice rejected", &openchat.Command{Name: NameModerate, Args: []openchat.CommandArg{strArg("action", "ban")}}, true},
		{"missing arg passes", &openchat.Command{Name: NameModerate}, false},
		{"empty arg counts as missing", &openchat.Command{Name: NameChat, Args: []openchat.CommandArg{strArg("message", "")}}, false},
		{"unknown command passes", &openchat.Command{Name: "dance"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.cmd)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidArgs))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidatorLengthAndType(t *testing.T) {
	t.Parallel()
	v := newTestValidator(t)

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'q'
	}
	err := v.Validate(&openchat.Command{Name: NamePoll, Args: []openchat.CommandArg{strArg("question", string(long))}})
	assert.ErrorIs(t, err, ErrInvalidArgs)

	n := int64(3)
	err = v.Validate(&openchat.Command{Name: NamePoll, Args: []openchat.CommandArg{
		{Name: "options", Value: openchat.ArgValue{Integer: &n}},
	}})
	assert.ErrorIs(t, err, ErrInvalidArgs)

	assert.NoError(t, v.Validate(&openchat.Command{Name: NamePoll, Args: []openchat.CommandArg{
		strArg("question", "Lunch?"), strArg("options", "Pizza, Tacos"),
	}}))
}

func TestParamsSchema(t *testing.T) {
	t.Parallel()
	schema := ParamsSchema([]Param{stringParam("action", "", "", 1, 20, false, "a", "b")})
	prop := schema.Properties["action"]
	require.NotNil(t, prop)
	assert.Equal(t, "string", prop.Type)
	assert.Equal(t, []any{"a", "b"}, prop.Enum)
	assert.Equal(t, 1, *prop.MinLength)
	assert.Equal(t, 20, *prop.MaxLength)
	assert.Empty(t, schema.Required)
}
