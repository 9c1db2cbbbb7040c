package command

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/memohai/openchat-bot/internal/openchat"
)

// ErrInvalidArgs is returned when a supplied argument violates its parameter schema.
var ErrInvalidArgs = errors.New("invalid command arguments")

// Validator checks supplied arguments against each command's parameter schema.
// Required-ness is not enforced here; handlers answer missing arguments with text.
type Validator struct {
	schemas map[string]*jsonschema.Resolved
}

// NewValidator compiles one schema per command in def.
func NewValidator(def BotDefinition) (*Validator, error) {
	v := &Validator{schemas: map[string]*jsonschema.Resolved{}}
	for _, cmd := range def.Commands {
		schema := ParamsSchema(cmd.Params)
		resolved, err := schema.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("compile schema for %s: %w", cmd.Name, err)
		}
		v.schemas[cmd.Name] = resolved
	}
	return v, nil
}

// ParamsSchema converts parameter definitions into an object schema.
func ParamsSchema(params []Param) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{},
	}
	for _, p := range params {
		prop := &jsonschema.Schema{Description: p.Description}
		if sp := p.ParamType.StringParam; sp != nil {
			prop.Type = "string"
			if sp.MinLength > 0 {
				prop.MinLength = jsonschema.Ptr(sp.MinLength)
			}
			if sp.MaxLength > 0 {
				prop.MaxLength = jsonschema.Ptr(sp.MaxLength)
			}
			for _, c := range sp.Choices {
				prop.Enum = append(prop.Enum, c.Value)
			}
		}
		schema.Properties[p.Name] = prop
	}
	return schema
}

// Validate checks the supplied arguments of cmd. Unknown commands pass; the
// dispatcher rejects them separately.
func (v *Validator) Validate(cmd *openchat.Command) error {
	resolved, ok := v.schemas[cmd.Name]
	if !ok {
		return nil
	}
	instance, err := argsInstance(cmd)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}
	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}
	return nil
}

// argsInstance renders the supplied args as a JSON object value. Empty
// strings count as not supplied.
func argsInstance(cmd *openchat.Command) (map[string]any, error) {
	args := cmd.ArgMap()
	for name, value := range args {
		if s, ok := value.(string); (ok && s == "") || value == nil {
			delete(args, name)
		}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	var instance map[string]any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, err
	}
	return instance, nil
}
