// Package agent holds the bot persona and the text generation runtime.
package agent

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StringList accepts either a single string or a list of strings in YAML.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*l = nil
			return nil
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected string or list", node.Line)
	}
}

// First returns the first entry or fallback.
func (l StringList) First(fallback string) string {
	for _, s := range l {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return fallback
}

// Style describes how the persona writes.
type Style struct {
	All  StringList `yaml:"all" json:"all,omitempty"`
	Chat StringList `yaml:"chat" json:"chat,omitempty"`
	Post StringList `yaml:"post" json:"post,omitempty"`
}

// Character is the bot persona.
type Character struct {
	Name         string     `yaml:"name" json:"name"`
	Username     string     `yaml:"username" json:"username,omitempty"`
	System       string     `yaml:"system" json:"system,omitempty"`
	Bio          StringList `yaml:"bio" json:"bio,omitempty"`
	Lore         StringList `yaml:"lore" json:"lore,omitempty"`
	Topics       StringList `yaml:"topics" json:"topics,omitempty"`
	Adjectives   StringList `yaml:"adjectives" json:"adjectives,omitempty"`
	Style        Style      `yaml:"style" json:"style"`
	PostExamples StringList `yaml:"postExamples" json:"postExamples,omitempty"`
}

// DefaultCharacter is used when no character file is configured.
func DefaultCharacter() Character {
	return Character{
		Name: "Eliza",
		Bio: StringList{
			"An AI agent capable of intelligent conversation and task execution on OpenChat.",
		},
		Topics: StringList{"general knowledge", "community", "technology"},
		Style: Style{
			All:  StringList{"friendly and helpful"},
			Chat: StringList{"concise"},
		},
	}
}

// LoadCharacter reads a YAML persona file. An empty path yields DefaultCharacter.
func LoadCharacter(path string) (Character, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCharacter(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Character{}, fmt.Errorf("read character: %w", err)
	}
	var c Character
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Character{}, fmt.Errorf("parse character %s: %w", path, err)
	}
	if strings.TrimSpace(c.Name) == "" {
		return Character{}, errors.New("character name is required")
	}
	return c, nil
}

// Description is the first bio line, or the generic agent description.
func (c Character) Description() string {
	return c.Bio.First("An AI agent capable of intelligent conversation and task execution on OpenChat")
}

// TopicsLine lists up to five topics.
func (c Character) TopicsLine() string {
	topics := c.Topics
	if len(topics) > 5 {
		topics = topics[:5]
	}
	if len(topics) == 0 {
		return "various topics"
	}
	return strings.Join(topics, ", ")
}

// StyleLine returns the dominant style hint.
func (c Character) StyleLine() string {
	if s := c.Style.All.First(""); s != "" {
		return s
	}
	return c.Style.Chat.First("friendly and helpful")
}
