package openchat

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

// TextContent is a plain (markdown) text body.
type TextContent struct {
	Text string `json:"text"`
}

// ImageContent references an image by URL.
type ImageContent struct {
	URL     string `json:"url"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Caption string `json:"caption,omitempty"`
}

// FileContent references a file by URL.
type FileContent struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

// Poll is the configuration of a poll message.
type Poll struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	AllowMultipleVotes bool     `json:"allow_multiple_votes_per_user"`
	ShowVotesBeforeEnd bool     `json:"show_votes_before_end_date"`
	Anonymous          bool     `json:"anonymous"`
	EndDate            *int64   `json:"end_date,omitempty"`
}

// FallbackText renders the poll as a numbered text list for chats that
// cannot take poll messages.
func (p Poll) FallbackText() string {
	var b strings.Builder
	b.WriteString("📊 ")
	b.WriteString(p.Question)
	b.WriteString("\n")
	for i, opt := range p.Options {
		fmt.Fprintf(&b, "\n%d. %s", i+1, opt)
	}
	return b.String()
}

// MessageContent is a tagged union; exactly one field is set.
type MessageContent struct {
	Text  *TextContent  `json:"Text,omitempty"`
	Image *ImageContent `json:"Image,omitempty"`
	File  *FileContent  `json:"File,omitempty"`
	Poll  *Poll         `json:"Poll,omitempty"`
}

// Message is an outbound bot message.
type Message struct {
	ID                 string         `json:"message_id"`
	Content            MessageContent `json:"content"`
	Finalised          bool           `json:"finalised"`
	BlockLevelMarkdown bool           `json:"block_level_markdown"`
}

func newMessage(content MessageContent) *Message {
	return &Message{
		ID:      strconv.FormatUint(rand.Uint64(), 10),
		Content: content,
	}
}

// NewTextMessage builds a non-finalised text message.
func NewTextMessage(text string) *Message {
	return newMessage(MessageContent{Text: &TextContent{Text: text}})
}

// NewImageMessage builds a non-finalised image message. Zero dimensions mean unknown.
func NewImageMessage(url string, width, height int, caption string) *Message {
	return newMessage(MessageContent{Image: &ImageContent{URL: url, Width: width, Height: height, Caption: caption}})
}

// NewFileMessage builds a non-finalised file message.
func NewFileMessage(url, name, mimeType, caption string) *Message {
	return newMessage(MessageContent{File: &FileContent{URL: url, Name: name, MimeType: mimeType, Caption: caption}})
}

// NewPollMessage builds a non-finalised poll message.
func NewPollMessage(poll Poll) *Message {
	return newMessage(MessageContent{Poll: &poll})
}

// SetFinalised marks the message complete (true) or as a streaming placeholder (false).
func (m *Message) SetFinalised(finalised bool) *Message {
	m.Finalised = finalised
	return m
}

// Text returns the text body, or "" for non-text messages.
func (m *Message) Text() string {
	if m == nil || m.Content.Text == nil {
		return ""
	}
	return m.Content.Text.Text
}

// MessageResponse is the body returned from /execute_command.
type MessageResponse struct {
	Message *Message `json:"message,omitempty"`
}

// ToResponse wraps the message for a command response.
func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{Message: m}
}
