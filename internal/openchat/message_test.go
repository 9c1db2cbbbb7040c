package openchat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPollFallbackText(t *testing.T) {
	t.Parallel()
	poll := Poll{Question: "Lunch?", Options: []string{"Pizza", "Tacos"}}
	assert.Equal(t, "📊 Lunch?\n\n1. Pizza\n2. Tacos", poll.FallbackText())
}

func TestMessageBuilders(t *testing.T) {
	t.Parallel()
	msg := NewTextMessage("hi").SetFinalised(true)
	assert.Equal(t, "hi", msg.Text())
	assert.True(t, msg.Finalised)
	assert.NotEmpty(t, msg.ID)

	img := NewImageMessage("https://x/y.png", 0, 0, "")
	assert.Empty(t, img.Text())
	assert.Equal(t, "https://x/y.png", img.Content.Image.URL)

	var nilMsg *Message
	assert.Empty(t, nilMsg.Text())
	assert.Equal(t, msg, msg.ToResponse().Message)
}
