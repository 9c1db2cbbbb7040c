package agent

import (
	"fmt"
	"strings"
)

// Fixed user-facing texts.
const (
	ThinkingText       = "Thinking..."
	MissingMessageText = "Please provide a message."
	GenerationFailText = "I'm having trouble generating a response. Please try again."
	ChatErrorText      = "I encountered an error processing your message. Please try again."
	FallbackGreeting   = "Hello! How can I help you?"
)

// HelpText lists the commands.
func HelpText(c Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🤖 **%s** - AI Agent\n\n", c.Name)
	b.WriteString("**Available Commands:**\n")
	b.WriteString("• `/chat <message>` - Chat with me\n")
	b.WriteString("• `/help` - Show this help message\n")
	b.WriteString("• `/info` - Get information about me\n")
	b.WriteString("• `/moderate <enable|disable|status>` - Manage moderation for this chat\n")
	b.WriteString("• `/poll <question> <options>` - Create a poll (comma-separated options)\n\n")
	b.WriteString("**About Me:**\n")
	b.WriteString(c.Description())
	b.WriteString("\n\n**How to Use:**\n")
	b.WriteString("Simply use the /chat command followed by your message, or send me a direct message!")
	return b.String()
}

// InfoText describes the persona.
func InfoText(c Character) string {
	return fmt.Sprintf(`📋 **About %s**

%s

**Topics I can discuss:** %s

**Communication style:** %s

**Capabilities:**
• Intelligent conversation
• Context-aware responses
• Chat moderation
• Polls and community management`, c.Name, c.Description(), c.TopicsLine(), c.StyleLine())
}

// InstallWelcomeText is sent once when the bot is installed.
func InstallWelcomeText(c Character) string {
	return fmt.Sprintf(`👋 Hello! I'm %s, your AI assistant.

%s

Use `+"`/help`"+` to see available commands or `+"`/chat <message>`"+` to start chatting with me!`,
		c.Name, c.Bio.First("I'm here to help you with various tasks and conversations."))
}

// MemberWelcomeText greets a member who joined.
func MemberWelcomeText(username string) string {
	return fmt.Sprintf("Welcome to the chat, %s! 👋", displayName(username))
}

// MemberGoodbyeText says goodbye to a member who left.
func MemberGoodbyeText(username string) string {
	return fmt.Sprintf("Goodbye, %s! 👋", displayName(username))
}

func displayName(username string) string {
	if strings.TrimSpace(username) == "" {
		return "friend"
	}
	return username
}

// ChatPrompt is the single-turn persona prompt for a user message.
func ChatPrompt(c Character, message string) string {
	return fmt.Sprintf("You are %s. %s\n\nUser: %s\n\n%s:", c.Name, c.Bio.First(""), message, c.Name)
}
