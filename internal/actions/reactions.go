package actions

import (
	"context"

	"github.com/memohai/openchat-bot/internal/openchat"
)

func reactAction() *Action {
	return &Action{
		Name:        "REACT_TO_OPENCHAT_MESSAGE",
		Description: "Add a reaction emoji to a message in OpenChat",
		Similes:     []string{"ADD_REACTION_ON_OPENCHAT", "EMOJI_REACT_OPENCHAT", "LIKE_MESSAGE_OPENCHAT"},
		handle: func(ctx context.Context, c *call) (Result, error) {
			messageID := c.opts.messageID(c.req.Message)
			if messageID == "" {
				return Result{}, missing("message id")
			}
			reaction := c.opts.reaction()
			_, client, denied, err := c.target(nil, "react to messages", openchat.PermReactToMessages)
			if err != nil || denied != nil {
				return deref(denied), err
			}
			if err := client.AddReaction(ctx, messageID, reaction); err != nil {
				return failure("add reaction", err)
			}
			return success("Reaction "+reaction+" added to message", map[string]any{
				"messageId": messageID,
				"reaction":  reaction,
			}), nil
		},
	}
}

func removeReactionAction() *Action {
	return &Action{
		Name:        "REMOVE_OPENCHAT_REACTION",
		Description: "Remove a reaction from a message in OpenChat",
		Similes:     []string{"DELETE_REACTION_OPENCHAT", "UNREACT_OPENCHAT"},
		handle: func(ctx context.Context, c *call) (Result, error) {
			messageID := c.opts.messageID(c.req.Message)
			if messageID == "" {
				return Result{}, missing("message id")
			}
			reaction := c.opts.reaction()
			_, client, denied, err := c.target(nil, "react to messages", openchat.PermReactToMessages)
			if err != nil || denied != nil {
				return deref(denied), err
			}
			if err := client.RemoveReaction(ctx, messageID, reaction); err != nil {
				return failure("remove reaction", err)
			}
			return success("Reaction "+reaction+" removed from message", map[string]any{
				"messageId": messageID,
				"reaction":  reaction,
			}), nil
		},
	}
}
