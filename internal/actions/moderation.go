package actions

import (
	"context"
	"log/slog"

	"github.com/memohai/openchat-bot/internal/openchat"
)

func deleteMessageAction() *Action {
	return &Action{
		Name:        "DELETE_OPENCHAT_MESSAGE",
		Description: "Delete a message from OpenChat (requires DeleteMessages permission)",
		Similes:     []string{"REMOVE_MESSAGE_OPENCHAT", "MODERATE_DELETE_OPENCHAT"},
		handle: func(ctx context.Context, c *call) (Result, error) {
			messageID := c.opts.messageID(c.req.Message)
			if messageID == "" {
				return Result{}, missing("message id")
			}
			inst, client, denied, err := c.target(nil, "delete messages", openchat.PermDeleteMessages)
			if err != nil || denied != nil {
				return deref(denied), err
			}
			if err := client.DeleteMessages(ctx, []string{messageID}); err != nil {
				return failure("delete message", err)
			}
			c.set.logger.Info("message deleted", slog.String("scope", inst.Key()), slog.String("message_id", messageID))
			return success("Message deleted", map[string]any{"messageId": messageID}), nil
		},
	}
}

func pinMessageAction() *Action {
	return &Action{
		Name:        "PIN_OPENCHAT_MESSAGE",
		Description: "Pin an important message in OpenChat",
		Similes:     []string{"STICKY_MESSAGE_OPENCHAT", "HIGHLIGHT_MESSAGE_OPENCHAT"},
		handle: func(ctx context.Context, c *call) (Result, error) {
			return pinToggle(ctx, c, true)
		},
	}
}

func unpinMessageAction() *Action {
	return &Action{
		Name:        "UNPIN_OPENCHAT_MESSAGE",
		Description: "Unpin a message in OpenChat",
		Similes:     []string{"REMOVE_PIN_OPENCHAT"},
		handle: func(ctx context.Context, c *call) (Result, error) {
			return pinToggle(ctx, c, false)
		},
	}
}

func pinToggle(ctx context.Context, c *call, pin bool) (Result, error) {
	messageID := c.opts.messageID(c.req.Message)
	if messageID == "" {
		return Result{}, missing("message id")
	}
	what, op, done := "pin messages", "pin message", "Message pinned"
	if !pin {
		what, op, done = "unpin messages", "unpin message", "Message unpinned"
	}
	_, client, denied, err := c.target(nil, what, openchat.PermPinMessages, openchat.PermUpdateDetails)
	if err != nil || denied != nil {
		return deref(denied), err
	}
	if pin {
		err = client.PinMessage(ctx, messageID)
	} else {
		err = client.UnpinMessage(ctx, messageID)
	}
	if err != nil {
		return failure(op, err)
	}
	return success(done, map[string]any{"messageId": messageID}), nil
}
