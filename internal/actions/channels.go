package actions

import (
	"context"
	"log/slog"

	"github.com/memohai/openchat-bot/internal/installation"
	"github.com/memohai/openchat-bot/internal/openchat"
)

func createChannelAction() *Action {
	return &Action{
		Name:        "CREATE_OPENCHAT_CHANNEL",
		Description: "Create a new channel in an OpenChat community",
		Similes:     []string{"MAKE_CHANNEL_OPENCHAT", "ADD_CHANNEL_OPENCHAT"},
		handle: func(ctx context.Context, c *call) (Result, error) {
			name := c.opts.channelName()
			if name == "" {
				return Result{}, missing("channel name")
			}
			perm := openchat.PermCreatePublicChannel
			if !c.opts.public() {
				perm = openchat.PermCreatePrivateChannel
			}
			inst, client, denied, err := c.target(installation.HasCommunity, "create channels", perm)
			if err != nil || denied != nil {
				return deref(denied), err
			}
			res, err := client.CreateChannel(ctx, openchat.ChannelSpec{
				Name:        name,
				Description: c.opts.Description,
				IsPublic:    c.opts.public(),
			})
			if err != nil {
				return failure("create channel", err)
			}
			c.set.logger.Info("channel created",
				slog.String("community", string(inst.Scope.CommunityID)),
				slog.String("channel_id", string(res.ChannelID)),
			)
			return success("Channel '"+name+"' created successfully", map[string]any{
				"channelName": name,
				"channelId":   string(res.ChannelID),
			}), nil
		},
	}
}

func deleteChannelAction() *Action {
	return &Action{
		Name:        "DELETE_OPENCHAT_CHANNEL",
		Description: "Delete a channel from an OpenChat community",
		Similes:     []string{"REMOVE_CHANNEL_OPENCHAT"},
		handle: func(ctx context.Context, c *call) (Result, error) {
			channelID := string(c.opts.ChannelID)
			if channelID == "" {
				return Result{}, missing("channel id")
			}
			_, client, denied, err := c.target(installation.HasCommunity, "delete channels", openchat.PermDeleteChannel)
			if err != nil || denied != nil {
				return deref(denied), err
			}
			if err := client.DeleteChannel(ctx, channelID); err != nil {
				return failure("delete channel", err)
			}
			return success("Channel deleted successfully", map[string]any{"channelId": channelID}), nil
		},
	}
}
