package actions

import (
	"context"
	"fmt"

	"github.com/memohai/openchat-bot/internal/openchat"
)

func inviteMembersAction() *Action {
	return &Action{
		Name:        "INVITE_OPENCHAT_MEMBERS",
		Description: "Invite users to an OpenChat group or community",
		Similes:     []string{"ADD_MEMBERS_OPENCHAT", "INVITE_USERS_OPENCHAT"},
		handle: func(ctx context.Context, c *call) (Result, error) {
			userIDs := c.opts.userIDs()
			if len(userIDs) == 0 {
				return Result{}, missing("user ids")
			}
			_, client, denied, err := c.target(nil, "invite members", openchat.PermInviteMembers)
			if err != nil || denied != nil {
				return deref(denied), err
			}
			if err := client.InviteUsers(ctx, userIDs); err != nil {
				return failure("invite members", err)
			}
			return success(fmt.Sprintf("%d user(s) invited successfully", len(userIDs)), map[string]any{"userIds": userIDs}), nil
		},
	}
}

func removeMembersAction() *Action {
	return &Action{
		Name:        "REMOVE_OPENCHAT_MEMBERS",
		Description: "Remove users from an OpenChat group or community",
		Similes:     []string{"KICK_MEMBERS_OPENCHAT", "BAN_USERS_OPENCHAT"},
		handle: func(ctx context.Context, c *call) (Result, error) {
			userIDs := c.opts.userIDs()
			if len(userIDs) == 0 {
				return Result{}, missing("user ids")
			}
			_, client, denied, err := c.target(nil, "remove members", openchat.PermRemoveMembers)
			if err != nil || denied != nil {
				return deref(denied), err
			}
			if err := client.RemoveUsers(ctx, userIDs); err != nil {
				return failure("remove members", err)
			}
			return success(fmt.Sprintf("%d user(s) removed successfully", len(userIDs)), map[string]any{"userIds": userIDs}), nil
		},
	}
}
