package actions

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/memohai/openchat-bot/internal/openchat"
)

func sendMessageAction() *Action {
	return &Action{
		Name:        "SEND_OPENCHAT_MESSAGE",
		Description: "Send a message to an OpenChat group, channel, or direct chat",
		Similes:     []string{"SEND_MESSAGE_TO_OPENCHAT", "POST_TO_OPENCHAT", "MESSAGE_OPENCHAT", "REPLY_ON_OPENCHAT"},
		handle: func(ctx context.Context, c *call) (Result, error) {
			text := c.req.Message.Content.Text
			if text == "" {
				return Result{}, missing("message text")
			}
			inst, client, denied, err := c.target(nil, "send messages", openchat.PermSendMessages)
			if err != nil || denied != nil {
				return deref(denied), err
			}
			if err := client.SendMessage(ctx, openchat.NewTextMessage(text).SetFinalised(true)); err != nil {
				return failure("send message to OpenChat", err)
			}
			c.set.logger.Info("message sent", slog.String("scope", inst.Key()))
			return success("Message sent to OpenChat "+string(inst.Scope.Kind), nil), nil
		},
	}
}

func sendMediaAction() *Action {
	return &Action{
		Name:        "SEND_OPENCHAT_MEDIA",
		Description: "Send an image, video, audio file, or document to OpenChat",
		Similes: []string{
			"SEND_IMAGE_TO_OPENCHAT", "SEND_VIDEO_TO_OPENCHAT", "SEND_AUDIO_TO_OPENCHAT",
			"SEND_FILE_TO_OPENCHAT", "SHARE_MEDIA_ON_OPENCHAT",
		},
		handle: func(ctx context.Context, c *call) (Result, error) {
			attachments := c.req.Message.Content.Attachments
			if len(attachments) == 0 {
				return Result{}, missing("media attachments")
			}
			inst, client, denied, err := c.target(nil, "send messages", openchat.PermSendMessages)
			if err != nil || denied != nil {
				return deref(denied), err
			}

			sent := 0
			var lastErr error
			for _, att := range attachments {
				if att.URL == "" {
					c.set.logger.Warn("attachment missing url, skipping")
					continue
				}
				caption := c.req.Message.Content.Text
				if caption == "" {
					caption = att.Description
				}
				mediaType := strings.ToLower(att.Type)
				if mediaType == "" {
					mediaType, _, _ = strings.Cut(att.MimeType, "/")
				}

				var msg *openchat.Message
				if mediaType == "image" {
					msg = openchat.NewImageMessage(att.URL, 0, 0, caption)
				} else {
					name := att.Name
					if name == "" {
						name = path.Base(att.URL)
					}
					if name == "" || name == "." || name == "/" {
						name = "file"
					}
					msg = openchat.NewTextMessage(fmt.Sprintf("📎 File: %s\n%s", name, caption))
				}
				if err := client.SendMessage(ctx, msg.SetFinalised(true)); err != nil {
					c.set.logger.Error("failed to send media", slog.String("type", mediaType), slog.Any("error", err))
					lastErr = err
					continue
				}
				sent++
			}
			if sent == 0 && lastErr != nil {
				return failure("send media to OpenChat", lastErr)
			}
			return success("Media sent to OpenChat "+string(inst.Scope.Kind), map[string]any{"sent": sent}), nil
		},
	}
}

func createPollAction() *Action {
	return &Action{
		Name:        "CREATE_OPENCHAT_POLL",
		Description: "Create a poll in an OpenChat group or channel",
		Similes:     []string{"MAKE_POLL_ON_OPENCHAT", "START_POLL_ON_OPENCHAT", "CREATE_VOTE_ON_OPENCHAT"},
		handle: func(ctx context.Context, c *call) (Result, error) {
			question := c.opts.Question
			if question == "" {
				question = c.opts.Text
			}
			if question == "" {
				question = c.req.Message.Content.Text
			}
			if question == "" || len(c.opts.PollOptions) < 2 {
				return Result{}, missing("poll question and at least 2 options")
			}
			inst, client, denied, err := c.target(nil, "send messages", openchat.PermSendMessages)
			if err != nil || denied != nil {
				return deref(denied), err
			}

			cfg := c.opts.Config
			poll := openchat.Poll{
				Question:           question,
				Options:            c.opts.PollOptions,
				AllowMultipleVotes: cfg.AllowMultipleVotes,
				ShowVotesBeforeEnd: cfg.ShowVotesBeforeEndDate == nil || *cfg.ShowVotesBeforeEndDate,
				Anonymous:          cfg.Anonymous,
				EndDate:            cfg.EndDate,
			}
			if err := client.SendMessage(ctx, openchat.NewPollMessage(poll).SetFinalised(true)); err != nil {
				c.set.logger.Warn("poll send failed, falling back to text", slog.String("scope", inst.Key()), slog.Any("error", err))
				if err := client.SendMessage(ctx, openchat.NewTextMessage(poll.FallbackText()).SetFinalised(true)); err != nil {
					return failure("create poll on OpenChat", err)
				}
			}
			return success(`Poll created on OpenChat: "`+question+`"`, map[string]any{
				"question": question,
				"options":  poll.Options,
			}), nil
		},
	}
}

func deref(r *Result) Result {
	if r == nil {
		return Result{}
	}
	return *r
}
