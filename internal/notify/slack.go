package notify

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"

	"github.com/valenante/paginaVenta-sub002/internal/provisioning"
)

// SlackWebhook posts to a Slack incoming webhook.
type SlackWebhook struct {
	url string
}

func NewSlackWebhook(url string) *SlackWebhook {
	return &SlackWebhook{url: url}
}

func (s *SlackWebhook) Name() string { return "slack-webhook" }

func (s *SlackWebhook) Send(ctx context.Context, o Outcome) error {
	msg := &slacklib.WebhookMessage{
		Text:   o.Text(),
		Blocks: &slacklib.Blocks{BlockSet: BuildOutcomeBlocks(o)},
	}
	if err := slacklib.PostWebhookContext(ctx, s.url, msg); err != nil {
		return fmt.Errorf("notify.SlackWebhook.Send: %w", err)
	}
	return nil
}

// SlackAPI abstracts the subset of the Slack client used by SlackBot.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// SlackBot posts to a channel with a bot token.
type SlackBot struct {
	api       SlackAPI
	channelID string
}

func NewSlackBot(api SlackAPI, channelID string) *SlackBot {
	return &SlackBot{api: api, channelID: channelID}
}

func (s *SlackBot) Name() string { return "slack-bot" }

func (s *SlackBot) Send(ctx context.Context, o Outcome) error {
	_, _, err := s.api.PostMessageContext(ctx, s.channelID,
		slacklib.MsgOptionText(o.Text(), false),
		slacklib.MsgOptionBlocks(BuildOutcomeBlocks(o)...),
	)
	if err != nil {
		return fmt.Errorf("notify.SlackBot.Send: %w", err)
	}
	return nil
}

// BuildOutcomeBlocks builds the Block Kit layout for an outcome: a header
// section, the user-facing copy and, when present, the backend error.
func BuildOutcomeBlocks(o Outcome) []slacklib.Block {
	blocks := []slacklib.Block{
		slacklib.NewSectionBlock(
			slacklib.NewTextBlockObject(slacklib.MarkdownType, o.Text(), false, false),
			nil,
			nil,
		),
		slacklib.NewContextBlock("",
			slacklib.NewTextBlockObject(slacklib.PlainTextType, provisioning.Message(o.State), false, false),
		),
	}

	if o.ErrorMessage != "" {
		blocks = append(blocks, slacklib.NewSectionBlock(
			slacklib.NewTextBlockObject(slacklib.MarkdownType, "```"+o.ErrorMessage+"```", false, false),
			nil,
			nil,
		))
	}

	return blocks
}
