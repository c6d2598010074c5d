package handlers

import (
	"github.com/glebk/whoshere-bot/internal/domain"

	"github.com/slack-go/slack"
)

// toSlackMsg converts a reply into a private Slack message
func toSlackMsg(reply *domain.Reply) slack.Msg {
	msg := slack.Msg{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         reply.Text,
	}

	for _, a := range reply.Attachments {
		attachment := slack.Attachment{
			Color:      a.Color,
			Title:      a.Title,
			Text:       a.Text,
			MarkdownIn: []string{"text"},
		}
		for _, f := range a.Fields {
			attachment.Fields = append(attachment.Fields, slack.AttachmentField{
				Title: f.Title,
				Value: f.Value,
				Short: f.Short,
			})
		}
		msg.Attachments = append(msg.Attachments, attachment)
	}

	return msg
}
