package notify

import (
	"log"

	"github.com/slack-go/slack"
)

// SlackNotifier posts operational messages (training completion, watch
// alerts) to a channel. Failures are logged and never propagate to the
// operation that triggered the message.
type SlackNotifier struct {
	api       *slack.Client
	channelID string
}

// NewSlackNotifier returns nil when token or channel is unset; a nil
// notifier silently drops messages.
func NewSlackNotifier(botToken, channelID string) *SlackNotifier {
	if botToken == "" || channelID == "" {
		return nil
	}
	return &SlackNotifier{api: slack.New(botToken), channelID: channelID}
}

func (n *SlackNotifier) Post(message string) {
	if n == nil {
		return
	}
	_, _, err := n.api.PostMessage(n.channelID, slack.MsgOptionText(message, false))
	if err != nil {
		log.Printf("slack notify error: %v", err)
	}
}
