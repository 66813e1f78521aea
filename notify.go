package main

import (
	"context"
	"fmt"
	"log"

	"github.com/slack-go/slack"
)

// SlackNotifier posts an alert message for every high-priority escalation.
// Posting is best effort: failures are logged and never affect the triage
// result.
type SlackNotifier struct {
	api       *slack.Client
	channelID string
}

func NewSlackNotifier(api *slack.Client, channelID string) *SlackNotifier {
	return &SlackNotifier{api: api, channelID: channelID}
}

func (n *SlackNotifier) EscalationAlert(ctx context.Context, tc TicketContext) {
	msg := fmt.Sprintf(":rotating_light: High priority complaint (ticket #%d, %s): %s",
		tc.TicketID, tc.Category, tc.Complaint)

	_, _, err := n.api.PostMessageContext(ctx, n.channelID, slack.MsgOptionText(msg, false))
	if err != nil {
		log.Printf("Error posting escalation alert: %v", err)
	} else {
		log.Printf("Posted escalation alert for ticket %d", tc.TicketID)
	}
}
