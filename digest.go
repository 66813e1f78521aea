package main

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"
)

// BuildDigestMessage summarizes the last 24h of high-priority escalations.
func BuildDigestMessage(total, failed int, since time.Time) string {
	if total == 0 {
		return fmt.Sprintf("Escalation digest since %s: no high priority complaints.", since.Format("Jan 2 15:04"))
	}
	msg := fmt.Sprintf("Escalation digest since %s: %d high priority complaint(s)", since.Format("Jan 2 15:04"), total)
	if failed > 0 {
		msg += fmt.Sprintf(", %d escalation dispatch(es) FAILED", failed)
	}
	return msg + "."
}

// StartDigestScheduler starts a cron-based scheduler that periodically posts
// an escalation summary to the alert channel. The schedule is a standard
// 5-field cron expression (minute hour day-of-month month day-of-week).
// Examples: "0 9 * * *" (daily 9am), "0 9 * * 1-5" (weekdays 9am).
func StartDigestScheduler(cfg Config, db *sql.DB, api *slack.Client) {
	schedule := strings.TrimSpace(cfg.DigestCronSchedule)
	if schedule == "" {
		log.Println("Escalation digest disabled (digest_cron_schedule not set)")
		return
	}
	if !cfg.SlackConfigured() {
		log.Println("Escalation digest disabled: slack_bot_token or alert_channel_id not set")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid digest_cron_schedule '%s': %v — digest disabled", schedule, err)
		return
	}

	log.Printf("Escalation digest scheduled (cron: %s)", schedule)

	go func() {
		for {
			now := time.Now()
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next escalation digest at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			since := time.Now().Add(-24 * time.Hour)
			total, failed, countErr := CountEscalationsSince(db, since)
			if countErr != nil {
				log.Printf("Escalation digest query error: %v", countErr)
				continue
			}
			msg := BuildDigestMessage(total, failed, since)
			log.Printf("Escalation digest: %s", msg)

			_, _, postErr := api.PostMessage(cfg.AlertChannelID, slack.MsgOptionText(msg, false))
			if postErr != nil {
				log.Printf("Escalation digest post error: %v", postErr)
			}
		}
	}()
}
