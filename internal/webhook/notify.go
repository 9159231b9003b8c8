// Package webhook sends best-effort dashboard notifications to Discord and
// Slack. Notifications are fire-and-forget: a failed post is logged and
// dropped, never surfaced to the request that caused it.
package webhook

import "log"

const footerText = "Clawtrol"

// Dispatch describes a task handed to a sub-agent.
type Dispatch struct {
	AgentID    string
	AgentName  string
	AgentEmoji string
	Task       string
	TaskID     string
	Priority   string
}

// Notifier fans notifications out to whichever webhooks are configured.
type Notifier struct {
	discordURL string
	slackURL   string
	discord    *Discord
	slack      *Slack
}

// NewNotifier returns a notifier for the configured webhook URLs; empty URLs
// disable that channel.
func NewNotifier(discordURL, slackURL string) *Notifier {
	return &Notifier{
		discordURL: discordURL,
		slackURL:   slackURL,
		discord:    NewDiscord(),
		slack:      NewSlack(),
	}
}

// NotifyDispatch announces a dispatch on all configured channels, in the
// background.
func (n *Notifier) NotifyDispatch(d Dispatch) {
	if n == nil {
		return
	}
	if n.discordURL != "" {
		go func() {
			if err := n.discord.SendDispatch(n.discordURL, d); err != nil {
				log.Printf("discord webhook: %v", err)
			}
		}()
	}
	if n.slackURL != "" {
		go func() {
			if err := n.slack.SendDispatch(n.slackURL, d); err != nil {
				log.Printf("slack webhook: %v", err)
			}
		}()
	}
}

// NotifyArchive announces an archive sweep that moved runs to history.
func (n *Notifier) NotifyArchive(archived, totalHistory int) {
	if n == nil || archived == 0 {
		return
	}
	if n.discordURL != "" {
		go func() {
			if err := n.discord.SendArchive(n.discordURL, archived, totalHistory); err != nil {
				log.Printf("discord webhook: %v", err)
			}
		}()
	}
	if n.slackURL != "" {
		go func() {
			if err := n.slack.SendArchive(n.slackURL, archived, totalHistory); err != nil {
				log.Printf("slack webhook: %v", err)
			}
		}()
	}
}
