package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Slack posts dashboard notifications to a Slack webhook.
type Slack struct {
	client *http.Client
}

// NewSlack creates a new Slack webhook handler
func NewSlack() *Slack {
	return &Slack{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// SlackBlock represents a Slack Block Kit block
type SlackBlock struct {
	Type     string         `json:"type"`
	Text     *SlackTextObj  `json:"text,omitempty"`
	Fields   []SlackTextObj `json:"fields,omitempty"`
	Elements []SlackElement `json:"elements,omitempty"`
}

// SlackTextObj represents a Slack text object
type SlackTextObj struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// SlackElement represents a Slack element (for context blocks)
type SlackElement struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SlackAttachment represents a Slack attachment (for colored sidebar)
type SlackAttachment struct {
	Color  string       `json:"color"`
	Blocks []SlackBlock `json:"blocks"`
}

// SlackPayload represents the webhook payload
type SlackPayload struct {
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

// SendDispatch announces a task dispatch to an agent.
func (s *Slack) SendDispatch(webhookURL string, n Dispatch) error {
	task := n.Task
	if len(task) > 2500 {
		task = task[:2500] + "\n... _(truncated)_"
	}

	blocks := []SlackBlock{
		{
			Type: "header",
			Text: &SlackTextObj{
				Type:  "plain_text",
				Text:  fmt.Sprintf("📤 Dispatched to %s %s", n.AgentName, n.AgentEmoji),
				Emoji: true,
			},
		},
		{
			Type: "section",
			Fields: []SlackTextObj{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Agent:*\n%s", n.AgentID)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Task ID:*\n%s", n.TaskID)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Priority:*\n%s", n.Priority)},
			},
		},
		{Type: "divider"},
		{
			Type: "section",
			Text: &SlackTextObj{Type: "mrkdwn", Text: task},
		},
		{
			Type: "context",
			Elements: []SlackElement{
				{Type: "mrkdwn", Text: footerText},
			},
		},
	}

	payload := SlackPayload{
		Attachments: []SlackAttachment{{Color: "#3B82F6", Blocks: blocks}},
	}
	return s.send(webhookURL, payload)
}

// SendArchive announces an archive sweep that moved runs to history.
func (s *Slack) SendArchive(webhookURL string, archived, totalHistory int) error {
	payload := SlackPayload{
		Text: fmt.Sprintf("🗄️ Archived %d run(s); history now holds %d.", archived, totalHistory),
	}
	return s.send(webhookURL, payload)
}

func (s *Slack) send(webhookURL string, payload SlackPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", webhookURL, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
