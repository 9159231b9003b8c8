package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Discord posts dashboard notifications to a Discord webhook.
type Discord struct {
	client *http.Client
}

// NewDiscord creates a new Discord webhook handler
func NewDiscord() *Discord {
	return &Discord{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// DiscordEmbed represents a Discord embed object
type DiscordEmbed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

// EmbedField represents a field in a Discord embed
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// EmbedFooter represents the footer of a Discord embed
type EmbedFooter struct {
	Text string `json:"text"`
}

// DiscordPayload represents the webhook payload
type DiscordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []DiscordEmbed `json:"embeds,omitempty"`
}

// SendDispatch announces a task dispatch to an agent.
func (d *Discord) SendDispatch(webhookURL string, n Dispatch) error {
	task := n.Task
	if len(task) > 3500 {
		task = task[:3500] + "\n\n*... (truncated)*"
	}

	embed := DiscordEmbed{
		Title:       fmt.Sprintf("📤 Dispatched to %s %s", n.AgentName, n.AgentEmoji),
		Description: task,
		Color:       0x3B82F6,
		Fields: []EmbedField{
			{Name: "Agent", Value: n.AgentID, Inline: true},
			{Name: "Task ID", Value: n.TaskID, Inline: true},
			{Name: "Priority", Value: n.Priority, Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    &EmbedFooter{Text: footerText},
	}

	return d.send(webhookURL, DiscordPayload{Embeds: []DiscordEmbed{embed}})
}

// SendArchive announces an archive sweep that moved runs to history.
func (d *Discord) SendArchive(webhookURL string, archived, totalHistory int) error {
	embed := DiscordEmbed{
		Title:       "🗄️ Run history archived",
		Description: fmt.Sprintf("Archived %d run(s); history now holds %d.", archived, totalHistory),
		Color:       0x788C5D,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Footer:      &EmbedFooter{Text: footerText},
	}
	return d.send(webhookURL, DiscordPayload{Embeds: []DiscordEmbed{embed}})
}

func (d *Discord) send(webhookURL string, payload DiscordPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", webhookURL, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
