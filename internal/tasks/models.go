package tasks

import "encoding/json"

// Task statuses are the four fixed kanban columns.
const (
	StatusBacklog    = "backlog"
	StatusInProgress = "in-progress"
	StatusInReview   = "in-review"
	StatusDone       = "done"
)

// Columns is the fixed column order for a fresh board.
var Columns = []string{StatusBacklog, StatusInProgress, StatusInReview, StatusDone}

// statusLabels are the human names used in status_change activity entries.
var statusLabels = map[string]string{
	StatusBacklog:    "Backlog",
	StatusInProgress: "In Progress",
	StatusInReview:   "In Review",
	StatusDone:       "Done",
}

// StatusLabel returns the display name for a column status, or the raw
// status when it is not one of the four columns.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// Activity is one append-only audit entry on a task.
type Activity struct {
	ID        string `json:"id"`
	Type      string `json:"type"` // comment | status_change | assignment | created
	AgentID   string `json:"agentId"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Task is one kanban card. Timestamps are epoch milliseconds.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	PR          *string    `json:"pr,omitempty"`
	Project     *string    `json:"project,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Assignee    *string    `json:"assignee,omitempty"`
	Activity    []Activity `json:"activity,omitempty"`
	DueDate     *int64     `json:"dueDate,omitempty"`
	CreatedAt   int64      `json:"createdAt"`
	UpdatedAt   int64      `json:"updatedAt"`
}

// Project is static reference data for display joins.
type Project struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Emoji string `json:"emoji,omitempty"`
}

// Tag is static reference data for display joins.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Agent is the board's view of an assignable agent (the full registry lives
// with the subagents package).
type Agent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji,omitempty"`
	Color string `json:"color,omitempty"`
	Model string `json:"model,omitempty"`
}

// Board is the whole tasks.json document.
type Board struct {
	Tasks       []Task    `json:"tasks"`
	Columns     []string  `json:"columns"`
	Projects    []Project `json:"projects,omitempty"`
	Tags        []Tag     `json:"tags,omitempty"`
	Agents      []Agent   `json:"agents,omitempty"`
	TaskCounter int       `json:"taskCounter,omitempty"`
}

// Updates is the raw field set of an update action. Keys present in the
// request overwrite the task field-by-field (explicit null clears a nullable
// field); absent keys leave the task alone.
type Updates map[string]json.RawMessage
