// Package tasks owns the kanban board document (tasks.json): tasks, the four
// fixed columns, reference projects/tags/agents, and the monotonic TASK-NNN
// counter. Every mutation appends to the affected task's activity log.
package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nachoandmikey/clawtrol/internal/store"
)

// Coordinator is the actor recorded on activity entries when no agent is
// given; it is the dashboard owner's id throughout the OpenClaw setup.
const Coordinator = "mikey"

// ErrNotFound is reported when a referenced task id is unknown.
var ErrNotFound = errors.New("task not found")

// Store owns tasks.json.
type Store struct {
	file *store.File
}

// NewStore returns a store backed by the document at path.
func NewStore(path string) *Store {
	return &Store{file: store.Open(path)}
}

func defaultBoard() Board {
	return Board{
		Tasks:   []Task{},
		Columns: append([]string(nil), Columns...),
	}
}

// Board returns the whole document. A missing or corrupt file yields the
// empty default board, never an error.
func (s *Store) Board() Board {
	board := defaultBoard()
	if err := s.file.Load(&board); err != nil {
		return defaultBoard()
	}
	if len(board.Columns) == 0 {
		board.Columns = append([]string(nil), Columns...)
	}
	if board.Tasks == nil {
		board.Tasks = []Task{}
	}
	return board
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func addActivity(t *Task, typ, agentID, content string) {
	now := nowMillis()
	t.Activity = append(t.Activity, Activity{
		ID:        "act-" + strconv.FormatInt(now, 36),
		Type:      typ,
		AgentID:   agentID,
		Content:   content,
		Timestamp: now,
	})
}

func (b *Board) find(id string) *Task {
	for i := range b.Tasks {
		if b.Tasks[i].ID == id {
			return &b.Tasks[i]
		}
	}
	return nil
}

// CreateRequest carries the fields of a create action.
type CreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	PR          *string  `json:"pr"`
	Project     *string  `json:"project"`
	Tags        []string `json:"tags"`
	Assignee    *string  `json:"assignee"`
	DueDate     *int64   `json:"dueDate"`
}

// Create allocates the next TASK-NNN id, appends a created activity and
// persists the board. The counter lives in the same document, so ids stay
// monotonic across reloads.
func (s *Store) Create(req CreateRequest) (Task, error) {
	status := req.Status
	if status == "" {
		status = StatusBacklog
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	board := defaultBoard()
	var created Task
	err := s.file.Update(&board, func() error {
		board.TaskCounter++
		now := nowMillis()
		task := Task{
			ID:          fmt.Sprintf("TASK-%03d", board.TaskCounter),
			Title:       req.Title,
			Description: req.Description,
			Status:      status,
			PR:          req.PR,
			Project:     req.Project,
			Tags:        tags,
			Assignee:    req.Assignee,
			Activity:    []Activity{},
			DueDate:     req.DueDate,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		addActivity(&task, "created", Coordinator, "Created task")
		board.Tasks = append(board.Tasks, task)
		created = task
		return nil
	})
	return created, err
}

// Assign sets (or clears) the assignee and records who held it before.
// Setting an assignee on a backlog task auto-moves it to in-progress;
// clearing the assignee of an in-progress task moves it back to backlog.
// Other columns are left where they are.
func (s *Store) Assign(id string, assignee *string) (Task, error) {
	board := defaultBoard()
	var out Task
	err := s.file.Update(&board, func() error {
		task := board.find(id)
		if task == nil {
			return ErrNotFound
		}
		task.Assignee = assignee
		task.UpdatedAt = nowMillis()

		if assignee != nil {
			addActivity(task, "assignment", Coordinator, "Assigned to "+s.displayName(&board, *assignee))
		} else {
			addActivity(task, "assignment", Coordinator, "Unassigned")
		}

		if assignee != nil && task.Status == StatusBacklog {
			task.Status = StatusInProgress
			addActivity(task, "status_change", Coordinator, "Moved to In Progress")
		}
		if assignee == nil && task.Status == StatusInProgress {
			task.Status = StatusBacklog
			addActivity(task, "status_change", Coordinator, "Moved to Backlog")
		}
		out = *task
		return nil
	})
	return out, err
}

// displayName resolves an agent id against the board's reference agents,
// falling back to the raw id.
func (s *Store) displayName(b *Board, agentID string) string {
	for _, a := range b.Agents {
		if a.ID == agentID {
			return a.Name
		}
	}
	return agentID
}

// Comment appends a comment activity on behalf of agentID (the coordinator
// when empty).
func (s *Store) Comment(id, comment, agentID string) (Task, error) {
	if agentID == "" {
		agentID = Coordinator
	}
	board := defaultBoard()
	var out Task
	err := s.file.Update(&board, func() error {
		task := board.find(id)
		if task == nil {
			return ErrNotFound
		}
		addActivity(task, "comment", agentID, comment)
		task.UpdatedAt = nowMillis()
		out = *task
		return nil
	})
	return out, err
}

// Update shallow-merges the supplied fields into the task. No activity entry
// is recorded for generic updates.
func (s *Store) Update(id string, updates Updates) (Task, error) {
	board := defaultBoard()
	var out Task
	err := s.file.Update(&board, func() error {
		task := board.find(id)
		if task == nil {
			return ErrNotFound
		}
		if err := applyUpdates(task, updates); err != nil {
			return err
		}
		task.UpdatedAt = nowMillis()
		out = *task
		return nil
	})
	return out, err
}

func applyUpdates(t *Task, updates Updates) error {
	for key, raw := range updates {
		var err error
		switch key {
		case "title":
			err = json.Unmarshal(raw, &t.Title)
		case "description":
			err = json.Unmarshal(raw, &t.Description)
		case "status":
			err = json.Unmarshal(raw, &t.Status)
		case "pr":
			err = json.Unmarshal(raw, &t.PR)
		case "project":
			err = json.Unmarshal(raw, &t.Project)
		case "tags":
			err = json.Unmarshal(raw, &t.Tags)
		case "assignee":
			err = json.Unmarshal(raw, &t.Assignee)
		case "dueDate":
			err = json.Unmarshal(raw, &t.DueDate)
		default:
			// Unknown keys are ignored; the document has no schema migration
			// story, so extra fields from older clients must not fail writes.
		}
		if err != nil {
			return fmt.Errorf("invalid value for %q: %w", key, err)
		}
	}
	return nil
}

// Move sets the status column, optionally overwriting the PR link when the
// request carried the key (including an explicit null), and records a
// status_change with the human column label.
func (s *Store) Move(id, status string, pr *string, prSet bool, agentID string) (Task, error) {
	if agentID == "" {
		agentID = Coordinator
	}
	board := defaultBoard()
	var out Task
	err := s.file.Update(&board, func() error {
		task := board.find(id)
		if task == nil {
			return ErrNotFound
		}
		task.Status = status
		task.UpdatedAt = nowMillis()
		if prSet {
			task.PR = pr
		}
		label, ok := statusLabels[status]
		if !ok {
			label = status
		}
		addActivity(task, "status_change", agentID, "Moved to "+label)
		out = *task
		return nil
	})
	return out, err
}

// Delete removes the task. Absence is a silent no-op.
func (s *Store) Delete(id string) error {
	board := defaultBoard()
	return s.file.Update(&board, func() error {
		kept := board.Tasks[:0]
		for _, t := range board.Tasks {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		board.Tasks = kept
		return nil
	})
}
