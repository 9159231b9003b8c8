package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nachoandmikey/clawtrol/internal/tasks"
)

// taskActionRequest is the action envelope for POST /api/tasks. Only the
// fields relevant to the named action are read.
type taskActionRequest struct {
	Action string `json:"action"`
	ID     string `json:"id"`

	// create
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Project     *string  `json:"project"`
	Tags        []string `json:"tags"`
	DueDate     *int64   `json:"dueDate"`

	// assign / comment
	Assignee *string `json:"assignee"`
	Comment  string  `json:"comment"`
	AgentID  string  `json:"agentId"`

	// update
	Updates tasks.Updates `json:"updates"`

	// move; raw so an absent pr can be told apart from an explicit null
	PR json.RawMessage `json:"pr"`
}

// GetTasks returns the whole kanban board document.
func (s *Server) GetTasks(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, s.tasks.Board())
}

// TaskAction dispatches one board mutation per the request's action field.
func (s *Server) TaskAction(w http.ResponseWriter, r *http.Request) {
	var req taskActionRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	switch req.Action {
	case "create":
		task, err := s.tasks.Create(tasks.CreateRequest{
			Title:       req.Title,
			Description: req.Description,
			Status:      req.Status,
			PR:          prPointer(req.PR),
			Project:     req.Project,
			Tags:        req.Tags,
			Assignee:    req.Assignee,
			DueDate:     req.DueDate,
		})
		if err != nil {
			errorResponse(w, http.StatusInternalServerError, "Failed to create task")
			return
		}
		s.feed.Publish("task_created", task.ID, task.Title)
		jsonResponse(w, http.StatusOK, map[string]interface{}{"ok": true, "task": task})

	case "assign":
		task, err := s.tasks.Assign(req.ID, req.Assignee)
		if err != nil {
			s.taskError(w, err)
			return
		}
		shouldSpawn := task.Assignee != nil && *task.Assignee != tasks.Coordinator
		s.feed.Publish("task_assigned", task.ID, task.Title)
		jsonResponse(w, http.StatusOK, map[string]interface{}{
			"ok":          true,
			"task":        task,
			"shouldSpawn": shouldSpawn,
		})

	case "comment":
		task, err := s.tasks.Comment(req.ID, req.Comment, req.AgentID)
		if err != nil {
			s.taskError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]interface{}{"ok": true, "task": task})

	case "update":
		task, err := s.tasks.Update(req.ID, req.Updates)
		if err != nil {
			s.taskError(w, err)
			return
		}
		s.feed.Publish("task_updated", task.ID, task.Title)
		jsonResponse(w, http.StatusOK, map[string]interface{}{"ok": true, "task": task})

	case "move":
		pr, prSet := movePR(req.PR)
		task, err := s.tasks.Move(req.ID, req.Status, pr, prSet, req.AgentID)
		if err != nil {
			s.taskError(w, err)
			return
		}
		s.feed.Publish("task_moved", task.ID, task.Status)
		jsonResponse(w, http.StatusOK, map[string]interface{}{"ok": true, "task": task})

	case "delete":
		if err := s.tasks.Delete(req.ID); err != nil {
			errorResponse(w, http.StatusInternalServerError, "Failed to delete task")
			return
		}
		s.feed.Publish("task_deleted", req.ID, "")
		jsonResponse(w, http.StatusOK, map[string]interface{}{"ok": true})

	default:
		errorResponse(w, http.StatusBadRequest, "Unknown action")
	}
}

// SyncPRs sweeps linked pull requests and moves merged ones to done.
func (s *Server) SyncPRs(w http.ResponseWriter, r *http.Request) {
	results, err := s.tasks.SyncPRs(r.Context())
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to sync PRs")
		return
	}
	moved := 0
	for _, res := range results {
		if res.Action == "moved to done" {
			moved++
			s.feed.Publish("task_moved", res.Task, tasks.StatusDone)
		}
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"synced":  moved,
		"results": results,
	})
}

func (s *Server) taskError(w http.ResponseWriter, err error) {
	if errors.Is(err, tasks.ErrNotFound) {
		errorResponse(w, http.StatusNotFound, "Task not found")
		return
	}
	errorResponse(w, http.StatusInternalServerError, "Failed to update task")
}

// prPointer decodes a pr value for create, where null and absent both mean
// no linked PR.
func prPointer(raw json.RawMessage) *string {
	pr, _ := movePR(raw)
	return pr
}

// movePR reports the pr value and whether the field was present at all.
func movePR(raw json.RawMessage) (*string, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var pr *string
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, false
	}
	return pr, true
}
