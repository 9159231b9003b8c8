package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nachoandmikey/clawtrol/internal/subagents"
	"github.com/nachoandmikey/clawtrol/internal/webhook"
)

type agentActionRequest struct {
	Action   string `json:"action"`
	AgentID  string `json:"agentId"`
	Task     string `json:"task"`
	TaskID   string `json:"taskId"`
	Priority string `json:"priority"`
}

// ListAgents returns every registered agent with its derived status.
func (s *Server) ListAgents(w http.ResponseWriter, r *http.Request) {
	statuses, reg := s.agents.List()
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"agents":        statuses,
		"coordinator":   reg.Coordinator,
		"communication": reg.Communication,
	})
}

// AgentAction handles dispatch and clear against an agent's task file.
func (s *Server) AgentAction(w http.ResponseWriter, r *http.Request) {
	var req agentActionRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	switch req.Action {
	case "dispatch":
		agent, err := s.agents.Dispatch(req.AgentID, req.Task, req.TaskID, req.Priority)
		if err != nil {
			s.agentError(w, req.AgentID, err)
			return
		}
		s.feed.Publish("dispatch", req.AgentID, req.Task)
		s.notifier.NotifyDispatch(webhook.Dispatch{
			AgentID:    req.AgentID,
			AgentName:  agent.Name,
			AgentEmoji: agent.Emoji,
			Task:       req.Task,
			TaskID:     req.TaskID,
			Priority:   req.Priority,
		})
		jsonResponse(w, http.StatusOK, map[string]interface{}{
			"ok":           true,
			"message":      fmt.Sprintf("Task dispatched to %s", agent.Name),
			"agent":        req.AgentID,
			"sessionLabel": agent.SessionLabel,
		})

	case "clear":
		if err := s.agents.Clear(req.AgentID); err != nil {
			errorResponse(w, http.StatusInternalServerError, "Failed to clear task")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"message": "Task cleared",
		})

	default:
		errorResponse(w, http.StatusBadRequest, "Unknown action")
	}
}

// PrepareDispatch writes the task file and returns the spawn parameters the
// caller needs to launch the session itself.
func (s *Server) PrepareDispatch(w http.ResponseWriter, r *http.Request) {
	var req agentActionRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.AgentID == "" || req.Task == "" {
		errorResponse(w, http.StatusBadRequest, "agentId and task required")
		return
	}

	agent, spawn, err := s.agents.PrepareSpawn(req.AgentID, req.Task, req.TaskID, req.Priority)
	if err != nil {
		s.agentError(w, req.AgentID, err)
		return
	}
	s.feed.Publish("dispatch", req.AgentID, req.Task)
	s.notifier.NotifyDispatch(webhook.Dispatch{
		AgentID:    req.AgentID,
		AgentName:  agent.Name,
		AgentEmoji: agent.Emoji,
		Task:       req.Task,
		TaskID:     req.TaskID,
		Priority:   req.Priority,
	})
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"ok":          true,
		"agent":       agent,
		"spawnParams": spawn,
		"message":     fmt.Sprintf("Dispatch prepared for %s", agent.Name),
	})
}

// WakeCheck scans every agent for pending work without touching anything.
func (s *Server) WakeCheck(w http.ResponseWriter, r *http.Request) {
	checks := s.agents.CheckAll()
	var agentsToWake []string
	for _, c := range checks {
		if c.HasPendingTask || c.HasCommRequest {
			agentsToWake = append(agentsToWake, c.AgentID)
		}
	}
	if agentsToWake == nil {
		agentsToWake = []string{}
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"totalAgents":  len(checks),
		"needsWake":    len(agentsToWake),
		"checks":       checks,
		"agentsToWake": agentsToWake,
	})
}

// WakeAgent returns the full pending context for one agent.
func (s *Server) WakeAgent(w http.ResponseWriter, r *http.Request) {
	var req agentActionRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.AgentID == "" {
		errorResponse(w, http.StatusBadRequest, "agentId required")
		return
	}

	data, err := s.agents.Wake(req.AgentID)
	if err != nil {
		s.agentError(w, req.AgentID, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"ok":          true,
		"agent":       data.Agent,
		"pendingTask": nullable(data.PendingTask),
		"commRequest": nullable(data.CommRequest),
		"message":     fmt.Sprintf("Wake data for %s", data.Agent.Name),
	})
}

func (s *Server) agentError(w http.ResponseWriter, agentID string, err error) {
	if errors.Is(err, subagents.ErrNotFound) {
		errorResponse(w, http.StatusNotFound, fmt.Sprintf("Agent %s not found", agentID))
		return
	}
	errorResponse(w, http.StatusInternalServerError, "Failed to update agent")
}

// nullable maps an empty string to JSON null.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
