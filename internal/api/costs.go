package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nachoandmikey/clawtrol/internal/costs"
)

type costRecordRequest struct {
	AgentID   string   `json:"agentId"`
	Cost      *float64 `json:"cost"`
	SessionID string   `json:"sessionId"`
	Tokens    int64    `json:"tokens"`
}

// GetCosts returns the aggregated spend summary across all agents.
func (s *Server) GetCosts(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, s.costs.Summarize())
}

// RecordCost appends one session cost record for an agent.
func (s *Server) RecordCost(w http.ResponseWriter, r *http.Request) {
	var req costRecordRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	newTotal, taskCount, err := s.costs.Record(req.AgentID, req.Cost, req.SessionID, req.Tokens)
	if err != nil {
		if errors.Is(err, costs.ErrInvalidInput) {
			errorResponse(w, http.StatusBadRequest, "agentId and cost required")
			return
		}
		errorResponse(w, http.StatusInternalServerError, "Failed to record cost")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"ok":        true,
		"agentId":   req.AgentID,
		"newTotal":  fmt.Sprintf("%.4f", newTotal),
		"taskCount": taskCount,
	})
}
