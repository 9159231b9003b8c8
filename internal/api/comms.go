package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nachoandmikey/clawtrol/internal/comms"
)

type commsActionRequest struct {
	Action      string `json:"action"`
	From        string `json:"from"`
	To          string `json:"to"`
	Task        string `json:"task"`
	Context     string `json:"context"`
	RequestFile string `json:"requestFile"`
}

// ListComms returns every pending help request.
func (s *Server) ListComms(w http.ResponseWriter, r *http.Request) {
	requests, err := s.comms.List()
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to read comms queue")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"pendingRequests": len(requests),
		"requests":        requests,
	})
}

// CommsAction sends or clears a help request.
func (s *Server) CommsAction(w http.ResponseWriter, r *http.Request) {
	var req commsActionRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	switch req.Action {
	case "send":
		if req.From == "" || req.To == "" || req.Task == "" {
			errorResponse(w, http.StatusBadRequest, "from, to, and task required")
			return
		}
		// The target must exist in the registry; the queue itself does not
		// know about agents.
		if _, err := s.agents.Lookup(req.To); err != nil {
			errorResponse(w, http.StatusNotFound, fmt.Sprintf("Agent %s not found", req.To))
			return
		}
		file, err := s.comms.Send(req.From, req.To, req.Task, req.Context)
		if err != nil {
			errorResponse(w, http.StatusInternalServerError, "Failed to write request")
			return
		}
		s.feed.Publish("comm_request", req.To, req.Task)
		jsonResponse(w, http.StatusOK, map[string]interface{}{
			"ok":          true,
			"message":     fmt.Sprintf("Request sent from %s to %s", req.From, req.To),
			"requestFile": file,
		})

	case "clear":
		if req.RequestFile == "" {
			errorResponse(w, http.StatusBadRequest, "requestFile required")
			return
		}
		if err := s.comms.Clear(req.RequestFile); err != nil {
			if errors.Is(err, comms.ErrNotFound) {
				errorResponse(w, http.StatusNotFound, "Request file not found")
				return
			}
			errorResponse(w, http.StatusInternalServerError, "Failed to clear request")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"message": "Request cleared",
		})

	default:
		errorResponse(w, http.StatusBadRequest, "Unknown action")
	}
}
