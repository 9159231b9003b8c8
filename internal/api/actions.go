package api

import (
	"errors"
	"net/http"

	"github.com/nachoandmikey/clawtrol/internal/actions"
)

type actionRequest struct {
	Action string `json:"action"`
	Target string `json:"target"`
}

// RunAction executes one maintenance command on the host.
func (s *Server) RunAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	output, err := s.actions.Run(r.Context(), req.Action, req.Target)
	if err != nil {
		if errors.Is(err, actions.ErrUnknownAction) {
			errorResponse(w, http.StatusBadRequest, "Unknown action")
			return
		}
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.feed.Publish("action", req.Action, req.Target)
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": output,
	})
}
