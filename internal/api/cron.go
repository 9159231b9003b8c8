package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/nachoandmikey/clawtrol/internal/cronjobs"
)

type cronActionRequest struct {
	Action string `json:"action"`
	ID     string `json:"id"`
}

// GetCronJobs returns every scheduled job with computed next-run times.
func (s *Server) GetCronJobs(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"jobs":      s.cron.Jobs(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// CronAction toggles, triggers, or deletes one job.
func (s *Server) CronAction(w http.ResponseWriter, r *http.Request) {
	var req cronActionRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Action == "" || req.ID == "" {
		errorResponse(w, http.StatusBadRequest, "Missing action or id")
		return
	}

	switch req.Action {
	case "toggle":
		enabled, err := s.cron.Toggle(req.ID)
		if err != nil {
			s.cronError(w, err)
			return
		}
		msg := "Job disabled"
		if enabled {
			msg = "Job enabled"
		}
		s.feed.Publish("cron_toggled", req.ID, msg)
		jsonResponse(w, http.StatusOK, map[string]interface{}{"success": true, "message": msg})

	case "trigger":
		if err := s.cron.Trigger(r.Context(), req.ID); err != nil {
			errorResponse(w, http.StatusInternalServerError, "Failed to trigger job")
			return
		}
		s.feed.Publish("cron_triggered", req.ID, "")
		jsonResponse(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Job triggered"})

	case "delete":
		if err := s.cron.Delete(req.ID); err != nil {
			s.cronError(w, err)
			return
		}
		s.feed.Publish("cron_deleted", req.ID, "")
		jsonResponse(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Job deleted"})

	default:
		errorResponse(w, http.StatusBadRequest, "Invalid action")
	}
}

func (s *Server) cronError(w http.ResponseWriter, err error) {
	if errors.Is(err, cronjobs.ErrNotFound) {
		errorResponse(w, http.StatusNotFound, "Job not found")
		return
	}
	errorResponse(w, http.StatusInternalServerError, "Failed to update job")
}
