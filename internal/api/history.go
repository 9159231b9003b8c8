package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// GetHistory lists runs for one agent, newest first, live runs included.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("label")
	if label == "" {
		errorResponse(w, http.StatusBadRequest, "Agent label required")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	list, total := s.runs.List(label, limit)
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"agentId":   label,
		"runs":      list,
		"totalRuns": total,
	})
}

// ArchiveRuns sweeps completed runs from the live file into history.
func (s *Server) ArchiveRuns(w http.ResponseWriter, r *http.Request) {
	archived, total, err := s.runs.Archive()
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to archive runs")
		return
	}
	if archived > 0 {
		s.feed.Publish("archive", "", fmt.Sprintf("%d runs archived", archived))
		s.notifier.NotifyArchive(archived, total)
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"archived":     archived,
		"totalHistory": total,
		"message":      fmt.Sprintf("Archived %d completed runs", archived),
	})
}
