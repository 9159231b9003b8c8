package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nachoandmikey/clawtrol/internal/version"
)

// StreamEvents serves the dashboard event feed over SSE.
func (s *Server) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		errorResponse(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := s.feed.Subscribe()
	defer s.feed.Unsubscribe(client.ID)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.Done:
			return
		case ev := <-client.Events:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// HealthCheck reports liveness.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": version.Version,
	})
}
