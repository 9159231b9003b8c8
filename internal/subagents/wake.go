package subagents

import (
	"os"
	"path/filepath"
	"strings"
)

// Preview limits for wake-check payloads.
const (
	taskPreviewLen = 500
	commPreviewLen = 300
)

// WakeCheck is the per-agent result of a wake sweep.
type WakeCheck struct {
	AgentID        string `json:"agentId"`
	HasPendingTask bool   `json:"hasPendingTask"`
	HasCommRequest bool   `json:"hasCommRequest"`
	TaskContent    string `json:"taskContent,omitempty"`
	CommRequest    string `json:"commRequest,omitempty"`
}

// WakeData is the full payload for waking one agent: identity plus the
// complete task and comm file contents. Read-only; the external spawner acts
// on it.
type WakeData struct {
	Agent       AgentRef `json:"agent"`
	PendingTask string   `json:"pendingTask"`
	CommRequest string   `json:"commRequest"`
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// CheckAll scans every registered agent for pending work: an active task in
// its slot, or a non-empty comms request addressed to it. Each check is
// independent; unreadable files simply read as "nothing pending".
func (s *Service) CheckAll() []WakeCheck {
	reg := s.Registry()

	checks := make([]WakeCheck, 0, len(reg.Agents))
	for _, id := range sortedIDs(reg.Agents) {
		check := WakeCheck{AgentID: id}

		tf := s.readTaskFile(id)
		if tf.Pending {
			check.HasPendingTask = true
			check.TaskContent = truncate(tf.Raw, taskPreviewLen)
		}

		if comm := s.readCommFile(id); strings.TrimSpace(comm) != "" {
			check.HasCommRequest = true
			check.CommRequest = truncate(comm, commPreviewLen)
		}

		checks = append(checks, check)
	}
	return checks
}

// Wake returns the agent's identity and full pending-work contents without
// mutating anything.
func (s *Service) Wake(agentID string) (WakeData, error) {
	agent, err := s.Lookup(agentID)
	if err != nil {
		return WakeData{}, err
	}

	data := WakeData{Agent: agentRef(agentID, agent)}
	if tf := s.readTaskFile(agentID); tf.Exists {
		data.PendingTask = tf.Raw
	}
	data.CommRequest = s.readCommFile(agentID)
	return data, nil
}

func (s *Service) readCommFile(agentID string) string {
	data, err := os.ReadFile(filepath.Join(s.cfg.CommsDir(), "request-"+agentID+".md"))
	if err != nil {
		return ""
	}
	return string(data)
}
