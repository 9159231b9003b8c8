package subagents

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Fallbacks used when the rules or soul files are absent.
const defaultBaseRules = "# Base Rules\nReport to Mikey only. Never message Telegram directly."

// SpawnParams is everything an external spawner needs to start a run. The
// dashboard never spawns processes itself.
type SpawnParams struct {
	Task    string `json:"task"`
	Label   string `json:"label"`
	Model   string `json:"model"`
	Cleanup string `json:"cleanup"`
}

// AgentRef is the short identity block returned with dispatch and wake
// responses.
type AgentRef struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Emoji        string `json:"emoji"`
	Model        string `json:"model"`
	SessionLabel string `json:"sessionLabel"`
}

func agentRef(id string, a Agent) AgentRef {
	return AgentRef{ID: id, Name: a.Name, Emoji: a.Emoji, Model: a.Model, SessionLabel: a.SessionLabel}
}

// Dispatch is the action=dispatch form: record the task in the agent's slot
// and hand back the session label for the caller's own spawner.
func (s *Service) Dispatch(agentID, task, taskID, priority string) (AgentRef, error) {
	agent, err := s.Lookup(agentID)
	if err != nil {
		return AgentRef{}, err
	}
	if err := s.WriteDispatch(agentID, task, taskID, priority); err != nil {
		return AgentRef{}, err
	}
	return agentRef(agentID, agent), nil
}

// PrepareSpawn is the richer dispatch: besides writing the task slot it
// composes the full prompt for the external spawner. Prompt order is fixed:
// global base rules first, the agent's soul second, the task last.
func (s *Service) PrepareSpawn(agentID, task, taskID, priority string) (AgentRef, SpawnParams, error) {
	agent, err := s.Lookup(agentID)
	if err != nil {
		return AgentRef{}, SpawnParams{}, err
	}
	if taskID == "" {
		taskID = "direct-dispatch"
	}
	if priority == "" {
		priority = "normal"
	}

	if err := s.WriteDispatch(agentID, task, taskID, priority); err != nil {
		return AgentRef{}, SpawnParams{}, err
	}

	baseRules := defaultBaseRules
	if data, err := os.ReadFile(s.cfg.BaseRulesFile()); err == nil {
		baseRules = string(data)
	}

	soul := fmt.Sprintf("You are %s, a subclawd. Focus: %s", agent.Name, strings.Join(agent.Focus, ", "))
	if data, err := os.ReadFile(s.cfg.SoulFile(agentID)); err == nil {
		soul = string(data)
	}

	prompt := fmt.Sprintf(`[SUBCLAWD TASK DISPATCH]

You are %s %s
Role: %s

---

%s

---

## YOUR IDENTITY
%s

---

## YOUR TASK
%s

Task ID: %s
Priority: %s

---

Work autonomously. Update your memory when done.
`, agent.Name, agent.Emoji, agent.Role, baseRules, soul, task, taskID, priority)

	params := SpawnParams{
		Task:    prompt,
		Label:   fmt.Sprintf("%s-%d", agent.SessionLabel, time.Now().UnixMilli()),
		Model:   agent.Model,
		Cleanup: "keep",
	}
	return agentRef(agentID, agent), params, nil
}
