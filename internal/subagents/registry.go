// Package subagents tracks the named AI workers: the static registry, each
// agent's single current-task slot, task dispatch, and wake checks. Agent
// status is derived from the task file, never stored.
package subagents

import (
	"errors"
	"os"
	"sort"
	"time"

	"github.com/nachoandmikey/clawtrol/internal/config"
	"github.com/nachoandmikey/clawtrol/internal/store"
)

// ErrNotFound is reported when an agent id is not in the registry.
var ErrNotFound = errors.New("agent not found")

// Agent is one static registry entry.
type Agent struct {
	Name         string   `json:"name"`
	Emoji        string   `json:"emoji"`
	Role         string   `json:"role"`
	Model        string   `json:"model"`
	Focus        []string `json:"focus"`
	Color        string   `json:"color"`
	MemoryDir    string   `json:"memoryDir"`
	SoulFile     string   `json:"soulFile"`
	SessionLabel string   `json:"sessionLabel"`
	Persistent   bool     `json:"persistent"`
}

// Coordinator identifies the orchestrating session.
type Coordinator struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Model string `json:"model"`
	Role  string `json:"role"`
}

// Communication describes how agents report back.
type Communication struct {
	Method    string `json:"method"`
	TaskQueue string `json:"taskQueue"`
	ReportTo  string `json:"reportTo"`
}

// Registry is the whole registry.json document. It is configuration, loaded
// read-only; the dashboard never writes it.
type Registry struct {
	Agents        map[string]Agent `json:"agents"`
	Coordinator   Coordinator      `json:"coordinator"`
	Communication Communication    `json:"communication"`
}

// AgentStatus is a registry entry enriched with derived liveness.
type AgentStatus struct {
	ID string `json:"id"`
	Agent
	Status      string  `json:"status"` // idle | working
	CurrentTask string  `json:"currentTask"`
	LastActive  *string `json:"lastActive"`
}

// Service exposes registry and dispatch operations over the configured data
// root.
type Service struct {
	cfg *config.Config
}

func NewService(cfg *config.Config) *Service {
	return &Service{cfg: cfg}
}

func defaultRegistry() Registry {
	return Registry{
		Agents:        map[string]Agent{},
		Coordinator:   Coordinator{Name: "Mikey", Emoji: "👾", Model: "opus", Role: "Orchestrator"},
		Communication: Communication{Method: "sessions_send", TaskQueue: "kanban", ReportTo: "telegram"},
	}
}

// Registry loads registry.json, falling back to the built-in default when the
// file is missing or unreadable.
func (s *Service) Registry() Registry {
	reg := defaultRegistry()
	if err := store.Open(s.cfg.RegistryFile()).Load(&reg); err != nil {
		return defaultRegistry()
	}
	if reg.Agents == nil {
		reg.Agents = map[string]Agent{}
	}
	return reg
}

// Lookup returns the registry entry for id.
func (s *Service) Lookup(id string) (Agent, error) {
	reg := s.Registry()
	agent, ok := reg.Agents[id]
	if !ok {
		return Agent{}, ErrNotFound
	}
	return agent, nil
}

// List derives status for every registered agent from its current-task file.
// The mtime lookup is best-effort enrichment; an unreadable file just yields
// a null lastActive.
func (s *Service) List() ([]AgentStatus, Registry) {
	reg := s.Registry()

	statuses := make([]AgentStatus, 0, len(reg.Agents))
	for _, id := range sortedIDs(reg.Agents) {
		tf := s.readTaskFile(id)

		status := AgentStatus{ID: id, Agent: reg.Agents[id], Status: "working", CurrentTask: tf.Title}
		if tf.Idle {
			status.Status = "idle"
			status.CurrentTask = "Idle"
		}
		if info, err := os.Stat(s.cfg.CurrentTaskFile(id)); err == nil {
			mtime := info.ModTime().UTC().Format(time.RFC3339)
			status.LastActive = &mtime
		}
		statuses = append(statuses, status)
	}
	return statuses, reg
}

func sortedIDs(agents map[string]Agent) []string {
	ids := make([]string, 0, len(agents))
	for id := range agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
