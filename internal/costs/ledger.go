// Package costs keeps the per-agent spend ledger (agent-costs.json): running
// totals plus the last 50 session entries per agent.
package costs

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nachoandmikey/clawtrol/internal/store"
)

const sessionCap = 50

// ErrInvalidInput is reported when a record call is missing agentId or cost.
var ErrInvalidInput = errors.New("agentId and cost required")

// Session is one recorded spend.
type Session struct {
	SessionID string  `json:"sessionId"`
	Cost      float64 `json:"cost"`
	Tokens    int64   `json:"tokens"`
	Timestamp string  `json:"timestamp"`
}

// AgentCosts accumulates an agent's ledger.
type AgentCosts struct {
	TotalCost float64   `json:"totalCost"`
	TaskCount int       `json:"taskCount"`
	Sessions  []Session `json:"sessions"`
}

type document struct {
	Agents      map[string]AgentCosts `json:"agents"`
	LastUpdated string                `json:"lastUpdated"`
}

// AgentSummary is the display form of one agent's ledger; costs are
// 4-decimal strings.
type AgentSummary struct {
	AgentID        string    `json:"agentId"`
	TotalCost      string    `json:"totalCost"`
	TaskCount      int       `json:"taskCount"`
	AvgCostPerTask string    `json:"avgCostPerTask"`
	RecentSessions []Session `json:"recentSessions"`
}

// Summary is the ledger rollup across all agents.
type Summary struct {
	TotalCost      string         `json:"totalCost"`
	TotalTasks     int            `json:"totalTasks"`
	AvgCostPerTask string         `json:"avgCostPerTask"`
	LastUpdated    string         `json:"lastUpdated"`
	Agents         []AgentSummary `json:"agents"`
}

// Ledger owns agent-costs.json.
type Ledger struct {
	file *store.File
}

func NewLedger(path string) *Ledger {
	return &Ledger{file: store.Open(path)}
}

func defaultDocument() document {
	return document{
		Agents:      map[string]AgentCosts{},
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	}
}

// Record accumulates one spend for agentID. The first sighting of an agent
// initializes a zeroed record; sessions are truncated to the most recent 50.
// Returns the agent's new total and task count.
func (l *Ledger) Record(agentID string, cost *float64, sessionID string, tokens int64) (float64, int, error) {
	if agentID == "" || cost == nil {
		return 0, 0, ErrInvalidInput
	}
	if sessionID == "" {
		sessionID = "unknown"
	}

	doc := defaultDocument()
	var newTotal float64
	var taskCount int
	err := l.file.Update(&doc, func() error {
		if doc.Agents == nil {
			doc.Agents = map[string]AgentCosts{}
		}
		agent := doc.Agents[agentID]
		agent.TotalCost += *cost
		agent.TaskCount++
		agent.Sessions = append(agent.Sessions, Session{
			SessionID: sessionID,
			Cost:      *cost,
			Tokens:    tokens,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		if len(agent.Sessions) > sessionCap {
			agent.Sessions = agent.Sessions[len(agent.Sessions)-sessionCap:]
		}
		doc.Agents[agentID] = agent
		doc.LastUpdated = time.Now().UTC().Format(time.RFC3339)

		newTotal = agent.TotalCost
		taskCount = agent.TaskCount
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return newTotal, taskCount, nil
}

func money(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

// Summarize rolls the ledger up: per-agent totals with averages and the last
// 5 sessions, sorted by total cost descending, plus grand totals. A missing
// file yields an empty summary.
func (l *Ledger) Summarize() Summary {
	doc := defaultDocument()
	if err := l.file.Load(&doc); err != nil {
		doc = defaultDocument()
	}

	type ranked struct {
		summary AgentSummary
		total   float64
	}

	var totalCost float64
	var totalTasks int
	var rankedAgents []ranked
	for agentID, agent := range doc.Agents {
		totalCost += agent.TotalCost
		totalTasks += agent.TaskCount

		avg := "0"
		if agent.TaskCount > 0 {
			avg = money(agent.TotalCost / float64(agent.TaskCount))
		}
		recent := agent.Sessions
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		rankedAgents = append(rankedAgents, ranked{
			total: agent.TotalCost,
			summary: AgentSummary{
				AgentID:        agentID,
				TotalCost:      money(agent.TotalCost),
				TaskCount:      agent.TaskCount,
				AvgCostPerTask: avg,
				RecentSessions: recent,
			},
		})
	}

	sort.SliceStable(rankedAgents, func(i, j int) bool {
		if rankedAgents[i].total != rankedAgents[j].total {
			return rankedAgents[i].total > rankedAgents[j].total
		}
		return rankedAgents[i].summary.AgentID < rankedAgents[j].summary.AgentID
	})
	agents := make([]AgentSummary, 0, len(rankedAgents))
	for _, r := range rankedAgents {
		agents = append(agents, r.summary)
	}

	avg := "0"
	if totalTasks > 0 {
		avg = money(totalCost / float64(totalTasks))
	}
	return Summary{
		TotalCost:      money(totalCost),
		TotalTasks:     totalTasks,
		AvgCostPerTask: avg,
		LastUpdated:    doc.LastUpdated,
		Agents:         agents,
	}
}
