package costs

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(filepath.Join(t.TempDir(), "agent-costs.json"))
}

func f64(v float64) *float64 { return &v }

func TestRecordValidation(t *testing.T) {
	l := newTestLedger(t)

	if _, _, err := l.Record("", f64(1), "s", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing agentId: want ErrInvalidInput, got %v", err)
	}
	if _, _, err := l.Record("iris", nil, "s", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing cost: want ErrInvalidInput, got %v", err)
	}
}

func TestRecordAccumulates(t *testing.T) {
	l := newTestLedger(t)

	total, count, err := l.Record("iris", f64(0.5), "s1", 1000)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if total != 0.5 || count != 1 {
		t.Fatalf("first record: total=%v count=%d", total, count)
	}

	total, count, err = l.Record("iris", f64(0.25), "", 500)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if total != 0.75 || count != 2 {
		t.Fatalf("second record: total=%v count=%d", total, count)
	}

	summary := l.Summarize()
	if len(summary.Agents) != 1 {
		t.Fatalf("want 1 agent, got %d", len(summary.Agents))
	}
	agent := summary.Agents[0]
	if agent.RecentSessions[len(agent.RecentSessions)-1].SessionID != "unknown" {
		t.Errorf("empty sessionId should default to unknown")
	}
}

func TestSessionCap(t *testing.T) {
	l := newTestLedger(t)

	for i := 0; i < 60; i++ {
		if _, _, err := l.Record("iris", f64(0.01), fmt.Sprintf("s-%d", i), 0); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	summary := l.Summarize()
	agent := summary.Agents[0]
	if agent.TaskCount != 60 {
		t.Fatalf("task count survives truncation: want 60, got %d", agent.TaskCount)
	}
	// Recent sessions in the summary are the last 5 of the kept 50.
	if len(agent.RecentSessions) != 5 {
		t.Fatalf("want 5 recent sessions, got %d", len(agent.RecentSessions))
	}
	if got := agent.RecentSessions[4].SessionID; got != "s-59" {
		t.Errorf("newest session should be kept, got %s", got)
	}
	if got := agent.RecentSessions[0].SessionID; got != "s-55" {
		t.Errorf("recent sessions should be the tail, got %s", got)
	}
}

func TestSummarizeOrderingAndFormat(t *testing.T) {
	l := newTestLedger(t)

	l.Record("cheap", f64(9.0), "s", 0)
	l.Record("pricey", f64(10.0), "s", 0)
	l.Record("pricey", f64(0.5), "s", 0)

	summary := l.Summarize()
	if len(summary.Agents) != 2 {
		t.Fatalf("want 2 agents, got %d", len(summary.Agents))
	}
	// Numeric ordering, not lexicographic: 10.5 before 9.0.
	if summary.Agents[0].AgentID != "pricey" {
		t.Fatalf("want pricey first, got %s", summary.Agents[0].AgentID)
	}
	if summary.Agents[0].TotalCost != "10.5000" {
		t.Errorf("totals are 4-decimal strings, got %q", summary.Agents[0].TotalCost)
	}
	if summary.Agents[0].AvgCostPerTask != "5.2500" {
		t.Errorf("avg: %q", summary.Agents[0].AvgCostPerTask)
	}
	if summary.TotalCost != "19.5000" {
		t.Errorf("grand total: %q", summary.TotalCost)
	}
	if summary.TotalTasks != 3 {
		t.Errorf("grand task count: %d", summary.TotalTasks)
	}
	if summary.AvgCostPerTask != "6.5000" {
		t.Errorf("grand avg: %q", summary.AvgCostPerTask)
	}
}

func TestSummarizeEmptyLedger(t *testing.T) {
	l := newTestLedger(t)

	summary := l.Summarize()
	if summary.TotalCost != "0.0000" {
		t.Errorf("empty total: %q", summary.TotalCost)
	}
	if summary.AvgCostPerTask != "0" {
		t.Errorf("empty avg: %q", summary.AvgCostPerTask)
	}
	if len(summary.Agents) != 0 {
		t.Errorf("empty ledger should list no agents")
	}
}
