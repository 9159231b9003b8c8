package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// SyncResult reports what happened to one PR-linked task during a sync pass.
type SyncResult struct {
	Task     string `json:"task"`
	Action   string `json:"action"`
	State    string `json:"state,omitempty"`
	MergedAt string `json:"mergedAt,omitempty"`
	Error    string `json:"error,omitempty"`
}

type prRef struct {
	owner string
	repo  string
	num   int
}

// parsePRLink extracts owner/repo/number from a GitHub pull-request URL.
func parsePRLink(link string) (prRef, bool) {
	_, rest, ok := strings.Cut(link, "github.com/")
	if !ok {
		return prRef{}, false
	}
	parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
	if len(parts) < 4 || parts[2] != "pull" {
		return prRef{}, false
	}
	num, err := strconv.Atoi(parts[3])
	if err != nil {
		return prRef{}, false
	}
	return prRef{owner: parts[0], repo: parts[1], num: num}, true
}

type prView struct {
	State    string `json:"state"`
	MergedAt string `json:"mergedAt"`
}

// SyncPRs checks every not-done task with a GitHub PR link against gh and
// moves tasks whose PR merged to done. Each gh invocation gets a 10s timeout;
// a failing lookup is reported per task and does not abort the sweep.
func (s *Store) SyncPRs(ctx context.Context) ([]SyncResult, error) {
	board := s.Board()

	var results []SyncResult
	for _, task := range board.Tasks {
		if task.PR == nil || task.Status == StatusDone {
			continue
		}
		ref, ok := parsePRLink(*task.PR)
		if !ok {
			continue
		}

		view, err := lookupPR(ctx, ref)
		if err != nil {
			results = append(results, SyncResult{Task: task.Title, Action: "lookup failed", Error: err.Error()})
			continue
		}

		switch {
		case view.MergedAt != "" || view.State == "MERGED":
			if _, err := s.markMerged(task.ID); err != nil {
				results = append(results, SyncResult{Task: task.Title, Action: "move failed", Error: err.Error()})
				continue
			}
			results = append(results, SyncResult{Task: task.Title, Action: "moved to done", MergedAt: view.MergedAt})
		case view.State == "CLOSED":
			results = append(results, SyncResult{Task: task.Title, Action: "PR closed (not merged)", State: view.State})
		default:
			results = append(results, SyncResult{Task: task.Title, Action: "still open", State: view.State})
		}
	}
	return results, nil
}

func lookupPR(ctx context.Context, ref prRef) (prView, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "gh", "pr", "view", strconv.Itoa(ref.num),
		"-R", ref.owner+"/"+ref.repo,
		"--json", "state,mergedAt")
	out, err := cmd.Output()
	if err != nil {
		return prView{}, fmt.Errorf("gh pr view: %w", err)
	}
	var view prView
	if err := json.Unmarshal(out, &view); err != nil {
		return prView{}, fmt.Errorf("parsing gh output: %w", err)
	}
	return view, nil
}

func (s *Store) markMerged(id string) (Task, error) {
	board := defaultBoard()
	var out Task
	err := s.file.Update(&board, func() error {
		task := board.find(id)
		if task == nil {
			return ErrNotFound
		}
		task.Status = StatusDone
		task.UpdatedAt = nowMillis()
		addActivity(task, "status_change", Coordinator, "PR merged! Moved to Done")
		out = *task
		return nil
	})
	return out, err
}
