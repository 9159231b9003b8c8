// Package runs archives sub-agent spawn history. Active runs live in
// runs.json, written by the external run tracker; this package only reads
// them, appending finished runs to history.json with a 500-entry cap. A run
// is archived at most once (by id) and only once it has an endedAt.
package runs

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nachoandmikey/clawtrol/internal/store"
)

const historyCap = 500

// ActiveRun is one entry in runs.json, keyed by run id.
type ActiveRun struct {
	Label               string `json:"label"`
	ChildSessionKey     string `json:"childSessionKey"`
	Task                string `json:"task"`
	CreatedAt           int64  `json:"createdAt"`
	StartedAt           *int64 `json:"startedAt,omitempty"`
	EndedAt             *int64 `json:"endedAt,omitempty"`
	Outcome             *struct {
		Status string `json:"status"`
	} `json:"outcome,omitempty"`
	RequesterDisplayKey string `json:"requesterDisplayKey,omitempty"`
	RequesterSessionKey string `json:"requesterSessionKey,omitempty"`
	Cleanup             string `json:"cleanup,omitempty"`
}

type activeDoc struct {
	Runs map[string]ActiveRun `json:"runs"`
}

// Run is the archived, display-ready form.
type Run struct {
	RunID               string  `json:"runId"`
	Label               string  `json:"label"`
	SessionKey          string  `json:"sessionKey"`
	Task                string  `json:"task"`
	CreatedAt           int64   `json:"createdAt"`
	StartedAt           *int64  `json:"startedAt"`
	EndedAt             *int64  `json:"endedAt"`
	DurationMs          *int64  `json:"durationMs"`
	DurationFormatted   *string `json:"durationFormatted"`
	Status              string  `json:"status"`
	RequesterSessionKey string  `json:"requesterSessionKey"`
	Cleanup             string  `json:"cleanup"`
}

type historyDoc struct {
	Version int   `json:"version"`
	Runs    []Run `json:"runs"`
}

// Archiver owns history.json and reads runs.json.
type Archiver struct {
	active  *store.File
	history *store.File
}

func NewArchiver(runsPath, historyPath string) *Archiver {
	return &Archiver{
		active:  store.Open(runsPath),
		history: store.Open(historyPath),
	}
}

func formatRun(runID string, run ActiveRun) Run {
	out := Run{
		RunID:               runID,
		Label:               run.Label,
		SessionKey:          run.ChildSessionKey,
		Task:                run.Task,
		CreatedAt:           run.CreatedAt,
		StartedAt:           run.StartedAt,
		EndedAt:             run.EndedAt,
		Status:              "unknown",
		RequesterSessionKey: run.RequesterSessionKey,
		Cleanup:             run.Cleanup,
	}
	if run.Outcome != nil && run.Outcome.Status != "" {
		out.Status = run.Outcome.Status
	}
	if run.RequesterDisplayKey != "" {
		out.RequesterSessionKey = run.RequesterDisplayKey
	}
	if run.EndedAt != nil && run.CreatedAt != 0 {
		ms := *run.EndedAt - run.CreatedAt
		out.DurationMs = &ms
		formatted := FormatDuration(ms)
		out.DurationFormatted = &formatted
	}
	return out
}

// FormatDuration renders a millisecond duration as Ns, Nm Ss or Nh Nm.
func FormatDuration(ms int64) string {
	seconds := ms / 1000
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// matches reports whether a run belongs to agentID: its session key carries
// the agent:{id}: prefix, or its label starts with the id. Note agent ids
// that are prefixes of one another can collide on the label match.
func matches(agentID, sessionKey, label string) bool {
	return strings.HasPrefix(sessionKey, "agent:"+agentID+":") ||
		(label != "" && strings.HasPrefix(label, agentID))
}

// List unions active and archived runs for agentID, de-duplicated by run id
// (active wins), sorted by createdAt descending and truncated to limit.
// Missing or corrupt backing files contribute nothing.
func (a *Archiver) List(agentID string, limit int) ([]Run, int) {
	var all []Run

	active := activeDoc{}
	if err := a.active.Load(&active); err == nil {
		for runID, run := range active.Runs {
			if matches(agentID, run.ChildSessionKey, run.Label) {
				all = append(all, formatRun(runID, run))
			}
		}
	}

	history := historyDoc{Version: 1}
	if err := a.history.Load(&history); err == nil {
		for _, run := range history.Runs {
			if !matches(agentID, run.SessionKey, run.Label) {
				continue
			}
			seen := false
			for _, existing := range all {
				if existing.RunID == run.RunID {
					seen = true
					break
				}
			}
			if !seen {
				all = append(all, run)
			}
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt > all[j].CreatedAt
	})

	total := len(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	if all == nil {
		all = []Run{}
	}
	return all, total
}

// Archive sweeps the active runs once: every run with an endedAt that is not
// yet in history gets appended; history is re-sorted newest first and capped.
// Entries are never removed from runs.json here. Returns the number archived
// and the resulting history length.
func (a *Archiver) Archive() (int, int, error) {
	active := activeDoc{}
	_ = a.active.Load(&active)

	history := historyDoc{Version: 1}
	archived := 0
	err := a.history.Update(&history, func() error {
		existing := make(map[string]bool, len(history.Runs))
		for _, run := range history.Runs {
			existing[run.RunID] = true
		}

		for runID, run := range active.Runs {
			if run.EndedAt == nil || existing[runID] {
				continue
			}
			history.Runs = append(history.Runs, formatRun(runID, run))
			archived++
		}

		if archived == 0 {
			return errNoChange
		}
		sort.SliceStable(history.Runs, func(i, j int) bool {
			return history.Runs[i].CreatedAt > history.Runs[j].CreatedAt
		})
		if len(history.Runs) > historyCap {
			history.Runs = history.Runs[:historyCap]
		}
		return nil
	})
	if err != nil && err != errNoChange {
		return 0, 0, err
	}
	return archived, len(history.Runs), nil
}

// errNoChange short-circuits the write when a sweep found nothing new, so an
// idempotent re-run leaves history.json untouched.
var errNoChange = errors.New("no new runs to archive")
