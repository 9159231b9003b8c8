// Package cronjobs is a thin control surface over the OpenClaw scheduler's
// jobs.json. Jobs are created and run elsewhere; this store only toggles,
// deletes, or triggers them by id. Re-enabling a job recomputes its next-run
// time from the schedule expression so the UI shows something sensible before
// the external scheduler catches up.
package cronjobs

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nachoandmikey/clawtrol/internal/store"
)

// ErrNotFound is reported when a job id is absent.
var ErrNotFound = errors.New("job not found")

// Schedule is a job's cron expression plus timezone.
type Schedule struct {
	Expr string `json:"expr"`
	TZ   string `json:"tz,omitempty"`
}

// State carries the scheduler-owned run bookkeeping.
type State struct {
	LastRunAtMs *int64 `json:"lastRunAtMs,omitempty"`
	NextRunAtMs *int64 `json:"nextRunAtMs,omitempty"`
}

// Job is one entry in jobs.json.
type Job struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Enabled     bool     `json:"enabled"`
	Schedule    Schedule `json:"schedule"`
	State       State    `json:"state"`
	UpdatedAtMs int64    `json:"updatedAtMs"`
}

type document struct {
	Jobs []Job `json:"jobs"`
}

// Store owns jobs.json and shells out to the scheduler CLI for triggers.
type Store struct {
	file *store.File
	bin  string // scheduler CLI, e.g. "openclaw"
}

func NewStore(path, bin string) *Store {
	return &Store{file: store.Open(path), bin: bin}
}

// Jobs lists all jobs; a missing or corrupt file reads as an empty list.
func (s *Store) Jobs() []Job {
	doc := document{}
	if err := s.file.Load(&doc); err != nil {
		return []Job{}
	}
	if doc.Jobs == nil {
		return []Job{}
	}
	return doc.Jobs
}

// nextRun computes the next fire time for a schedule, in epoch millis. A
// malformed expression or timezone yields nil rather than an error: the
// external scheduler owns validation, we only decorate.
func nextRun(schedule Schedule, from time.Time) *int64 {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(schedule.Expr)
	if err != nil {
		return nil
	}
	if schedule.TZ != "" {
		if loc, err := time.LoadLocation(schedule.TZ); err == nil {
			from = from.In(loc)
		}
	}
	next := sched.Next(from).UnixMilli()
	return &next
}

// Toggle flips a job's enabled flag, stamping updatedAtMs and refreshing
// nextRunAtMs (cleared while disabled). Returns the new enabled state.
func (s *Store) Toggle(id string) (bool, error) {
	doc := document{}
	var enabled bool
	err := s.file.Update(&doc, func() error {
		for i := range doc.Jobs {
			if doc.Jobs[i].ID != id {
				continue
			}
			job := &doc.Jobs[i]
			job.Enabled = !job.Enabled
			job.UpdatedAtMs = time.Now().UnixMilli()
			if job.Enabled {
				job.State.NextRunAtMs = nextRun(job.Schedule, time.Now())
			} else {
				job.State.NextRunAtMs = nil
			}
			enabled = job.Enabled
			return nil
		}
		return ErrNotFound
	})
	return enabled, err
}

// Delete removes a job by id.
func (s *Store) Delete(id string) error {
	doc := document{}
	return s.file.Update(&doc, func() error {
		for i := range doc.Jobs {
			if doc.Jobs[i].ID == id {
				doc.Jobs = append(doc.Jobs[:i], doc.Jobs[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
}

// Trigger asks the external scheduler CLI to run the job now, with a 10s
// timeout. The store itself is not mutated; a failed invocation surfaces as
// an error and nothing else changes.
func (s *Store) Trigger(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.bin, "cron", "run", id)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s cron run %s: %w (%s)", s.bin, id, err, string(out))
	}
	return nil
}
