package cronjobs

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T, jobs []Job) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.json")
	data, err := json.MarshalIndent(document{Jobs: jobs}, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return NewStore(path, "openclaw")
}

func TestJobsMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "jobs.json"), "openclaw")
	if jobs := s.Jobs(); len(jobs) != 0 {
		t.Fatalf("missing file should list no jobs, got %d", len(jobs))
	}
}

func TestToggle(t *testing.T) {
	s := newTestStore(t, []Job{{
		ID:       "daily-digest",
		Name:     "Daily digest",
		Enabled:  true,
		Schedule: Schedule{Expr: "*/5 * * * *"},
	}})

	enabled, err := s.Toggle("daily-digest")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if enabled {
		t.Fatal("toggling an enabled job should disable it")
	}

	job := s.Jobs()[0]
	if job.State.NextRunAtMs != nil {
		t.Fatal("disabling must clear nextRunAtMs")
	}
	if job.UpdatedAtMs == 0 {
		t.Fatal("toggle must stamp updatedAtMs")
	}

	enabled, err = s.Toggle("daily-digest")
	if err != nil {
		t.Fatalf("re-toggle: %v", err)
	}
	if !enabled {
		t.Fatal("second toggle should re-enable")
	}
	job = s.Jobs()[0]
	if job.State.NextRunAtMs == nil {
		t.Fatal("enabling must recompute nextRunAtMs")
	}
	if *job.State.NextRunAtMs <= time.Now().UnixMilli() {
		t.Fatalf("next run should be in the future: %d", *job.State.NextRunAtMs)
	}
}

func TestToggleInvalidExpression(t *testing.T) {
	s := newTestStore(t, []Job{{
		ID:       "broken",
		Enabled:  false,
		Schedule: Schedule{Expr: "not a cron expr"},
	}})

	enabled, err := s.Toggle("broken")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !enabled {
		t.Fatal("toggle should still flip the flag")
	}
	// Unparsable schedules just skip the decoration.
	if s.Jobs()[0].State.NextRunAtMs != nil {
		t.Fatal("invalid expression should leave nextRunAtMs nil")
	}
}

func TestToggleUnknown(t *testing.T) {
	s := newTestStore(t, nil)
	if _, err := s.Toggle("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t, []Job{
		{ID: "a"},
		{ID: "b"},
	})

	if err := s.Delete("a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	jobs := s.Jobs()
	if len(jobs) != 1 || jobs[0].ID != "b" {
		t.Fatalf("jobs after delete: %+v", jobs)
	}

	if err := s.Delete("a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleting twice: want ErrNotFound, got %v", err)
	}
}

func TestNextRunDescriptor(t *testing.T) {
	next := nextRun(Schedule{Expr: "@hourly"}, time.Now())
	if next == nil {
		t.Fatal("@hourly should parse")
	}
	if *next <= time.Now().UnixMilli() {
		t.Fatalf("next run should be in the future: %d", *next)
	}
}
