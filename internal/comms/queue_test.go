package comms

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestQueue(t *testing.T) (*Queue, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "comms")
	return NewQueue(dir), dir
}

func TestSendWritesFrontmatter(t *testing.T) {
	q, dir := newTestQueue(t)

	file, err := q.Send("iris", "rex", "TASK-007", "stuck on the tests")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if file != "request-rex.md" {
		t.Fatalf("file name: %s", file)
	}

	raw, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		t.Fatal(err)
	}
	content := string(raw)
	if !strings.HasPrefix(content, "---\n") {
		t.Error("request should start with YAML frontmatter")
	}
	if !strings.Contains(content, "from: iris") || !strings.Contains(content, "to: rex") {
		t.Errorf("frontmatter missing fields:\n%s", content)
	}
	if !strings.Contains(content, "# Help Request") {
		t.Error("body template missing")
	}
	if !strings.Contains(content, "stuck on the tests") {
		t.Error("context not carried into the body")
	}
}

func TestSendDefaultContext(t *testing.T) {
	q, dir := newTestQueue(t)

	file, err := q.Send("iris", "rex", "TASK-007", "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	raw, _ := os.ReadFile(filepath.Join(dir, file))
	if !strings.Contains(string(raw), "No additional context provided.") {
		t.Error("empty context should use the default placeholder")
	}
}

func TestSendOverwritesPending(t *testing.T) {
	q, _ := newTestQueue(t)

	if _, err := q.Send("iris", "rex", "TASK-001", "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := q.Send("mika", "rex", "TASK-002", "second"); err != nil {
		t.Fatal(err)
	}

	requests, err := q.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("one pending request per recipient, got %d", len(requests))
	}
	req := requests[0]
	if req.From != "mika" || req.Task != "TASK-002" {
		t.Fatalf("newest request should win: %+v", req)
	}
	if req.To != "rex" {
		t.Fatalf("recipient from file name: %s", req.To)
	}
}

func TestListParsesLegacyFormat(t *testing.T) {
	q, dir := newTestQueue(t)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	legacy := `# Help Request

**From:** bob
**To:** rex
**Task:** TASK-042

## Context
old tooling wrote this
`
	if err := os.WriteFile(filepath.Join(dir, "request-rex.md"), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	requests, err := q.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("want 1 request, got %d", len(requests))
	}
	if requests[0].From != "bob" || requests[0].Task != "TASK-042" {
		t.Fatalf("legacy fields not scraped: %+v", requests[0])
	}
}

func TestListSkipsEmptyAndForeignFiles(t *testing.T) {
	q, dir := newTestQueue(t)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "request-empty.md"), []byte("  \n"), 0o644)
	os.WriteFile(filepath.Join(dir, "notes.md"), []byte("not a request"), 0o644)

	requests, err := q.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(requests) != 0 {
		t.Fatalf("want no requests, got %d", len(requests))
	}
}

func TestListContentPreview(t *testing.T) {
	q, _ := newTestQueue(t)

	long := strings.Repeat("x", 2000)
	if _, err := q.Send("iris", "rex", "TASK-001", long); err != nil {
		t.Fatal(err)
	}
	requests, _ := q.List()
	if len(requests) != 1 {
		t.Fatalf("want 1 request, got %d", len(requests))
	}
	if len(requests[0].Content) != 500 {
		t.Fatalf("content preview should cap at 500 chars, got %d", len(requests[0].Content))
	}
}

func TestClear(t *testing.T) {
	q, _ := newTestQueue(t)

	file, err := q.Send("iris", "rex", "TASK-001", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Clear(file); err != nil {
		t.Fatalf("clear: %v", err)
	}
	requests, _ := q.List()
	if len(requests) != 0 {
		t.Fatal("cleared request still listed")
	}

	if err := q.Clear(file); !errors.Is(err, ErrNotFound) {
		t.Fatalf("clearing a missing file: want ErrNotFound, got %v", err)
	}
}

func TestClearRejectsPathTraversal(t *testing.T) {
	q, _ := newTestQueue(t)
	if err := q.Clear("../outside.md"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("path escape must be refused, got %v", err)
	}
}
