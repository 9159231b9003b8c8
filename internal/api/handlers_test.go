package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/nachoandmikey/clawtrol/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(config.Default(t.TempDir()))
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/tasks", map[string]interface{}{
		"action": "create",
		"title":  "Ship the feature",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		OK   bool `json:"ok"`
		Task struct {
			ID       string `json:"id"`
			Status   string `json:"status"`
			Activity []struct {
				Type string `json:"type"`
			} `json:"activity"`
		} `json:"task"`
	}
	decode(t, rec, &created)
	if !created.OK {
		t.Fatal("create should report ok")
	}
	if !regexp.MustCompile(`^TASK-\d{3}$`).MatchString(created.Task.ID) {
		t.Fatalf("task id format: %s", created.Task.ID)
	}
	if created.Task.Status != "backlog" {
		t.Fatalf("default status: %s", created.Task.Status)
	}
	if len(created.Task.Activity) != 1 || created.Task.Activity[0].Type != "created" {
		t.Fatalf("created activity: %+v", created.Task.Activity)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/tasks", map[string]interface{}{
		"action": "move",
		"id":     created.Task.ID,
		"status": "done",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("move: %d %s", rec.Code, rec.Body.String())
	}
	var moved struct {
		Task struct {
			Status   string `json:"status"`
			Activity []struct {
				Content string `json:"content"`
			} `json:"activity"`
		} `json:"task"`
	}
	decode(t, rec, &moved)
	if moved.Task.Status != "done" {
		t.Fatalf("status after move: %s", moved.Task.Status)
	}
	if len(moved.Task.Activity) != 2 || moved.Task.Activity[1].Content != "Moved to Done" {
		t.Fatalf("move activity: %+v", moved.Task.Activity)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/tasks", nil)
	var board struct {
		Tasks []json.RawMessage `json:"tasks"`
	}
	decode(t, rec, &board)
	if len(board.Tasks) != 1 {
		t.Fatalf("board should hold the task, got %d", len(board.Tasks))
	}
}

func TestTaskAssignShouldSpawn(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/tasks", map[string]interface{}{
		"action": "create", "title": "t",
	})
	var created struct {
		Task struct {
			ID string `json:"id"`
		} `json:"task"`
	}
	decode(t, rec, &created)

	rec = doJSON(t, s, http.MethodPost, "/api/tasks", map[string]interface{}{
		"action": "assign", "id": created.Task.ID, "assignee": "iris",
	})
	var assigned struct {
		ShouldSpawn bool `json:"shouldSpawn"`
		Task        struct {
			Status string `json:"status"`
		} `json:"task"`
	}
	decode(t, rec, &assigned)
	if !assigned.ShouldSpawn {
		t.Fatal("assigning a sub-agent should request a spawn")
	}
	if assigned.Task.Status != "in-progress" {
		t.Fatalf("assign should auto-move to in-progress, got %s", assigned.Task.Status)
	}

	// The coordinator never spawns.
	rec = doJSON(t, s, http.MethodPost, "/api/tasks", map[string]interface{}{
		"action": "assign", "id": created.Task.ID, "assignee": "mikey",
	})
	decode(t, rec, &assigned)
	if assigned.ShouldSpawn {
		t.Fatal("assigning mikey must not request a spawn")
	}
}

func TestTaskUnknownAction(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/tasks", map[string]interface{}{
		"action": "explode",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
	var errResp ErrorResponse
	decode(t, rec, &errResp)
	if errResp.Error != "Unknown action" {
		t.Fatalf("error body: %q", errResp.Error)
	}
}

func TestTaskNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/tasks", map[string]interface{}{
		"action": "comment", "id": "TASK-404", "comment": "hello",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
	var errResp ErrorResponse
	decode(t, rec, &errResp)
	if errResp.Error != "Task not found" {
		t.Fatalf("error body: %q", errResp.Error)
	}
}

func TestCommsSendUnknownAgent(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/subclawds/comms", map[string]interface{}{
		"action": "send", "from": "iris", "to": "unknownAgent", "task": "TASK-001",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d: %s", rec.Code, rec.Body.String())
	}
	var errResp ErrorResponse
	decode(t, rec, &errResp)
	if errResp.Error != "Agent unknownAgent not found" {
		t.Fatalf("error body: %q", errResp.Error)
	}
}

func TestCommsSendMissingFields(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/subclawds/comms", map[string]interface{}{
		"action": "send", "from": "iris",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}

func TestCommsListEmpty(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/subclawds/comms", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var resp struct {
		PendingRequests int               `json:"pendingRequests"`
		Requests        []json.RawMessage `json:"requests"`
	}
	decode(t, rec, &resp)
	if resp.PendingRequests != 0 || len(resp.Requests) != 0 {
		t.Fatalf("fresh queue should be empty: %s", rec.Body.String())
	}
}

func TestCostsRecordAndSummary(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/subclawds/costs", map[string]interface{}{
		"agentId": "iris",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing cost: want 400, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/subclawds/costs", map[string]interface{}{
		"agentId": "iris", "cost": 1.2345, "sessionId": "s1", "tokens": 42,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("record: %d %s", rec.Code, rec.Body.String())
	}
	var recorded struct {
		OK        bool   `json:"ok"`
		NewTotal  string `json:"newTotal"`
		TaskCount int    `json:"taskCount"`
	}
	decode(t, rec, &recorded)
	if !recorded.OK || recorded.NewTotal != "1.2345" || recorded.TaskCount != 1 {
		t.Fatalf("record response: %+v", recorded)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/subclawds/costs", nil)
	var summary struct {
		TotalCost  string `json:"totalCost"`
		TotalTasks int    `json:"totalTasks"`
	}
	decode(t, rec, &summary)
	if summary.TotalCost != "1.2345" || summary.TotalTasks != 1 {
		t.Fatalf("summary: %+v", summary)
	}
}

func TestHistoryRequiresLabel(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/subclawds/history", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/subclawds/history?label=iris", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var resp struct {
		AgentID   string            `json:"agentId"`
		Runs      []json.RawMessage `json:"runs"`
		TotalRuns int               `json:"totalRuns"`
	}
	decode(t, rec, &resp)
	if resp.AgentID != "iris" || len(resp.Runs) != 0 || resp.TotalRuns != 0 {
		t.Fatalf("empty history: %s", rec.Body.String())
	}
}

func TestArchiveEmpty(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/subclawds/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Archived     int `json:"archived"`
		TotalHistory int `json:"totalHistory"`
	}
	decode(t, rec, &resp)
	if resp.Archived != 0 || resp.TotalHistory != 0 {
		t.Fatalf("nothing to archive: %+v", resp)
	}
}

func TestCronValidation(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/cron", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var listResp struct {
		Jobs []json.RawMessage `json:"jobs"`
	}
	decode(t, rec, &listResp)
	if len(listResp.Jobs) != 0 {
		t.Fatalf("fresh store should list no jobs")
	}

	rec = doJSON(t, s, http.MethodPost, "/api/cron", map[string]interface{}{
		"action": "toggle",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing id: want 400, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/cron", map[string]interface{}{
		"action": "toggle", "id": "ghost",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown job: want 404, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/cron", map[string]interface{}{
		"action": "sabotage", "id": "x",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid action: want 400, got %d", rec.Code)
	}
}

func TestWakeValidation(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/subclawds/wake", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var check struct {
		TotalAgents  int      `json:"totalAgents"`
		NeedsWake    int      `json:"needsWake"`
		AgentsToWake []string `json:"agentsToWake"`
	}
	decode(t, rec, &check)
	if check.TotalAgents != 0 || check.NeedsWake != 0 {
		t.Fatalf("empty registry: %s", rec.Body.String())
	}
	if check.AgentsToWake == nil {
		t.Fatal("agentsToWake should be an empty array, not null")
	}

	rec = doJSON(t, s, http.MethodPost, "/api/subclawds/wake", map[string]interface{}{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing agentId: want 400, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/subclawds/wake", map[string]interface{}{
		"agentId": "ghost",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown agent: want 404, got %d", rec.Code)
	}
}

func TestDispatchUnknownAgent(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/subclawds", map[string]interface{}{
		"action": "dispatch", "agentId": "ghost", "task": "do it",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/subclawds/dispatch", map[string]interface{}{
		"agentId": "ghost", "task": "do it",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("prepare: want 404, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/subclawds/dispatch", map[string]interface{}{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing fields: want 400, got %d", rec.Code)
	}
}

func TestDispatchAndClear(t *testing.T) {
	s := newTestServer(t)

	// Seed one agent in the registry.
	path := s.cfg.RegistryFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	registry := `{
  "agents": {
    "iris": {"name": "Iris", "emoji": "🔧", "model": "sonnet", "sessionLabel": "iris-sub", "focus": ["infra"]}
  }
}`
	if err := os.WriteFile(path, []byte(registry), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, s, http.MethodPost, "/api/subclawds", map[string]interface{}{
		"action": "dispatch", "agentId": "iris", "task": "Fix the build", "taskId": "TASK-003",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("dispatch: %d %s", rec.Code, rec.Body.String())
	}
	var dispatched struct {
		OK           bool   `json:"ok"`
		Message      string `json:"message"`
		SessionLabel string `json:"sessionLabel"`
	}
	decode(t, rec, &dispatched)
	if !dispatched.OK || dispatched.Message != "Task dispatched to Iris" || dispatched.SessionLabel != "iris-sub" {
		t.Fatalf("dispatch response: %+v", dispatched)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/subclawds", nil)
	var list struct {
		Agents []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"agents"`
	}
	decode(t, rec, &list)
	if len(list.Agents) != 1 || list.Agents[0].Status != "working" {
		t.Fatalf("agent list after dispatch: %s", rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/subclawds", map[string]interface{}{
		"action": "clear", "agentId": "iris",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("clear: %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/api/subclawds", nil)
	decode(t, rec, &list)
	if list.Agents[0].Status != "idle" {
		t.Fatalf("agent should be idle after clear, got %s", list.Agents[0].Status)
	}
}

func TestPrepareDispatchSpawnParams(t *testing.T) {
	s := newTestServer(t)

	path := s.cfg.RegistryFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	registry := `{"agents": {"iris": {"name": "Iris", "model": "sonnet", "sessionLabel": "iris-sub"}}}`
	if err := os.WriteFile(path, []byte(registry), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, s, http.MethodPost, "/api/subclawds/dispatch", map[string]interface{}{
		"agentId": "iris", "task": "Refactor the parser",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("prepare: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		OK          bool `json:"ok"`
		SpawnParams struct {
			Task    string `json:"task"`
			Label   string `json:"label"`
			Model   string `json:"model"`
			Cleanup string `json:"cleanup"`
		} `json:"spawnParams"`
	}
	decode(t, rec, &resp)
	if !resp.OK {
		t.Fatal("prepare should report ok")
	}
	if resp.SpawnParams.Model != "sonnet" || resp.SpawnParams.Cleanup != "keep" {
		t.Fatalf("spawn params: %+v", resp.SpawnParams)
	}
	if resp.SpawnParams.Task == "" || resp.SpawnParams.Label == "" {
		t.Fatal("spawn params must carry prompt and label")
	}
}

func TestActionsUnknown(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/actions", map[string]interface{}{
		"action": "self-destruct",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
	var errResp ErrorResponse
	decode(t, rec, &errResp)
	if errResp.Error != "Unknown action" {
		t.Fatalf("error body: %q", errResp.Error)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var resp struct {
		Status string `json:"status"`
	}
	decode(t, rec, &resp)
	if resp.Status != "ok" {
		t.Fatalf("health: %s", rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight: want 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}
}
