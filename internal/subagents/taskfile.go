package subagents

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Task slot states carried in the current-task.md frontmatter.
const (
	slotActive   = "active"
	slotNone     = "none"
	slotComplete = "complete"
)

// taskMeta is the YAML frontmatter on a current-task.md file. Files written
// by other tools may lack it entirely; parsing falls back to the legacy
// literal markers then.
type taskMeta struct {
	Status     string `yaml:"status"`
	TaskID     string `yaml:"task_id,omitempty"`
	Priority   string `yaml:"priority,omitempty"`
	Dispatched string `yaml:"dispatched,omitempty"`
}

// taskFile is the parsed view of an agent's current-task slot.
type taskFile struct {
	Meta    taskMeta
	Body    string
	Raw     string
	Title   string // first markdown heading, "Working..." if none
	Idle    bool
	Pending bool // a real task, not yet marked complete
	Exists  bool
}

const frontmatterDelim = "---\n"

// splitFrontmatter separates a leading YAML frontmatter block from the body.
// Returns ok=false when the content has no frontmatter.
func splitFrontmatter(content string) (meta, body string, ok bool) {
	if !strings.HasPrefix(content, frontmatterDelim) {
		return "", content, false
	}
	rest := content[len(frontmatterDelim):]
	idx := strings.Index(rest, "\n"+frontmatterDelim)
	if idx < 0 {
		return "", content, false
	}
	return rest[:idx], rest[idx+1+len(frontmatterDelim):], true
}

func parseTaskFile(content string) taskFile {
	tf := taskFile{Raw: content, Exists: true}

	if metaBlock, body, ok := splitFrontmatter(content); ok {
		if err := yaml.Unmarshal([]byte(metaBlock), &tf.Meta); err == nil && tf.Meta.Status != "" {
			tf.Body = body
			tf.Idle = tf.Meta.Status == slotNone
			tf.Pending = tf.Meta.Status == slotActive
			tf.Title = firstHeading(body)
			return tf
		}
	}

	// Legacy file without structured status: sniff the literal markers the
	// original tooling wrote. A task description containing them verbatim
	// will misclassify; callers accept that.
	tf.Body = content
	tf.Idle = strings.Contains(content, "No active task")
	tf.Pending = !tf.Idle &&
		!strings.Contains(content, "Status: ✅ COMPLETE") &&
		!strings.Contains(content, "Status: COMPLETE")
	tf.Title = firstHeading(content)
	return tf
}

func firstHeading(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "# "))
		}
	}
	return "Working..."
}

// readTaskFile loads and parses an agent's current-task.md. A missing file
// reads as idle.
func (s *Service) readTaskFile(agentID string) taskFile {
	data, err := os.ReadFile(s.cfg.CurrentTaskFile(agentID))
	if err != nil {
		return taskFile{Idle: true, Title: "Idle"}
	}
	return parseTaskFile(string(data))
}

func (s *Service) writeTaskFile(agentID string, meta taskMeta, body string) error {
	metaBytes, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding task metadata: %w", err)
	}
	content := frontmatterDelim + string(metaBytes) + frontmatterDelim + body

	path := s.cfg.CurrentTaskFile(agentID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating memory directory: %w", err)
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// WriteDispatch overwrites the agent's task slot with a fresh dispatch.
func (s *Service) WriteDispatch(agentID, task, taskID, priority string) error {
	if taskID == "" {
		taskID = "direct-dispatch"
	}
	if priority == "" {
		priority = "normal"
	}
	now := time.Now().UTC().Format(time.RFC3339)

	body := fmt.Sprintf(`# %s

**Task ID:** %s
**Dispatched:** %s
**Priority:** %s
**Status:** In Progress

---
Complete this task and update this file when done.
`, task, taskID, now, priority)

	return s.writeTaskFile(agentID, taskMeta{
		Status:     slotActive,
		TaskID:     taskID,
		Priority:   priority,
		Dispatched: now,
	}, body)
}

// Clear resets the agent's task slot to the no-active-task template.
func (s *Service) Clear(agentID string) error {
	body := fmt.Sprintf(`# Current Task

*No active task*

---
Last updated: %s
`, time.Now().UTC().Format("2006-01-02"))

	return s.writeTaskFile(agentID, taskMeta{Status: slotNone}, body)
}
