// Package comms is the inter-agent help-request queue: one markdown file per
// recipient under the comms directory, at most one pending request each. The
// structured fields ride in YAML frontmatter so readers never have to scrape
// the prose; files written by older tooling are parsed by line prefix
// instead.
package comms

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is reported when clearing a request file that does not exist.
var ErrNotFound = errors.New("request file not found")

// Request is one pending help request.
type Request struct {
	File      string `json:"file"`
	To        string `json:"to"`
	From      string `json:"from"`
	Task      string `json:"task"`
	Content   string `json:"content"` // first 500 chars of the raw file
	Timestamp string `json:"timestamp"`
}

// frontmatter mirrors the structured fields at the top of a request file.
type frontmatter struct {
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	Task      string `yaml:"task"`
	Timestamp string `yaml:"timestamp"`
}

// Queue manages the comms directory.
type Queue struct {
	dir string
}

func NewQueue(dir string) *Queue {
	return &Queue{dir: dir}
}

func requestFileName(to string) string {
	return "request-" + to + ".md"
}

// Send writes the pending request for to, silently replacing any request
// already waiting for that recipient. Registry validation of the recipient is
// the caller's job.
func (q *Queue) Send(from, to, task, context string) (string, error) {
	if context == "" {
		context = "No additional context provided."
	}
	now := time.Now().UTC().Format(time.RFC3339)

	meta, err := yaml.Marshal(frontmatter{From: from, To: to, Task: task, Timestamp: now})
	if err != nil {
		return "", fmt.Errorf("encoding request metadata: %w", err)
	}

	content := fmt.Sprintf(`---
%s---
# Help Request

**From:** %s
**To:** %s
**Task:** %s
**Timestamp:** %s

## Context
%s

---
*This request was created by %s. Mikey will route it.*
`, meta, from, to, task, now, context, from)

	if err := os.MkdirAll(q.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating comms directory: %w", err)
	}
	name := requestFileName(to)
	if err := os.WriteFile(filepath.Join(q.dir, name), []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing request file: %w", err)
	}
	return name, nil
}

// List returns every non-empty pending request in the comms directory.
func (q *Queue) List() ([]Request, error) {
	entries, err := os.ReadDir(q.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Request{}, nil
		}
		return nil, err
	}

	requests := []Request{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "request-") || !strings.HasSuffix(name, ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(q.dir, name))
		if err != nil || strings.TrimSpace(string(data)) == "" {
			continue
		}
		requests = append(requests, parseRequest(name, string(data)))
	}
	return requests, nil
}

func parseRequest(name, content string) Request {
	to := strings.TrimSuffix(strings.TrimPrefix(name, "request-"), ".md")
	req := Request{
		File:      name,
		To:        to,
		From:      "unknown",
		Task:      "unspecified",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if len(content) > 500 {
		req.Content = content[:500]
	} else {
		req.Content = content
	}

	if strings.HasPrefix(content, "---\n") {
		rest := content[4:]
		if idx := strings.Index(rest, "\n---\n"); idx >= 0 {
			var meta frontmatter
			if err := yaml.Unmarshal([]byte(rest[:idx]), &meta); err == nil && meta.From != "" {
				req.From = meta.From
				req.Task = meta.Task
				if meta.Timestamp != "" {
					req.Timestamp = meta.Timestamp
				}
				return req
			}
		}
	}

	// Legacy template: scan for the bolded field lines.
	for _, line := range strings.Split(content, "\n") {
		if v, ok := fieldValue(line, "From:"); ok && req.From == "unknown" {
			req.From = v
		}
		if v, ok := fieldValue(line, "Task:"); ok && req.Task == "unspecified" {
			req.Task = v
		}
	}
	return req
}

// fieldValue extracts the value of a "**Key:** value" or "Key: value" line.
func fieldValue(line, key string) (string, bool) {
	trimmed := strings.ReplaceAll(line, "**", "")
	if !strings.HasPrefix(trimmed, key) {
		return "", false
	}
	v := strings.TrimSpace(strings.TrimPrefix(trimmed, key))
	if v == "" {
		return "", false
	}
	return v, true
}

// Clear deletes the named request file.
func (q *Queue) Clear(requestFile string) error {
	// The file name comes from the request body; keep it inside the comms dir.
	if filepath.Base(requestFile) != requestFile {
		return ErrNotFound
	}
	if err := os.Remove(filepath.Join(q.dir, requestFile)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
