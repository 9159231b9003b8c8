// Package actions runs the dashboard's maintenance shell-outs: pm2 process
// control, pulling the home repo, and updating the OpenClaw runtime. Every
// invocation is one attempt with an explicit timeout; non-zero exits surface
// to the caller.
package actions

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrUnknownAction is reported for an unrecognized action discriminator.
var ErrUnknownAction = errors.New("unknown action")

// Runner executes maintenance actions.
type Runner struct {
	home string // working dir for git-pull
	bin  string // openclaw CLI for the update action
}

func NewRunner(home, bin string) *Runner {
	return &Runner{home: home, bin: bin}
}

func run(ctx context.Context, timeout time.Duration, dir, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w (%s)", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// Run dispatches one maintenance action and returns its user-facing message.
func (r *Runner) Run(ctx context.Context, action, target string) (string, error) {
	switch action {
	case "pm2-restart":
		if target == "" {
			target = "all"
		}
		if _, err := run(ctx, 30*time.Second, "", "pm2", "restart", target); err != nil {
			return "", err
		}
		return "Restarted " + target, nil

	case "pm2-stop":
		if _, err := run(ctx, 30*time.Second, "", "pm2", "stop", target); err != nil {
			return "", err
		}
		return "Stopped " + target, nil

	case "pm2-start":
		if _, err := run(ctx, 30*time.Second, "", "pm2", "start", target); err != nil {
			return "", err
		}
		return "Started " + target, nil

	case "clear-logs":
		if _, err := run(ctx, 10*time.Second, "", "pm2", "flush"); err != nil {
			return "", err
		}
		return "Logs cleared", nil

	case "git-pull":
		out, err := run(ctx, 60*time.Second, r.home, "git", "pull")
		if err != nil {
			return "", err
		}
		return out, nil

	case "openclaw-update":
		if _, err := run(ctx, 2*time.Minute, "", r.bin, "update"); err != nil {
			return "", err
		}
		return "OpenClaw updated", nil

	default:
		return "", ErrUnknownAction
	}
}
