package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models clawtrol.yml plus the derived data-file layout. Every store
// owns exactly one file under the data root; paths mirror the OpenClaw
// directory conventions.
type Config struct {
	Title string `yaml:"title"`
	Port  int    `yaml:"port"`

	// OpenClaw holds settings for the external runtime this dashboard fronts.
	OpenClaw struct {
		Bin string `yaml:"bin"` // scheduler/updater CLI, default "openclaw"
	} `yaml:"openclaw"`

	Webhooks struct {
		Discord string `yaml:"discord"`
		Slack   string `yaml:"slack"`
	} `yaml:"webhooks"`

	// Home is the data root. Not read from YAML: it comes from CLAWTROL_HOME
	// or the user home dir, and everything below hangs off it.
	Home string `yaml:"-"`
}

// Default returns a config rooted at home with all defaults applied.
func Default(home string) *Config {
	cfg := &Config{
		Title: "Clawtrol",
		Port:  3001,
		Home:  home,
	}
	cfg.OpenClaw.Bin = "openclaw"
	return cfg
}

// Load reads clawtrol.yml from the data root if present. A missing file is
// not an error; the defaults stand.
func Load(home string) (*Config, error) {
	cfg := Default(home)

	data, err := os.ReadFile(filepath.Join(home, "clawtrol.yml"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing clawtrol.yml: %w", err)
	}
	if cfg.Port <= 0 {
		cfg.Port = 3001
	}
	if cfg.OpenClaw.Bin == "" {
		cfg.OpenClaw.Bin = "openclaw"
	}
	return cfg, nil
}

// ResolveHome returns the data root: CLAWTROL_HOME if set, else the user
// home directory.
func ResolveHome() (string, error) {
	if home := os.Getenv("CLAWTROL_HOME"); home != "" {
		return home, nil
	}
	return os.UserHomeDir()
}

// Data-file layout. One file per store, pretty-printed JSON except where
// noted.

func (c *Config) TasksFile() string {
	return filepath.Join(c.Home, ".openclaw", "control-center", "tasks.json")
}

func (c *Config) RegistryFile() string {
	return filepath.Join(c.Home, "agents", "registry.json")
}

func (c *Config) BaseRulesFile() string {
	return filepath.Join(c.Home, "agents", "SUBCLAWD_BASE.md")
}

// SoulFile is the per-agent persona markdown.
func (c *Config) SoulFile(agentID string) string {
	return filepath.Join(c.Home, "agents", agentID+".soul.md")
}

// CurrentTaskFile is the single active-task slot for an agent.
func (c *Config) CurrentTaskFile(agentID string) string {
	return filepath.Join(c.Home, "memory", agentID, "current-task.md")
}

func (c *Config) CommsDir() string {
	return filepath.Join(c.Home, "memory", "comms")
}

func (c *Config) CostsFile() string {
	return filepath.Join(c.Home, "memory", "costs", "agent-costs.json")
}

func (c *Config) RunsFile() string {
	return filepath.Join(c.Home, ".openclaw", "subagents", "runs.json")
}

func (c *Config) HistoryFile() string {
	return filepath.Join(c.Home, ".openclaw", "subagents", "history.json")
}

func (c *Config) CronFile() string {
	return filepath.Join(c.Home, ".openclaw", "cron", "jobs.json")
}
