// Package config loads and validates the hive fleet configuration: the
// ordered worker list, the ordered routing rule list, and the default
// worker. The file may be YAML or TOML; the shape is identical in both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultPort is used when a worker entry omits its port.
const DefaultPort = 8765

// Worker is the static identity of one configured worker.
type Worker struct {
	Name         string   `yaml:"name" toml:"name"`
	Host         string   `yaml:"host" toml:"host"`
	Port         int      `yaml:"port" toml:"port"`
	Capabilities []string `yaml:"capabilities,omitempty" toml:"capabilities,omitempty"`
	Tags         []string `yaml:"tags,omitempty" toml:"tags,omitempty"`
}

// URL returns the worker's base HTTP URL.
func (w Worker) URL() string {
	return fmt.Sprintf("http://%s:%d", w.Host, w.Port)
}

// Rule is one ordered routing rule: tasks matching Pattern go to Worker.
type Rule struct {
	Pattern string `yaml:"pattern" toml:"pattern"`
	Worker  string `yaml:"worker" toml:"worker"`
}

// Config is the full fleet configuration.
type Config struct {
	Workers       []Worker `yaml:"workers" toml:"workers"`
	Routing       []Rule   `yaml:"routing,omitempty" toml:"routing,omitempty"`
	DefaultWorker string   `yaml:"default_worker,omitempty" toml:"default_worker,omitempty"`
}

// HasWorker reports whether a worker with the given name is configured.
func (c *Config) HasWorker(name string) bool {
	for _, w := range c.Workers {
		if w.Name == name {
			return true
		}
	}
	return false
}

// Worker returns the configured worker with the given name.
func (c *Config) Worker(name string) (Worker, bool) {
	for _, w := range c.Workers {
		if w.Name == name {
			return w, true
		}
	}
	return Worker{}, false
}

// WorkerNames returns the configured worker names in configuration order.
func (c *Config) WorkerNames() []string {
	names := make([]string, len(c.Workers))
	for i, w := range c.Workers {
		names[i] = w.Name
	}
	return names
}

// defaultSearchPaths returns the candidate config locations, most
// specific first.
func defaultSearchPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".hive", "config.yaml"),
			filepath.Join(home, ".hive", "config.yml"),
			filepath.Join(home, ".hive", "config.toml"),
		)
	}
	return append(paths, "hive.yaml", "hive.yml", "hive.toml")
}

// FindFile returns the first existing config file from the default search
// paths, or "" if none exists.
func FindFile() string {
	for _, p := range defaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load reads and validates the config at path. If path is empty the
// default search paths are consulted; if no file is found an empty (but
// valid) config is returned, matching a fresh install.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FindFile()
	}
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator's own flag or home dir
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if strings.HasSuffix(path, ".toml") {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// validate normalizes defaults and rejects inconsistent configurations:
// duplicate or empty worker names, rules or defaults referencing unknown
// workers.
func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Workers))
	for i := range c.Workers {
		w := &c.Workers[i]
		if w.Name == "" {
			return fmt.Errorf("worker %d: name is required", i)
		}
		if seen[w.Name] {
			return fmt.Errorf("worker %q: duplicate name", w.Name)
		}
		seen[w.Name] = true
		if w.Host == "" {
			return fmt.Errorf("worker %q: host is required", w.Name)
		}
		if w.Port == 0 {
			w.Port = DefaultPort
		}
	}

	for _, r := range c.Routing {
		if r.Pattern == "" {
			return fmt.Errorf("routing rule for %q: pattern is required", r.Worker)
		}
		if !seen[r.Worker] {
			return fmt.Errorf("routing rule %q: unknown worker %q", r.Pattern, r.Worker)
		}
	}

	if c.DefaultWorker != "" && !seen[c.DefaultWorker] {
		return fmt.Errorf("default_worker: unknown worker %q", c.DefaultWorker)
	}

	// Mirror the original behavior: with workers configured but no explicit
	// default, the first worker is the default.
	if c.DefaultWorker == "" && len(c.Workers) > 0 {
		c.DefaultWorker = c.Workers[0].Name
	}

	return nil
}
