package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"rosterline/internal/domain"
)

const FileName = "rosterline.yml"

// Config models rosterline.yml.
type Config struct {
	// EventKinds is the catalog seeded into the store at bootstrap.
	EventKinds []string `yaml:"event_kinds" json:"event_kinds"`
	Overlap    struct {
		// Statuses lists the event statuses that occupy a participant's time.
		Statuses []string `yaml:"statuses" json:"statuses"`
		// Scope is "participant" to compare all of a participant's
		// participations, or "type" to compare only those of one type.
		Scope string `yaml:"scope" json:"scope"`
	} `yaml:"overlap" json:"overlap"`
	Server struct {
		Addr     string `yaml:"addr" json:"addr"`
		BasePath string `yaml:"base_path" json:"base_path"`
	} `yaml:"server" json:"server"`
	Log struct {
		Level string `yaml:"level" json:"level"`
	} `yaml:"log" json:"log"`
}

const (
	ScopeParticipant = "participant"
	ScopeType        = "type"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	seen := map[string]bool{}
	for _, k := range c.EventKinds {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("config.event_kinds contains an empty name")
		}
		if seen[k] {
			return fmt.Errorf("config.event_kinds lists %s twice", k)
		}
		seen[k] = true
	}
	for _, s := range c.Overlap.Statuses {
		if !domain.IsEventStatus(s) {
			return fmt.Errorf("config.overlap.statuses: unknown status %s", s)
		}
	}
	if c.Overlap.Scope != "" && c.Overlap.Scope != ScopeParticipant && c.Overlap.Scope != ScopeType {
		return fmt.Errorf("config.overlap.scope must be %s or %s", ScopeParticipant, ScopeType)
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	if c.Log.Level != "" {
		ok := false
		for _, l := range logLevels {
			if c.Log.Level == l {
				ok = true
			}
		}
		if !ok {
			return fmt.Errorf("config.log.level must be one of %s", strings.Join(logLevels, ", "))
		}
	}
	return nil
}

// OccupiesTime reports whether events in status take part in overlap checks.
func (c *Config) OccupiesTime(status string) bool {
	for _, s := range c.Overlap.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// TypeScoped reports whether overlap is only checked between participations
// of the same type.
func (c *Config) TypeScoped() bool {
	return c.Overlap.Scope == ScopeType
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	cfg, err := FromFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config %s not found; create one with rl config init", path)
	}
	return cfg, err
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	cfg, err := Load(workspace)
	if err == nil {
		return cfg, nil
	}
	if _, statErr := os.Stat(Path(workspace)); errors.Is(statErr, os.ErrNotExist) {
		return Default(), nil
	}
	return nil, err
}

// Default returns the config written by rl config init.
func Default() *Config {
	cfg, err := FromYAML([]byte(DefaultTemplate))
	if err != nil {
		panic(fmt.Sprintf("default config: %v", err))
	}
	return cfg
}

// FromYAML parses and validates config from raw YAML bytes. Sections left
// out take their default values.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

func (c *Config) applyDefaults() {
	if c.Overlap.Statuses == nil {
		c.Overlap.Statuses = []string{domain.StatusDraft, domain.StatusActive, domain.StatusCompleted}
	}
	if c.Overlap.Scope == "" {
		c.Overlap.Scope = ScopeParticipant
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8080"
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/v1"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// YAML renders c back to the file format.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

const DefaultTemplate = `event_kinds:
  - shift
  - employment
  - schedule

overlap:
  # Events in these statuses occupy a participant's time.
  statuses: [draft, active, completed]
  # participant compares all of a participant's participations;
  # type compares only participations of the same type.
  scope: participant

server:
  addr: 127.0.0.1:8080
  base_path: /v1

log:
  level: info
`
