// Package agentcfg manages the editable instruction sets for the remote
// conversion agents. Instructions live in a YAML file so operators can tune
// prompts without a redeploy; the admin API reads and writes through this
// store.
package agentcfg

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// ErrUnknownAgent is returned for agent ids not present in the store.
var ErrUnknownAgent = errors.New("unknown agent")

// ErrEmptyInstructions is returned when an update carries no instructions.
var ErrEmptyInstructions = errors.New("instructions cannot be empty")

// AgentConfig is the tunable configuration for one agent.
type AgentConfig struct {
	Name         string    `mapstructure:"name" json:"name"`
	Description  string    `mapstructure:"description" json:"description,omitempty"`
	Instructions string    `mapstructure:"instructions" json:"instructions"`
	Status       string    `mapstructure:"status" json:"status"`
	Version      string    `mapstructure:"version" json:"version"`
	UpdatedAt    time.Time `mapstructure:"updated_at" json:"updated_at"`
}

// Store holds agent configurations, backed by an optional YAML file. With an
// empty path the store is memory-only, which the tests use.
type Store struct {
	mu     sync.RWMutex
	path   string
	agents map[string]AgentConfig
}

// NewStore creates a store seeded with the default five agents, then
// overlays the file at path when one exists.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:   path,
		agents: defaultAgents(),
	}
	if path != "" {
		if err := s.Reload(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// All returns a copy of every agent configuration keyed by id.
func (s *Store) All() map[string]AgentConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]AgentConfig, len(s.agents))
	for id, cfg := range s.agents {
		out[id] = cfg
	}
	return out
}

// Get returns one agent configuration.
func (s *Store) Get(id string) (AgentConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.agents[id]
	if !ok {
		return AgentConfig{}, fmt.Errorf("agent %q: %w", id, ErrUnknownAgent)
	}
	return cfg, nil
}

// UpdateInstructions replaces an agent's instructions and persists the store
// when file-backed.
func (s *Store) UpdateInstructions(id, instructions string) (AgentConfig, error) {
	if instructions == "" {
		return AgentConfig{}, ErrEmptyInstructions
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.agents[id]
	if !ok {
		return AgentConfig{}, fmt.Errorf("agent %q: %w", id, ErrUnknownAgent)
	}
	cfg.Instructions = instructions
	cfg.UpdatedAt = time.Now().UTC()
	s.agents[id] = cfg

	if s.path != "" {
		if err := s.persist(); err != nil {
			return AgentConfig{}, err
		}
	}
	return cfg, nil
}

// Reload re-reads the backing file, discarding in-memory edits. Missing
// files leave the defaults in place.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	loaded := make(map[string]AgentConfig)
	if err := v.UnmarshalKey("agents", &loaded); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cfg := range loaded {
		s.agents[id] = cfg
	}
	return nil
}

func (s *Store) persist() error {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.Set("version", "1.0")
	agents := make(map[string]interface{}, len(s.agents))
	for id, cfg := range s.agents {
		agents[id] = map[string]interface{}{
			"name":         cfg.Name,
			"description":  cfg.Description,
			"instructions": cfg.Instructions,
			"status":       cfg.Status,
			"version":      cfg.Version,
			"updated_at":   cfg.UpdatedAt,
		}
	}
	v.Set("agents", agents)
	return v.WriteConfigAs(s.path)
}

func defaultAgents() map[string]AgentConfig {
	now := time.Now().UTC()
	mk := func(name, description, instructions string) AgentConfig {
		return AgentConfig{
			Name:         name,
			Description:  description,
			Instructions: instructions,
			Status:       "active",
			Version:      "1.0",
			UpdatedAt:    now,
		}
	}
	return map[string]AgentConfig{
		"classifier": mk("Classification Agent",
			"Analyzes code to determine if it's infrastructure-as-code",
			"Analyze the submitted code, identify the automation tool that produced it and judge whether it can be converted to an Ansible playbook."),
		"context": mk("Context Agent",
			"Retrieves relevant context from the vector database",
			"Search the knowledge base for patterns, module documentation and best practices relevant to the submitted code."),
		"generator": mk("Generation Agent",
			"Converts infrastructure code into Ansible playbooks",
			"Generate a valid, idiomatic Ansible playbook that reproduces the behavior of the submitted code, using the retrieved context."),
		"validator": mk("Validation Agent",
			"Lints generated playbooks and explains findings",
			"Run ansible-lint on the playbook, report each finding with severity and line, and suggest concrete fixes."),
		"deployer": mk("Deployment Agent",
			"Hands validated playbooks to the execution environment",
			"Submit the playbook for execution against the requested target and report the job id and status."),
	}
}
