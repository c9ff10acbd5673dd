// Package discovery projects the live agent and workflow registries into
// safe-to-expose summaries: no system prompts, no model credentials, no
// internal metadata.
package discovery

import (
	"github.com/sgr-genai/orchestrator/config"
)

// AgentSummary is everything a caller is allowed to know about an agent.
// It deliberately omits SystemPrompt, UserPrompt, Model and Metadata.
type AgentSummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	AllowedTools []string `json:"allowedTools,omitempty"`
}

// WorkflowSummary exposes only enough to pick a workflow to run.
type WorkflowSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type AgentLister interface {
	GetAll() []*config.AgentDefinition
}

type WorkflowLister interface {
	List() []*config.WorkflowDefinition
}

// Service answers discovery queries against the live registries.
type Service struct {
	agents    AgentLister
	workflows WorkflowLister
}

func New(agents AgentLister, workflows WorkflowLister) *Service {
	return &Service{agents: agents, workflows: workflows}
}

func (s *Service) Agents() []AgentSummary {
	defs := s.agents.GetAll()
	out := make([]AgentSummary, 0, len(defs))
	for _, def := range defs {
		out = append(out, AgentSummary{
			ID:           def.ID,
			Name:         def.Name,
			Description:  def.Description,
			AllowedTools: def.AllowedTools,
		})
	}
	return out
}

func (s *Service) Workflows() []WorkflowSummary {
	defs := s.workflows.List()
	out := make([]WorkflowSummary, 0, len(defs))
	for _, def := range defs {
		out = append(out, WorkflowSummary{ID: def.ID, Name: def.Name, Type: def.Type})
	}
	return out
}
