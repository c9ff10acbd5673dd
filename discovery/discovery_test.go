package discovery

import (
	"testing"

	"github.com/sgr-genai/orchestrator/config"
	"github.com/stretchr/testify/assert"
)

type fakeAgentLister struct {
	defs []*config.AgentDefinition
}

func (f fakeAgentLister) GetAll() []*config.AgentDefinition { return f.defs }

type fakeWorkflowLister struct {
	defs []*config.WorkflowDefinition
}

func (f fakeWorkflowLister) List() []*config.WorkflowDefinition { return f.defs }

func TestService_Agents_RedactsSensitiveFields(t *testing.T) {
	agents := fakeAgentLister{defs: []*config.AgentDefinition{
		{
			ID:           "a1",
			Name:         "Agent One",
			Description:  "does things",
			SystemPrompt: "SECRET SYSTEM PROMPT",
			AllowedTools: []string{"search"},
			Model:        config.ModelConfig{Provider: "openai", Name: "gpt-4o-mini"},
			Metadata:     map[string]any{"apiKeyHint": "sk-..."},
		},
	}}
	s := New(agents, fakeWorkflowLister{})

	summaries := s.Agents()
	require := assert.New(t)
	require.Len(summaries, 1)
	require.Equal("a1", summaries[0].ID)
	require.Equal("Agent One", summaries[0].Name)
	require.Equal([]string{"search"}, summaries[0].AllowedTools)
}

func TestService_Workflows_ExposesOnlyIDNameType(t *testing.T) {
	workflows := fakeWorkflowLister{defs: []*config.WorkflowDefinition{
		{ID: "w1", Name: "Support Chain", Type: "CHAIN", ManagerAgentID: "manager", AllowedAgents: []string{"a", "b"}},
	}}
	s := New(fakeAgentLister{}, workflows)

	summaries := s.Workflows()
	assert.Len(t, summaries, 1)
	assert.Equal(t, WorkflowSummary{ID: "w1", Name: "Support Chain", Type: "CHAIN"}, summaries[0])
}
