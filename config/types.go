package config

// ModelConfig names the provider/model/temperature triple the Model Factory
// caches chat clients by. Temperature is a pointer: nil means "let the
// provider use its own default", not zero.
type ModelConfig struct {
	Provider    string   `yaml:"provider"`
	Name        string   `yaml:"name"`
	Temperature *float64 `yaml:"temperature,omitempty"`
}

// AgentConfig is the on-disk shape of an agent YAML file: everything the
// Agent Loader reads before it resolves prompt files and metadata
// placeholders into an AgentDefinition.
type AgentConfig struct {
	ID               string         `yaml:"id"`
	Name             string         `yaml:"name"`
	Version          string         `yaml:"version,omitempty"`
	Description      string         `yaml:"description,omitempty"`
	SystemPromptPath string         `yaml:"systemPromptPath,omitempty"`
	UserPromptPath   string         `yaml:"userPromptPath,omitempty"`
	Model            ModelConfig    `yaml:"model"`
	AllowedTools     []string       `yaml:"allowedTools,omitempty"`
	Metadata         map[string]any `yaml:"metadata,omitempty"`
}

// AgentDefinition is the hydrated, ready-to-execute form of an AgentConfig:
// its prompt files have been read, includes expanded, and metadata
// placeholders substituted.
type AgentDefinition struct {
	ID           string
	Name         string
	Version      string
	Description  string
	SystemPrompt string
	UserPrompt   string
	Model        ModelConfig
	AllowedTools []string
	Metadata     map[string]any
}

// Step is a single node of a CHAIN workflow.
type Step struct {
	StepID        string `yaml:"stepId"`
	AgentID       string `yaml:"agentId"`
	InputSource   string `yaml:"inputSource,omitempty"`   // "USER_INPUT" or a prior stepId
	InputTemplate string `yaml:"inputTemplate,omitempty"` // "{{key}}" template over ExecutionContext
}

// WorkflowDefinition is the on-disk (and in-registry) shape of a workflow
// YAML file. Type discriminates CHAIN from ROUTER execution and is matched
// case-insensitively.
type WorkflowDefinition struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	Version       string   `yaml:"version,omitempty"`
	Type          string   `yaml:"type"`
	Steps         []Step   `yaml:"steps,omitempty"`
	ManagerAgentID string  `yaml:"managerAgentId,omitempty"`
	AllowedAgents []string `yaml:"allowedAgents,omitempty"`
	MaxSteps      int      `yaml:"maxSteps,omitempty"`
}

// ExecutionContext accumulates step outputs across a workflow run, keyed by
// stepId, seeded with the literal key "USER_INPUT".
type ExecutionContext map[string]string
