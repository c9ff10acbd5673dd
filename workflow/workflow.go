package workflow

import "context"

// AgentExecutor runs a single agent turn: build its full prompt from the
// agent definition plus a user message, call the Model Factory's chat
// model, and return the text response. The Engine depends on this
// interface rather than concrete registry/factory types so step execution
// stays independently testable.
type AgentExecutor interface {
	Execute(ctx context.Context, agentID, userMessage string) (string, error)
}
