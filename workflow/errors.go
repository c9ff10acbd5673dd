package workflow

import (
	"net/http"

	"github.com/sgr-genai/orchestrator/llm"
)

// ErrorCode classifies a workflow-execution failure.
type ErrorCode string

const (
	ErrWorkflowNotFound ErrorCode = "workflow_not_found"
	ErrAgentNotFound    ErrorCode = "agent_not_found"
	ErrUnsupportedType  ErrorCode = "unsupported_workflow_type"
	ErrRouterParse      ErrorCode = "router_parse"
	ErrProviderHTTP     ErrorCode = "provider_http"
	ErrProviderTimeout  ErrorCode = "provider_timeout"
	ErrInternal         ErrorCode = "internal"
)

// ExecutionError is the classified failure a workflow run surfaces to its
// caller. StatusCode and Retryable carry the same shape the job dispatcher
// uses to write a job's terminal FAILED message.
type ExecutionError struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *ExecutionError) Error() string { return e.Message }
func (e *ExecutionError) Unwrap() error { return e.Err }

// classifyAgentError turns a Model Factory / ChatModel failure into the
// workflow-level error message and retry classification a caller expects,
// mirroring the status-code table the engine this was ported from used:
// 404 "model not found" no-retry, 429 rate limit retryable, 401 bad key
// no-retry, 5xx upstream-down retryable, everything else a generic
// no-retry provider error. ErrAgentNotFound marks a registry lookup failure
// (the agent id isn't known at all) or, with Engine.EnforceAllowedAgents, a
// router decision outside allowedAgents — every branch here is a failure
// from a *known* agent's provider call, so none of them use it.
func classifyAgentError(err error) *ExecutionError {
	var llmErr *llm.Error
	if e, ok := err.(*llm.Error); ok {
		llmErr = e
	}
	if llmErr == nil {
		return &ExecutionError{
			Code: ErrInternal, Message: "Internal Agent Error: " + err.Error(),
			StatusCode: http.StatusInternalServerError, Err: err,
		}
	}

	switch llmErr.Code {
	case llm.ErrModelNotFound:
		return &ExecutionError{
			Code: ErrProviderHTTP, Message: "Model not found. Check your YAML config (provider/model name).",
			StatusCode: http.StatusNotFound, Err: err,
		}
	case llm.ErrRateLimited:
		return &ExecutionError{
			Code: ErrProviderHTTP, Message: "Rate limit exceeded (Quota full). Please try again later.",
			StatusCode: http.StatusTooManyRequests, Retryable: true, Err: err,
		}
	case llm.ErrUnauthorized:
		return &ExecutionError{
			Code: ErrProviderHTTP, Message: "Invalid API Key. Contact Administrator.",
			StatusCode: http.StatusUnauthorized, Err: err,
		}
	case llm.ErrUpstreamTimeout:
		return &ExecutionError{
			Code: ErrProviderTimeout, Message: "AI didn't respond in time.",
			StatusCode: http.StatusRequestTimeout, Retryable: true, Err: err,
		}
	case llm.ErrUpstreamUnavailable:
		return &ExecutionError{
			Code: ErrProviderHTTP, Message: "AI Provider is currently down.",
			StatusCode: http.StatusServiceUnavailable, Retryable: true, Err: err,
		}
	default:
		return &ExecutionError{
			Code: ErrInternal, Message: "AI Provider Error: " + llmErr.Message,
			StatusCode: http.StatusInternalServerError, Err: err,
		}
	}
}
