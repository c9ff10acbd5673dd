// Package providers holds the HTTP wire format and error classification
// shared by every OpenAI-compatible chat model client.
package providers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/sgr-genai/orchestrator/llm"
)

// MapHTTPError turns an upstream HTTP status into a classified llm.Error.
// This is the single place that decides retryability; it mirrors the
// status-code switch every provider call site used to repeat inline.
func MapHTTPError(status int, msg string, provider string) *llm.Error {
	switch status {
	case http.StatusNotFound:
		return &llm.Error{Code: llm.ErrModelNotFound, Message: msg, HTTPStatus: status, Provider: provider}
	case http.StatusUnauthorized:
		return &llm.Error{Code: llm.ErrUnauthorized, Message: msg, HTTPStatus: status, Provider: provider}
	case http.StatusTooManyRequests:
		return &llm.Error{Code: llm.ErrRateLimited, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	case http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &llm.Error{Code: llm.ErrUpstreamUnavailable, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	case http.StatusRequestTimeout:
		return &llm.Error{Code: llm.ErrUpstreamTimeout, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	default:
		return &llm.Error{Code: llm.ErrUpstreamError, Message: msg, HTTPStatus: status, Retryable: status >= 500, Provider: provider}
	}
}

// ReadErrorMessage extracts a human-readable message from an error response
// body, falling back to the raw text when it isn't the expected JSON shape.
func ReadErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return "failed to read error response"
	}
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return string(data)
}

// OpenAI-compatible chat completion wire types, shared by every provider
// that speaks the /v1/chat/completions dialect (openai, deepseek, groq,
// azure and ollama).

type OpenAICompatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
}

type OpenAICompatRequest struct {
	Model       string                 `json:"model"`
	Messages    []OpenAICompatMessage  `json:"messages"`
	Temperature *float64               `json:"temperature,omitempty"`
}

type OpenAICompatChoice struct {
	Index        int                  `json:"index"`
	FinishReason string               `json:"finish_reason"`
	Message      OpenAICompatMessage  `json:"message"`
}

type OpenAICompatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type OpenAICompatResponse struct {
	ID      string               `json:"id"`
	Model   string               `json:"model"`
	Choices []OpenAICompatChoice `json:"choices"`
	Usage   *OpenAICompatUsage   `json:"usage,omitempty"`
}

// BearerTokenHeaders is the default auth header builder shared by every
// OpenAI-compatible vendor (openai, deepseek, groq, azure).
func BearerTokenHeaders(r *http.Request, apiKey string) {
	r.Header.Set("Authorization", "Bearer "+apiKey)
	r.Header.Set("Content-Type", "application/json")
}

// SafeCloseBody closes a response body, discarding the close error — callers
// never act on it and already have the call's real error, if any.
func SafeCloseBody(body io.ReadCloser) {
	if body != nil {
		_ = body.Close()
	}
}
