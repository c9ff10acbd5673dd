// Package openaicompat implements a ChatModel for any vendor that speaks
// the OpenAI /v1/chat/completions dialect. The Model Factory's openai,
// deepseek, groq and azure branches all construct one of these, differing
// only in base URL and header builder.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sgr-genai/orchestrator/llm"
	"github.com/sgr-genai/orchestrator/llm/providers"
	"go.uber.org/zap"
)

// Config holds everything a concrete OpenAI-compatible vendor needs to
// differ from the defaults.
type Config struct {
	ProviderName string
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  *float64
	Timeout      time.Duration
	EndpointPath string
	BuildHeaders func(req *http.Request, apiKey string)
}

// Provider is a ChatModel backed by an OpenAI-compatible HTTP endpoint.
type Provider struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New constructs a Provider, filling in defaults the same way the teacher's
// openaicompat base provider does: 30s timeout, /v1/chat/completions path,
// bearer-token auth unless overridden.
func New(cfg Config, logger *zap.Logger) *Provider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/v1/chat/completions"
	}
	if cfg.BuildHeaders == nil {
		cfg.BuildHeaders = providers.BearerTokenHeaders
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (p *Provider) Provider() string { return p.cfg.ProviderName }
func (p *Provider) Model() string    { return p.cfg.Model }

func (p *Provider) endpoint() string {
	return fmt.Sprintf("%s%s", strings.TrimRight(p.cfg.BaseURL, "/"), p.cfg.EndpointPath)
}

// Chat sends a single-turn completion request and returns the first
// choice's text.
func (p *Provider) Chat(ctx context.Context, prompt string) (string, error) {
	body := providers.OpenAICompatRequest{
		Model:       p.cfg.Model,
		Messages:    []providers.OpenAICompatMessage{{Role: "user", Content: prompt}},
		Temperature: p.cfg.Temperature,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	p.cfg.BuildHeaders(httpReq, p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", &llm.Error{
			Code: llm.ErrUpstreamUnavailable, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.cfg.ProviderName, Err: err,
		}
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return "", providers.MapHTTPError(resp.StatusCode, msg, p.cfg.ProviderName)
	}

	var oaResp providers.OpenAICompatResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaResp); err != nil {
		return "", &llm.Error{
			Code: llm.ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.cfg.ProviderName, Err: err,
		}
	}
	if len(oaResp.Choices) == 0 {
		return "", &llm.Error{
			Code: llm.ErrUpstreamError, Message: "provider returned no choices",
			HTTPStatus: http.StatusBadGateway, Provider: p.cfg.ProviderName,
		}
	}
	return oaResp.Choices[0].Message.Content, nil
}
