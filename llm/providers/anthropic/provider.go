// Package anthropic implements a ChatModel for Anthropic's Messages API.
// Anthropic's protocol differs from the OpenAI dialect in two ways that
// matter to a single-turn caller: authentication uses x-api-key rather than
// a bearer token, and every request must carry an anthropic-version header.
package anthropic

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

const defaultVersion = "2023-06-01"

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64
	Version     string
	Timeout     time.Duration
}

type Provider struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Version == "" {
		cfg.Version = defaultVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

func (p *Provider) Provider() string { return "anthropic" }
func (p *Provider) Model() string    { return p.cfg.Model }

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *Provider) Chat(ctx context.Context, prompt string) (string, error) {
	body := messagesRequest{
		Model:       p.cfg.Model,
		MaxTokens:   4096,
		Temperature: p.cfg.Temperature,
		Messages:    []message{{Role: "user", Content: prompt}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/messages", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", p.cfg.Version)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", &llm.Error{
			Code: llm.ErrUpstreamUnavailable, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: "anthropic", Err: err,
		}
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return "", providers.MapHTTPError(resp.StatusCode, msg, "anthropic")
	}

	var out messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &llm.Error{
			Code: llm.ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: "anthropic", Err: err,
		}
	}
	for _, block := range out.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", &llm.Error{Code: llm.ErrUpstreamError, Message: "no text content block in response", Provider: "anthropic"}
}
