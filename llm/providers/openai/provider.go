// Package openai constructs a ChatModel for OpenAI's own /v1/chat/completions
// endpoint — the canonical OpenAI-compatible dialect every other vendor in
// this tree copies.
package openai

import (
	"time"

	"github.com/sgr-genai/orchestrator/llm/providers/openaicompat"
	"go.uber.org/zap"
)

// openAITimeout overrides openaicompat's generic 30s default: OpenAI's own
// endpoint gets the full 60s this module allots a single chat turn.
const openAITimeout = 60 * time.Second

func New(apiKey, model string, temperature *float64, logger *zap.Logger) *openaicompat.Provider {
	return openaicompat.New(openaicompat.Config{
		ProviderName: "openai",
		APIKey:       apiKey,
		BaseURL:      "https://api.openai.com",
		Model:        model,
		Temperature:  temperature,
		Timeout:      openAITimeout,
	}, logger)
}
