// Package deepseek constructs a ChatModel for DeepSeek, which speaks the
// OpenAI-compatible dialect at a vendor-specific base URL.
package deepseek

import (
	"github.com/sgr-genai/orchestrator/llm/providers/openaicompat"
	"go.uber.org/zap"
)

func New(apiKey, model string, temperature *float64, logger *zap.Logger) *openaicompat.Provider {
	return openaicompat.New(openaicompat.Config{
		ProviderName: "deepseek",
		APIKey:       apiKey,
		BaseURL:      "https://api.deepseek.com",
		Model:        model,
		Temperature:  temperature,
	}, logger)
}
