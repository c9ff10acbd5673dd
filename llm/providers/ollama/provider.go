// Package ollama constructs a ChatModel for a local Ollama server, which
// requires no credential and defaults to the standard local port.
package ollama

import (
	"net/http"

	"github.com/sgr-genai/orchestrator/llm/providers/openaicompat"
	"go.uber.org/zap"
)

func New(baseURL, model string, temperature *float64, logger *zap.Logger) *openaicompat.Provider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return openaicompat.New(openaicompat.Config{
		ProviderName: "ollama",
		BaseURL:      baseURL,
		Model:        model,
		Temperature:  temperature,
		EndpointPath: "/v1/chat/completions",
		BuildHeaders: func(req *http.Request, _ string) {
			req.Header.Set("Content-Type", "application/json")
		},
	}, logger)
}
