// Package factory builds and caches llm.ChatModel instances from an agent's
// declared provider/model/temperature triple, the way the original Java
// ChatModelFactory's modelCache did.
package factory

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sgr-genai/orchestrator/llm"
	"github.com/sgr-genai/orchestrator/llm/providers/anthropic"
	"github.com/sgr-genai/orchestrator/llm/providers/deepseek"
	"github.com/sgr-genai/orchestrator/llm/providers/gemini"
	"github.com/sgr-genai/orchestrator/llm/providers/ollama"
	"github.com/sgr-genai/orchestrator/llm/providers/openai"
	"github.com/sgr-genai/orchestrator/llm/providers/openaicompat"
	"go.uber.org/zap"
)

// Spec is the provider/model/temperature triple an agent definition carries.
type Spec struct {
	Provider    string
	Model       string
	Temperature *float64
}

// Credentials resolves an API key for a provider name. Callers typically
// back this with environment variables or a secrets store; nothing in this
// package persists a credential beyond the constructed ChatModel.
type Credentials interface {
	APIKey(provider string) (string, bool)
	BaseURL(provider string) string
}

// Factory caches ChatModel instances keyed by "provider|model|temperature",
// the same triple the system this was ported from keyed its cache by.
type Factory struct {
	mu    sync.RWMutex
	cache map[string]llm.ChatModel
	creds Credentials
	log   *zap.Logger
}

func New(creds Credentials, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{
		cache: make(map[string]llm.ChatModel),
		creds: creds,
		log:   logger,
	}
}

func cacheKey(s Spec) string {
	temp := "default"
	if s.Temperature != nil {
		temp = fmt.Sprintf("%g", *s.Temperature)
	}
	return fmt.Sprintf("%s|%s|%s", strings.ToLower(s.Provider), s.Model, temp)
}

// Get returns the cached ChatModel for this spec, building and caching one
// on first use.
func (f *Factory) Get(s Spec) (llm.ChatModel, error) {
	key := cacheKey(s)

	f.mu.RLock()
	if m, ok := f.cache[key]; ok {
		f.mu.RUnlock()
		return m, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.cache[key]; ok {
		return m, nil
	}

	model, err := f.build(s)
	if err != nil {
		return nil, err
	}
	f.cache[key] = model
	f.log.Debug("model factory: built chat model", zap.String("key", key))
	return model, nil
}

func (f *Factory) resolveKey(provider string) (string, error) {
	apiKey, ok := f.creds.APIKey(provider)
	if !ok || apiKey == "" {
		return "", &llm.Error{
			Code:     llm.ErrMissingCredential,
			Message:  fmt.Sprintf("no API key configured for provider %q", provider),
			Provider: provider,
		}
	}
	return apiKey, nil
}

func (f *Factory) build(s Spec) (llm.ChatModel, error) {
	provider := strings.ToLower(strings.TrimSpace(s.Provider))
	switch provider {
	case "openai":
		key, err := f.resolveKey(provider)
		if err != nil {
			return nil, err
		}
		return openai.New(key, s.Model, s.Temperature, f.log), nil

	case "deepseek":
		key, err := f.resolveKey(provider)
		if err != nil {
			return nil, err
		}
		return deepseek.New(key, s.Model, s.Temperature, f.log), nil

	case "groq":
		key, err := f.resolveKey(provider)
		if err != nil {
			return nil, err
		}
		base := f.creds.BaseURL(provider)
		if base == "" {
			base = "https://api.groq.com/openai/v1"
		}
		return openaicompat.New(openaicompat.Config{
			ProviderName: provider, APIKey: key, BaseURL: base, Model: s.Model, Temperature: s.Temperature,
		}, f.log), nil

	case "azure", "azure-openai":
		key, err := f.resolveKey(provider)
		if err != nil {
			return nil, err
		}
		base := f.creds.BaseURL(provider)
		if base == "" {
			return nil, &llm.Error{Code: llm.ErrMissingCredential, Message: "azure provider requires a base URL (deployment endpoint)", Provider: provider}
		}
		return openaicompat.New(openaicompat.Config{
			ProviderName: provider, APIKey: key, BaseURL: base, Model: s.Model, Temperature: s.Temperature,
		}, f.log), nil

	case "anthropic", "claude":
		key, err := f.resolveKey(provider)
		if err != nil {
			return nil, err
		}
		return anthropic.New(anthropic.Config{
			APIKey: key, BaseURL: f.creds.BaseURL(provider), Model: s.Model, Temperature: s.Temperature,
		}, f.log), nil

	case "gemini", "google":
		key, err := f.resolveKey(provider)
		if err != nil {
			return nil, err
		}
		return gemini.New(gemini.Config{
			APIKey: key, BaseURL: f.creds.BaseURL(provider), Model: s.Model, Temperature: s.Temperature,
		}, f.log), nil

	case "ollama":
		return ollama.New(f.creds.BaseURL(provider), s.Model, s.Temperature, f.log), nil

	default:
		return nil, &llm.Error{
			Code:    llm.ErrUnsupportedProvider,
			Message: fmt.Sprintf("unsupported provider: %s", s.Provider),
		}
	}
}
