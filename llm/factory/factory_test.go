package factory

import (
	"testing"

	"github.com/sgr-genai/orchestrator/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCreds struct {
	keys map[string]string
	urls map[string]string
}

func (f fakeCreds) APIKey(provider string) (string, bool) {
	v, ok := f.keys[provider]
	return v, ok
}

func (f fakeCreds) BaseURL(provider string) string {
	return f.urls[provider]
}

func TestFactory_Get_CachesByProviderModelTemperature(t *testing.T) {
	f := New(fakeCreds{keys: map[string]string{"openai": "sk-test"}}, zap.NewNop())

	m1, err := f.Get(Spec{Provider: "openai", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	m2, err := f.Get(Spec{Provider: "openai", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Same(t, m1, m2)

	temp := 0.5
	m3, err := f.Get(Spec{Provider: "openai", Model: "gpt-4o-mini", Temperature: &temp})
	require.NoError(t, err)
	assert.NotSame(t, m1, m3)
}

func TestFactory_Get_MissingCredential(t *testing.T) {
	f := New(fakeCreds{}, zap.NewNop())
	_, err := f.Get(Spec{Provider: "openai", Model: "gpt-4o-mini"})
	require.Error(t, err)
	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrMissingCredential, llmErr.Code)
}

func TestFactory_Get_UnsupportedProvider(t *testing.T) {
	f := New(fakeCreds{}, zap.NewNop())
	_, err := f.Get(Spec{Provider: "not-a-real-vendor", Model: "x"})
	require.Error(t, err)
	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrUnsupportedProvider, llmErr.Code)
}

func TestFactory_Get_OllamaNeedsNoCredential(t *testing.T) {
	f := New(fakeCreds{}, zap.NewNop())
	m, err := f.Get(Spec{Provider: "ollama", Model: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", m.Provider())
}

func TestFactory_Get_AzureRequiresBaseURL(t *testing.T) {
	f := New(fakeCreds{keys: map[string]string{"azure": "key"}}, zap.NewNop())
	_, err := f.Get(Spec{Provider: "azure", Model: "gpt-4o"})
	require.Error(t, err)
	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrMissingCredential, llmErr.Code)
}
