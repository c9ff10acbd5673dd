package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvCredentials_APIKey(t *testing.T) {
	t.Setenv("ORCHESTRATOR_OPENAI_API_KEY", "sk-test")
	creds := EnvCredentials{}

	key, ok := creds.APIKey("openai")
	assert.True(t, ok)
	assert.Equal(t, "sk-test", key)

	_, ok = creds.APIKey("missing-provider")
	assert.False(t, ok)
}

func TestEnvCredentials_BaseURL_NormalizesHyphenatedProviderNames(t *testing.T) {
	t.Setenv("ORCHESTRATOR_AZURE_OPENAI_BASE_URL", "https://example.openai.azure.com")
	creds := EnvCredentials{}
	assert.Equal(t, "https://example.openai.azure.com", creds.BaseURL("azure-openai"))
}
