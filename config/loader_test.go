package config

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestAgentLoader_LoadAgent_HydratesPromptsAndMetadata(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "system.md"), "You are {{role}}. Be concise.")
	writeTestFile(t, filepath.Join(dir, "agent.yaml"), `
id: helper
name: Helper
systemPromptPath: system.md
model:
  provider: openai
  name: gpt-4o-mini
metadata:
  role: a helpful assistant
`)

	def, err := NewAgentLoader().LoadAgent(filepath.Join(dir, "agent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "helper", def.ID)
	assert.Equal(t, "You are a helpful assistant. Be concise.", def.SystemPrompt)
}

func TestAgentLoader_UnknownPlaceholderLeftLiteral(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "system.md"), "Hello {{unknown}}.")
	writeTestFile(t, filepath.Join(dir, "agent.yaml"), `
id: a
name: A
systemPromptPath: system.md
model:
  provider: openai
  name: gpt-4o-mini
`)

	def, err := NewAgentLoader().LoadAgent(filepath.Join(dir, "agent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Hello {{unknown}}.", def.SystemPrompt)
}

func TestAgentLoader_IncludeExpansion_Recursive(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "footer.md"), "Thanks.")
	writeTestFile(t, filepath.Join(dir, "body.md"), "Body text. {{include: footer.md}}")
	writeTestFile(t, filepath.Join(dir, "system.md"), "Intro. {{include: body.md}}")
	writeTestFile(t, filepath.Join(dir, "agent.yaml"), `
id: a
name: A
systemPromptPath: system.md
model:
  provider: openai
  name: gpt-4o-mini
`)

	def, err := NewAgentLoader().LoadAgent(filepath.Join(dir, "agent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Intro. Body text. Thanks.", def.SystemPrompt)
}

func TestAgentLoader_IncludeTraversal_Rejected(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	writeTestFile(t, filepath.Join(outside, "secret.md"), "leaked")
	rel, err := filepath.Rel(dir, filepath.Join(outside, "secret.md"))
	require.NoError(t, err)

	writeTestFile(t, filepath.Join(dir, "system.md"), "{{include: "+rel+"}}")
	writeTestFile(t, filepath.Join(dir, "agent.yaml"), `
id: a
name: A
systemPromptPath: system.md
model:
  provider: openai
  name: gpt-4o-mini
`)

	_, err = NewAgentLoader().LoadAgent(filepath.Join(dir, "agent.yaml"))
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrIncludeTraversal, loadErr.Code)
}

func TestAgentLoader_IncludeDepthExceeded(t *testing.T) {
	dir := t.TempDir()
	// Build a chain of includes deeper than maxIncludeDepth.
	last := "base.md"
	writeTestFile(t, filepath.Join(dir, last), "leaf")
	for i := 0; i < maxIncludeDepth+2; i++ {
		name := "level" + strconv.Itoa(i) + ".md"
		writeTestFile(t, filepath.Join(dir, name), "{{include: "+last+"}}")
		last = name
	}
	writeTestFile(t, filepath.Join(dir, "system.md"), "{{include: "+last+"}}")
	writeTestFile(t, filepath.Join(dir, "agent.yaml"), `
id: a
name: A
systemPromptPath: system.md
model:
  provider: openai
  name: gpt-4o-mini
`)

	_, err := NewAgentLoader().LoadAgent(filepath.Join(dir, "agent.yaml"))
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrIncludeDepthExceeded, loadErr.Code)
}

func TestAgentLoader_MissingRequiredFields_Rejected(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "agent.yaml"), `
name: No ID Or Model
`)

	_, err := NewAgentLoader().LoadAgent(filepath.Join(dir, "agent.yaml"))
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrConfigInvalid, loadErr.Code)
}

func TestAgentLoader_MissingFile(t *testing.T) {
	_, err := NewAgentLoader().LoadAgent("/nonexistent/agent.yaml")
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrConfigNotFound, loadErr.Code)
}
