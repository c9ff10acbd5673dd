package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrorCode classifies a config-loading failure.
type ErrorCode string

const (
	ErrConfigNotFound      ErrorCode = "config_not_found"
	ErrConfigInvalid       ErrorCode = "config_invalid"
	ErrFileIO              ErrorCode = "file_io"
	ErrIncludeDepthExceeded ErrorCode = "include_depth_exceeded"
	ErrIncludeTraversal    ErrorCode = "include_path_traversal"
)

// LoadError is a classified Agent/Workflow Loader failure.
type LoadError struct {
	Code ErrorCode
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Code, e.Path)
}

func (e *LoadError) Unwrap() error { return e.Err }

const maxIncludeDepth = 16

var includeRe = regexp.MustCompile(`\{\{include:\s*(.*?)\s*\}\}`)
var placeholderRe = regexp.MustCompile(`\{\{\s*([\w.\-]+)\s*\}\}`)

// AgentLoader loads a single agent YAML file and hydrates its prompt files
// into a full AgentDefinition.
type AgentLoader struct{}

func NewAgentLoader() *AgentLoader { return &AgentLoader{} }

// LoadAgent reads the YAML file at path, then resolves its prompt paths
// relative to the file's own directory — that directory becomes the base
// for include-path resolution and the path-traversal guard.
func (l *AgentLoader) LoadAgent(path string) (*AgentDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrConfigNotFound, Path: path, Err: err}
		}
		return nil, &LoadError{Code: ErrFileIO, Path: path, Err: err}
	}

	var cfg AgentConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &LoadError{Code: ErrConfigInvalid, Path: path, Err: err}
	}
	if err := validateAgentConfig(cfg); err != nil {
		return nil, &LoadError{Code: ErrConfigInvalid, Path: path, Err: err}
	}

	baseDir := filepath.Dir(path)

	systemPrompt, err := l.readPrompt(baseDir, cfg.SystemPromptPath, cfg.Metadata)
	if err != nil {
		return nil, err
	}
	userPrompt, err := l.readPrompt(baseDir, cfg.UserPromptPath, cfg.Metadata)
	if err != nil {
		return nil, err
	}

	return &AgentDefinition{
		ID:           cfg.ID,
		Name:         cfg.Name,
		Version:      cfg.Version,
		Description:  cfg.Description,
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Model:        cfg.Model,
		AllowedTools: cfg.AllowedTools,
		Metadata:     cfg.Metadata,
	}, nil
}

// validateAgentConfig enforces the fields an AgentDefinition cannot do
// without: a loaded agent with no id can never be looked up, and one with
// no provider/model name can never resolve a ChatModel.
func validateAgentConfig(cfg AgentConfig) error {
	var missing []string
	if strings.TrimSpace(cfg.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(cfg.Model.Provider) == "" {
		missing = append(missing, "model.provider")
	}
	if strings.TrimSpace(cfg.Model.Name) == "" {
		missing = append(missing, "model.name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required field(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// readPrompt returns "" for a blank relative path, otherwise reads and
// processes the prompt file (include expansion then placeholder
// substitution, in that order).
func (l *AgentLoader) readPrompt(baseDir, relativePath string, metadata map[string]any) (string, error) {
	if strings.TrimSpace(relativePath) == "" {
		return "", nil
	}
	fullPath, err := resolveWithinBase(baseDir, relativePath)
	if err != nil {
		return "", &LoadError{Code: ErrIncludeTraversal, Path: relativePath, Err: err}
	}

	content, err := l.expandIncludes(baseDir, fullPath, 0)
	if err != nil {
		return "", err
	}
	return substitutePlaceholders(content, metadata), nil
}

// expandIncludes resolves {{include: path}} directives recursively, taking
// the prompt base directory as an explicit argument rather than stashing it
// in goroutine-local state — this keeps the loader re-entrant across
// concurrent reload workers.
func (l *AgentLoader) expandIncludes(baseDir, path string, depth int) (string, error) {
	if depth > maxIncludeDepth {
		return "", &LoadError{Code: ErrIncludeDepthExceeded, Path: path}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &LoadError{Code: ErrConfigNotFound, Path: path, Err: err}
		}
		return "", &LoadError{Code: ErrFileIO, Path: path, Err: err}
	}

	var outErr error
	expanded := includeRe.ReplaceAllStringFunc(string(raw), func(match string) string {
		if outErr != nil {
			return match
		}
		groups := includeRe.FindStringSubmatch(match)
		includePath := groups[1]

		resolved, err := resolveWithinBase(baseDir, includePath)
		if err != nil {
			outErr = &LoadError{Code: ErrIncludeTraversal, Path: includePath, Err: err}
			return match
		}

		included, err := l.expandIncludes(baseDir, resolved, depth+1)
		if err != nil {
			outErr = err
			return match
		}
		return included
	})
	if outErr != nil {
		return "", outErr
	}
	return expanded, nil
}

// resolveWithinBase resolves relativePath against baseDir and rejects any
// result that escapes baseDir.
func resolveWithinBase(baseDir, relativePath string) (string, error) {
	full := filepath.Clean(filepath.Join(baseDir, relativePath))

	rel, err := filepath.Rel(baseDir, full)
	if err != nil {
		return "", fmt.Errorf("resolve %q against base %q: %w", relativePath, baseDir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("include path %q escapes base directory %q", relativePath, baseDir)
	}
	return full, nil
}

// substitutePlaceholders replaces {{key}} with the string form of
// metadata[key]. Unknown keys are left untouched rather than erroring.
func substitutePlaceholders(content string, metadata map[string]any) string {
	return placeholderRe.ReplaceAllStringFunc(content, func(match string) string {
		groups := placeholderRe.FindStringSubmatch(match)
		key := groups[1]
		val, ok := metadata[key]
		if !ok {
			return match
		}
		return fmt.Sprint(val)
	})
}
