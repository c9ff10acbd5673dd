package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WorkflowLoader loads a single workflow YAML file into a WorkflowDefinition.
// Unlike agents, workflow files carry no prompt includes, so there is no
// base-directory recursion to thread through.
type WorkflowLoader struct{}

func NewWorkflowLoader() *WorkflowLoader { return &WorkflowLoader{} }

func (l *WorkflowLoader) LoadWorkflow(path string) (*WorkflowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrConfigNotFound, Path: path, Err: err}
		}
		return nil, &LoadError{Code: ErrFileIO, Path: path, Err: err}
	}

	var def WorkflowDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, &LoadError{Code: ErrConfigInvalid, Path: path, Err: err}
	}
	if err := validateStepIDsUnique(def.Steps); err != nil {
		return nil, &LoadError{Code: ErrConfigInvalid, Path: path, Err: err}
	}
	return &def, nil
}

// validateStepIDsUnique rejects a workflow whose steps collide on stepId:
// ExecutionContext is keyed by stepId, so a collision would silently
// overwrite one step's recorded output with another's.
func validateStepIDsUnique(steps []Step) error {
	seen := make(map[string]bool, len(steps))
	for _, s := range steps {
		if seen[s.StepID] {
			return fmt.Errorf("duplicate stepId %q", s.StepID)
		}
		seen[s.StepID] = true
	}
	return nil
}
