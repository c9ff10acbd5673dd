package config

import "time"

// DefaultMaxSteps bounds a ROUTER workflow's manager-agent loop when a
// workflow file doesn't set its own maxSteps.
const DefaultMaxSteps = 5

// DefaultWatchExtensions are the file extensions the registries watch for
// under the agents/ and workflows/ directories.
var DefaultWatchExtensions = []string{".yaml", ".yml", ".md"}

// DefaultDebounceDelay is the watcher's default event-coalescing window.
const DefaultDebounceDelay = 500 * time.Millisecond
