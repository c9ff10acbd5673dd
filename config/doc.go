// Package config defines the declarative shapes agents and workflows are
// authored in (YAML on disk), the loader that hydrates them — including
// recursive prompt-file inclusion and placeholder substitution — and the
// directory watcher that feeds the registries' hot-reload pipeline.
package config
