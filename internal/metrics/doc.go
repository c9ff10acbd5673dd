// Package metrics provides Prometheus instrumentation for job lifecycle,
// workflow step duration, LM call latency and config reload outcomes.
package metrics
