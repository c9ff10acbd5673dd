// Package telemetry wraps OpenTelemetry TracerProvider setup for this
// module; no workflow or config-reload code creates spans.
package telemetry
