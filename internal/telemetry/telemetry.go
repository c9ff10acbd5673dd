// Package telemetry sets up the process-wide OpenTelemetry TracerProvider.
// No exporter is configured here: shipping spans to a collector is an
// external-collaborator concern this module does not own. The workflow
// engine and the registries do not create spans; this package only makes a
// valid Tracer available. When disabled, the registered provider is still an
// SDK provider, with a zero sampling ratio.
package telemetry

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Config controls whether tracing is enabled and at what rate.
type Config struct {
	Enabled     bool
	ServiceName string
	SampleRate  float64
}

// Providers holds the process-wide TracerProvider. Shutdown is always safe
// to call, including on a disabled/noop instance.
type Providers struct {
	tp *sdktrace.TracerProvider
}

// Init builds a TracerProvider. When cfg.Enabled is false it still returns
// a working SDK provider, just with AlwaysSample off (TraceIDRatioBased(0)),
// so instrumentation code never needs an enabled/disabled branch of its own.
func Init(cfg Config, logger *zap.Logger) (*Providers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "orchestrator"
	}
	sampleRate := cfg.SampleRate
	if !cfg.Enabled {
		sampleRate = 0
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(buildVersion()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(sampleRate)),
	)
	otel.SetTracerProvider(tp)

	logger.Info("telemetry initialized", zap.Bool("enabled", cfg.Enabled), zap.Float64("sample_rate", sampleRate))
	return &Providers{tp: tp}, nil
}

func (p *Providers) Tracer(name string) trace.Tracer {
	if p == nil || p.tp == nil {
		return otel.Tracer(name)
	}
	return p.tp.Tracer(name)
}

func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
