// Package observability wires OpenTelemetry trace export into Genkit.
//
// Spans produced by Genkit flows and model calls are exported over
// OTLP HTTP to whatever collector the configured endpoint names: an
// OpenTelemetry Collector, a vendor agent, anything speaking OTLP.
// Tracing is opt-in. With no endpoint configured the process exports
// nothing.
//
// # Local collector quickstart
//
// Run a collector listening on the default OTLP HTTP port:
//
//	docker run -p 4318:4318 otel/opentelemetry-collector
//
// Then point easel at it (~/.easel/config.yaml):
//
//	telemetry:
//	  endpoint: "localhost:4318"
//	  environment: "dev"
//	  service_name: "easel"
package observability

import (
	"context"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/easelhq/easel/internal/config"
	"github.com/easelhq/easel/internal/log"
)

// Shutdown flushes pending spans and releases exporter resources.
type Shutdown func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup registers an OTLP HTTP exporter with Genkit's TracerProvider.
//
// With an empty endpoint tracing stays disabled and the returned
// shutdown is a no-op. Exporter construction failures also degrade to
// the no-op: the process runs without traces instead of failing to
// start.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger log.Logger) (Shutdown, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	if cfg.Endpoint == "" {
		logger.Debug("tracing disabled: no telemetry endpoint configured")
		return noopShutdown, nil
	}

	// Genkit's TracerProvider reads service identity from the standard
	// OTEL environment variables.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(), // local collectors speak plain HTTP
	)
	if err != nil {
		logger.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return noopShutdown, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("tracing enabled",
		"endpoint", cfg.Endpoint,
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)

	return tracing.TracerProvider().Shutdown, nil
}
