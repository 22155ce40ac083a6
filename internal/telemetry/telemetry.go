// Package telemetry wires OpenTelemetry tracing for the failover path. There
// is no exporter: finished spans are written to the debug log.
package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/freytube/freytube/internal/logger"
	"github.com/freytube/freytube/internal/version"
)

const defaultServiceName = "freytube"

type Config struct {
	ServiceName string
	SampleRate  float64
	Enabled     bool
}

// Runtime holds the installed provider and its shutdown hook
type Runtime struct {
	TracerProvider *sdktrace.TracerProvider
	Shutdown       func(ctx context.Context) error
}

// Setup installs a global tracer provider. When tracing is disabled the
// provider still exists but samples nothing.
func Setup(cfg Config, log *logger.StyledLogger) (Runtime, error) {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version.Version),
		),
	)
	if err != nil {
		return Runtime{}, err
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(samplerFor(cfg)),
		sdktrace.WithResource(res),
	}
	if cfg.Enabled {
		opts = append(opts, sdktrace.WithSpanProcessor(NewLogProcessor(log)))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)

	return Runtime{
		TracerProvider: provider,
		Shutdown:       provider.Shutdown,
	}, nil
}

func samplerFor(cfg Config) sdktrace.Sampler {
	if !cfg.Enabled {
		return sdktrace.NeverSample()
	}
	ratio := clampRatio(cfg.SampleRate)
	if ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func clampRatio(ratio float64) float64 {
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}
