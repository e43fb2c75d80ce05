package telemetry

import (
	"fmt"
	"io"

	"shopfront/internal/config"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// NewTracerProvider builds the process tracer provider. With the stdout
// exporter, finished spans are batched and written to w as JSON. With "none"
// spans are still created so trace context propagates, but nothing is
// exported. Extra options are applied last.
func NewTracerProvider(cfg config.TracingConfig, w io.Writer, logger zerolog.Logger, opts ...sdktrace.TracerProviderOption) (*sdktrace.TracerProvider, error) {
	logger = logger.With().Str("component", "tracing").Logger()

	base := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
		)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	}

	switch cfg.Exporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout span exporter: %w", err)
		}
		base = append(base, sdktrace.WithBatcher(exporter))
	case "none", "":
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}

	logger.Info().
		Str("exporter", cfg.Exporter).
		Float64("sample_ratio", cfg.SampleRatio).
		Msg("tracer provider configured")

	return sdktrace.NewTracerProvider(append(base, opts...)...), nil
}

// Install makes tp the global tracer provider and enables W3C trace-context
// and baggage propagation. SDK errors are routed to logger.
func Install(tp trace.TracerProvider, logger zerolog.Logger) {
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		logger.Warn().Err(err).Msg("opentelemetry error")
	}))
}
