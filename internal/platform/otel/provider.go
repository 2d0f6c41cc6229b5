// Package otel configures OpenTelemetry tracing for farmstand services.
package otel

import (
	"context"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	endpointEnv = "FARMSTAND_OTEL_ENDPOINT"
	enabledEnv  = "FARMSTAND_OTEL_ENABLED"
	sampleEnv   = "FARMSTAND_OTEL_SAMPLE_RATIO"

	instrumentationPrefix = "github.com/louisbranch/farmstand.market/"
)

// Setup initialises OpenTelemetry tracing for the given service.
//
// Tracing is opt-in: when FARMSTAND_OTEL_ENDPOINT is empty or
// FARMSTAND_OTEL_ENABLED is "false", Setup returns a no-op shutdown
// function and the global provider stays the SDK default no-op.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	if strings.EqualFold(os.Getenv(enabledEnv), "false") {
		return noop, nil
	}

	endpoint := strings.TrimSpace(os.Getenv(endpointEnv))
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Tracer returns a tracer scoped to a farmstand package, e.g. Tracer("onboarding/marketapi").
func Tracer(component string) trace.Tracer {
	return otel.Tracer(instrumentationPrefix + strings.TrimPrefix(strings.TrimSpace(component), "/"))
}

func sampler() sdktrace.Sampler {
	raw := strings.TrimSpace(os.Getenv(sampleEnv))
	if raw == "" {
		return sdktrace.AlwaysSample()
	}
	ratio, ok := parseRatio(raw)
	if !ok {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func parseRatio(raw string) (float64, bool) {
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return 0, false
	}
	return ratio, true
}
