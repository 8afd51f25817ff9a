package telemetry

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "leaderboard/internal/telemetry"

var globalTraceMode atomic.Value

const (
	traceModeOff      = "off"
	traceModeErrors   = "errors"
	traceModeSampled  = "sampled"
	traceModeDetailed = "detailed"
)

// Config configures OpenTelemetry tracing setup.
type Config struct {
	Enabled          bool
	ServiceName      string
	TraceMode        string
	TraceSampleRatio float64
	// TraceOutput receives finished spans as JSON lines when tracing is enabled.
	TraceOutput io.Writer
	// SpanProcessors are registered on the provider next to the TraceOutput exporter.
	SpanProcessors []sdktrace.SpanProcessor
}

// Runtime contains initialized telemetry providers and lifecycle hooks.
type Runtime struct {
	TracerProvider *sdktrace.TracerProvider
	Shutdown       func(ctx context.Context) error
}

// Setup initializes global OpenTelemetry tracing according to the provided configuration.
func Setup(cfg Config) (Runtime, error) {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "leaderboard"
	}

	effectiveTraceMode := cfg.TraceMode
	if !cfg.Enabled {
		effectiveTraceMode = traceModeOff
	}
	setTraceMode(effectiveTraceMode)

	sampler := samplerForMode(effectiveTraceMode, cfg.TraceSampleRatio)
	if !cfg.Enabled {
		sampler = sdktrace.NeverSample()
	}

	resourceConfig, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName)),
	)
	if err != nil {
		return Runtime{}, err
	}

	processors := append([]sdktrace.SpanProcessor(nil), cfg.SpanProcessors...)
	if cfg.Enabled && cfg.TraceOutput != nil {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(cfg.TraceOutput))
		if err != nil {
			return Runtime{}, fmt.Errorf("create trace exporter: %w", err)
		}
		processors = append(processors, sdktrace.NewBatchSpanProcessor(exporter))
	}

	options := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(resourceConfig),
	}
	for _, processor := range processors {
		if normalizeTraceMode(effectiveTraceMode) == traceModeErrors {
			processor = errorSpanFilter{next: processor}
		}
		options = append(options, sdktrace.WithSpanProcessor(processor))
	}

	provider := sdktrace.NewTracerProvider(options...)
	otel.SetTracerProvider(provider)

	return Runtime{
		TracerProvider: provider,
		Shutdown:       provider.Shutdown,
	}, nil
}

// StartStage starts a span for one pipeline stage. The returned func ends the
// span and records err when it is non-nil.
func StartStage(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	ctx, span := otel.Tracer(tracerName).Start(
		ctx,
		"leaderboard."+stage,
		trace.WithAttributes(attrs...),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, stage+" completed")
		}
		span.End()
	}
}

func samplerForMode(mode string, ratio float64) sdktrace.Sampler {
	clampedRatio := clampRatio(ratio)

	switch normalizeTraceMode(mode) {
	case traceModeOff:
		return sdktrace.NeverSample()
	case traceModeDetailed:
		return sdktrace.AlwaysSample()
	case traceModeErrors:
		// Every span is recorded; errorSpanFilter drops the successful ones on end.
		return sdktrace.AlwaysSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(clampedRatio))
	}
}

// errorSpanFilter forwards only spans that ended with an error status.
type errorSpanFilter struct {
	next sdktrace.SpanProcessor
}

func (f errorSpanFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.next.OnStart(parent, s)
}

func (f errorSpanFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	if s.Status().Code != codes.Error {
		return
	}
	f.next.OnEnd(s)
}

func (f errorSpanFilter) Shutdown(ctx context.Context) error   { return f.next.Shutdown(ctx) }
func (f errorSpanFilter) ForceFlush(ctx context.Context) error { return f.next.ForceFlush(ctx) }

// TraceMode reports the configured global trace mode.
func TraceMode() string {
	value := globalTraceMode.Load()
	if value == nil {
		return traceModeOff
	}
	mode, _ := value.(string)
	if mode == "" {
		return traceModeOff
	}
	return mode
}

// ShouldTraceDependencies reports if per-request dependency spans should be emitted.
func ShouldTraceDependencies() bool {
	return TraceMode() == traceModeDetailed
}

func setTraceMode(mode string) {
	globalTraceMode.Store(normalizeTraceMode(mode))
}

func normalizeTraceMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case traceModeOff:
		return traceModeOff
	case traceModeErrors:
		return traceModeErrors
	case traceModeDetailed:
		return traceModeDetailed
	default:
		return traceModeSampled
	}
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
