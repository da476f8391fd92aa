// Package telemetry reports conversation traces over OTLP.
package telemetry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName    = "crosstalk"
	serviceVersion = "1.0.0"
)

// Config holds the configuration for telemetry.
type Config struct {
	Enabled bool
	// Endpoint is the OTLP/HTTP collector endpoint (host:port). Empty means
	// the exporter's default.
	Endpoint string
}

// Provider manages the tracing pipeline. A disabled provider is a no-op and
// safe to use everywhere.
type Provider struct {
	enabled        bool
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
}

// NewProvider creates a new telemetry provider.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if !config.Enabled {
		return &Provider{}, nil
	}

	var opts []otlptracehttp.Option
	if config.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(config.Endpoint), otlptracehttp.WithInsecure())
	}
	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)

	return &Provider{
		enabled:        true,
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
	}, nil
}

// Shutdown flushes and shuts down the tracing pipeline.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider == nil {
		return nil
	}
	return p.tracerProvider.Shutdown(ctx)
}

// StartConversationSpan opens a span covering one whole conversation. The
// returned func ends the span, recording err if non-nil.
func (p *Provider) StartConversationSpan(ctx context.Context, conversationID, topic string) (context.Context, func(err error)) {
	if !p.enabled {
		return ctx, func(error) {}
	}

	ctx, span := p.tracer.Start(ctx, "conversation", trace.WithAttributes(
		attribute.String("conversation.id", conversationID),
		attribute.String("conversation.topic", topic),
	))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// TurnEvent describes one completed turn for tracing.
type TurnEvent struct {
	Index  int
	Sender string
	Chars  int
}

// RecordTurn attaches a turn event to the active conversation span.
func (p *Provider) RecordTurn(ctx context.Context, turn TurnEvent) {
	if !p.enabled {
		return
	}
	trace.SpanFromContext(ctx).AddEvent("turn", trace.WithAttributes(
		attribute.Int("turn.index", turn.Index),
		attribute.String("turn.sender", turn.Sender),
		attribute.Int("turn.chars", turn.Chars),
	))
}

// RecordScore attaches an evaluation verdict to the active conversation span.
func (p *Provider) RecordScore(ctx context.Context, metric string, score float64, passed bool) {
	if !p.enabled {
		return
	}
	trace.SpanFromContext(ctx).AddEvent("evaluation", trace.WithAttributes(
		attribute.String("metric.name", metric),
		attribute.Float64("metric.score", score),
		attribute.Bool("metric.passed", passed),
	))
}

// NewConversationID generates a new conversation UUID.
func NewConversationID() string {
	return uuid.New().String()
}
