package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/janhq/deck-server"

// GetTracer returns the tracer for the deck service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// JobAttributes returns common attributes for job spans.
func JobAttributes(jobID, mode, theme string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("job.id", jobID),
		attribute.String("job.mode", mode),
		attribute.String("job.theme", theme),
	}
}

// StartJobSpan starts a span covering one deck job.
func StartJobSpan(ctx context.Context, jobID, mode, theme string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "deck.job",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(JobAttributes(jobID, mode, theme)...),
	)
}

// StartPreviewSpan starts a span for a synchronous preview.
func StartPreviewSpan(ctx context.Context, theme string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "deck.preview",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("job.theme", theme)),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddProgressEvent adds a progress event to a span.
func AddProgressEvent(span trace.Span, progress int) {
	span.AddEvent("progress", trace.WithAttributes(attribute.Int("progress.percent", progress)))
}

// AddStatusTransition adds a status transition event to a span.
func AddStatusTransition(span trace.Span, fromStatus, toStatus string) {
	span.AddEvent("status.transition",
		trace.WithAttributes(
			attribute.String("status.from", fromStatus),
			attribute.String("status.to", toStatus),
		),
	)
}
