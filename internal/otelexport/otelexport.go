// Package otelexport replays a recorded call forest as OpenTelemetry spans.
package otelexport

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/getsentry/calltrace/internal/calltree"
)

const (
	InstrumentationName = "github.com/getsentry/calltrace"
	SessionSpanName     = "calltrace.session"
)

// NewProvider returns a tracer provider batching spans to an OTLP/HTTP
// collector at endpoint, e.g. http://localhost:4318.
func NewProvider(ctx context.Context, endpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter)), nil
}

// Replay emits one span per record under a session span, keeping the
// original timestamps and the parent/child structure.
func Replay(ctx context.Context, tp oteltrace.TracerProvider, sessionID string, forest calltree.Forest) {
	tr := tp.Tracer(InstrumentationName)

	start, end := bounds(forest)
	ctx, session := tr.Start(ctx, SessionSpanName,
		oteltrace.WithTimestamp(start),
		oteltrace.WithAttributes(attribute.String("calltrace.session_id", sessionID)),
	)
	for _, r := range forest {
		replay(ctx, tr, r)
	}
	session.End(oteltrace.WithTimestamp(end))
}

func replay(ctx context.Context, tr oteltrace.Tracer, r *calltree.CallRecord) {
	ctx, span := tr.Start(ctx, calltree.LabelName(r.Name),
		oteltrace.WithTimestamp(r.StartedAt),
		oteltrace.WithAttributes(
			attribute.String("code.function", r.Name),
			attribute.String("code.filepath", r.File),
			attribute.Int("code.lineno", r.Line),
			attribute.Int("calltrace.count", r.Count),
		),
	)
	for _, child := range r.Children {
		replay(ctx, tr, child)
	}
	span.End(oteltrace.WithTimestamp(r.StartedAt.Add(r.Duration)))
}

func bounds(forest calltree.Forest) (start, end time.Time) {
	if len(forest) == 0 {
		now := time.Now()
		return now, now
	}
	start = forest[0].StartedAt
	for _, r := range forest {
		if e := r.StartedAt.Add(r.Duration); e.After(end) {
			end = e
		}
	}
	return start, end
}
