package otelexport

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/getsentry/calltrace/internal/calltree"
	"github.com/getsentry/calltrace/internal/testutil"
)

func rec(name string, startMS, durationMS float64, children ...*calltree.CallRecord) *calltree.CallRecord {
	r := calltree.NewCallRecord(name, "/src/app/file.go", 7, testutil.At(startMS))
	r.Duration = testutil.MS(durationMS)
	r.Children = children
	return r
}

func TestReplay(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	forest := calltree.Forest{
		rec("app.Run", 0, 6,
			rec("app.walk", 1, 2),
		),
		rec("app.flush", 7, 1),
	}
	Replay(context.Background(), tp, "session-1", forest)

	spans := sr.Ended()
	if len(spans) != 4 {
		t.Fatalf("ended spans = %d, want 4", len(spans))
	}
	byName := make(map[string]sdktrace.ReadOnlySpan, len(spans))
	for _, s := range spans {
		byName[s.Name()] = s
	}

	session, ok := byName[SessionSpanName]
	if !ok {
		t.Fatal("session span missing")
	}
	if !session.StartTime().Equal(testutil.At(0)) || !session.EndTime().Equal(testutil.At(8)) {
		t.Fatalf("session span = %v..%v", session.StartTime(), session.EndTime())
	}

	run, walk, flush := byName["app.Run"], byName["app.walk"], byName["app.flush"]
	if run == nil || walk == nil || flush == nil {
		t.Fatalf("record spans missing: %v", byName)
	}
	if run.Parent().SpanID() != session.SpanContext().SpanID() {
		t.Fatal("root record should be a child of the session span")
	}
	if flush.Parent().SpanID() != session.SpanContext().SpanID() {
		t.Fatal("second root should be a child of the session span")
	}
	if walk.Parent().SpanID() != run.SpanContext().SpanID() {
		t.Fatal("walk should be a child of Run")
	}
	if !walk.StartTime().Equal(testutil.At(1)) || !walk.EndTime().Equal(testutil.At(3)) {
		t.Fatalf("walk span = %v..%v", walk.StartTime(), walk.EndTime())
	}

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range walk.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if attrs["code.function"].AsString() != "app.walk" || attrs["code.lineno"].AsInt64() != 7 || attrs["calltrace.count"].AsInt64() != 1 {
		t.Fatalf("walk attributes = %v", attrs)
	}
}
