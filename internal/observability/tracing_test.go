package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"reelpress/internal/config"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestInitTracingNoneIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.Tracing{Exporter: "none"}, "reelpress")
	if err != nil {
		t.Fatalf("InitTracing failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	if _, err := InitTracing(context.Background(), config.Tracing{Exporter: "zipkin"}, "reelpress"); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

func TestEndSpanRecordsError(t *testing.T) {
	recorder := installRecorder(t)
	_, span := StartSpan(context.Background(), "transcription.handle")
	EndSpan(span, errors.New("boom"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "transcription.handle" {
		t.Fatalf("unexpected span name %q", spans[0].Name())
	}
	if len(spans[0].Events()) == 0 {
		t.Fatal("expected recorded error event")
	}
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	recorder := installRecorder(t)
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnsupportedMediaType)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/skill", nil))

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if rec.Header().Get("X-Trace-ID") == "" {
		t.Fatal("expected trace id header")
	}
	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	found := false
	for _, attr := range spans[0].Attributes() {
		if string(attr.Key) == "http.status_code" && attr.Value.AsInt64() == 415 {
			found = true
		}
	}
	if !found {
		t.Fatalf("status attribute missing: %v", spans[0].Attributes())
	}
}
