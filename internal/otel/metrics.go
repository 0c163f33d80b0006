package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "vibe-voice"

// Metrics holds all OTEL metric instruments for vibe-voice.
// All counters are cumulative (monotonic) and safe for concurrent use.
type Metrics struct {
	// Pane resolution (partitioned by outcome and match signal)
	Resolutions metric.Int64Counter

	// Keystroke injection (partitioned by outcome)
	Injections metric.Int64Counter

	// Transcription counters and latency (partitioned by backend + outcome)
	Transcriptions        metric.Int64Counter
	TranscriptionDuration metric.Float64Histogram

	// Transcript refinement (partitioned by provider + outcome)
	Refinements metric.Int64Counter

	// HTTP server latency
	HTTPRequestDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Resolutions, err = meter.Int64Counter("resolutions.total",
		metric.WithDescription("Assistant pane resolutions partitioned by outcome (found, not_found, no_session, error)"))
	if err != nil {
		return nil, err
	}

	m.Injections, err = meter.Int64Counter("injections.total",
		metric.WithDescription("Keystroke injections partitioned by outcome (ok, error)"))
	if err != nil {
		return nil, err
	}

	m.Transcriptions, err = meter.Int64Counter("transcriptions.total",
		metric.WithDescription("Audio transcriptions partitioned by backend and outcome"))
	if err != nil {
		return nil, err
	}

	m.TranscriptionDuration, err = meter.Float64Histogram("transcription.duration",
		metric.WithDescription("Wall-clock time spent in the transcription engine"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.Refinements, err = meter.Int64Counter("refinements.total",
		metric.WithDescription("LLM transcript refinements partitioned by provider and outcome"))
	if err != nil {
		return nil, err
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordResolution records a pane resolution. match is empty unless a pane was found.
func (m *Metrics) RecordResolution(ctx context.Context, outcome, match string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("resolve.outcome", outcome)}
	if match != "" {
		attrs = append(attrs, attribute.String("resolve.match", match))
	}
	m.Resolutions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordInjection records a keystroke injection.
func (m *Metrics) RecordInjection(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	m.Injections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("inject.outcome", okOutcome(ok)),
	))
}

// RecordTranscription records a transcription and its duration in seconds.
func (m *Metrics) RecordTranscription(ctx context.Context, backend string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("transcribe.backend", backend),
		attribute.String("transcribe.outcome", okOutcome(ok)),
	)
	m.Transcriptions.Add(ctx, 1, attrs)
	m.TranscriptionDuration.Record(ctx, seconds, attrs)
}

// RecordRefinement records an LLM refinement attempt.
func (m *Metrics) RecordRefinement(ctx context.Context, provider string, ok bool) {
	if m == nil {
		return
	}
	m.Refinements.Add(ctx, 1, metric.WithAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("refine.outcome", okOutcome(ok)),
	))
}

// RecordHTTPRequest records the latency of a served request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.response.status_code", status),
	))
}

func okOutcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
