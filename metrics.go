// Copyright (c) HashiCorp, Inc.

package query

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder observes BoundQuery outcomes. Implementations must be
// safe for concurrent use, since a Schema (and the BoundQuery options
// derived from it) is shared across concurrent requests.
type MetricsRecorder interface {
	// ParseDuration records how long Bind took to parse the advanced query
	// or to compile the simple-form input, tagged with whether it
	// succeeded.
	ParseDuration(ctx context.Context, seconds float64, ok bool)
	// LowerDuration records how long AST-to-backend-predicate lowering
	// took, tagged with whether it succeeded.
	LowerDuration(ctx context.Context, seconds float64, ok bool)
	// FieldErrorCount records how many per-field errors a simple-mode
	// compile accumulated.
	FieldErrorCount(ctx context.Context, count int)
}

// NoopRecorder is the default MetricsRecorder: every call is a no-op.
type NoopRecorder struct{}

func (NoopRecorder) ParseDuration(context.Context, float64, bool) {}
func (NoopRecorder) LowerDuration(context.Context, float64, bool) {}
func (NoopRecorder) FieldErrorCount(context.Context, int)         {}

// otelRecorder is a MetricsRecorder backed by an OpenTelemetry metric.Meter.
// Construct it with NewOtelRecorder and pass it to WithMetrics.
type otelRecorder struct {
	parseDuration   metric.Float64Histogram
	lowerDuration   metric.Float64Histogram
	fieldErrorCount metric.Int64Histogram
}

// NewOtelRecorder builds a MetricsRecorder reporting through meter. The
// instrument names are stable across versions of this package so dashboards
// built against them keep working.
func NewOtelRecorder(meter metric.Meter) (MetricsRecorder, error) {
	parseDuration, err := meter.Float64Histogram(
		"fquery.parse.duration",
		metric.WithDescription("Duration of advanced query parsing or simple-mode compiling, in seconds."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	lowerDuration, err := meter.Float64Histogram(
		"fquery.lower.duration",
		metric.WithDescription("Duration of predicate lowering, in seconds."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	fieldErrorCount, err := meter.Int64Histogram(
		"fquery.simple.field_errors",
		metric.WithDescription("Count of per-field errors accumulated compiling a simple-mode query."),
	)
	if err != nil {
		return nil, err
	}
	return &otelRecorder{
		parseDuration:   parseDuration,
		lowerDuration:   lowerDuration,
		fieldErrorCount: fieldErrorCount,
	}, nil
}

func (r *otelRecorder) ParseDuration(ctx context.Context, seconds float64, ok bool) {
	r.parseDuration.Record(ctx, seconds, metric.WithAttributes(attribute.Bool("ok", ok)))
}

func (r *otelRecorder) LowerDuration(ctx context.Context, seconds float64, ok bool) {
	r.lowerDuration.Record(ctx, seconds, metric.WithAttributes(attribute.Bool("ok", ok)))
}

func (r *otelRecorder) FieldErrorCount(ctx context.Context, count int) {
	r.fieldErrorCount.Record(ctx, int64(count))
}
