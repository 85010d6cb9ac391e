package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricAnalysesTotal    = "leakfang.analyses.total"
	metricAnalysisDuration = "leakfang.analysis.duration.seconds"
	metricEventsTotal      = "leakfang.analysis.events.total"

	attrSeverity = "severity"
)

// durationBucketBoundaries covers 10ms to 600s: traces range from tiny
// fixtures to multi-gigabyte event logs.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// EngineMetrics holds OTel instruments for leak-analysis runs.
type EngineMetrics struct {
	analysesTotal    metric.Int64Counter
	analysisDuration metric.Float64Histogram
	eventsTotal      metric.Int64Counter
}

// NewEngineMetrics creates engine metric instruments from the given meter.
func NewEngineMetrics(mt metric.Meter) (*EngineMetrics, error) {
	analyses, err := mt.Int64Counter(metricAnalysesTotal,
		metric.WithDescription("Completed leak analyses by verdict severity"),
		metric.WithUnit("{analysis}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricAnalysesTotal, err)
	}

	duration, err := mt.Float64Histogram(metricAnalysisDuration,
		metric.WithDescription("Full analysis duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricAnalysisDuration, err)
	}

	events, err := mt.Int64Counter(metricEventsTotal,
		metric.WithDescription("Classified memory events processed"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricEventsTotal, err)
	}

	return &EngineMetrics{
		analysesTotal:    analyses,
		analysisDuration: duration,
		eventsTotal:      events,
	}, nil
}

// RecordAnalysis records a completed analysis run.
// Safe to call on a nil receiver (no-op).
func (em *EngineMetrics) RecordAnalysis(ctx context.Context, severity string, events int64, duration time.Duration) {
	if em == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrSeverity, severity))

	em.analysesTotal.Add(ctx, 1, attrs)
	em.analysisDuration.Record(ctx, duration.Seconds())
	em.eventsTotal.Add(ctx, events)
}
