package leak

import (
	"context"
	"log/slog"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/leakfang/internal/trace"
	"github.com/Sumatoshi-tech/leakfang/pkg/observability"
)

// Result is the terminal artifact of one analysis run. It is produced
// once per invocation and never mutated; presentation collaborators
// consume it read-only.
type Result struct {
	Severity   Severity      `json:"severity"`
	Confidence float64       `json:"confidence"`
	Metrics    MemoryMetrics `json:"metrics"`
	Findings   []Finding     `json:"findings"`
	Suspects   []Suspect     `json:"suspects"`

	// Lifecycles is the full lifecycle table, returned explicitly so
	// callers can feed it to anything needing it (lifetime histograms)
	// without the engine holding hidden mutable state.
	Lifecycles []Allocation `json:"-"`

	// Trend carries the regression and rolling series for presentation
	// (trend lines, de-normalization via Trend.Scale).
	Trend Trend `json:"trend"`
}

// Deps are the analyzer's ambient collaborators. Zero values are usable:
// a nil logger discards, a nil tracer records nothing, nil metrics no-op.
type Deps struct {
	Logger  *slog.Logger
	Tracer  oteltrace.Tracer
	Metrics *observability.EngineMetrics
}

// Analyzer diagnoses memory leaks from a recorded trace: an event log of
// allocations/deallocations and a sampled memory-usage series.
//
// The whole analysis is a single-pass batch computation over materialized
// tables. Analyzer holds no per-run state, so concurrent Analyze calls
// with independent inputs are safe.
type Analyzer struct {
	logger  *slog.Logger
	tracer  oteltrace.Tracer
	metrics *observability.EngineMetrics
}

// NewAnalyzer creates an analyzer with the given dependencies.
func NewAnalyzer(deps Deps) *Analyzer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("leak")
	}

	return &Analyzer{
		logger:  logger,
		tracer:  tracer,
		metrics: deps.Metrics,
	}
}

// Analyze runs the full leak diagnosis over the given tables with the
// given run-scoped thresholds.
//
// Missing or empty inputs are not errors: the analysis yields a neutral
// result (severity NONE, confidence 0, all-zero metrics, empty pattern
// and suspect lists). Callers always receive a result object for the
// no-data case. The only error condition is invalid thresholds.
func (a *Analyzer) Analyze(
	ctx context.Context,
	events trace.EventTable,
	memory trace.MemorySeries,
	thresholds Thresholds,
) (*Result, error) {
	err := thresholds.Validate()
	if err != nil {
		return nil, err
	}

	start := time.Now()

	ctx, span := a.tracer.Start(ctx, "leak.analyze")
	defer span.End()

	classified := a.classify(ctx, events)

	if len(classified) == 0 || memory.Empty() {
		a.logger.WarnContext(ctx, "insufficient data for memory leak analysis",
			"events", len(classified), "memory_samples", len(memory))

		result := neutralResult()
		a.metrics.RecordAnalysis(ctx, result.Severity.String(), 0, time.Since(start))

		return result, nil
	}

	lifecycles := a.track(ctx, classified)
	trend := a.analyzeTrend(ctx, memory, thresholds.WindowSize)
	patterns := a.analyzePatterns(ctx, classified, thresholds.WindowSize)

	metrics := ComputeMetrics(lifecycles, trend, patterns)
	severity, confidence := EvaluateSeverity(metrics, trend.PValue, thresholds)
	suspects := RankSuspects(lifecycles, classified)
	findings := DetectFindings(trend, patterns)

	a.logger.InfoContext(ctx, "memory leak analysis complete",
		"severity", severity.String(),
		"confidence", confidence,
		"unreleased", metrics.UnreleasedAllocations,
		"total", metrics.TotalAllocations)

	a.metrics.RecordAnalysis(ctx, severity.String(), int64(len(classified)), time.Since(start))

	return &Result{
		Severity:   severity,
		Confidence: confidence,
		Metrics:    metrics,
		Findings:   findings,
		Suspects:   suspects,
		Lifecycles: lifecycles,
		Trend:      trend,
	}, nil
}

func (a *Analyzer) classify(ctx context.Context, events trace.EventTable) []trace.Event {
	_, span := a.tracer.Start(ctx, "leak.classify")
	defer span.End()

	return trace.Classify(events, a.logger)
}

func (a *Analyzer) track(ctx context.Context, events []trace.Event) []Allocation {
	_, span := a.tracer.Start(ctx, "leak.lifecycle")
	defer span.End()

	return TrackLifecycles(events, a.logger)
}

func (a *Analyzer) analyzeTrend(ctx context.Context, memory trace.MemorySeries, window time.Duration) Trend {
	_, span := a.tracer.Start(ctx, "leak.trend")
	defer span.End()

	return AnalyzeTrend(memory, window)
}

func (a *Analyzer) analyzePatterns(ctx context.Context, events []trace.Event, window time.Duration) AllocationPatterns {
	_, span := a.tracer.Start(ctx, "leak.patterns")
	defer span.End()

	return AnalyzePatterns(events, window, a.logger)
}

func neutralResult() *Result {
	return &Result{
		Severity: SeverityNone,
		Trend:    Trend{PValue: 1, Scale: 1},
	}
}
