package leak

import "github.com/Sumatoshi-tech/leakfang/pkg/alg/stats"

// Severity grades the impact of detected memory issues. The five levels
// form a total order; severity is a deterministic function of the
// weighted score, never of any unclamped raw metric.
type Severity int

// Severity levels, lowest to highest.
const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "NONE"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Sub-score weights. Growth and unreleased ratios dominate; fragmentation
// corroborates.
const (
	weightGrowth        = 0.4
	weightUnreleased    = 0.4
	weightFragmentation = 0.2
)

// Weighted-score boundaries between severity levels. The intervals are
// half-open: a score exactly on a boundary takes the higher severity.
const (
	severityLowBound      = 0.2
	severityMediumBound   = 0.4
	severityHighBound     = 0.6
	severityCriticalBound = 0.8
)

// Confidence weights. The allocation-volume term is normalized by an
// explicit scale so confidence does not saturate on the raw count.
const (
	confidencePValueWeight    = 0.6
	confidenceVolumeWeight    = 0.4
	confidenceAllocationScale = 1000.0
)

// EvaluateSeverity maps metrics to a severity level and a confidence
// score in [0, 1]. Deterministic and pure.
func EvaluateSeverity(metrics MemoryMetrics, pValue float64, thresholds Thresholds) (Severity, float64) {
	growthScore := stats.Clamp(metrics.LeakRate/thresholds.GrowthSlope, 0, 1)

	unreleasedScore := 0.0
	if metrics.TotalAllocations > 0 {
		unreleasedScore = stats.Clamp(
			float64(metrics.UnreleasedAllocations)/float64(metrics.TotalAllocations), 0, 1)
	}

	fragmentationScore := stats.Clamp(metrics.FragmentationScore/thresholds.Fragmentation, 0, 1)

	weighted := weightGrowth*growthScore +
		weightUnreleased*unreleasedScore +
		weightFragmentation*fragmentationScore

	volume := stats.Clamp(float64(metrics.TotalAllocations)/confidenceAllocationScale, 0, 1)

	confidence := stats.Clamp(
		confidencePValueWeight*(1-pValue)+confidenceVolumeWeight*volume, 0, 1)

	return severityForScore(weighted), confidence
}

func severityForScore(weighted float64) Severity {
	switch {
	case weighted < severityLowBound:
		return SeverityNone
	case weighted < severityMediumBound:
		return SeverityLow
	case weighted < severityHighBound:
		return SeverityMedium
	case weighted < severityCriticalBound:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}
