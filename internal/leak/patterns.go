package leak

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/leakfang/pkg/alg/stats"
)

// FindingKind tags a detected memory pattern. Findings carry parameters
// instead of pre-formatted text so presentation can format independently.
type FindingKind int

// Finding kinds. Each is evaluated independently; findings are not
// mutually exclusive.
const (
	// FindingSystematicGrowth: the usage trend is statistically
	// significant with a positive slope.
	FindingSystematicGrowth FindingKind = iota

	// FindingIrregularAllocation: the allocation-frequency series is
	// more dispersed than its mean.
	FindingIrregularAllocation

	// FindingHighVolatility: rolling usage deviation exceeds 10% of the
	// rolling usage mean.
	FindingHighVolatility
)

// volatilityRatio is the rolling-std to rolling-mean ratio above which
// usage counts as volatile.
const volatilityRatio = 0.1

// Finding is a single detected pattern.
type Finding struct {
	Kind FindingKind `json:"kind"`

	// GrowthRate is the de-normalized growth rate in bytes per second.
	// Set only for FindingSystematicGrowth.
	GrowthRate float64 `json:"growth_rate,omitempty"`
}

// String renders the finding as a short human-readable sentence.
func (f Finding) String() string {
	switch f.Kind {
	case FindingSystematicGrowth:
		rate := humanize.IBytes(uint64(math.Round(math.Abs(f.GrowthRate))))

		return fmt.Sprintf("Systematic memory growth detected: %s/s", rate)
	case FindingIrregularAllocation:
		return "Irregular allocation pattern detected"
	case FindingHighVolatility:
		return "High memory usage volatility detected"
	default:
		return "Unknown pattern"
	}
}

// DetectFindings evaluates every pattern predicate against the trend and
// allocation-pattern analyses. Zero findings is a normal outcome.
func DetectFindings(trend Trend, patterns AllocationPatterns) []Finding {
	var findings []Finding

	if trend.Significant && trend.Slope > 0 {
		findings = append(findings, Finding{
			Kind:       FindingSystematicGrowth,
			GrowthRate: trend.GrowthRate * trend.Scale,
		})
	}

	frequencies := stats.Values(patterns.Frequency)
	if stats.SampleStdDev(frequencies) > stats.Mean(frequencies) {
		findings = append(findings, Finding{Kind: FindingIrregularAllocation})
	}

	rollingStdMean := stats.Mean(stats.Values(trend.RollingStd))
	rollingMeanMean := stats.Mean(stats.Values(trend.RollingMean))

	if rollingStdMean > rollingMeanMean*volatilityRatio {
		findings = append(findings, Finding{Kind: FindingHighVolatility})
	}

	return findings
}
