package leak

import (
	"time"

	"github.com/Sumatoshi-tech/leakfang/internal/trace"
	"github.com/Sumatoshi-tech/leakfang/pkg/alg/stats"
)

// SignificanceLevel is the p-value below which memory growth is treated
// as statistically significant rather than noise.
const SignificanceLevel = 0.05

// Trend quantifies systematic memory growth. Slope, Intercept, and
// GrowthRate are in normalized usage-units per second; multiply by Scale
// to recover bytes.
type Trend struct {
	Slope       float64 `json:"slope"`
	Intercept   float64 `json:"intercept"`
	RSquared    float64 `json:"r_squared"`
	PValue      float64 `json:"p_value"`
	GrowthRate  float64 `json:"growth_rate"`
	Significant bool    `json:"significant"`

	// Scale is the max-normalization factor of the input series,
	// remembered so presentation can de-normalize coefficients.
	Scale float64 `json:"scale"`

	RollingMean []stats.TimePoint `json:"-"`
	RollingStd  []stats.TimePoint `json:"-"`
}

// AnalyzeTrend regresses memory usage against elapsed seconds and computes
// time-windowed rolling statistics over the configured window.
//
// The series is scaled to [0, 1] by its own maximum before regression. A
// series with a single sample or zero variance does not fault the
// regression: growth rate is 0 and the trend is not significant.
func AnalyzeTrend(series trace.MemorySeries, window time.Duration) Trend {
	if series.Empty() {
		return Trend{PValue: 1, Scale: 1}
	}

	normalized, scale := series.Normalize()

	elapsed := make([]float64, len(normalized))
	usage := make([]float64, len(normalized))

	start := normalized[0].Timestamp

	for i, sample := range normalized {
		elapsed[i] = sample.Timestamp.Sub(start).Seconds()
		usage[i] = sample.Usage
	}

	reg := stats.Linregress(elapsed, usage)

	significant := reg.PValue < SignificanceLevel

	growthRate := 0.0
	if significant && reg.Slope > 0 {
		growthRate = reg.Slope
	}

	points := normalized.Points()

	return Trend{
		Slope:       reg.Slope,
		Intercept:   reg.Intercept,
		RSquared:    reg.RSquared(),
		PValue:      reg.PValue,
		GrowthRate:  growthRate,
		Significant: significant,
		Scale:       scale,
		RollingMean: stats.RollingMean(points, window),
		RollingStd:  stats.RollingStdDev(points, window),
	}
}
