package leak

import "time"

// MemoryMetrics is the fixed-shape aggregate produced once per analysis
// run. All fields are plain values; nothing mutates after construction.
type MemoryMetrics struct {
	UnreleasedAllocations int `json:"unreleased_allocations"`
	TotalAllocations      int `json:"total_allocations"`

	// LeakRate is the systematic growth rate in normalized
	// usage-units per second; 0 when growth is not significant.
	LeakRate float64 `json:"leak_rate"`

	AvgAllocationSize float64 `json:"avg_allocation_size"`

	// MaxGrowthDuration is the longest wall-clock span over which the
	// rolling mean increased strictly sample-over-sample.
	MaxGrowthDuration time.Duration `json:"max_growth_duration"`

	// FragmentationScore is the ratio of unreleased to tracked
	// allocations, in [0, 1].
	FragmentationScore float64 `json:"fragmentation_score"`

	RegressionSlope     float64 `json:"regression_slope"`
	RegressionIntercept float64 `json:"regression_intercept"`
}

// ComputeMetrics folds the three analyses into one MemoryMetrics record.
// Pure function, no I/O.
func ComputeMetrics(lifecycles []Allocation, trend Trend, patterns AllocationPatterns) MemoryMetrics {
	unreleased := CountUnreleased(lifecycles)

	fragmentation := 0.0
	if len(lifecycles) > 0 {
		fragmentation = float64(unreleased) / float64(len(lifecycles))
	}

	return MemoryMetrics{
		UnreleasedAllocations: unreleased,
		TotalAllocations:      patterns.TotalAllocations,
		LeakRate:              trend.GrowthRate,
		AvgAllocationSize:     patterns.MeanSize,
		MaxGrowthDuration:     maxGrowthDuration(trend),
		FragmentationScore:    fragmentation,
		RegressionSlope:       trend.Slope,
		RegressionIntercept:   trend.Intercept,
	}
}

// maxGrowthDuration scans the rolling-mean series for maximal runs of
// samples that strictly increase over their predecessor and returns the
// longest wall-clock span among them. A run of a single increasing sample
// spans zero. Ties keep the first run encountered; only the duration is
// retained, never run identity.
func maxGrowthDuration(trend Trend) time.Duration {
	series := trend.RollingMean

	var longest time.Duration

	runStart := -1

	for i := 1; i < len(series); i++ {
		increasing := series[i].Value > series[i-1].Value

		if increasing && runStart < 0 {
			runStart = i
		}

		if !increasing && runStart >= 0 {
			longest = max(longest, series[i-1].Timestamp.Sub(series[runStart].Timestamp))
			runStart = -1
		}
	}

	if runStart >= 0 {
		longest = max(longest, series[len(series)-1].Timestamp.Sub(series[runStart].Timestamp))
	}

	return longest
}
