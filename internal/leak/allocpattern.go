package leak

import (
	"log/slog"
	"time"

	"github.com/Sumatoshi-tech/leakfang/internal/trace"
	"github.com/Sumatoshi-tech/leakfang/pkg/alg/stats"
)

// AllocationPatterns characterizes the shape of allocation activity
// independent of pointer lifetimes.
type AllocationPatterns struct {
	// Frequency counts allocation events per fixed-duration window,
	// anchored at the first allocation. Empty interior windows count 0.
	Frequency []stats.TimePoint `json:"-"`

	MeanSize      float64 `json:"mean_size"`
	MedianSize    float64 `json:"median_size"`
	SizeStdDev    float64 `json:"size_std_dev"`
	DistinctSizes int     `json:"distinct_sizes"`

	// MissingSizes counts allocations whose size failed to parse.
	// A nonzero count signals potential trace corruption; it is logged
	// but never fatal.
	MissingSizes int `json:"missing_sizes"`

	TotalAllocations int `json:"total_allocations"`
}

// AnalyzePatterns buckets allocation events into fixed windows and computes
// descriptive statistics over allocation sizes, ignoring missing values.
func AnalyzePatterns(events []trace.Event, window time.Duration, logger *slog.Logger) AllocationPatterns {
	allocations := trace.Allocations(events)
	if len(allocations) == 0 {
		logger.Warn("no allocation events available for pattern analysis")

		return AllocationPatterns{}
	}

	var sizes []float64

	missing := 0

	for _, e := range allocations {
		if e.SizeValid {
			sizes = append(sizes, e.Size)
		} else {
			missing++
		}
	}

	if missing > 0 {
		logger.Warn("allocations with missing size; possible trace corruption",
			"count", missing)
	}

	return AllocationPatterns{
		Frequency:        bucketFrequency(allocations, window),
		MeanSize:         stats.Mean(sizes),
		MedianSize:       stats.Median(sizes),
		SizeStdDev:       stats.SampleStdDev(sizes),
		DistinctSizes:    stats.DistinctCount(sizes),
		MissingSizes:     missing,
		TotalAllocations: len(allocations),
	}
}

// bucketFrequency counts events per window of the given duration. Buckets
// between the first and last event are materialized even when empty so the
// frequency series reflects quiet periods.
func bucketFrequency(events []trace.Event, window time.Duration) []stats.TimePoint {
	start := events[0].Timestamp
	last := events[0].Timestamp

	for _, e := range events[1:] {
		if e.Timestamp.Before(start) {
			start = e.Timestamp
		}

		if e.Timestamp.After(last) {
			last = e.Timestamp
		}
	}

	bucketCount := int(last.Sub(start)/window) + 1
	counts := make([]float64, bucketCount)

	for _, e := range events {
		idx := int(e.Timestamp.Sub(start) / window)
		counts[idx]++
	}

	frequency := make([]stats.TimePoint, bucketCount)

	for i, count := range counts {
		frequency[i] = stats.TimePoint{
			Timestamp: start.Add(time.Duration(i) * window),
			Value:     count,
		}
	}

	return frequency
}
