package trace

import (
	"time"

	"github.com/Sumatoshi-tech/leakfang/pkg/alg/stats"
)

// ColumnMemoryUsage is the canonical column name of the memory-usage series.
const ColumnMemoryUsage = "Memory Usage"

// MemorySample is one observation of the sampled memory-usage series.
// Usage is in bytes before normalization.
type MemorySample struct {
	Timestamp time.Time
	Usage     float64
}

// MemorySeries is a memory-usage time series ordered by timestamp.
type MemorySeries []MemorySample

// Empty reports whether the series has no samples.
func (s MemorySeries) Empty() bool {
	return len(s) == 0
}

// Points converts the series to the stats series representation.
func (s MemorySeries) Points() []stats.TimePoint {
	points := make([]stats.TimePoint, len(s))

	for i, sample := range s {
		points[i] = stats.TimePoint{Timestamp: sample.Timestamp, Value: sample.Usage}
	}

	return points
}

// Normalize scales the series into [0, 1] by dividing by its own maximum,
// so regression coefficients are comparable across traces of different
// absolute magnitude. The returned scale de-normalizes slope and intercept
// for presentation; it is 1 when the series has no positive values.
func (s MemorySeries) Normalize() (MemorySeries, float64) {
	if s.Empty() {
		return nil, 1
	}

	scale := s[0].Usage
	for _, sample := range s[1:] {
		scale = max(scale, sample.Usage)
	}

	if scale <= 0 {
		scale = 1
	}

	normalized := make(MemorySeries, len(s))

	for i, sample := range s {
		normalized[i] = MemorySample{Timestamp: sample.Timestamp, Usage: sample.Usage / scale}
	}

	return normalized, scale
}
