package stats

import "time"

// TimePoint is a single observation in a timestamped series.
type TimePoint struct {
	Timestamp time.Time
	Value     float64
}

// Values extracts the value column of a series.
func Values(points []TimePoint) []float64 {
	values := make([]float64, len(points))

	for i, p := range points {
		values[i] = p.Value
	}

	return values
}

// RollingMean computes a trailing time-windowed rolling mean over points,
// which must be ordered by timestamp. For each point i, the window covers
// every point j with timestamp in (t_i − window, t_i].
func RollingMean(points []TimePoint, window time.Duration) []TimePoint {
	return rollingApply(points, window, Mean)
}

// RollingStdDev computes a trailing time-windowed rolling sample standard
// deviation over points, which must be ordered by timestamp. Windows holding
// fewer than two points yield 0.
func RollingStdDev(points []TimePoint, window time.Duration) []TimePoint {
	return rollingApply(points, window, SampleStdDev)
}

func rollingApply(points []TimePoint, window time.Duration, fn func([]float64) float64) []TimePoint {
	count := len(points)
	if count == 0 {
		return nil
	}

	out := make([]TimePoint, count)
	values := Values(points)

	start := 0

	for i := range count {
		cutoff := points[i].Timestamp.Add(-window)

		for !points[start].Timestamp.After(cutoff) {
			start++
		}

		out[i] = TimePoint{
			Timestamp: points[i].Timestamp,
			Value:     fn(values[start : i+1]),
		}
	}

	return out
}
