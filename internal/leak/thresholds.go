// Package leak implements the memory-leak analysis engine: pointer-lifecycle
// reconstruction, growth-trend detection, allocation-pattern statistics, and
// the severity verdict combining them.
package leak

import (
	"errors"
	"time"
)

// Sentinel threshold validation errors.
var (
	ErrInvalidWindowSize             = errors.New("leak: window size must be positive")
	ErrInvalidFragmentationThreshold = errors.New("leak: fragmentation threshold must be positive")
	ErrInvalidGrowthSlopeThreshold   = errors.New("leak: growth slope threshold must be positive")
)

// Default threshold values.
const (
	DefaultWindowSize             = time.Second
	DefaultFragmentationThreshold = 0.7
	DefaultGrowthSlopeThreshold   = 0.5
)

// Thresholds is the run-scoped engine configuration. It is snapshotted at
// the start of each Analyze call and never mutated mid-run.
type Thresholds struct {
	// WindowSize is the duration used for rolling statistics and
	// allocation-frequency bucketing.
	WindowSize time.Duration

	// Fragmentation is the fragmentation-score threshold (unitless ratio).
	Fragmentation float64

	// GrowthSlope is the growth-slope threshold in normalized
	// usage-units per second.
	GrowthSlope float64
}

// DefaultThresholds returns the engine defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WindowSize:    DefaultWindowSize,
		Fragmentation: DefaultFragmentationThreshold,
		GrowthSlope:   DefaultGrowthSlopeThreshold,
	}
}

// Validate checks the thresholds at construction time.
func (t Thresholds) Validate() error {
	if t.WindowSize <= 0 {
		return ErrInvalidWindowSize
	}

	if t.Fragmentation <= 0 {
		return ErrInvalidFragmentationThreshold
	}

	if t.GrowthSlope <= 0 {
		return ErrInvalidGrowthSlopeThreshold
	}

	return nil
}
