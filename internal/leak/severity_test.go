package leak

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateSeverity_Bands(t *testing.T) {
	t.Parallel()

	thresholds := DefaultThresholds()

	tests := []struct {
		name    string
		metrics MemoryMetrics
		want    Severity
	}{
		{
			name:    "no evidence",
			metrics: MemoryMetrics{TotalAllocations: 100},
			want:    SeverityNone,
		},
		{
			// Unreleased ratio 0.5 puts the weighted score exactly on
			// the 0.2 boundary, which rounds up to LOW.
			name:    "boundary rounds up to low",
			metrics: MemoryMetrics{UnreleasedAllocations: 50, TotalAllocations: 100},
			want:    SeverityLow,
		},
		{
			// All allocations unreleased: score exactly 0.4.
			name:    "boundary rounds up to medium",
			metrics: MemoryMetrics{UnreleasedAllocations: 100, TotalAllocations: 100},
			want:    SeverityMedium,
		},
		{
			// Unreleased 0.4 plus saturated fragmentation 0.2: score 0.6.
			name: "boundary rounds up to high",
			metrics: MemoryMetrics{
				UnreleasedAllocations: 100,
				TotalAllocations:      100,
				FragmentationScore:    DefaultFragmentationThreshold,
			},
			want: SeverityHigh,
		},
		{
			// Saturated growth adds the final 0.4: score 0.8.
			name: "boundary rounds up to critical",
			metrics: MemoryMetrics{
				UnreleasedAllocations: 100,
				TotalAllocations:      100,
				LeakRate:              DefaultGrowthSlopeThreshold,
			},
			want: SeverityCritical,
		},
		{
			// Raw ratios above the thresholds clamp to 1 and cannot push
			// the score past its maximum.
			name: "saturated everything",
			metrics: MemoryMetrics{
				UnreleasedAllocations: 500,
				TotalAllocations:      100,
				LeakRate:              10,
				FragmentationScore:    5,
			},
			want: SeverityCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			severity, confidence := EvaluateSeverity(tt.metrics, 0.5, thresholds)

			assert.Equal(t, tt.want, severity)
			assert.GreaterOrEqual(t, confidence, 0.0)
			assert.LessOrEqual(t, confidence, 1.0)
		})
	}
}

func TestEvaluateSeverity_Confidence(t *testing.T) {
	t.Parallel()

	thresholds := DefaultThresholds()

	tests := []struct {
		name    string
		metrics MemoryMetrics
		pValue  float64
		want    float64
	}{
		{
			name:    "certain trend no volume",
			metrics: MemoryMetrics{},
			pValue:  0,
			want:    0.6,
		},
		{
			name:    "certain trend full volume",
			metrics: MemoryMetrics{TotalAllocations: 1000},
			pValue:  0,
			want:    1.0,
		},
		{
			name:    "uncertain trend partial volume",
			metrics: MemoryMetrics{TotalAllocations: 100},
			pValue:  1,
			want:    0.04,
		},
		{
			name:    "volume clamps at scale",
			metrics: MemoryMetrics{TotalAllocations: 50000},
			pValue:  1,
			want:    0.4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, confidence := EvaluateSeverity(tt.metrics, tt.pValue, thresholds)

			assert.InDelta(t, tt.want, confidence, floatDelta)
		})
	}
}

func TestEvaluateSeverity_ZeroAllocations(t *testing.T) {
	t.Parallel()

	severity, confidence := EvaluateSeverity(MemoryMetrics{}, 1, DefaultThresholds())

	assert.Equal(t, SeverityNone, severity)
	assert.Zero(t, confidence)
}

func TestSeverity_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "NONE", SeverityNone.String())
	assert.Equal(t, "LOW", SeverityLow.String())
	assert.Equal(t, "MEDIUM", SeverityMedium.String())
	assert.Equal(t, "HIGH", SeverityHigh.String())
	assert.Equal(t, "CRITICAL", SeverityCritical.String())
	assert.Equal(t, "UNKNOWN", Severity(99).String())
}
