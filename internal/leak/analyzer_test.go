package leak

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/leakfang/internal/trace"
)

const floatDelta = 0.0001

var testBase = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func eventColumns() []string {
	return []string{trace.ColumnEventType, trace.ColumnSize, trace.ColumnPtr}
}

func eventRow(at time.Time, eventType, size, ptr string) trace.Row {
	return trace.Row{
		Timestamp: at,
		Fields: map[string]string{
			trace.ColumnEventType: eventType,
			trace.ColumnSize:      size,
			trace.ColumnPtr:       ptr,
		},
	}
}

// leakingTrace builds a table of 100 malloc events of 1024 bytes with
// distinct pointers and no matching frees.
func leakingTrace() trace.EventTable {
	rows := make([]trace.Row, 0, 100)

	for i := range 100 {
		at := testBase.Add(time.Duration(i) * 10 * time.Millisecond)
		rows = append(rows, eventRow(at, "memtrace:malloc", "1024", fmt.Sprintf("0x%x", 0x1000+i)))
	}

	return trace.EventTable{Columns: eventColumns(), Rows: rows}
}

// balancedTrace builds a table where every malloc is matched by a free.
func balancedTrace() trace.EventTable {
	rows := make([]trace.Row, 0, 100)

	for i := range 50 {
		ptr := fmt.Sprintf("0x%x", 0x2000+i)
		allocAt := testBase.Add(time.Duration(i) * 10 * time.Millisecond)
		freeAt := allocAt.Add(5 * time.Millisecond)

		rows = append(rows, eventRow(allocAt, "memtrace:malloc", "512", ptr))
		rows = append(rows, eventRow(freeAt, "memtrace:free", "512", ptr))
	}

	return trace.EventTable{Columns: eventColumns(), Rows: rows}
}

func risingMemory() trace.MemorySeries {
	series := make(trace.MemorySeries, 0, 50)

	for i := range 50 {
		series = append(series, trace.MemorySample{
			Timestamp: testBase.Add(time.Duration(i) * time.Second),
			Usage:     1000 + 100*float64(i),
		})
	}

	return series
}

func flatMemory() trace.MemorySeries {
	series := make(trace.MemorySeries, 0, 50)

	for i := range 50 {
		series = append(series, trace.MemorySample{
			Timestamp: testBase.Add(time.Duration(i) * time.Second),
			Usage:     4096,
		})
	}

	return series
}

func TestAnalyze_LeakingWorkload(t *testing.T) {
	t.Parallel()

	analyzer := NewAnalyzer(Deps{Logger: discardLogger()})

	result, err := analyzer.Analyze(context.Background(), leakingTrace(), risingMemory(), DefaultThresholds())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.Severity, SeverityHigh)
	assert.Equal(t, 100, result.Metrics.UnreleasedAllocations)
	assert.Equal(t, 100, result.Metrics.TotalAllocations)
	assert.InDelta(t, 1.0, result.Metrics.FragmentationScore, floatDelta)
	assert.InDelta(t, 1024.0, result.Metrics.AvgAllocationSize, floatDelta)
	assert.Positive(t, result.Metrics.LeakRate)

	assert.True(t, result.Trend.Significant)
	assert.Greater(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 1.0)

	kinds := make([]FindingKind, 0, len(result.Findings))
	for _, f := range result.Findings {
		kinds = append(kinds, f.Kind)
	}

	assert.Contains(t, kinds, FindingSystematicGrowth)

	require.Len(t, result.Suspects, 100)
	assert.InDelta(t, 1024.0, result.Suspects[0].TotalBytes, floatDelta)
}

func TestAnalyze_BalancedWorkload(t *testing.T) {
	t.Parallel()

	analyzer := NewAnalyzer(Deps{Logger: discardLogger()})

	result, err := analyzer.Analyze(context.Background(), balancedTrace(), flatMemory(), DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, SeverityNone, result.Severity)
	assert.Zero(t, result.Metrics.UnreleasedAllocations)
	assert.Equal(t, 50, result.Metrics.TotalAllocations)
	assert.Zero(t, result.Metrics.FragmentationScore)
	assert.Zero(t, result.Metrics.LeakRate)
	assert.False(t, result.Trend.Significant)
	assert.Empty(t, result.Suspects)
}

func TestAnalyze_MissingSizeColumn(t *testing.T) {
	t.Parallel()

	table := trace.EventTable{
		Columns: []string{trace.ColumnEventType, trace.ColumnPtr},
		Rows: []trace.Row{
			{
				Timestamp: testBase,
				Fields: map[string]string{
					trace.ColumnEventType: "memtrace:malloc",
					trace.ColumnPtr:       "0x1000",
				},
			},
		},
	}

	analyzer := NewAnalyzer(Deps{Logger: discardLogger()})

	result, err := analyzer.Analyze(context.Background(), table, risingMemory(), DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, SeverityNone, result.Severity)
	assert.Zero(t, result.Confidence)
	assert.Zero(t, result.Metrics)
	assert.Empty(t, result.Findings)
	assert.Empty(t, result.Suspects)
	assert.Empty(t, result.Lifecycles)
}

func TestAnalyze_EmptyMemorySeries(t *testing.T) {
	t.Parallel()

	analyzer := NewAnalyzer(Deps{Logger: discardLogger()})

	result, err := analyzer.Analyze(context.Background(), leakingTrace(), nil, DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, SeverityNone, result.Severity)
	assert.Zero(t, result.Confidence)
	assert.Zero(t, result.Metrics)
}

func TestAnalyze_InvalidThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		thresholds Thresholds
		wantErr    error
	}{
		{
			name:       "zero window",
			thresholds: Thresholds{WindowSize: 0, Fragmentation: 0.7, GrowthSlope: 0.5},
			wantErr:    ErrInvalidWindowSize,
		},
		{
			name:       "zero fragmentation",
			thresholds: Thresholds{WindowSize: time.Second, Fragmentation: 0, GrowthSlope: 0.5},
			wantErr:    ErrInvalidFragmentationThreshold,
		},
		{
			name:       "negative growth slope",
			thresholds: Thresholds{WindowSize: time.Second, Fragmentation: 0.7, GrowthSlope: -1},
			wantErr:    ErrInvalidGrowthSlopeThreshold,
		},
	}

	analyzer := NewAnalyzer(Deps{Logger: discardLogger()})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := analyzer.Analyze(context.Background(), leakingTrace(), risingMemory(), tt.thresholds)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
		})
	}
}

// TestAnalyze_Idempotent verifies that repeated runs over the same inputs
// produce bit-identical results.
func TestAnalyze_Idempotent(t *testing.T) {
	t.Parallel()

	analyzer := NewAnalyzer(Deps{Logger: discardLogger()})

	events := leakingTrace()
	memory := risingMemory()

	first, err := analyzer.Analyze(context.Background(), events, memory, DefaultThresholds())
	require.NoError(t, err)

	second, err := analyzer.Analyze(context.Background(), events, memory, DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNewAnalyzer_NilDeps(t *testing.T) {
	t.Parallel()

	analyzer := NewAnalyzer(Deps{})

	result, err := analyzer.Analyze(context.Background(), leakingTrace(), risingMemory(), DefaultThresholds())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Severity, SeverityHigh)
}
