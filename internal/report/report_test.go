package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/leakfang/internal/leak"
	"github.com/Sumatoshi-tech/leakfang/internal/trace"
	"github.com/Sumatoshi-tech/leakfang/pkg/alg/stats"
)

var testBase = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

func sampleResult() *leak.Result {
	return &leak.Result{
		Severity:   leak.SeverityHigh,
		Confidence: 0.64,
		Metrics: leak.MemoryMetrics{
			UnreleasedAllocations: 100,
			TotalAllocations:      100,
			LeakRate:              0.01,
			AvgAllocationSize:     1024,
			FragmentationScore:    1.0,
			MaxGrowthDuration:     49 * time.Second,
		},
		Findings: []leak.Finding{
			{Kind: leak.FindingSystematicGrowth, GrowthRate: 1024},
		},
		Suspects: []leak.Suspect{
			{Ptr: "0x2000", TotalBytes: 4096, AllocationCount: 1, EventType: "memtrace:malloc"},
			{Ptr: "0x1000", TotalBytes: 1024, AllocationCount: 1, EventType: "memtrace:malloc"},
		},
		Lifecycles: []leak.Allocation{
			{Ptr: "0x3000", Released: true, Lifetime: 2 * time.Second},
			{Ptr: "0x1000"},
		},
		Trend: leak.Trend{
			Slope:       0.01,
			GrowthRate:  0.01,
			Significant: true,
			Scale:       102400,
			RollingMean: []stats.TimePoint{
				{Timestamp: testBase, Value: 0.5},
				{Timestamp: testBase.Add(time.Second), Value: 0.6},
			},
		},
	}
}

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	renderer := NewRenderer(Options{TopSuspects: 10, NoColor: true, Label: "nightly"})
	require.NoError(t, renderer.Render(&buf, sampleResult()))

	out := buf.String()

	assert.Contains(t, out, "Trace: nightly")
	assert.Contains(t, out, "Severity:   HIGH")
	assert.Contains(t, out, "Confidence: 64%")
	assert.Contains(t, out, "Unreleased allocations")
	assert.Contains(t, out, "1.0 KiB")
	assert.Contains(t, out, "Systematic memory growth detected")
	assert.Contains(t, out, "0x2000")
	assert.Contains(t, out, "Released lifetimes: median 2s, max 2s over 1 allocations")
}

func TestRenderer_TruncatesSuspects(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	renderer := NewRenderer(Options{TopSuspects: 1, NoColor: true})
	require.NoError(t, renderer.Render(&buf, sampleResult()))

	out := buf.String()

	assert.Contains(t, out, "0x2000")
	assert.NotContains(t, out, "0x1000")
	assert.Contains(t, out, "... and 1 more")
}

func TestRenderer_NeutralResult(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	result := &leak.Result{Severity: leak.SeverityNone, Trend: leak.Trend{Scale: 1, PValue: 1}}

	renderer := NewRenderer(Options{NoColor: true})
	require.NoError(t, renderer.Render(&buf, result))

	out := buf.String()

	assert.Contains(t, out, "Severity:   NONE")
	assert.Contains(t, out, "No suspicious patterns detected.")
	assert.NotContains(t, out, "Released lifetimes")
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, RenderJSON(&buf, sampleResult(), "nightly"))

	var doc map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "HIGH", doc["severity"])
	assert.Equal(t, "nightly", doc["label"])
	assert.InDelta(t, 0.64, doc["confidence"], 0.0001)

	findings, ok := doc["findings"].([]any)
	require.True(t, ok)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0], "Systematic memory growth")

	metrics, ok := doc["metrics"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 100.0, metrics["total_allocations"], 0.0001)
}

func TestRenderPlot(t *testing.T) {
	t.Parallel()

	memory := trace.MemorySeries{
		{Timestamp: testBase, Usage: 51200},
		{Timestamp: testBase.Add(time.Second), Usage: 61440},
		{Timestamp: testBase.Add(2 * time.Second), Usage: 102400},
	}

	var buf bytes.Buffer

	require.NoError(t, RenderPlot(&buf, memory, sampleResult(), "nightly"))

	out := buf.String()

	assert.Contains(t, out, "Rolling mean")
	assert.Contains(t, out, "Trend")
	assert.Contains(t, out, "nightly")
}

func TestRenderPlot_EmptySeries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, RenderPlot(&buf, nil, sampleResult(), ""))
	assert.Zero(t, buf.Len())
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0 B", formatBytes(0))
	assert.Equal(t, "1.0 KiB", formatBytes(1024))
	assert.Equal(t, "none", formatRate(0))
	assert.Equal(t, "4.0 KiB/s", formatRate(4096))
}
