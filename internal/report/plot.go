package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/leakfang/internal/leak"
	"github.com/Sumatoshi-tech/leakfang/internal/trace"
)

const (
	plotLineWidth  = 2
	plotTimeFormat = "15:04:05.000"
)

// RenderPlot writes an HTML chart of the memory-usage series with the
// rolling mean and the fitted trend line overlaid. Usage values are in
// bytes; trend coefficients are de-normalized via Trend.Scale.
func RenderPlot(w io.Writer, memory trace.MemorySeries, result *leak.Result, label string) error {
	if memory.Empty() {
		return nil
	}

	title := "Memory usage"
	if label != "" {
		title = fmt.Sprintf("Memory usage: %s", label)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("severity %s", result.Severity),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Usage (bytes)"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	labels, usage, fitted := buildSeries(memory, result.Trend)

	line.SetXAxis(labels)
	line.AddSeries("Usage", usage,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: plotLineWidth}),
	)
	line.AddSeries("Rolling mean", rollingSeries(result.Trend),
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
	)
	line.AddSeries("Trend", fitted,
		charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}),
	)

	err := line.Render(w)
	if err != nil {
		return fmt.Errorf("report: render plot: %w", err)
	}

	return nil
}

// buildSeries produces the x-axis labels, the raw usage series, and the
// fitted regression line evaluated at every sample.
func buildSeries(memory trace.MemorySeries, trend leak.Trend) (labels []string, usage, fitted []opts.LineData) {
	labels = make([]string, len(memory))
	usage = make([]opts.LineData, len(memory))
	fitted = make([]opts.LineData, len(memory))

	start := memory[0].Timestamp

	for i, sample := range memory {
		labels[i] = sample.Timestamp.Format(plotTimeFormat)
		usage[i] = opts.LineData{Value: sample.Usage}

		elapsed := sample.Timestamp.Sub(start).Seconds()
		fitted[i] = opts.LineData{
			Value: (trend.Slope*elapsed + trend.Intercept) * trend.Scale,
		}
	}

	return labels, usage, fitted
}

// rollingSeries de-normalizes the rolling mean back to bytes.
func rollingSeries(trend leak.Trend) []opts.LineData {
	points := make([]opts.LineData, len(trend.RollingMean))

	for i, p := range trend.RollingMean {
		points[i] = opts.LineData{Value: p.Value * trend.Scale}
	}

	return points
}
