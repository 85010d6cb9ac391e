// Package report renders analysis results for terminals, machine
// consumers, and browsers.
package report

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/leakfang/internal/leak"
	"github.com/Sumatoshi-tech/leakfang/pkg/alg/stats"
)

// Options controls terminal report rendering.
type Options struct {
	// TopSuspects caps the suspect table. Zero shows all suspects.
	TopSuspects int

	// NoColor disables ANSI coloring.
	NoColor bool

	// Label is an optional trace label shown in the overview.
	Label string
}

// Renderer writes analysis results as a terminal report.
type Renderer struct {
	opts Options
}

// NewRenderer creates a terminal report renderer.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Render writes the full report to w.
func (r *Renderer) Render(w io.Writer, result *leak.Result) error {
	r.renderOverview(w, result)
	r.renderMetrics(w, result)
	r.renderFindings(w, result)
	r.renderSuspects(w, result)
	r.renderLifetimes(w, result)

	return nil
}

func (r *Renderer) renderOverview(w io.Writer, result *leak.Result) {
	if r.opts.Label != "" {
		fmt.Fprintf(w, "Trace: %s\n", r.opts.Label)
	}

	fmt.Fprintf(w, "Severity:   %s\n", r.colorizeSeverity(result.Severity))
	fmt.Fprintf(w, "Confidence: %.0f%%\n\n", result.Confidence*percentFactor)
}

func (r *Renderer) renderMetrics(w io.Writer, result *leak.Result) {
	m := result.Metrics

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Metric", "Value"})

	tbl.AppendRow(table.Row{"Total allocations", m.TotalAllocations})
	tbl.AppendRow(table.Row{"Unreleased allocations", m.UnreleasedAllocations})
	tbl.AppendRow(table.Row{"Avg allocation size", formatBytes(m.AvgAllocationSize)})
	tbl.AppendRow(table.Row{"Fragmentation score", fmt.Sprintf("%.2f", m.FragmentationScore)})
	tbl.AppendRow(table.Row{"Growth rate", formatRate(m.LeakRate * result.Trend.Scale)})
	tbl.AppendRow(table.Row{"Max growth duration", m.MaxGrowthDuration.String()})

	tbl.Render()
	fmt.Fprintln(w)
}

func (r *Renderer) renderFindings(w io.Writer, result *leak.Result) {
	if len(result.Findings) == 0 {
		fmt.Fprintln(w, "No suspicious patterns detected.")
		fmt.Fprintln(w)

		return
	}

	fmt.Fprintln(w, "Patterns:")

	for _, finding := range result.Findings {
		fmt.Fprintf(w, "  - %s\n", finding.String())
	}

	fmt.Fprintln(w)
}

func (r *Renderer) renderSuspects(w io.Writer, result *leak.Result) {
	suspects := result.Suspects
	if len(suspects) == 0 {
		return
	}

	shown := len(suspects)
	if r.opts.TopSuspects > 0 {
		shown = min(shown, r.opts.TopSuspects)
	}

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Pointer", "Retained", "Allocations", "Event"})

	for _, s := range suspects[:shown] {
		tbl.AppendRow(table.Row{
			s.Ptr,
			formatBytes(s.TotalBytes),
			s.AllocationCount,
			s.EventType,
		})
	}

	tbl.Render()

	if len(suspects) > shown {
		fmt.Fprintf(w, "  ... and %d more\n", len(suspects)-shown)
	}

	fmt.Fprintln(w)
}

func (r *Renderer) renderLifetimes(w io.Writer, result *leak.Result) {
	lifetimes := releasedLifetimes(result.Lifecycles)
	if len(lifetimes) == 0 {
		return
	}

	median := time.Duration(stats.Median(lifetimes))
	longest := time.Duration(stats.Max(lifetimes))

	fmt.Fprintf(w, "Released lifetimes: median %s, max %s over %d allocations\n",
		median, longest, len(lifetimes))
}

func (r *Renderer) colorizeSeverity(severity leak.Severity) string {
	if r.opts.NoColor {
		return severity.String()
	}

	return severityColor(severity).Sprint(severity.String())
}

const percentFactor = 100

func severityColor(severity leak.Severity) *color.Color {
	switch severity {
	case leak.SeverityCritical, leak.SeverityHigh:
		return color.New(color.FgRed, color.Bold)
	case leak.SeverityMedium:
		return color.New(color.FgYellow)
	case leak.SeverityLow:
		return color.New(color.FgCyan)
	case leak.SeverityNone:
		return color.New(color.FgGreen)
	default:
		return color.New(color.Reset)
	}
}

func releasedLifetimes(lifecycles []leak.Allocation) []float64 {
	var lifetimes []float64

	for _, l := range lifecycles {
		if l.Released {
			lifetimes = append(lifetimes, float64(l.Lifetime))
		}
	}

	return lifetimes
}

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	return tbl
}

func formatBytes(v float64) string {
	if v <= 0 {
		return "0 B"
	}

	return humanize.IBytes(uint64(math.Round(v)))
}

func formatRate(perSecond float64) string {
	if perSecond <= 0 {
		return "none"
	}

	return formatBytes(perSecond) + "/s"
}
