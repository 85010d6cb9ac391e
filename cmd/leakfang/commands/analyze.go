// Package commands implements CLI command handlers for leakfang.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/leakfang/internal/leak"
	"github.com/Sumatoshi-tech/leakfang/internal/report"
	"github.com/Sumatoshi-tech/leakfang/internal/trace"
	"github.com/Sumatoshi-tech/leakfang/pkg/config"
	"github.com/Sumatoshi-tech/leakfang/pkg/observability"
	"github.com/Sumatoshi-tech/leakfang/pkg/version"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// CLI argument validation errors.
var (
	ErrNoInput = errors.New(
		"no trace input. Provide --events and --memory, or a --manifest file")
	ErrConflictingInput = errors.New(
		"--manifest cannot be combined with --events or --memory")
	ErrUnknownFormat = errors.New("unknown output format")
)

// AnalyzeCommand holds configuration and dependencies for the analyze command.
type AnalyzeCommand struct {
	eventsPath   string
	memoryPath   string
	manifestPath string
	configPath   string
	format       string
	plotPath     string
	label        string
	window       time.Duration
	topSuspects  int
	noColor      bool
	verbose      bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	ac := &AnalyzeCommand{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a recorded trace for memory leaks",
		Long: "Analyze a recorded allocation/deallocation event log together with a " +
			"sampled memory-usage series and report leak severity, growth patterns, " +
			"and suspect allocation sites.",
		Args: cobra.NoArgs,
		RunE: ac.run,
	}

	cmd.Flags().StringVar(&ac.eventsPath, "events", "", "Event log path (.csv, .json, optionally .lz4-compressed)")
	cmd.Flags().StringVar(&ac.memoryPath, "memory", "", "Memory-usage series path (.csv, .json, optionally .lz4-compressed)")
	cmd.Flags().StringVar(&ac.manifestPath, "manifest", "", "YAML trace manifest naming both inputs")
	cmd.Flags().StringVar(&ac.configPath, "config", "", "Config file path (default: ./leakfang.yaml)")
	cmd.Flags().StringVar(&ac.format, "format", FormatText, "Output format: text, json")
	cmd.Flags().StringVar(&ac.plotPath, "plot", "", "Write an HTML usage chart to this path")
	cmd.Flags().StringVar(&ac.label, "label", "", "Trace label shown in the report")
	cmd.Flags().DurationVar(&ac.window, "window", 0, "Rolling-statistics window override (e.g. 500ms, 5s)")
	cmd.Flags().IntVar(&ac.topSuspects, "top", 0, "Suspect table size override")
	cmd.Flags().BoolVar(&ac.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVarP(&ac.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func (ac *AnalyzeCommand) run(cmd *cobra.Command, _ []string) error {
	err := ac.validateFlags()
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(ac.configPath)
	if err != nil {
		return err
	}

	ac.applyOverrides(cfg)

	providers, err := initObservability(cfg, ac.verbose)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "telemetry shutdown: %v\n", shutdownErr)
		}
	}()

	events, memory, err := ac.loadInputs()
	if err != nil {
		return err
	}

	metrics, err := observability.NewEngineMetrics(providers.Meter)
	if err != nil {
		return err
	}

	analyzer := leak.NewAnalyzer(leak.Deps{
		Logger:  providers.Logger,
		Tracer:  providers.Tracer,
		Metrics: metrics,
	})

	result, err := analyzer.Analyze(ctx, events, memory, cfg.Analysis.Thresholds())
	if err != nil {
		return err
	}

	err = ac.render(cmd, cfg, result)
	if err != nil {
		return err
	}

	return ac.writePlot(memory, result)
}

func (ac *AnalyzeCommand) validateFlags() error {
	hasDirect := ac.eventsPath != "" || ac.memoryPath != ""

	if ac.manifestPath != "" && hasDirect {
		return ErrConflictingInput
	}

	if ac.manifestPath == "" && (ac.eventsPath == "" || ac.memoryPath == "") {
		return ErrNoInput
	}

	switch ac.format {
	case FormatText, FormatJSON:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, ac.format)
	}
}

// applyOverrides layers explicit CLI flags over the loaded config.
func (ac *AnalyzeCommand) applyOverrides(cfg *config.Config) {
	if ac.window > 0 {
		cfg.Analysis.WindowSize = ac.window
	}

	if ac.topSuspects > 0 {
		cfg.Report.TopSuspects = ac.topSuspects
	}

	if ac.noColor {
		cfg.Report.NoColor = true
	}
}

func (ac *AnalyzeCommand) loadInputs() (trace.EventTable, trace.MemorySeries, error) {
	eventsPath := ac.eventsPath
	memoryPath := ac.memoryPath

	if ac.manifestPath != "" {
		manifest, err := trace.LoadManifest(ac.manifestPath)
		if err != nil {
			return trace.EventTable{}, nil, err
		}

		eventsPath = manifest.Events
		memoryPath = manifest.Memory

		if ac.label == "" {
			ac.label = manifest.Label
		}
	}

	events, err := trace.LoadEvents(eventsPath)
	if err != nil {
		return trace.EventTable{}, nil, err
	}

	memory, err := trace.LoadMemory(memoryPath)
	if err != nil {
		return trace.EventTable{}, nil, err
	}

	return events, memory, nil
}

func (ac *AnalyzeCommand) render(cmd *cobra.Command, cfg *config.Config, result *leak.Result) error {
	out := cmd.OutOrStdout()

	if ac.format == FormatJSON {
		return report.RenderJSON(out, result, ac.label)
	}

	renderer := report.NewRenderer(report.Options{
		TopSuspects: cfg.Report.TopSuspects,
		NoColor:     cfg.Report.NoColor,
		Label:       ac.label,
	})

	return renderer.Render(out, result)
}

func (ac *AnalyzeCommand) writePlot(memory trace.MemorySeries, result *leak.Result) error {
	if ac.plotPath == "" {
		return nil
	}

	f, err := os.Create(ac.plotPath)
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return report.RenderPlot(f, memory, result, ac.label)
}

// initObservability builds observability providers from the loaded config.
// Without a configured OTLP endpoint the providers are no-op and only the
// structured logger is active.
func initObservability(cfg *config.Config, verbose bool) (observability.Providers, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	obsCfg.LogLevel = parseLogLevel(cfg.Logging.Level)
	obsCfg.LogJSON = strings.EqualFold(cfg.Logging.Format, "json")

	if verbose {
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.DebugTrace = true
	}

	return observability.Init(obsCfg)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
