// Package config provides configuration loading and validation for the
// leakfang analyzer.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/leakfang/internal/leak"
)

// Sentinel validation errors.
var (
	ErrInvalidTopSuspects = errors.New("report top suspects must be positive")
	ErrInvalidLogLevel    = errors.New("unknown log level")
	ErrInvalidLogFormat   = errors.New("unknown log format")
	ErrInvalidSampleRatio = errors.New("telemetry sample ratio must be in [0, 1]")
)

// Default configuration values.
const (
	defaultTopSuspects = 10
	defaultLogLevel    = "info"
	defaultLogFormat   = "text"
)

// Config holds all configuration for the leakfang analyzer.
type Config struct {
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Report    ReportConfig    `mapstructure:"report"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AnalysisConfig holds the engine thresholds.
type AnalysisConfig struct {
	WindowSize             time.Duration `mapstructure:"window_size"`
	FragmentationThreshold float64       `mapstructure:"fragmentation_threshold"`
	GrowthSlopeThreshold   float64       `mapstructure:"growth_slope_threshold"`
}

// Thresholds converts the analysis section to engine thresholds.
func (c AnalysisConfig) Thresholds() leak.Thresholds {
	return leak.Thresholds{
		WindowSize:    c.WindowSize,
		Fragmentation: c.FragmentationThreshold,
		GrowthSlope:   c.GrowthSlopeThreshold,
	}
}

// ReportConfig holds report rendering options.
type ReportConfig struct {
	TopSuspects int  `mapstructure:"top_suspects"`
	NoColor     bool `mapstructure:"no_color"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds the OTLP export settings. An empty endpoint
// disables export entirely.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("leakfang")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("/etc/leakfang")
	}

	viperCfg.SetEnvPrefix("LEAKFANG")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Analysis defaults mirror the engine defaults.
	viperCfg.SetDefault("analysis.window_size", leak.DefaultWindowSize.String())
	viperCfg.SetDefault("analysis.fragmentation_threshold", leak.DefaultFragmentationThreshold)
	viperCfg.SetDefault("analysis.growth_slope_threshold", leak.DefaultGrowthSlopeThreshold)

	// Report defaults.
	viperCfg.SetDefault("report.top_suspects", defaultTopSuspects)
	viperCfg.SetDefault("report.no_color", false)

	// Logging defaults.
	viperCfg.SetDefault("logging.level", defaultLogLevel)
	viperCfg.SetDefault("logging.format", defaultLogFormat)

	// Telemetry defaults. Export stays off until an endpoint is set.
	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	thresholdsErr := config.Analysis.Thresholds().Validate()
	if thresholdsErr != nil {
		return thresholdsErr
	}

	if config.Report.TopSuspects <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTopSuspects, config.Report.TopSuspects)
	}

	switch strings.ToLower(config.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	switch strings.ToLower(config.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, config.Telemetry.SampleRatio)
	}

	return nil
}
