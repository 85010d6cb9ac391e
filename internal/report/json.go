package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/leakfang/internal/leak"
)

// jsonDocument is the machine-readable report shape. Severity is emitted
// as its name and findings as rendered sentences so consumers do not need
// the engine's enum values.
type jsonDocument struct {
	Severity   string             `json:"severity"`
	Confidence float64            `json:"confidence"`
	Metrics    leak.MemoryMetrics `json:"metrics"`
	Findings   []string           `json:"findings"`
	Suspects   []leak.Suspect     `json:"suspects"`
	Trend      leak.Trend         `json:"trend"`
	Label      string             `json:"label,omitempty"`
}

// RenderJSON writes the result as an indented JSON document.
func RenderJSON(w io.Writer, result *leak.Result, label string) error {
	findings := make([]string, 0, len(result.Findings))

	for _, f := range result.Findings {
		findings = append(findings, f.String())
	}

	doc := jsonDocument{
		Severity:   result.Severity.String(),
		Confidence: result.Confidence,
		Metrics:    result.Metrics,
		Findings:   findings,
		Suspects:   result.Suspects,
		Trend:      result.Trend,
		Label:      label,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(doc)
	if err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}

	return nil
}
