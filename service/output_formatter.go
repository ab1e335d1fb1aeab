package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/ariscan/domain"
	"github.com/ludo-technologies/ariscan/internal/version"
)

// OutputFormatterImpl implements the OutputFormatter interface
type OutputFormatterImpl struct {
	showDetails bool
}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter(showDetails bool) *OutputFormatterImpl {
	return &OutputFormatterImpl{showDetails: showDetails}
}

// WriteJSON writes data as indented JSON to the writer
func WriteJSON(writer io.Writer, data interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ReportJSON wraps a PipelineResult with report metadata
type ReportJSON struct {
	Version     string `json:"version" yaml:"version"`
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	*domain.PipelineResult `yaml:",inline"`
}

// Write renders the pipeline result in the specified format
func (f *OutputFormatterImpl) Write(result *domain.PipelineResult, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return f.writeJSON(result, writer)
	case domain.OutputFormatYAML:
		return f.writeYAML(result, writer)
	case domain.OutputFormatText:
		return f.writeText(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// writeJSON writes the result as JSON
func (f *OutputFormatterImpl) writeJSON(result *domain.PipelineResult, writer io.Writer) error {
	return WriteJSON(writer, ReportJSON{
		Version:        version.Version,
		GeneratedAt:    time.Now().Format(time.RFC3339),
		PipelineResult: result,
	})
}

// writeYAML writes the result as YAML
func (f *OutputFormatterImpl) writeYAML(result *domain.PipelineResult, writer io.Writer) error {
	data, err := yaml.Marshal(ReportJSON{
		Version:        version.Version,
		GeneratedAt:    time.Now().Format(time.RFC3339),
		PipelineResult: result,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal result as YAML: %w", err)
	}
	_, err = writer.Write(data)
	return err
}

// writeText writes the result as plain text
func (f *OutputFormatterImpl) writeText(result *domain.PipelineResult, writer io.Writer) error {
	fmt.Fprintf(writer, "\n=== ariscan Report ===\n\n")
	fmt.Fprintf(writer, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(writer, "Version: %s\n\n", version.Version)

	if !result.IsValid {
		fmt.Fprintf(writer, "Rejected: %s\n", result.Message)
		return nil
	}

	fmt.Fprintf(writer, "%s\n\n", result.Message)
	if result.ARIScore != nil {
		fmt.Fprintf(writer, "ARI Score: %d/100 [%s]\n", *result.ARIScore, statusLabel(result.Status))
	}

	if result.Metrics != nil {
		fmt.Fprintf(writer, "\nMetrics:\n")
		fmt.Fprintf(writer, "  Lint errors: %d\n", result.Metrics.LintErrors)
		fmt.Fprintf(writer, "  Lint warnings: %d\n", result.Metrics.LintWarnings)
		fmt.Fprintf(writer, "  Critical vulnerabilities: %d\n", result.Metrics.CriticalVulns)
		fmt.Fprintf(writer, "  High vulnerabilities: %d\n", result.Metrics.HighVulns)
		if result.Metrics.LintFailed {
			fmt.Fprintf(writer, "  Note: lint could not run; penalty counts applied\n")
		}
	}

	if result.Explanation != nil {
		fmt.Fprintf(writer, "\nExplanation:\n")
		fmt.Fprintf(writer, "  %s\n", result.Explanation.Summary)

		writeTextList(writer, "Top risks", result.Explanation.TopRisks)
		if f.showDetails {
			writeTextList(writer, "Why this score", result.Explanation.WhyScoreIsLowOrHigh)
		}
		writeTextList(writer, "Suggestions", result.Explanation.ImprovementSuggestions)
	}

	return nil
}

// writeTextList prints a labeled bullet list, skipping empty lists
func writeTextList(writer io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(writer, "\n  %s:\n", label)
	for _, item := range items {
		fmt.Fprintf(writer, "    - %s\n", item)
	}
}

// statusLabel renders a risk status for human output
func statusLabel(status domain.RiskStatus) string {
	switch status {
	case domain.RiskStatusLow:
		return "LOW RISK"
	case domain.RiskStatusModerate:
		return "MODERATE RISK"
	case domain.RiskStatusHigh:
		return "HIGH RISK"
	default:
		return strings.ToUpper(string(status))
	}
}
