// File: internal/reporting/reporter.go
// Description: Renders a benchmark analysis into a report directory: the
// metric records and comparison records as JSON, plus a short human-readable
// summary. Reports are self-contained snapshots; re-running analysis writes a
// new timestamped directory rather than touching an old one.
package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/api/schemas"
)

// Report bundles everything one analysis produced.
type Report struct {
	SampleID    string                     `json:"sample_id"`
	Comparisons []schemas.ComparisonRecord `json:"comparisons"`
	Metrics     []schemas.MetricRecord     `json:"metrics"`
}

// Reporter writes analysis reports.
type Reporter struct {
	logger *zap.Logger
}

// New initializes a reporter.
func New(logger *zap.Logger) *Reporter {
	return &Reporter{logger: logger.Named("reporting")}
}

// WriteDir writes the full report into dir: metrics.json, comparisons.json
// and summary.txt.
func (r *Reporter) WriteDir(dir string, report *Report) error {
	if err := writeJSONFile(filepath.Join(dir, "metrics.json"), report.Metrics); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(dir, "comparisons.json"), report.Comparisons); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, "summary.txt"))
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer f.Close()
	if err := r.WriteSummary(f, report); err != nil {
		return err
	}

	r.logger.Info("Report written", zap.String("dir", dir),
		zap.Int("repositories", len(report.Comparisons)),
		zap.Int("metric_records", len(report.Metrics)),
	)
	return nil
}

// WriteSummary renders the human-readable digest. Agreement numbers are
// labelled as such; nothing here claims correctness against a reference CBOM.
func (r *Reporter) WriteSummary(w io.Writer, report *Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CBOM benchmark summary (sample %s)\n", report.SampleID)
	fmt.Fprintf(&b, "Repositories compared: %d\n\n", len(report.Comparisons))

	b.WriteString("Per-tool metrics:\n")
	for i := range report.Metrics {
		m := &report.Metrics[i]
		if m.Kind != schemas.MetricTool {
			continue
		}
		fmt.Fprintf(&b, "  %s\n", m.Subject)
		fmt.Fprintf(&b, "    runs: %d  success rate: %.2f (timeouts %d, tool errors %d, malformed %d)\n",
			m.Repositories, m.SuccessRate, m.Timeouts, m.ToolErrors, m.MalformedOutputs)
		fmt.Fprintf(&b, "    duration: mean %.1fs, median %.1fs\n",
			m.MeanDurationSeconds, m.MedianDurationSeconds)
		fmt.Fprintf(&b, "    agreement: mean coverage %.2f, mean unique-find ratio %.2f\n",
			m.MeanCoverage, m.MeanUniqueFindRatio)
		fmt.Fprintf(&b, "    findings: %d total, %d empty sets (rate %.2f), %.1f mean per non-empty set\n",
			m.TotalAssets, m.EmptySets, m.EmptySetRate, m.MeanAssetsNonEmpty)
	}

	b.WriteString("\nPairwise agreement (mean Jaccard over canonical asset keys):\n")
	for i := range report.Metrics {
		m := &report.Metrics[i]
		if m.Kind != schemas.MetricToolPair {
			continue
		}
		fmt.Fprintf(&b, "  %-28s %.2f over %d repositories\n", m.Subject, m.MeanJaccard, m.Repositories)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
