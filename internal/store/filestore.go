// File: internal/store/filestore.go
// Description: Filesystem-backed artifact store. Raw CBOM documents land under
// cboms/<tool>/ so they can be eyeballed directly, run records under runs/,
// comparisons and metrics as JSON next to them. Everything is append-only;
// Purge is the only destructive operation and it only touches the data root.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/api/schemas"
	"github.com/xkilldash9x/cbombench/internal/config"
)

const (
	cbomsDir       = "cboms"
	runsDir        = "runs"
	comparisonsDir = "comparisons"
	metricsDir     = "metrics"
	reposFile      = "repositories.json"
)

// FileStore persists benchmark artifacts under a single data directory.
type FileStore struct {
	root       string
	reportsDir string
	logger     *zap.Logger
	mu         sync.Mutex
}

// NewFileStore creates the directory layout if needed.
func NewFileStore(cfg config.StoreConfig, logger *zap.Logger) (*FileStore, error) {
	s := &FileStore{
		root:       cfg.DataDir,
		reportsDir: cfg.ReportsDir,
		logger:     logger.Named("store.file"),
	}
	for _, dir := range []string{cbomsDir, runsDir, comparisonsDir, metricsDir} {
		if err := os.MkdirAll(filepath.Join(s.root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}
	return s, nil
}

// SaveRun persists one run record, plus the raw document on its own under
// cboms/<tool>/ when the run produced one. Safe for concurrent use.
func (s *FileStore) SaveRun(ctx context.Context, record *schemas.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	name := fmt.Sprintf("%s_%s_%s.json", slug(record.ToolID), slug(record.RepositoryID), record.RunID)
	if err := s.writeJSON(filepath.Join(runsDir, name), record); err != nil {
		return err
	}

	if len(record.RawDocument) > 0 {
		toolDir := filepath.Join(s.root, cbomsDir, slug(record.ToolID))
		if err := os.MkdirAll(toolDir, 0o755); err != nil {
			return fmt.Errorf("failed to create tool directory: %w", err)
		}
		// Keyed by run id so re-running a repository keeps the earlier
		// documents around instead of overwriting them.
		docPath := filepath.Join(toolDir, fmt.Sprintf("%s_%s.json", slug(record.RepositoryID), slug(record.RunID)))
		if err := os.WriteFile(docPath, record.RawDocument, 0o644); err != nil {
			return fmt.Errorf("failed to write raw document: %w", err)
		}
	}

	s.logger.Debug("Run record saved",
		zap.String("run_id", record.RunID),
		zap.String("tool", record.ToolID),
		zap.String("outcome", string(record.Outcome)),
	)
	return nil
}

// LoadRuns reads every stored run record back, so past benchmark output can be
// re-analyzed without re-invoking any tool.
func (s *FileStore) LoadRuns(ctx context.Context) ([]schemas.RunRecord, error) {
	dir := filepath.Join(s.root, runsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var records []schemas.RunRecord
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read run record %s: %w", entry.Name(), err)
		}
		var record schemas.RunRecord
		if err := json.Unmarshal(data, &record); err != nil {
			s.logger.Warn("Skipping unreadable run record", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// SaveRepositories records the sampled repository list for a run.
func (s *FileStore) SaveRepositories(ctx context.Context, repos []schemas.Repository) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(reposFile, repos)
}

// LoadRepositories reads back the last sampled repository list.
func (s *FileStore) LoadRepositories(ctx context.Context) ([]schemas.Repository, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, reposFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read repository list: %w", err)
	}
	var repos []schemas.Repository
	if err := json.Unmarshal(data, &repos); err != nil {
		return nil, fmt.Errorf("failed to decode repository list: %w", err)
	}
	return repos, nil
}

// LoadComparisons reads back every stored per-repository comparison record, so
// aggregates can be recomputed without redoing normalization or comparison.
func (s *FileStore) LoadComparisons(ctx context.Context) ([]schemas.ComparisonRecord, error) {
	dir := filepath.Join(s.root, comparisonsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read comparisons directory: %w", err)
	}

	var records []schemas.ComparisonRecord
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read comparison record %s: %w", entry.Name(), err)
		}
		var record schemas.ComparisonRecord
		if err := json.Unmarshal(data, &record); err != nil {
			s.logger.Warn("Skipping unreadable comparison record", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// SaveComparison persists one per-repository comparison record.
func (s *FileStore) SaveComparison(ctx context.Context, record *schemas.ComparisonRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(filepath.Join(comparisonsDir, slug(record.RepositoryID)+".json"), record)
}

// SaveMetrics persists the aggregated metric records for one sample.
func (s *FileStore) SaveMetrics(ctx context.Context, sampleID string, records []schemas.MetricRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(filepath.Join(metricsDir, slug(sampleID)+".json"), records)
}

// LoadMetrics reads back the metric records stored for one sample. A sample
// that was never aggregated yields nil, not an error.
func (s *FileStore) LoadMetrics(ctx context.Context, sampleID string) ([]schemas.MetricRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, metricsDir, slug(sampleID)+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read metrics for sample %s: %w", sampleID, err)
	}
	var records []schemas.MetricRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode metrics for sample %s: %w", sampleID, err)
	}
	return records, nil
}

// NewReportDir creates a fresh timestamped directory under the reports root
// and returns its path.
func (s *FileStore) NewReportDir() (string, error) {
	dir := filepath.Join(s.reportsDir, time.Now().UTC().Format("20060102T150405Z"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	return dir, nil
}

// Purge removes every stored artifact under the data root. The reports
// directory is left alone.
func (s *FileStore) Purge(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, dir := range []string{cbomsDir, runsDir, comparisonsDir, metricsDir} {
		if err := os.RemoveAll(filepath.Join(s.root, dir)); err != nil {
			return fmt.Errorf("failed to purge %s: %w", dir, err)
		}
		if err := os.MkdirAll(filepath.Join(s.root, dir), 0o755); err != nil {
			return fmt.Errorf("failed to recreate %s: %w", dir, err)
		}
	}
	if err := os.Remove(filepath.Join(s.root, reposFile)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to purge repository list: %w", err)
	}
	s.logger.Info("Data store purged", zap.String("root", s.root))
	return nil
}

func (s *FileStore) writeJSON(relPath string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", relPath, err)
	}
	path := filepath.Join(s.root, relPath)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}
	return nil
}

var slugRe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// slug makes an identifier filesystem-safe; "owner/repo" becomes "owner_repo".
func slug(id string) string {
	s := strings.TrimPrefix(id, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = slugRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_.")
	if s == "" {
		return "unnamed"
	}
	return s
}
