// File: internal/orchestrator/orchestrator.go
// Description: Drives a benchmark run: fans the (tool, repository) matrix out
// over a bounded worker pool, wraps each invocation in its own timeout, and
// persists exactly one run record per pair before moving on. One tool failing
// on one repository is data, not an abort condition; only a persistence
// failure or an unusable repository identifier stops the run.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/cbombench/api/schemas"
	"github.com/xkilldash9x/cbombench/internal/config"
)

// RunStore receives run records as they complete. Implementations must be
// safe for concurrent use.
type RunStore interface {
	SaveRun(ctx context.Context, record *schemas.RunRecord) error
}

// Orchestrator owns the benchmark run loop.
type Orchestrator struct {
	cfg      config.OrchestratorConfig
	store    RunStore
	resolver schemas.BranchResolver
	logger   *zap.Logger
}

// New initializes an orchestrator. resolver may be nil when every repository
// already carries a branch.
func New(cfg config.OrchestratorConfig, store RunStore, resolver schemas.BranchResolver, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		store:    store,
		resolver: resolver,
		logger:   logger.Named("orchestrator"),
	}
}

// RunAll executes every tool against every repository and returns the run
// records in completion order. Each pair yields exactly one record whatever
// happens inside the adapter; records are persisted before they are returned.
func (o *Orchestrator) RunAll(ctx context.Context, tools []schemas.Adapter, repos []schemas.Repository) ([]schemas.RunRecord, error) {
	for i := range repos {
		if repos[i].URL == "" {
			return nil, fmt.Errorf("repository %q has no URL; cannot benchmark it", repos[i].ID)
		}
		if repos[i].ID == "" {
			repos[i].ID = repos[i].URL
		}
	}

	resolved, err := o.resolveBranches(ctx, repos)
	if err != nil {
		return nil, err
	}

	total := len(tools) * len(resolved)
	o.logger.Info("Starting benchmark run",
		zap.Int("tools", len(tools)),
		zap.Int("repositories", len(resolved)),
		zap.Int("invocations", total),
		zap.Int("max_in_flight", o.cfg.MaxInFlight),
		zap.Duration("tool_timeout", o.cfg.ToolTimeout),
	)

	results := make(chan schemas.RunRecord, total)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxInFlight)

	for _, tool := range tools {
		for _, repo := range resolved {
			tool, repo := tool, repo
			g.Go(func() error {
				record := o.invoke(gctx, tool, repo)
				if err := o.store.SaveRun(gctx, &record); err != nil {
					return fmt.Errorf("failed to persist run record %s: %w", record.RunID, err)
				}
				results <- record
				return nil
			})
		}
	}

	runErr := g.Wait()
	close(results)

	records := make([]schemas.RunRecord, 0, total)
	for record := range results {
		records = append(records, record)
	}
	if runErr != nil {
		return records, runErr
	}

	o.logger.Info("Benchmark run complete", zap.Int("records", len(records)))
	return records, nil
}

// invoke runs one adapter against one repository under the per-invocation
// timeout and folds whatever happened into a run record.
func (o *Orchestrator) invoke(ctx context.Context, tool schemas.Adapter, repo schemas.Repository) schemas.RunRecord {
	record := schemas.RunRecord{
		RunID:         uuid.NewString(),
		ToolID:        tool.ID(),
		RepositoryID:  repo.ID,
		RepositoryURL: repo.URL,
		Branch:        repo.Branch,
		StartedAt:     time.Now().UTC(),
	}

	invokeCtx, cancel := context.WithTimeout(ctx, o.cfg.ToolTimeout)
	defer cancel()

	o.logger.Info("Invoking tool",
		zap.String("tool", record.ToolID),
		zap.String("repository", repo.URL),
		zap.String("branch", repo.Branch),
	)

	doc, duration, err := tool.Generate(invokeCtx, repo.URL, repo.Branch)
	if err != nil && invokeCtx.Err() == context.DeadlineExceeded {
		err = schemas.ErrAdapterTimeout
	}
	record.DurationSeconds = duration.Seconds()
	record.Outcome = schemas.ClassifyOutcome(err)

	if err != nil {
		record.Error = err.Error()
		o.logger.Warn("Tool invocation failed",
			zap.String("tool", record.ToolID),
			zap.String("repository", repo.URL),
			zap.String("outcome", string(record.Outcome)),
			zap.Error(err),
		)
		return record
	}

	record.RawDocument = doc
	o.logger.Info("Tool invocation succeeded",
		zap.String("tool", record.ToolID),
		zap.String("repository", repo.URL),
		zap.Float64("duration_s", record.DurationSeconds),
		zap.Int("document_bytes", len(doc)),
	)
	return record
}

// resolveBranches fills in missing branches before any adapter runs, so every
// tool benchmarks the same revision of a repository. Resolution failures fall
// back to "main" rather than dropping the repository from the sample.
func (o *Orchestrator) resolveBranches(ctx context.Context, repos []schemas.Repository) ([]schemas.Repository, error) {
	resolved := make([]schemas.Repository, len(repos))
	copy(resolved, repos)

	for i := range resolved {
		if resolved[i].Branch != "" {
			continue
		}
		if o.resolver == nil {
			resolved[i].Branch = "main"
			continue
		}
		branch, err := o.resolver.DefaultBranch(ctx, resolved[i].URL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			o.logger.Warn("Default branch resolution failed, assuming main",
				zap.String("repository", resolved[i].URL), zap.Error(err))
			branch = "main"
		}
		resolved[i].Branch = branch
	}
	return resolved, nil
}
