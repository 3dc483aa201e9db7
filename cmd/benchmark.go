// File: cmd/benchmark.go
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/api/schemas"
	"github.com/xkilldash9x/cbombench/internal/adapters"
	"github.com/xkilldash9x/cbombench/internal/comparator"
	"github.com/xkilldash9x/cbombench/internal/config"
	"github.com/xkilldash9x/cbombench/internal/normalizer"
	"github.com/xkilldash9x/cbombench/internal/observability"
	"github.com/xkilldash9x/cbombench/internal/orchestrator"
	"github.com/xkilldash9x/cbombench/internal/reporting"
	"github.com/xkilldash9x/cbombench/internal/repofinder"
	"github.com/xkilldash9x/cbombench/internal/store"
)

// newBenchmarkCmd creates the `benchmark` command: the full pipeline from
// stored (or explicitly given) repositories through tool invocation,
// normalization, comparison and the final report.
func newBenchmarkCmd() *cobra.Command {
	benchmarkCmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Runs the selected CBOM tools against the repository sample and reports agreement metrics",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fs, err := store.NewFileStore(cfg.Store, logger)
			if err != nil {
				return err
			}

			repos, err := resolveRepositories(ctx, fs, viper.GetStringSlice("repo"), logger)
			if err != nil {
				return err
			}
			if len(repos) == 0 {
				return fmt.Errorf("no repositories to benchmark; run `cbombench repos` first or pass --repo")
			}

			registry, err := adapters.NewRegistry(cfg.Adapters, logger)
			if err != nil {
				return err
			}
			kits := viper.GetStringSlice("kits")
			if len(kits) == 0 {
				kits = registry.IDs()
			}
			tools, err := registry.Select(kits)
			if err != nil {
				return err
			}

			var resolver schemas.BranchResolver
			if cfg.GitHub.Token != "" {
				resolver = repofinder.New(cfg.GitHub, logger)
			}

			runner := orchestrator.New(cfg.Orchestrator, fs, resolver, logger)
			runs, err := runner.RunAll(ctx, tools, repos)
			if err != nil {
				return fmt.Errorf("benchmark run failed: %w", err)
			}

			sampleID := uuid.NewString()
			report, err := analyzeRuns(ctx, cfg, fs, sampleID, runs, logger)
			if err != nil {
				return err
			}

			dir, err := fs.NewReportDir()
			if err != nil {
				return err
			}
			reporter := reporting.New(logger)
			if err := reporter.WriteDir(dir, report); err != nil {
				return err
			}
			return reporter.WriteSummary(cmd.OutOrStdout(), report)
		},
	}

	benchmarkCmd.Flags().StringSlice("kits", nil, "tool ids to benchmark (default: all registered)")
	benchmarkCmd.Flags().StringSlice("repo", nil, "repository URL, optionally url@branch; overrides the stored sample")
	return benchmarkCmd
}

// resolveRepositories chooses the benchmark sample: explicit --repo flags win,
// otherwise the stored sample from a previous `repos` run is used.
func resolveRepositories(ctx context.Context, fs *store.FileStore, flagRepos []string, logger *zap.Logger) ([]schemas.Repository, error) {
	if len(flagRepos) > 0 {
		repos := make([]schemas.Repository, 0, len(flagRepos))
		for _, spec := range flagRepos {
			url, branch := spec, ""
			if at := strings.LastIndex(spec, "@"); at > strings.LastIndex(spec, "/") {
				url, branch = spec[:at], spec[at+1:]
			}
			repos = append(repos, schemas.Repository{ID: url, URL: url, Branch: branch})
		}
		return repos, nil
	}

	repos, err := fs.LoadRepositories(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("Using stored repository sample", zap.Int("count", len(repos)))
	return repos, nil
}

// analyzeRuns normalizes run records, compares them per repository, aggregates
// the sample metrics and persists everything. Shared by `benchmark` and
// `analyze`.
func analyzeRuns(ctx context.Context, cfg *config.Config, fs *store.FileStore, sampleID string, runs []schemas.RunRecord, logger *zap.Logger) (*reporting.Report, error) {
	norm := normalizer.New(logger)
	setsByRepo := make(map[string][]schemas.AssetSet)
	for i := range runs {
		set := norm.Normalize(&runs[i])
		setsByRepo[runs[i].RepositoryID] = append(setsByRepo[runs[i].RepositoryID], set)
	}

	comp := comparator.New(logger)
	comparisons := make([]schemas.ComparisonRecord, 0, len(setsByRepo))
	for repoID, sets := range setsByRepo {
		record := comp.Compare(repoID, sets)
		if err := fs.SaveComparison(ctx, &record); err != nil {
			return nil, err
		}
		comparisons = append(comparisons, record)
	}

	metrics := comp.Aggregate(sampleID, comparisons, runs)
	if err := fs.SaveMetrics(ctx, sampleID, metrics); err != nil {
		return nil, err
	}

	// Mirror to Postgres when configured; filesystem output already succeeded.
	if cfg.Store.DatabaseURL != "" {
		pool, err := store.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			logger.Warn("Postgres mirror unavailable", zap.Error(err))
		} else {
			defer pool.Close()
			pg, err := store.NewPostgresStore(ctx, pool, logger)
			if err != nil {
				logger.Warn("Postgres mirror unavailable", zap.Error(err))
			} else if err := pg.SaveMetrics(ctx, sampleID, metrics); err != nil {
				logger.Warn("Failed to mirror metrics to Postgres", zap.Error(err))
			}
		}
	}

	return &reporting.Report{
		SampleID:    sampleID,
		Comparisons: comparisons,
		Metrics:     metrics,
	}, nil
}
