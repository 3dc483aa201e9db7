// File: cmd/load.go
package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/internal/comparator"
	"github.com/xkilldash9x/cbombench/internal/observability"
	"github.com/xkilldash9x/cbombench/internal/reporting"
	"github.com/xkilldash9x/cbombench/internal/store"
)

// newLoadCmd creates the `load` command: reload the analysis previously
// written to the filesystem store, recompute the aggregate metric records from
// it, and push everything into Postgres when a database is configured. No tool
// is re-invoked and no document is re-normalized.
func newLoadCmd() *cobra.Command {
	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Reloads the stored analysis, recomputes aggregate metrics, and mirrors records to Postgres if configured",
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

			comparisons, err := fs.LoadComparisons(ctx)
			if err != nil {
				return err
			}
			if len(comparisons) == 0 {
				return fmt.Errorf("no stored comparisons to reload; run `cbombench benchmark` or `cbombench analyze` first")
			}
			runs, err := fs.LoadRuns(ctx)
			if err != nil {
				return err
			}

			sampleID := viper.GetString("sample-id")
			if sampleID == "" {
				sampleID = uuid.NewString()
			}

			comp := comparator.New(logger)
			metrics := comp.Aggregate(sampleID, comparisons, runs)
			if err := fs.SaveMetrics(ctx, sampleID, metrics); err != nil {
				return err
			}
			logger.Info("Aggregates recomputed from stored analysis",
				zap.String("sample_id", sampleID),
				zap.Int("comparisons", len(comparisons)),
				zap.Int("runs", len(runs)),
			)

			if cfg.Store.DatabaseURL != "" {
				pool, err := store.Connect(ctx, cfg.Store.DatabaseURL)
				if err != nil {
					return err
				}
				defer pool.Close()

				pg, err := store.NewPostgresStore(ctx, pool, logger)
				if err != nil {
					return err
				}
				for i := range runs {
					if err := pg.SaveRun(ctx, &runs[i]); err != nil {
						return fmt.Errorf("failed to load run %s: %w", runs[i].RunID, err)
					}
				}
				if err := pg.SaveMetrics(ctx, sampleID, metrics); err != nil {
					return err
				}
				logger.Info("Stored records loaded into Postgres",
					zap.Int("runs", len(runs)), zap.Int("metrics", len(metrics)))
			}

			report := &reporting.Report{SampleID: sampleID, Comparisons: comparisons, Metrics: metrics}
			return reporting.New(logger).WriteSummary(cmd.OutOrStdout(), report)
		},
	}

	loadCmd.Flags().String("sample-id", "", "sample id to tag the recomputed metrics with (default: random)")
	return loadCmd
}
