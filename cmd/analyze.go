// File: cmd/analyze.go
package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/internal/observability"
	"github.com/xkilldash9x/cbombench/internal/reporting"
	"github.com/xkilldash9x/cbombench/internal/store"
)

// newAnalyzeCmd creates the `analyze` command: re-run normalization,
// comparison and aggregation over stored run records, without invoking any
// tool. Raw documents are kept verbatim for exactly this purpose.
func newAnalyzeCmd() *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Re-analyzes stored benchmark runs and writes a fresh report",
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

			runs, err := fs.LoadRuns(ctx)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				return fmt.Errorf("no stored runs to analyze; run `cbombench benchmark` first")
			}
			logger.Info("Loaded stored runs", zap.Int("count", len(runs)))

			sampleID := viper.GetString("sample-id")
			if sampleID == "" {
				sampleID = uuid.NewString()
			}

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

	analyzeCmd.Flags().String("sample-id", "", "sample identifier to tag the metric records with (default: random)")
	return analyzeCmd
}
