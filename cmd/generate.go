// File: cmd/generate.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/api/schemas"
	"github.com/xkilldash9x/cbombench/internal/adapters"
	"github.com/xkilldash9x/cbombench/internal/observability"
	"github.com/xkilldash9x/cbombench/internal/orchestrator"
	"github.com/xkilldash9x/cbombench/internal/repofinder"
	"github.com/xkilldash9x/cbombench/internal/store"
)

// newGenerateCmd creates the `generate` command: run one tool against one
// repository and store the resulting CBOM, without any comparison.
func newGenerateCmd() *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate <repository-url>",
		Short: "Generates a single CBOM with one tool and stores the raw document",
		Args:  cobra.ExactArgs(1),
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

			registry, err := adapters.NewRegistry(cfg.Adapters, logger)
			if err != nil {
				return err
			}
			tools, err := registry.Select([]string{viper.GetString("kit")})
			if err != nil {
				return err
			}

			fs, err := store.NewFileStore(cfg.Store, logger)
			if err != nil {
				return err
			}

			var resolver schemas.BranchResolver
			if cfg.GitHub.Token != "" {
				resolver = repofinder.New(cfg.GitHub, logger)
			}

			repo := schemas.Repository{
				ID:     args[0],
				URL:    args[0],
				Branch: viper.GetString("branch"),
			}

			runner := orchestrator.New(cfg.Orchestrator, fs, resolver, logger)
			runs, err := runner.RunAll(ctx, tools, []schemas.Repository{repo})
			if err != nil {
				return err
			}

			record := &runs[0]
			logger.Info("Generation finished",
				zap.String("tool", record.ToolID),
				zap.String("outcome", string(record.Outcome)),
				zap.Float64("duration_s", record.DurationSeconds),
			)
			if !record.Succeeded() {
				return fmt.Errorf("generation failed (%s): %s", record.Outcome, record.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", record.RawDocument)
			return nil
		},
	}

	generateCmd.Flags().String("kit", "cdxgen", "tool id to run")
	generateCmd.Flags().String("branch", "", "branch to scan (default: resolved default branch)")
	return generateCmd
}
