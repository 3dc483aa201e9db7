// File: cmd/purge.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/cbombench/internal/observability"
	"github.com/xkilldash9x/cbombench/internal/store"
)

// newPurgeCmd creates the `purge` command: wipe stored benchmark artifacts.
// Reports are never touched.
func newPurgeCmd() *cobra.Command {
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Removes stored CBOMs, run records, comparisons and metrics",
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
			if !viper.GetBool("yes") {
				return fmt.Errorf("refusing to purge %s without --yes", cfg.Store.DataDir)
			}

			fs, err := store.NewFileStore(cfg.Store, logger)
			if err != nil {
				return err
			}
			return fs.Purge(ctx)
		},
	}

	purgeCmd.Flags().Bool("yes", false, "confirm deletion of stored benchmark data")
	return purgeCmd
}
