// File: cmd/repos.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/internal/observability"
	"github.com/xkilldash9x/cbombench/internal/repofinder"
	"github.com/xkilldash9x/cbombench/internal/store"
)

// newReposCmd creates the `repos` command: sample candidate repositories and
// persist the list for later benchmark runs.
func newReposCmd() *cobra.Command {
	reposCmd := &cobra.Command{
		Use:   "repos",
		Short: "Samples candidate repositories from GitHub and stores the list",
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

			filter := repofinder.Filter{
				Language:   viper.GetString("language"),
				MinSizeKB:  viper.GetInt("min-size"),
				MaxSizeKB:  viper.GetInt("max-size"),
				MinLangKB:  viper.GetInt("min-lang-size"),
				SampleSize: viper.GetInt("sample"),
			}

			finder := repofinder.New(cfg.GitHub, logger)
			repos, err := finder.Find(ctx, filter)
			if err != nil {
				return fmt.Errorf("repository sampling failed: %w", err)
			}

			fs, err := store.NewFileStore(cfg.Store, logger)
			if err != nil {
				return err
			}
			if err := fs.SaveRepositories(ctx, repos); err != nil {
				return fmt.Errorf("failed to store repository list: %w", err)
			}

			logger.Info("Repository sample stored", zap.Int("count", len(repos)))
			for _, repo := range repos {
				line := fmt.Sprintf("%s\t%s\t%d KB", repo.ID, repo.Branch, repo.SizeKB)
				if repo.LangKB > 0 {
					line += fmt.Sprintf("\t%d KB %s", repo.LangKB, filter.Language)
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	reposCmd.Flags().String("language", "java", "primary language to search for")
	reposCmd.Flags().Int("min-size", 100, "minimum repository size in KB")
	reposCmd.Flags().Int("max-size", 0, "maximum repository size in KB (0 = unbounded)")
	reposCmd.Flags().Int("min-lang-size", 0, "minimum KB of code in the target language (0 = no check)")
	reposCmd.Flags().Int("sample", 10, "number of repositories to sample")
	return reposCmd
}
