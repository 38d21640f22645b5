package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-stats-sync/internal/config"
	"github.com/naka-gawa/github-stats-sync/internal/gateway"
	"github.com/naka-gawa/github-stats-sync/internal/report"
	"github.com/naka-gawa/github-stats-sync/internal/snapshot"
	"github.com/naka-gawa/github-stats-sync/internal/usecase"
)

// runSync performs one full sync and prints the outcome.
func runSync(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	// Credentials are resolved before any client exists.
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.Logging, verbose, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	// Inject dependencies and run the main business logic.
	githubGateway, err := gateway.NewGitHubGateway(cfg.GatewayOptions(), logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	var fetcher gateway.Fetcher = githubGateway
	if cfg.Cache.TTL > 0 {
		fetcher = gateway.NewCachingFetcher(githubGateway, cfg.Cache.TTL)
	}

	syncer := usecase.NewSyncer(fetcher, snapshot.NewWriter(cfg.Output.Path), cfg.Settings(), logger)
	result, err := syncer.Run(cmd.Context())
	if err != nil {
		return err
	}

	report.NewConsole(cmd.OutOrStdout(), color.NoColor).Success(result.Report, result.Snapshot)
	return nil
}
