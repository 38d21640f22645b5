// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-stats-sync/internal/report"
)

var rootCmd = &cobra.Command{
	Use:   "github-stats-sync",
	Short: "A CLI tool to snapshot a GitHub account's statistics for the blog.",
	Long: `github-stats-sync fetches a GitHub account's profile, owned repositories,
language breakdown and a fixed list of pinned repositories, derives the blog's
statistics and writes them to a single JSON snapshot.

The token is read from GITHUB_TOKEN (or a .env file); the account name from
GITHUB_USERNAME or --username.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSync,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		report.NewConsole(rootCmd.ErrOrStderr(), color.NoColor).Failure(err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default ./github-stats-sync.yaml if present)")
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Snapshot path (default src/data/github-stats.json)")
	rootCmd.PersistentFlags().StringP("username", "u", "", "GitHub account to sync (default $GITHUB_USERNAME or SwordFaith)")
}
