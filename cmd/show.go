package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-stats-sync/internal/config"
	"github.com/naka-gawa/github-stats-sync/internal/report"
	"github.com/naka-gawa/github-stats-sync/internal/snapshot"
)

var showCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Prints the summary of an existing snapshot",
	Long:  `Reads a previously written snapshot and prints its headline numbers, language split and top repositories. No API calls are made.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("output")
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			path = config.DefaultOutputPath
		}

		saved, err := snapshot.Load(path)
		if err != nil {
			return err
		}

		report.NewConsole(cmd.OutOrStdout(), color.NoColor).Summary(saved)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
