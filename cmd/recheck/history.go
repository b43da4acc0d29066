package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/recheck-ci/recheck/internal/config"
	"github.com/recheck-ci/recheck/internal/storage/sqlite"
	"github.com/recheck-ci/recheck/internal/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past verification passes",
	Long: `List recent verification passes from the local archive, or show the
per-issue results of one pass.

Examples:
  recheck history                 # last 20 passes
  recheck history -n 5            # last 5 passes
  recheck history --pass <id>     # per-issue results of one pass`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		passID, _ := cmd.Flags().GetString("pass")

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open pass history: %w", err)
		}
		defer store.Close()

		ctx := context.Background()

		if passID != "" {
			results, err := store.PassResults(ctx, passID)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Printf("No results recorded for pass %s\n", passID)
				return nil
			}
			for _, r := range results {
				marker := "  "
				switch {
				case r.Skipped:
					marker = color.YellowString("~ ")
				case r.RecommendedAction == types.ActionClose:
					marker = color.GreenString("✓ ")
				case r.RecommendedAction == types.ActionEscalate:
					marker = color.RedString("! ")
				case r.Decision == types.DecisionConfirmPresent:
					marker = color.RedString("● ")
				}
				fmt.Printf("%s#%s [%s] %s (%s, misses %d)\n",
					marker, r.IssueID, r.Issue.Severity, r.Issue.Title, r.Decision, r.Issue.MissCount)
			}
			return nil
		}

		passes, err := store.ListPasses(ctx, limit)
		if err != nil {
			return err
		}
		if len(passes) == 0 {
			fmt.Println("No verification passes recorded yet")
			return nil
		}

		for _, p := range passes {
			fmt.Printf("%s  %s  %s\n", p.RanAt.Local().Format("2006-01-02 15:04"), p.Repo, p.ID)
			fmt.Printf("    findings %d, files %d, closed %d, tracking %d, present %d, reset %d, skipped %d",
				p.FindingCount, p.ReviewedFiles, p.Closed, p.Tracking, p.Present, p.Reset, p.Skipped)
			if p.Escalated > 0 {
				fmt.Printf(", escalated %s", color.RedString("%d", p.Escalated))
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of passes to show")
	historyCmd.Flags().String("pass", "", "show per-issue results for this pass ID")
	rootCmd.AddCommand(historyCmd)
}
