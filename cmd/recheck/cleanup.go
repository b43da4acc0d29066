package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/recheck-ci/recheck/internal/dedup"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Close duplicate flagged issues",
	Long: `Find open AI review issues that flag the same problem in the same file
under slightly different titles and close the older duplicates.

Duplicates happen when the review model phrases the same finding
differently across passes, producing distinct fingerprints. Titles are
compared after normalization; issues on the same file with similarity
at or above the threshold form a group and only the newest stays open.

By default nothing is closed: pass --apply to close duplicates.

Examples:
  recheck cleanup                     # preview duplicate groups
  recheck cleanup --apply             # close older duplicates
  recheck cleanup --similarity 0.9    # stricter title matching`,
	RunE: func(cmd *cobra.Command, args []string) error {
		apply, _ := cmd.Flags().GetBool("apply")
		similarity, _ := cmd.Flags().GetFloat64("similarity")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if similarity > 0 {
			cfg.SimilarityThreshold = similarity
		}
		if cfg.DryRun {
			apply = false
		}

		client, err := newTracker(cfg)
		if err != nil {
			return err
		}

		ctx := context.Background()

		issues, err := client.ListFlaggedIssues(ctx)
		if err != nil {
			return err
		}

		groups := dedup.FindDuplicateGroups(issues, dedup.Config{
			SimilarityThreshold: cfg.SimilarityThreshold,
		})
		if len(groups) == 0 {
			fmt.Printf("%s\n", color.GreenString("No duplicate issues found"))
			return nil
		}

		if !apply {
			fmt.Printf("%s\n", color.YellowString("Preview only - pass --apply to close duplicates"))
		}

		closed := 0
		for _, g := range groups {
			fmt.Printf("Keeping #%s %s\n", g.Keep.ID, g.Keep.Title)
			for _, dup := range g.Duplicates {
				if !apply {
					fmt.Printf("  would close #%s %s\n", dup.ID, dup.Title)
					continue
				}
				number, err := strconv.Atoi(dup.ID)
				if err != nil {
					fmt.Printf("  skipping #%s: bad issue number\n", dup.ID)
					continue
				}
				comment := fmt.Sprintf("Closing as duplicate of #%s.", g.Keep.ID)
				if err := client.Comment(ctx, number, comment); err != nil {
					return fmt.Errorf("failed to comment on #%s: %w", dup.ID, err)
				}
				if err := client.CloseIssue(ctx, number); err != nil {
					return fmt.Errorf("failed to close #%s: %w", dup.ID, err)
				}
				fmt.Printf("  closed #%s %s\n", dup.ID, dup.Title)
				closed++
			}
		}

		if apply {
			fmt.Printf("\nClosed %d duplicate issues across %d groups\n", closed, len(groups))
		}
		return nil
	},
}

func init() {
	cleanupCmd.Flags().Bool("apply", false, "close duplicates instead of previewing")
	cleanupCmd.Flags().Float64("similarity", 0, "override title similarity threshold (0.5-1.0)")
	rootCmd.AddCommand(cleanupCmd)
}
