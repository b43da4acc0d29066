package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/recheck-ci/recheck/internal/config"
	"github.com/recheck-ci/recheck/internal/fingerprint"
	"github.com/recheck-ci/recheck/internal/review"
	"github.com/recheck-ci/recheck/internal/types"
)

var reviewCmd = &cobra.Command{
	Use:   "review [files...]",
	Short: "Run an AI review pass over the given files",
	Long: `Review the given source files with the AI model and report findings.

The findings report can be written to a file with --output and fed to
"recheck verify". With --create-issues, each finding is also filed in
the tracker (idempotently: a finding whose fingerprint already has an
open issue is not filed twice).

Requires ANTHROPIC_API_KEY.

Examples:
  recheck review internal/auth/session.go
  recheck review --output report.json $(git diff --name-only origin/main)
  recheck review --create-issues --output report.json cmd/server/*.go`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		createIssues, _ := cmd.Flags().GetBool("create-issues")
		model, _ := cmd.Flags().GetString("model")

		cfg, err := loadConfig()
		if err != nil {
			// Review without --create-issues needs no tracker repo,
			// so fall back to the unvalidated config.
			if createIssues {
				return err
			}
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}
		}
		if model != "" {
			cfg.Model = model
		}

		input, reviewedFiles, err := buildReviewInput(args)
		if err != nil {
			return err
		}
		if len(reviewedFiles) == 0 {
			return fmt.Errorf("no readable files to review")
		}

		runner, err := review.NewRunner(&review.Config{
			Model:          cfg.Model,
			MaxTokens:      int64(cfg.MaxTokens),
			Fingerprint:    fingerprint.ForName(cfg.Fingerprint),
			MaxConcurrency: int64(cfg.MaxConcurrency),
		})
		if err != nil {
			return err
		}

		ctx := context.Background()

		fmt.Printf("Reviewing %d files...\n", len(reviewedFiles))
		report, err := runner.Review(ctx, input)
		if err != nil {
			return fmt.Errorf("review pass failed: %w", err)
		}
		report.ReviewedFiles = reviewedFiles

		printFindings(report)

		if output != "" {
			if err := writeReport(output, report); err != nil {
				return err
			}
			fmt.Printf("Report written to %s\n", output)
		}

		if createIssues {
			return fileIssues(ctx, cfg, report)
		}
		return nil
	},
}

func init() {
	reviewCmd.Flags().String("output", "", "write the findings report JSON to this file")
	reviewCmd.Flags().Bool("create-issues", false, "file tracker issues for new findings")
	reviewCmd.Flags().String("model", "", "override the review model")
	rootCmd.AddCommand(reviewCmd)
}

// buildReviewInput concatenates the files into one review payload.
// Unreadable files are skipped with a warning so a deleted file in a
// diff list does not sink the whole pass.
func buildReviewInput(paths []string) (string, []string, error) {
	var b strings.Builder
	var reviewed []string
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(&b, "=== FILE: %s ===\n%s\n\n", path, data)
		reviewed = append(reviewed, path)
	}
	return b.String(), reviewed, nil
}

func printFindings(report *types.ReviewReport) {
	if len(report.Findings) == 0 {
		fmt.Printf("%s\n", color.GreenString("No issues found"))
		return
	}

	for _, f := range report.Findings {
		sev := string(f.Severity)
		switch f.Severity {
		case types.SeverityCritical:
			sev = color.RedString("CRITICAL")
		case types.SeverityHigh:
			sev = color.YellowString("HIGH")
		}
		fmt.Printf("  [%s] %s:%d %s\n", sev, f.FilePath, f.LineStart, f.Title)
	}
	fmt.Printf("\n%d findings (%d critical)\n", len(report.Findings), len(report.CriticalFindings()))
	if report.Summary != "" {
		fmt.Printf("%s\n", report.Summary)
	}
}

func writeReport(path string, report *types.ReviewReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// fileIssues creates tracker issues for the report's findings, applying
// the label policy for extra labels. Creation is idempotent per
// fingerprint.
func fileIssues(ctx context.Context, cfg config.Config, report *types.ReviewReport) error {
	client, err := newTracker(cfg)
	if err != nil {
		return err
	}

	policy, err := config.LoadLabelPolicy(cfg.LabelPolicyPath)
	if err != nil {
		return err
	}

	created, existing := 0, 0
	for i := range report.Findings {
		f := &report.Findings[i]
		if cfg.DryRun {
			fmt.Printf("  would file: [%s] %s (%s)\n", f.Severity, f.Title, f.Fingerprint)
			continue
		}
		number, wasNew, err := client.CreateIssue(ctx, f, policy.LabelsFor(f.FilePath))
		if err != nil {
			return fmt.Errorf("failed to file issue for %s: %w", f.Fingerprint, err)
		}
		if wasNew {
			created++
			fmt.Printf("  filed #%d: %s\n", number, f.Title)
		} else {
			existing++
		}
	}
	fmt.Printf("Issues: %d filed, %d already tracked\n", created, existing)
	return nil
}
