package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/recheck-ci/recheck/internal/storage"
	"github.com/recheck-ci/recheck/internal/tracker"
	"github.com/recheck-ci/recheck/internal/types"
	"github.com/recheck-ci/recheck/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-check open flagged issues against a findings report",
	Long: `Verify every open AI review issue against the findings of the latest
review pass.

Issues whose fingerprint appears in the report are confirmed present and
have their miss counter reset. Issues not detected accrue a miss; after
3 consecutive misses (configurable via threshold) the issue is closed as
fixed. Issues whose file was not reviewed in this pass are skipped and
keep their counters.

Examples:
  recheck verify report.json
  recheck verify --findings -        # read report from stdin
  recheck verify report.json --threshold 5
  recheck verify report.json --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		findingsPath, _ := cmd.Flags().GetString("findings")
		thresholdFlag, _ := cmd.Flags().GetInt("threshold")
		if len(args) == 1 {
			findingsPath = args[0]
		}
		if findingsPath == "" {
			return fmt.Errorf("a findings report is required (pass a file or --findings)")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if thresholdFlag > 0 {
			cfg.Threshold = thresholdFlag
		}

		report, err := readReport(findingsPath)
		if err != nil {
			return err
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
		fmt.Printf("Checking %d open issues against %d findings (%d files reviewed)\n",
			len(issues), len(report.Findings), len(report.ReviewedFiles))

		reviewed := make(map[string]bool, len(report.ReviewedFiles))
		for _, f := range report.ReviewedFiles {
			reviewed[f] = true
		}

		results := verify.Evaluate(issues, report.Findings, verify.Options{
			Threshold:     cfg.Threshold,
			ReviewedFiles: reviewed,
			SkipEmptyPass: cfg.SkipEmptyPass,
			EscalateAfter: cfg.EscalateAfter,
		})

		if cfg.DryRun {
			fmt.Printf("%s\n", color.YellowString("DRY RUN MODE - No tracker changes will be made"))
			printDryRun(results)
			return nil
		}

		summary, applyErr := client.ApplyResults(ctx, issues, results, cfg.Threshold)

		archivePass(ctx, openArchive(cfg), cfg.Repo, cfg.Threshold, report, results, summary)

		printSummary(summary)
		return applyErr
	},
}

func init() {
	verifyCmd.Flags().String("findings", "", "findings report JSON (use - for stdin)")
	verifyCmd.Flags().Int("threshold", 0, "override consecutive-miss closure threshold")
	rootCmd.AddCommand(verifyCmd)
}

// readReport loads a ReviewReport from a file or stdin
func readReport(path string) (*types.ReviewReport, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read findings report: %w", err)
	}

	var report types.ReviewReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse findings report: %w", err)
	}
	return &report, nil
}

func printDryRun(results []types.VerificationResult) {
	for _, r := range results {
		issue := r.Issue
		switch {
		case r.Skipped:
			fmt.Printf("  skip  #%s %s (file not reviewed)\n", r.IssueID, issue.Title)
		case r.RecommendedAction == types.ActionClose:
			fmt.Printf("  %s #%s %s (%d consecutive misses)\n",
				color.GreenString("close"), r.IssueID, issue.Title, issue.MissCount)
		case r.RecommendedAction == types.ActionEscalate:
			fmt.Printf("  %s #%s %s (still present after %d confirmations)\n",
				color.RedString("escalate"), r.IssueID, issue.Title, issue.ConfirmationCount)
		case r.Decision == types.DecisionConfirmPresent:
			fmt.Printf("  %s #%s %s\n", color.RedString("present"), r.IssueID, issue.Title)
		default:
			fmt.Printf("  %s  #%s %s (miss %d)\n", color.YellowString("miss"), r.IssueID, issue.Title, issue.MissCount)
		}
	}
}

// archivePass records the pass in the history database. Best effort:
// failures are warnings, never errors.
func archivePass(ctx context.Context, store storage.Store, repo string, threshold int, report *types.ReviewReport, results []types.VerificationResult, summary *tracker.ApplySummary) {
	if store == nil {
		return
	}
	defer store.Close()

	pass := &storage.PassRecord{
		Repo:          repo,
		RanAt:         time.Now().UTC(),
		Threshold:     threshold,
		FindingCount:  len(report.Findings),
		ReviewedFiles: len(report.ReviewedFiles),
		Closed:        summary.Closed,
		Tracking:      summary.Tracking,
		Present:       summary.Present,
		Reset:         summary.Reset,
		Skipped:       summary.Skipped,
		Escalated:     summary.Escalated,
	}
	if err := store.RecordPass(ctx, pass, results); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to archive pass: %v\n", err)
	}
}

func printSummary(summary *tracker.ApplySummary) {
	fmt.Println()
	fmt.Printf("%s\n", color.New(color.Bold).Sprint("Verification pass complete"))
	fmt.Printf("  Closed:    %d\n", summary.Closed)
	fmt.Printf("  Tracking:  %d\n", summary.Tracking)
	fmt.Printf("  Present:   %d\n", summary.Present)
	fmt.Printf("  Reset:     %d\n", summary.Reset)
	fmt.Printf("  Skipped:   %d\n", summary.Skipped)
	if summary.Escalated > 0 {
		fmt.Printf("  Escalated: %s\n", color.RedString("%d", summary.Escalated))
	}
}
