// recheck verifies AI-flagged code review issues across CI runs.
//
// Each review pass re-checks every open flagged issue against the
// latest findings. Issues that stay undetected for consecutive passes
// are closed automatically; issues detected again have their counters
// reset. The issue tracker is the only state store, so any CI job can
// run a pass without shared infrastructure.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/recheck-ci/recheck/internal/config"
	"github.com/recheck-ci/recheck/internal/storage"
	"github.com/recheck-ci/recheck/internal/storage/sqlite"
	"github.com/recheck-ci/recheck/internal/tracker"
)

var (
	cfgFile   string
	flagRepo  string
	flagToken string
	dryRun    bool
)

var rootCmd = &cobra.Command{
	Use:   "recheck",
	Short: "Verify AI code review findings across CI runs",
	Long: `recheck tracks AI code review findings as issues in your tracker and
verifies them on every pass.

An issue not detected for 3 consecutive passes is closed as fixed.
An issue detected again has its counter reset and stays open.

Typical CI pipeline:
  recheck review --output report.json $(git diff --name-only origin/main)
  recheck verify --findings report.json`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .recheck.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagRepo, "repo", "", "tracker repository (owner/name)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "tracker API token (default $RECHECK_TOKEN or $GITHUB_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "report actions without touching the tracker")
}

// loadConfig reads the config file and applies flag overrides
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if flagRepo != "" {
		cfg.Repo = flagRepo
	}
	if flagToken != "" {
		cfg.Token = flagToken
	}
	if cfg.Token == "" {
		// RECHECK_TOKEN is handled by the config layer; GITHUB_TOKEN is
		// the conventional fallback inside GitHub Actions jobs.
		cfg.Token = os.Getenv("GITHUB_TOKEN")
	}
	if dryRun {
		cfg.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newTracker builds the tracker client from config
func newTracker(cfg config.Config) (*tracker.Client, error) {
	client, err := tracker.NewClient(&tracker.ClientConfig{
		Repo:              cfg.Repo,
		Token:             cfg.Token,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracker client: %w", err)
	}
	return client, nil
}

// openArchive opens the pass-history database. A warning is printed and
// a nil store returned when it cannot be opened: history is best effort
// and must never fail a CI run.
func openArchive(cfg config.Config) storage.Store {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: pass history unavailable: %v\n", err)
		return nil
	}
	return store
}
