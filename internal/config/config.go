// Package config loads recheck configuration from .recheck.yaml and
// RECHECK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds the full runtime configuration for a recheck run
type Config struct {
	// Repo is the issue tracker repository in "owner/name" form
	Repo string `mapstructure:"repo" validate:"required"`

	// Token is the tracker API token. Usually supplied via the
	// RECHECK_TOKEN or GITHUB_TOKEN environment variable rather
	// than the config file.
	Token string `mapstructure:"token"`

	// Threshold is the number of consecutive non-detections before
	// an issue is closed
	// Default: 3, Range: 1-10
	Threshold int `mapstructure:"threshold" validate:"min=1,max=10"`

	// Model is the AI model used for review passes
	Model string `mapstructure:"model"`

	// MaxTokens caps the review response size
	// Default: 4096
	MaxTokens int `mapstructure:"max_tokens" validate:"min=0"`

	// Fingerprint selects the issue identity strategy
	// Options: "exact", "normalized", "category"
	// Default: "exact"
	Fingerprint string `mapstructure:"fingerprint" validate:"oneof=exact normalized category"`

	// RequestsPerSecond rate-limits tracker API calls
	// Default: 5
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"min=0"`

	// MaxConcurrency caps concurrent review API calls
	// Default: 2
	MaxConcurrency int `mapstructure:"max_concurrency" validate:"min=0,max=16"`

	// DBPath is where the pass-history archive lives
	// Default: ".recheck/recheck.db"
	DBPath string `mapstructure:"db_path"`

	// LabelPolicyPath points at an optional labels.yaml with
	// path-pattern rules for extra issue labels
	LabelPolicyPath string `mapstructure:"label_policy"`

	// SimilarityThreshold is the duplicate-title cutoff for cleanup
	// Default: 0.85, Range: 0.5-1.0
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" validate:"min=0.5,max=1.0"`

	// SkipEmptyPass makes a pass that reviewed nothing leave all
	// counters untouched instead of counting misses
	// Default: false
	SkipEmptyPass bool `mapstructure:"skip_empty_pass"`

	// EscalateAfter escalates critical issues still present after
	// this many consecutive confirmations. 0 disables escalation.
	// Default: 0
	EscalateAfter int `mapstructure:"escalate_after" validate:"min=0"`

	// DryRun reports what would change without touching the tracker
	DryRun bool `mapstructure:"dry_run"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Threshold:           3,
		MaxTokens:           4096,
		Fingerprint:         "exact",
		RequestsPerSecond:   5,
		MaxConcurrency:      2,
		DBPath:              ".recheck/recheck.db",
		SimilarityThreshold: 0.85,
	}
}

var validate = validator.New()

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if ok := errors.As(err, &verrs); ok && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("invalid config field %s (got %v)", strings.ToLower(f.Field()), f.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if !strings.Contains(c.Repo, "/") {
		return fmt.Errorf("repo must be in owner/name form (got %q)", c.Repo)
	}
	return nil
}

// Load reads configuration from the given file (or .recheck.yaml in the
// working directory when path is empty) and applies RECHECK_* environment
// overrides. Callers layer their flag overrides on top and then call
// Validate; Load does not validate so a repo given only on the command
// line still works.
func Load(path string) (Config, error) {
	v := viper.New()

	cfg := DefaultConfig()
	// Keys need a default registered for AutomaticEnv to pick them up
	// during Unmarshal, so repo and token get empty defaults.
	v.SetDefault("repo", "")
	v.SetDefault("token", "")
	v.SetDefault("threshold", cfg.Threshold)
	v.SetDefault("max_tokens", cfg.MaxTokens)
	v.SetDefault("fingerprint", cfg.Fingerprint)
	v.SetDefault("requests_per_second", cfg.RequestsPerSecond)
	v.SetDefault("max_concurrency", cfg.MaxConcurrency)
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("similarity_threshold", cfg.SimilarityThreshold)
	v.SetDefault("model", "")
	v.SetDefault("label_policy", "")
	v.SetDefault("skip_empty_pass", false)
	v.SetDefault("escalate_after", 0)
	v.SetDefault("dry_run", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".recheck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("RECHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file is fine, env and defaults still apply
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
