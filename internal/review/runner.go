// Package review runs AI code review passes and parses their structured
// output into findings the verifier can consume.
package review

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"

	"github.com/recheck-ci/recheck/internal/fingerprint"
	"github.com/recheck-ci/recheck/internal/types"
)

// Review model constants. Sonnet is the default for thorough reviews;
// Haiku is available for cheap pre-screening passes.
const (
	// ModelSonnet is the high-end model for thorough review passes
	ModelSonnet = "claude-sonnet-4-5-20250929"

	// ModelHaiku is the cost-efficient model for quick passes
	ModelHaiku = "claude-3-5-haiku-20241022"
)

// DefaultModel returns the review model, checking RECHECK_MODEL env var first
func DefaultModel() string {
	if model := os.Getenv("RECHECK_MODEL"); model != "" {
		return model
	}
	return ModelSonnet
}

// maxInputChars caps the review input sent in one API call. Oversized
// input is truncated with a marker rather than rejected.
const maxInputChars = 100000

// Runner performs AI review passes against the Anthropic API.
//
// The runner is deliberately thin: it makes a single attempt per call
// under the caller's context deadline. Scheduling, retries across CI runs,
// and input preparation belong to the surrounding pipeline.
type Runner struct {
	client      *anthropic.Client
	model       string
	maxTokens   int64
	strategy    fingerprint.Strategy
	concurrency *semaphore.Weighted // bounds concurrent API calls across chunks
}

// Config holds runner configuration
type Config struct {
	APIKey         string // Anthropic API key (if empty, reads from ANTHROPIC_API_KEY env var)
	Model          string // Model to use (default: DefaultModel())
	MaxTokens      int64  // Response token budget (default: 4096)
	Fingerprint    fingerprint.Strategy
	MaxConcurrency int64 // Max concurrent API calls for chunked reviews (default: 2)
}

// NewRunner creates a new review runner
func NewRunner(cfg *Config) (*Runner, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel()
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	strategy := cfg.Fingerprint
	if strategy == nil {
		strategy = fingerprint.Exact{}
	}

	concurrency := cfg.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 2
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Runner{
		client:      &client,
		model:       model,
		maxTokens:   maxTokens,
		strategy:    strategy,
		concurrency: semaphore.NewWeighted(concurrency),
	}, nil
}

// Review runs one review pass over the prepared input text and returns the
// parsed report with fingerprints applied. Input preparation (which files,
// diff vs full source) is the caller's job; the runner reviews what it is
// given.
func (r *Runner) Review(ctx context.Context, input string) (*types.ReviewReport, error) {
	if err := r.concurrency.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire review slot: %w", err)
	}
	defer r.concurrency.Release(1)

	if len(input) > maxInputChars {
		input = input[:maxInputChars] + "\n\n... [input truncated due to size] ..."
	}

	startTime := time.Now()
	response, err := r.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: r.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: reviewInstructions},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(input)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	var responseText string
	for _, block := range response.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	report, err := ParseReport(responseText, r.strategy)
	if err != nil {
		return nil, fmt.Errorf("failed to parse review response: %w", err)
	}

	fmt.Printf("AI review pass: model=%s, findings=%d, files=%d, tokens=%d/%d, duration=%v\n",
		r.model, len(report.Findings), len(report.ReviewedFiles),
		response.Usage.InputTokens, response.Usage.OutputTokens,
		time.Since(startTime).Round(time.Millisecond))

	return report, nil
}

// reviewInstructions is the fixed instruction template for review passes.
// The model must answer with raw JSON matching the ReviewReport schema.
const reviewInstructions = `You are an automated code reviewer running inside a CI pipeline. The code to review is provided in the user message. This is not an interactive conversation: never ask for code, never address a human.

Review the provided code and report genuine problems only. If the code looks good, report zero findings.

Severity levels:
- critical: bugs that will break production, security vulnerabilities, data loss
- high: likely bugs, significant correctness risks
- medium: performance problems, error-handling gaps
- low: maintainability and clarity improvements

Categories (use the closest match): memory-leak, race-condition, type-error, security, performance, error-handling, logic, other.

Respond with ONLY a raw JSON object, no markdown fences, in this shape:
{
  "findings": [
    {
      "file_path": "src/path/to/file.ts",
      "title": "Short issue title",
      "description": "What is wrong and why it matters",
      "category": "memory-leak",
      "severity": "critical",
      "line_start": 42,
      "line_end": 50,
      "current_code": "the problematic snippet",
      "suggestion": "the corrected snippet or approach"
    }
  ],
  "reviewed_files": ["src/path/to/file.ts"],
  "summary": "One-paragraph overall assessment"
}

List every file you reviewed in reviewed_files, including files with zero findings. Reference exact file paths as given in the input. Do not invent problems.`
