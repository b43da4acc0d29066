package review

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/recheck-ci/recheck/internal/fingerprint"
	"github.com/recheck-ci/recheck/internal/types"
)

// Pre-compiled cleanup patterns. Models are told to answer with raw JSON
// but still wrap it in code fences or prose often enough that parsing
// needs fallback strategies.
var (
	codeFenceRegex     = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?```")
	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)
	jsonObjectRegex    = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

// validate is the boundary validator for parsed findings. Malformed
// findings are rejected here so the verifier can assume well-formed input.
var validate = validator.New()

// rawReport mirrors the JSON schema the model is instructed to produce.
// Findings arrive without fingerprints; those are derived locally.
type rawReport struct {
	Findings []struct {
		FilePath    string `json:"file_path" validate:"required"`
		Title       string `json:"title" validate:"required"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Severity    string `json:"severity" validate:"required"`
		LineStart   int    `json:"line_start"`
		LineEnd     int    `json:"line_end"`
		CurrentCode string `json:"current_code"`
		Suggestion  string `json:"suggestion"`
	} `json:"findings"`
	ReviewedFiles []string `json:"reviewed_files"`
	Summary       string   `json:"summary"`
}

// ParseReport parses an AI review response into a ReviewReport, deriving a
// fingerprint for every finding with the given strategy.
//
// Parse strategy sequence:
//  1. direct JSON parse
//  2. strip code fences and retry
//  3. fix trailing commas and retry
//  4. extract the outermost JSON object from mixed prose and retry
func ParseReport(text string, strategy fingerprint.Strategy) (*types.ReviewReport, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("empty review response")
	}

	raw, err := parseRaw(trimmed)
	if err != nil {
		return nil, err
	}

	report := &types.ReviewReport{
		ReviewedFiles: raw.ReviewedFiles,
		Summary:       raw.Summary,
	}

	for i, rf := range raw.Findings {
		if err := validate.Struct(rf); err != nil {
			return nil, fmt.Errorf("finding %d is malformed: %w", i, err)
		}

		severity := types.Severity(strings.ToLower(rf.Severity))
		if !severity.IsValid() {
			return nil, fmt.Errorf("finding %d has unknown severity %q", i, rf.Severity)
		}

		f := types.Finding{
			FilePath:    rf.FilePath,
			Title:       rf.Title,
			Description: rf.Description,
			Category:    rf.Category,
			Severity:    severity,
			LineStart:   rf.LineStart,
			LineEnd:     rf.LineEnd,
			CurrentCode: rf.CurrentCode,
			Suggestion:  rf.Suggestion,
		}
		f.Fingerprint = strategy.Fingerprint(&f)
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("finding %d is invalid: %w", i, err)
		}
		report.Findings = append(report.Findings, f)
	}

	return report, nil
}

// parseRaw attempts the fallback parse sequence
func parseRaw(text string) (*rawReport, error) {
	candidates := []string{text}

	if m := codeFenceRegex.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	candidates = append(candidates, trailingCommaRegex.ReplaceAllString(text, "$1"))
	if m := jsonObjectRegex.FindString(text); m != "" {
		candidates = append(candidates, trailingCommaRegex.ReplaceAllString(m, "$1"))
	}

	var lastErr error
	for _, c := range candidates {
		var raw rawReport
		if err := json.Unmarshal([]byte(c), &raw); err != nil {
			lastErr = err
			continue
		}
		return &raw, nil
	}
	return nil, fmt.Errorf("no parse strategy succeeded: %w", lastErr)
}
