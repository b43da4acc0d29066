// Package tracker implements the issue tracker client for GitHub.
//
// The tracker is the system of record for FlaggedIssue state: the
// confirmation counters live as ai-not-seen-Nx labels, the fingerprint as
// an AI-ID marker in the issue body, and the audit trail as comments. The
// verifier core never talks to the network; this package decodes tracker
// state into FlaggedIssues before a pass and persists VerificationResults
// back after it.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/recheck-ci/recheck/internal/types"
)

// Flag labels applied to issues this tool manages
const (
	// LabelAIReview marks issues created from AI review findings
	LabelAIReview = "ai-review"
	// LabelCritical marks critical-severity findings
	LabelCritical = "critical"
	// LabelEscalated marks issues the verifier recommended escalating
	LabelEscalated = "ai-escalated"
)

var (
	// aiIDRegex extracts the fingerprint marker from an issue body
	aiIDRegex = regexp.MustCompile(`AI-ID:\s*(\w+)`)
	// filePathRegex extracts the file path line from an issue body
	filePathRegex = regexp.MustCompile("\\*\\*File:\\*\\*\\s*`([^`]+)`")
)

// Client is a minimal GitHub REST v3 client scoped to issue verification.
type Client struct {
	baseURL    string
	repo       string // "owner/name"
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientConfig holds tracker client configuration
type ClientConfig struct {
	Repo    string        // Repository in "owner/name" form
	Token   string        // API token
	BaseURL string        // Override for testing (default: https://api.github.com)
	Timeout time.Duration // Per-request timeout (default: 30s)
	// RequestsPerSecond bounds the request rate to stay inside the API
	// budget of a CI job (default: 5).
	RequestsPerSecond float64
}

// NewClient creates a new tracker client
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg.Repo == "" || !strings.Contains(cfg.Repo, "/") {
		return nil, fmt.Errorf("repository must be in owner/name form (got %q)", cfg.Repo)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("API token is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		repo:       cfg.Repo,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// apiIssue is the subset of the GitHub issue payload this client reads
type apiIssue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	Labels    []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

// ListFlaggedIssues fetches open AI review issues and decodes them into
// FlaggedIssues. Issues without a parseable AI-ID marker are skipped: the
// verifier cannot match what it cannot fingerprint.
func (c *Client) ListFlaggedIssues(ctx context.Context) ([]types.FlaggedIssue, error) {
	params := url.Values{}
	params.Set("state", "open")
	params.Set("labels", LabelAIReview)
	params.Set("per_page", "100")

	var issues []types.FlaggedIssue
	for page := 1; ; page++ {
		params.Set("page", strconv.Itoa(page))

		var batch []apiIssue
		if err := c.do(ctx, http.MethodGet, "/issues?"+params.Encode(), nil, &batch); err != nil {
			return nil, fmt.Errorf("failed to list issues: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, raw := range batch {
			issue, ok := decodeIssue(raw)
			if !ok {
				continue
			}
			issues = append(issues, issue)
		}

		if len(batch) < 100 {
			break
		}
	}
	return issues, nil
}

// decodeIssue maps an API issue onto a FlaggedIssue, reading the
// fingerprint and file path from the body and the counters from labels.
func decodeIssue(raw apiIssue) (types.FlaggedIssue, bool) {
	idMatch := aiIDRegex.FindStringSubmatch(raw.Body)
	if idMatch == nil {
		return types.FlaggedIssue{}, false
	}

	filePath := ""
	if m := filePathRegex.FindStringSubmatch(raw.Body); m != nil {
		filePath = m[1]
	}

	labels := make([]string, 0, len(raw.Labels))
	for _, l := range raw.Labels {
		labels = append(labels, l.Name)
	}

	missCount := NotSeenCount(labels)
	status := types.StatusOpen
	if missCount > 0 {
		status = types.StatusPendingClose
	}
	// The counters are mutually exclusive; a leftover seen label loses
	// to a live miss streak.
	confirmations := 0
	if missCount == 0 {
		confirmations = SeenCount(labels)
	}
	severity := types.Severity("")
	if hasLabel(labels, LabelCritical) {
		severity = types.SeverityCritical
	}

	return types.FlaggedIssue{
		ID:                strconv.Itoa(raw.Number),
		Fingerprint:       idMatch[1],
		FilePath:          filePath,
		Title:             raw.Title,
		Severity:          severity,
		Status:            status,
		ConfirmationCount: confirmations,
		MissCount:         missCount,
		CreatedAt:         raw.CreatedAt,
	}, true
}

// FindExistingIssue returns the number of the open flagged issue carrying
// the given fingerprint, or 0 if none exists.
func (c *Client) FindExistingIssue(ctx context.Context, fp string) (int, error) {
	issues, err := c.ListFlaggedIssues(ctx)
	if err != nil {
		return 0, err
	}
	for _, issue := range issues {
		if issue.Fingerprint == fp {
			n, err := strconv.Atoi(issue.ID)
			if err != nil {
				return 0, fmt.Errorf("unexpected issue ID %q: %w", issue.ID, err)
			}
			return n, nil
		}
	}
	return 0, nil
}

// CreateIssue files a tracker issue for a finding. Creation is idempotent
// against the fingerprint: if an open issue with the same AI-ID exists,
// its number is returned and nothing is created.
func (c *Client) CreateIssue(ctx context.Context, f *types.Finding, extraLabels []string) (int, bool, error) {
	if err := f.Validate(); err != nil {
		return 0, false, fmt.Errorf("refusing to file invalid finding: %w", err)
	}

	existing, err := c.FindExistingIssue(ctx, f.Fingerprint)
	if err != nil {
		return 0, false, err
	}
	if existing != 0 {
		return existing, false, nil
	}

	labels := []string{LabelAIReview}
	if f.Severity == types.SeverityCritical {
		labels = append(labels, LabelCritical, "bug")
	}
	labels = append(labels, extraLabels...)

	payload := map[string]any{
		"title":  IssueTitle(f),
		"body":   IssueBody(f),
		"labels": labels,
	}

	var created apiIssue
	if err := c.do(ctx, http.MethodPost, "/issues", payload, &created); err != nil {
		return 0, false, fmt.Errorf("failed to create issue: %w", err)
	}
	return created.Number, true, nil
}

// Comment adds a comment to an issue
func (c *Client) Comment(ctx context.Context, number int, body string) error {
	payload := map[string]any{"body": body}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/issues/%d/comments", number), payload, nil); err != nil {
		return fmt.Errorf("failed to comment on issue #%d: %w", number, err)
	}
	return nil
}

// AddLabel adds a label to an issue
func (c *Client) AddLabel(ctx context.Context, number int, label string) error {
	payload := map[string]any{"labels": []string{label}}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/issues/%d/labels", number), payload, nil); err != nil {
		return fmt.Errorf("failed to add label %s to issue #%d: %w", label, number, err)
	}
	return nil
}

// RemoveLabel removes a label from an issue. A missing label is not an
// error: the end state is what matters.
func (c *Client) RemoveLabel(ctx context.Context, number int, label string) error {
	path := fmt.Sprintf("/issues/%d/labels/%s", number, url.PathEscape(label))
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("failed to remove label %s from issue #%d: %w", label, number, err)
	}
	return nil
}

// CloseIssue closes an issue
func (c *Client) CloseIssue(ctx context.Context, number int) error {
	payload := map[string]any{"state": "closed"}
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/issues/%d", number), payload, nil); err != nil {
		return fmt.Errorf("failed to close issue #%d: %w", number, err)
	}
	return nil
}

// StatusError is returned for non-2xx API responses
type StatusError struct {
	Code int
	Body string
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.Code, e.Body)
}

// do performs one rate-limited API request and decodes the response into
// out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	reqURL := fmt.Sprintf("%s/repos/%s%s", c.baseURL, c.repo, path)
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: truncate(string(data), 200)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// hasLabel checks if a label list contains a label
func hasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// truncate shortens s for error messages
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
