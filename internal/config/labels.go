package config

import (
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// LabelRule maps a file path pattern to extra labels for issues
// flagged in matching files
type LabelRule struct {
	// Pattern is a path.Match glob tested against the issue's file
	// path and each of its parent directories
	Pattern string `yaml:"pattern"`

	// Labels are added to issues whose file path matches Pattern
	Labels []string `yaml:"labels"`
}

// LabelPolicy assigns extra tracker labels based on where an issue
// was flagged. Teams use this to route security findings to the
// security board, frontend findings to the frontend board, and so on.
type LabelPolicy struct {
	Rules []LabelRule `yaml:"rules"`
}

// LoadLabelPolicy reads a label policy from a YAML file. An empty
// path yields an empty policy.
func LoadLabelPolicy(policyPath string) (*LabelPolicy, error) {
	if policyPath == "" {
		return &LabelPolicy{}, nil
	}

	data, err := os.ReadFile(policyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read label policy: %w", err)
	}

	var policy LabelPolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse label policy: %w", err)
	}

	for i, rule := range policy.Rules {
		if rule.Pattern == "" {
			return nil, fmt.Errorf("label policy rule %d has no pattern", i)
		}
		if _, err := path.Match(rule.Pattern, "probe"); err != nil {
			return nil, fmt.Errorf("label policy rule %d has invalid pattern %q: %w", i, rule.Pattern, err)
		}
	}

	return &policy, nil
}

// LabelsFor returns the extra labels for an issue flagged at filePath.
// Each rule pattern is matched against the full path, its base name,
// and every parent directory, so "internal/auth/*" and "*.sql" both
// work as expected. Duplicate labels are collapsed.
func (p *LabelPolicy) LabelsFor(filePath string) []string {
	if p == nil || len(p.Rules) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var labels []string
	for _, rule := range p.Rules {
		if !matchesPath(rule.Pattern, filePath) {
			continue
		}
		for _, label := range rule.Labels {
			if label == "" || seen[label] {
				continue
			}
			seen[label] = true
			labels = append(labels, label)
		}
	}
	return labels
}

func matchesPath(pattern, filePath string) bool {
	candidates := []string{filePath, path.Base(filePath)}
	for dir := path.Dir(filePath); dir != "." && dir != "/"; dir = path.Dir(dir) {
		candidates = append(candidates, dir)
	}
	for _, c := range candidates {
		if ok, _ := path.Match(pattern, c); ok {
			return true
		}
	}
	// Directory-prefix patterns like "internal/auth/*" should match
	// files nested more than one level below the directory.
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "*")
		if strings.HasPrefix(filePath, prefix) {
			return true
		}
	}
	return false
}
