// Package fingerprint derives stable issue signatures so the same underlying
// problem can be matched across independently generated AI review passes.
//
// The verifier matches issues to findings by exact fingerprint equality, so
// both sides of a comparison must use the same Strategy. The strategy is
// pluggable because AI reviews are non-deterministic: the same bug may come
// back reworded, and stricter or looser identity functions trade match
// precision against resilience to rewording.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/recheck-ci/recheck/internal/types"
)

// titlePrefixRegex strips the "[AI]" marker and severity emoji that issue
// titles carry on the hosting platform, so tracker titles and raw review
// titles hash identically.
var titlePrefixRegex = regexp.MustCompile(`^\[AI\]\s*(?:🔴|🟡|🔵)?\s*`)

// Strategy computes a stable signature for a finding
type Strategy interface {
	// Name returns the strategy identifier used in configuration.
	Name() string

	// Fingerprint computes the signature for a finding. Implementations must
	// be deterministic and must not depend on line numbers, which shift as
	// unrelated code is edited.
	Fingerprint(f *types.Finding) string
}

// ForName returns the strategy registered under the given config name.
// Unknown names fall back to the exact strategy.
func ForName(name string) Strategy {
	switch name {
	case "normalized":
		return Normalized{}
	case "category":
		return Category{}
	default:
		return Exact{}
	}
}

// Exact hashes the file path and cleaned title verbatim. This is the
// default strategy and is wire-compatible with the AI-ID markers embedded
// in previously filed issue bodies.
type Exact struct{}

// Name implements Strategy.
func (Exact) Name() string { return "exact" }

// Fingerprint implements Strategy.
func (Exact) Fingerprint(f *types.Finding) string {
	title := titlePrefixRegex.ReplaceAllString(f.Title, "")
	return digest(fmt.Sprintf("%s:%s", f.FilePath, title))
}

// Normalized hashes the file path plus a normalized form of the title
// (lowercased, punctuation stripped, whitespace collapsed). It survives
// cosmetic rewording between passes at the cost of occasionally merging
// genuinely distinct issues with near-identical titles.
type Normalized struct{}

// Name implements Strategy.
func (Normalized) Name() string { return "normalized" }

// Fingerprint implements Strategy.
func (Normalized) Fingerprint(f *types.Finding) string {
	return digest(fmt.Sprintf("%s:%s", f.FilePath, NormalizeTitle(f.Title)))
}

// Category hashes the file path plus the finding's rule category. This is
// the loosest strategy: all findings of one category in one file collapse
// to a single identity. Findings without a category fall back to the
// normalized title so they still get a usable signature.
type Category struct{}

// Name implements Strategy.
func (Category) Name() string { return "category" }

// Fingerprint implements Strategy.
func (Category) Fingerprint(f *types.Finding) string {
	key := f.Category
	if key == "" {
		key = NormalizeTitle(f.Title)
	}
	return digest(fmt.Sprintf("%s:%s", f.FilePath, key))
}

// digest returns the first 8 hex characters of the md5 of s. md5 is fine
// here: the fingerprint is an identity key, not a security boundary, and
// the 8-char truncation matches the AI-ID format in existing issue bodies.
func digest(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}
