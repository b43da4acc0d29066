package fingerprint

import (
	"regexp"
	"strings"
)

var (
	nonWordRegex    = regexp.MustCompile(`[^\w\s-]`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// NormalizeTitle lowercases a title, strips the platform prefix and
// punctuation, and collapses whitespace. Two titles that normalize to the
// same string are treated as the same issue title.
func NormalizeTitle(title string) string {
	title = titlePrefixRegex.ReplaceAllString(title, "")
	title = strings.ToLower(title)
	title = nonWordRegex.ReplaceAllString(title, "")
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(title, " "))
}

// TitlesSimilar reports whether two titles refer to the same issue, using a
// longest-matching-subsequence ratio over the normalized forms. The 0.85
// threshold tolerates minor rewording without merging unrelated titles.
func TitlesSimilar(a, b string, threshold float64) bool {
	return SimilarityRatio(NormalizeTitle(a), NormalizeTitle(b)) >= threshold
}

// SimilarityRatio computes 2*M/T where M is the total length of matching
// blocks between a and b and T is the combined length. This is the classic
// sequence-matcher ratio: 1.0 for identical strings, 0.0 for disjoint ones.
func SimilarityRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	matched := matchingTotal(a, b)
	return 2.0 * float64(matched) / float64(len(a)+len(b))
}

// matchingTotal sums the lengths of the matching blocks found by recursively
// splitting around the longest common substring.
func matchingTotal(a, b string) int {
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingTotal(a[:ai], b[:bi])
	total += matchingTotal(a[ai+size:], b[bi+size:])
	return total
}

// longestMatch finds the longest common substring of a and b, returning its
// start offsets and length. Quadratic in the shorter input, which is fine
// for issue titles.
func longestMatch(a, b string) (ai, bi, size int) {
	// lengths[j] holds the match length ending at a[i-1], b[j-1]
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > size {
					size = lengths[j]
					ai = i - size
					bi = j - size
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}
	return ai, bi, size
}
