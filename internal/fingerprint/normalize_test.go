package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Memory Leak In Handler", "memory leak in handler"},
		{"strips prefix and emoji", "[AI] 🔴 Race condition", "race condition"},
		{"strips punctuation", "Missing cleanup: useEffect (line 42)!", "missing cleanup useeffect line 42"},
		{"collapses whitespace", "  too   many\tspaces ", "too many spaces"},
		{"keeps hyphens", "race-condition in fetch", "race-condition in fetch"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.input))
		})
	}
}

func TestSimilarityRatio(t *testing.T) {
	assert.Equal(t, 1.0, SimilarityRatio("abc", "abc"))
	assert.Equal(t, 1.0, SimilarityRatio("", ""))
	assert.Equal(t, 0.0, SimilarityRatio("abc", ""))
	assert.Equal(t, 0.0, SimilarityRatio("abc", "xyz"))

	// "abcd" vs "bcde": matching blocks total 3 ("bcd"), ratio 2*3/8.
	assert.InDelta(t, 0.75, SimilarityRatio("abcd", "bcde"), 1e-9)
}

func TestTitlesSimilar(t *testing.T) {
	assert.True(t, TitlesSimilar(
		"[AI] 🔴 Memory leak from missing cleanup in useEffect",
		"Memory leak from missing cleanup in useEffect hook",
		0.85,
	))
	assert.False(t, TitlesSimilar(
		"Memory leak in useEffect",
		"SQL injection in query builder",
		0.85,
	))
	// Identical after normalization.
	assert.True(t, TitlesSimilar("Race Condition!", "race condition", 0.99))
}
