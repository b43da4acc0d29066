package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recheck-ci/recheck/internal/types"
)

func issue(id, file, title string, age time.Duration) types.FlaggedIssue {
	return types.FlaggedIssue{
		ID:          id,
		Fingerprint: "fp-" + id,
		FilePath:    file,
		Title:       title,
		Status:      types.StatusOpen,
		CreatedAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Add(-age),
	}
}

func TestFindDuplicateGroupsKeepsNewest(t *testing.T) {
	issues := []types.FlaggedIssue{
		issue("1", "src/app.tsx", "[AI] 🔴 Memory leak from missing cleanup in useEffect", 48*time.Hour),
		issue("2", "src/app.tsx", "[AI] 🔴 Memory leak from missing cleanup in useEffect hook", 1*time.Hour),
		issue("3", "src/other.tsx", "[AI] 🔴 Unrelated problem", 2*time.Hour),
	}

	groups := FindDuplicateGroups(issues, Config{})
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, "2", g.Keep.ID, "the newest issue wins")
	require.Len(t, g.Duplicates, 1)
	assert.Equal(t, "1", g.Duplicates[0].ID)
}

func TestFindDuplicateGroupsRequiresSameFile(t *testing.T) {
	issues := []types.FlaggedIssue{
		issue("1", "src/a.tsx", "Memory leak from missing cleanup", time.Hour),
		issue("2", "src/b.tsx", "Memory leak from missing cleanup", time.Minute),
	}
	assert.Empty(t, FindDuplicateGroups(issues, Config{}), "same title on different files is not a duplicate")
}

func TestFindDuplicateGroupsDissimilarTitles(t *testing.T) {
	issues := []types.FlaggedIssue{
		issue("1", "src/a.tsx", "Memory leak in effect", time.Hour),
		issue("2", "src/a.tsx", "SQL injection in query builder", time.Minute),
	}
	assert.Empty(t, FindDuplicateGroups(issues, Config{}))
}

func TestFindDuplicateGroupsTransitive(t *testing.T) {
	// Three near-identical titles collapse into one group of three.
	issues := []types.FlaggedIssue{
		issue("1", "src/a.tsx", "Race condition in data fetch", 3*time.Hour),
		issue("2", "src/a.tsx", "Race condition in data fetch!", 2*time.Hour),
		issue("3", "src/a.tsx", "race condition in Data Fetch", 1*time.Hour),
	}

	groups := FindDuplicateGroups(issues, Config{})
	require.Len(t, groups, 1)
	assert.Equal(t, "3", groups[0].Keep.ID)
	assert.Len(t, groups[0].Duplicates, 2)
}

func TestFindDuplicateGroupsThresholdOverride(t *testing.T) {
	issues := []types.FlaggedIssue{
		issue("1", "src/a.tsx", "Missing null check in parser", time.Hour),
		issue("2", "src/a.tsx", "Missing nil check in parse", time.Minute),
	}

	// Strict threshold: not duplicates.
	assert.Empty(t, FindDuplicateGroups(issues, Config{SimilarityThreshold: 0.99}))
	// Loose threshold: duplicates.
	assert.Len(t, FindDuplicateGroups(issues, Config{SimilarityThreshold: 0.6}), 1)
}

func TestFindDuplicateGroupsEmpty(t *testing.T) {
	assert.Empty(t, FindDuplicateGroups(nil, Config{}))
	assert.Empty(t, FindDuplicateGroups([]types.FlaggedIssue{issue("1", "a", "t", 0)}, Config{}))
}
