// Package dedup detects duplicate flagged issues.
//
// AI review passes occasionally file the same problem twice under slightly
// different titles before fingerprinting catches up. Deduplication groups
// issues by file path plus normalized-title similarity and keeps the
// newest issue of each group; the tracker client closes the rest.
package dedup

import (
	"sort"

	"github.com/recheck-ci/recheck/internal/fingerprint"
	"github.com/recheck-ci/recheck/internal/types"
)

// DefaultSimilarityThreshold is the title similarity ratio above which two
// issues on the same file are considered duplicates.
const DefaultSimilarityThreshold = 0.85

// Group is one set of duplicate issues. Keep is the issue to retain
// (the newest); Duplicates are recommended for closure.
type Group struct {
	Keep       types.FlaggedIssue
	Duplicates []types.FlaggedIssue
}

// Config holds deduplication configuration
type Config struct {
	// SimilarityThreshold overrides DefaultSimilarityThreshold when > 0.
	SimilarityThreshold float64
}

// FindDuplicateGroups groups duplicate issues among the given set. Issues
// qualify as duplicates of each other when they reference the same file
// and their normalized titles are similar above the threshold. Only groups
// with at least one duplicate are returned.
//
// The function is pure: closing the duplicates is the caller's decision
// (and is where a dry-run mode belongs).
func FindDuplicateGroups(issues []types.FlaggedIssue, cfg Config) []Group {
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	processed := make(map[string]bool, len(issues))
	var groups []Group

	for i, candidate := range issues {
		if processed[candidate.ID] {
			continue
		}

		members := []types.FlaggedIssue{candidate}
		for _, other := range issues[i+1:] {
			if processed[other.ID] {
				continue
			}
			if candidate.FilePath != other.FilePath {
				continue
			}
			if !fingerprint.TitlesSimilar(candidate.Title, other.Title, threshold) {
				continue
			}
			members = append(members, other)
			processed[other.ID] = true
		}

		if len(members) < 2 {
			continue
		}
		processed[candidate.ID] = true

		// Keep the newest issue: it has the freshest description and the
		// most recent review context.
		sort.SliceStable(members, func(a, b int) bool {
			return members[a].CreatedAt.After(members[b].CreatedAt)
		})
		groups = append(groups, Group{
			Keep:       members[0],
			Duplicates: members[1:],
		})
	}

	return groups
}
