package tracker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Counter label prefixes. "ai-not-seen-2x" means two consecutive passes
// without a detection; "ai-seen-2x" means two consecutive passes that
// re-detected the issue. Keeping the counters in labels makes them
// visible on the issue page and survives without any storage of our own.
// At most one of the two counters is non-zero at a time.
const (
	notSeenPrefix = "ai-not-seen-"
	seenPrefix    = "ai-seen-"
)

// NotSeenLabel encodes a miss count as a counter label
func NotSeenLabel(count int) string {
	return fmt.Sprintf("%s%dx", notSeenPrefix, count)
}

// SeenLabel encodes a confirmation count as a counter label
func SeenLabel(count int) string {
	return fmt.Sprintf("%s%dx", seenPrefix, count)
}

// NotSeenCount decodes the miss counter from an issue's labels. Returns 0
// when no counter label is present or it is malformed.
func NotSeenCount(labels []string) int {
	return counterCount(labels, notSeenPrefix)
}

// SeenCount decodes the confirmation counter from an issue's labels.
// Returns 0 when no counter label is present or it is malformed.
func SeenCount(labels []string) int {
	return counterCount(labels, seenPrefix)
}

func counterCount(labels []string, prefix string) int {
	for _, label := range labels {
		if !strings.HasPrefix(label, prefix) {
			continue
		}
		countStr := strings.TrimSuffix(strings.TrimPrefix(label, prefix), "x")
		count, err := strconv.Atoi(countStr)
		if err != nil || count < 0 {
			continue
		}
		return count
	}
	return 0
}

// UpdateNotSeenLabel moves the miss counter label from oldCount to
// newCount on an issue, removing a stale label when one exists.
func (c *Client) UpdateNotSeenLabel(ctx context.Context, number, newCount, oldCount int) error {
	return c.updateCounterLabel(ctx, number, notSeenPrefix, newCount, oldCount)
}

// UpdateSeenLabel moves the confirmation counter label from oldCount to
// newCount on an issue, removing a stale label when one exists.
func (c *Client) UpdateSeenLabel(ctx context.Context, number, newCount, oldCount int) error {
	return c.updateCounterLabel(ctx, number, seenPrefix, newCount, oldCount)
}

func (c *Client) updateCounterLabel(ctx context.Context, number int, prefix string, newCount, oldCount int) error {
	if oldCount > 0 && oldCount != newCount {
		if err := c.RemoveLabel(ctx, number, fmt.Sprintf("%s%dx", prefix, oldCount)); err != nil {
			return err
		}
	}
	if newCount > 0 && newCount != oldCount {
		return c.AddLabel(ctx, number, fmt.Sprintf("%s%dx", prefix, newCount))
	}
	return nil
}
