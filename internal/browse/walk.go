package browse

import (
	"context"
	"errors"
	"fmt"

	"github.com/ankiforge/ankiforge/internal/api"
)

// WalkStats summarizes a full-result walk.
type WalkStats struct {
	Pages int
	Cards int
	Total int
}

// ForEachPage visits every page of results for the controller's current
// filters, starting from offset zero with the controller's page size.
// The browse state (items, selection, offset) is left untouched; the walk
// reads through the same client but renders nothing.
//
// Cancellation is honored between requests. The walk also stops when the
// backend returns an empty page early, so a misreported total cannot loop
// forever.
func (c *Controller) ForEachPage(ctx context.Context, visit func(page api.CardPage, offset int) error) (WalkStats, error) {
	c.mu.Lock()
	query := c.filters.Build()
	limit := c.limit
	c.mu.Unlock()

	if limit <= 0 {
		return WalkStats{}, errors.New("page size must be positive")
	}

	var stats WalkStats
	for offset := 0; ; offset += limit {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		page, err := c.client.Cards(ctx, query, offset, limit)
		if err != nil {
			c.logger.Warn("page walk stopped at offset %d: %v", offset, err)
			return stats, fmt.Errorf("fetching page at offset %d: %w", offset, err)
		}

		stats.Pages++
		stats.Cards += len(page.Items)
		stats.Total = page.Total

		if err := visit(page, offset); err != nil {
			return stats, err
		}
		if len(page.Items) == 0 || offset+limit >= page.Total {
			return stats, nil
		}
	}
}
