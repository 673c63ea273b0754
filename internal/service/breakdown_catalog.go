package service

import (
	"context"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/repository"
)

// BreakdownCatalog is a read-through cache over the breakdown catalog.
// Breakdowns are immutable, so entries are never invalidated, only expired.
type BreakdownCatalog struct {
	entries *cache.Cache
}

// NewBreakdownCatalog builds a catalog whose entries live for ttl.
// A non-positive ttl disables caching.
func NewBreakdownCatalog(ttl time.Duration) *BreakdownCatalog {
	if ttl <= 0 {
		return &BreakdownCatalog{}
	}
	return &BreakdownCatalog{entries: cache.New(ttl, 2*ttl)}
}

// Lookup returns the breakdown with id, reading through repo on a miss.
// Repository errors, including pgx.ErrNoRows, are returned unchanged.
func (c *BreakdownCatalog) Lookup(ctx context.Context, repo repository.BreakdownRepository, id string) (*domain.Breakdown, error) {
	if c.entries != nil {
		if cached, ok := c.entries.Get(id); ok {
			b := cached.(domain.Breakdown)
			return &b, nil
		}
	}
	b, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.entries != nil {
		c.entries.SetDefault(id, *b)
	}
	return b, nil
}

// Len reports how many breakdowns are currently cached.
func (c *BreakdownCatalog) Len() int {
	if c.entries == nil {
		return 0
	}
	return c.entries.ItemCount()
}
