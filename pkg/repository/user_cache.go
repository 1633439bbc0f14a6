package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/dskvich/homework-solver-bot/pkg/domain"
)

const userCacheTTL = time.Hour

type UserStore interface {
	GetOrCreate(ctx context.Context, s domain.Submitter) (int64, error)
}

// cachedUsers keeps external id to user id mappings in memory. Names are refreshed in the
// database once the cached entry expires.
type cachedUsers struct {
	next  UserStore
	cache *ristretto.Cache[int64, int64]
}

func NewCachedUsers(next UserStore, maxEntries int64) (*cachedUsers, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[int64, int64]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating user cache: %w", err)
	}

	return &cachedUsers{next: next, cache: cache}, nil
}

func (c *cachedUsers) GetOrCreate(ctx context.Context, s domain.Submitter) (int64, error) {
	if id, ok := c.cache.Get(s.ExternalID); ok {
		return id, nil
	}

	id, err := c.next.GetOrCreate(ctx, s)
	if err != nil {
		return 0, err
	}

	c.cache.SetWithTTL(s.ExternalID, id, 1, userCacheTTL)

	return id, nil
}

func (c *cachedUsers) Close() {
	c.cache.Close()
}
