// api/util/cache_service.go

package util

import (
	"context"

	"github.com/dev-mohitbeniwal/taskhub/api/db"
	"github.com/dev-mohitbeniwal/taskhub/api/model"
)

// CacheService is the cache facade used by services. A nil underlying cache
// turns every call into a no-op miss.
type CacheService struct {
	cache *db.RedisCache
}

func NewCacheService(cache *db.RedisCache) *CacheService {
	return &CacheService{cache: cache}
}

// InvalidatePolicySet retires the cached policies for one resource/action pair.
func (c *CacheService) InvalidatePolicySet(ctx context.Context, resource, action string) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.InvalidatePolicySet(ctx, resource, action)
}

// GetUser returns a nil user on a miss, along with the generation SetUser
// must be given.
func (c *CacheService) GetUser(ctx context.Context, userID model.ID) (*model.User, int64, error) {
	if c.cache == nil {
		return nil, 0, nil
	}
	return c.cache.GetCachedUser(ctx, userID)
}

func (c *CacheService) SetUser(ctx context.Context, gen int64, user model.User) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.CacheUser(ctx, gen, &user)
}

func (c *CacheService) InvalidateUser(ctx context.Context, userID model.ID) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.InvalidateUser(ctx, userID)
}
