package dao

import (
	"context"

	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/taskhub/api/logging"
	"github.com/dev-mohitbeniwal/taskhub/api/model"
	"github.com/dev-mohitbeniwal/taskhub/api/pdp/engine"
)

// PolicySetCache is satisfied by db.RedisCache.
type PolicySetCache interface {
	GetCachedPolicySet(ctx context.Context, resource, action string) ([]*model.Policy, int64, bool, error)
	CachePolicySet(ctx context.Context, resource, action string, gen int64, policies []*model.Policy) error
}

// CachedPolicyStore reads through a cache to the backing store. Fills are
// tagged with the generation observed on the miss, so a set loaded before an
// invalidation is never served after it. Cache failures fall back to the
// backing store without filling; backing store failures are returned as-is.
type CachedPolicyStore struct {
	backing engine.PolicyStore
	cache   PolicySetCache
}

func NewCachedPolicyStore(backing engine.PolicyStore, cache PolicySetCache) *CachedPolicyStore {
	return &CachedPolicyStore{backing: backing, cache: cache}
}

func (s *CachedPolicyStore) FindPolicies(ctx context.Context, resource, action string) ([]*model.Policy, error) {
	policies, gen, found, err := s.cache.GetCachedPolicySet(ctx, resource, action)
	if err != nil {
		logger.Warn("Policy cache read failed, using store",
			zap.Error(err),
			zap.String("resource", resource),
			zap.String("action", action))
		return s.backing.FindPolicies(ctx, resource, action)
	}
	if found {
		return policies, nil
	}

	policies, err = s.backing.FindPolicies(ctx, resource, action)
	if err != nil {
		return nil, err
	}

	if err := s.cache.CachePolicySet(ctx, resource, action, gen, policies); err != nil {
		logger.Warn("Failed to cache policy set",
			zap.Error(err),
			zap.String("resource", resource),
			zap.String("action", action))
	}
	return policies, nil
}
