package dao

import (
	"context"
	"sync"

	"github.com/dev-mohitbeniwal/taskhub/api/model"
)

// MemoryPolicyStore keeps policies in process. It backs `policyctl eval` and tests.
type MemoryPolicyStore struct {
	mu       sync.RWMutex
	policies []model.Policy
	// Err, when set, is returned from every lookup.
	Err error
}

func NewMemoryPolicyStore(policies ...model.Policy) *MemoryPolicyStore {
	s := &MemoryPolicyStore{}
	s.Add(policies...)
	return s
}

func (s *MemoryPolicyStore) Add(policies ...model.Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies = append(s.policies, policies...)
}

// FindPolicies returns copies so callers never share state with the store.
func (s *MemoryPolicyStore) FindPolicies(ctx context.Context, resource, action string) ([]*model.Policy, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*model.Policy{}
	for _, p := range s.policies {
		if p.Resource == resource && p.Action == action {
			policy := p
			if p.Conditions.AllowedUsers != nil {
				policy.Conditions.AllowedUsers = append([]model.ID{}, p.Conditions.AllowedUsers...)
			}
			matched = append(matched, &policy)
		}
	}
	return matched, nil
}
