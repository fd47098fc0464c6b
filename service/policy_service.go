package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	taskhub_errors "github.com/dev-mohitbeniwal/taskhub/api/errors"
	logger "github.com/dev-mohitbeniwal/taskhub/api/logging"
	"github.com/dev-mohitbeniwal/taskhub/api/model"
	"github.com/dev-mohitbeniwal/taskhub/api/util"
)

// bulkCreateConcurrency bounds parallel writes during BulkCreatePolicies.
const bulkCreateConcurrency = 10

// IPolicyService defines the interface for policy administration.
type IPolicyService interface {
	CreatePolicy(ctx context.Context, policy model.Policy, userID model.ID) (*model.Policy, error)
	UpdatePolicy(ctx context.Context, policy model.Policy, userID model.ID) (*model.Policy, error)
	DeletePolicy(ctx context.Context, policyID model.ID, userID model.ID) error
	GetPolicy(ctx context.Context, policyID model.ID) (*model.Policy, error)
	ListPolicies(ctx context.Context, limit int, offset int) ([]*model.Policy, error)
	SearchPolicies(ctx context.Context, criteria model.PolicySearchCriteria) ([]*model.Policy, error)
	BulkCreatePolicies(ctx context.Context, policies []model.Policy, userID model.ID) ([]model.ID, error)
}

// PolicyRepository is the persistence dao.PolicyDAO provides.
type PolicyRepository interface {
	CreatePolicy(ctx context.Context, policy model.Policy) (*model.Policy, error)
	UpdatePolicy(ctx context.Context, policy model.Policy) (*model.Policy, error)
	DeletePolicy(ctx context.Context, policyID model.ID) error
	GetPolicy(ctx context.Context, policyID model.ID) (*model.Policy, error)
	ListPolicies(ctx context.Context, limit int, offset int) ([]*model.Policy, error)
	SearchPolicies(ctx context.Context, criteria model.PolicySearchCriteria) ([]*model.Policy, error)
}

// PolicySetInvalidator drops cached policy sets; util.CacheService implements it.
type PolicySetInvalidator interface {
	InvalidatePolicySet(ctx context.Context, resource, action string) error
}

// PolicyUpdate is the payload of EventPolicyUpdated.
type PolicyUpdate struct {
	Old model.Policy `json:"old"`
	New model.Policy `json:"new"`
}

// PolicyService handles business logic for policy operations
type PolicyService struct {
	policyDAO      PolicyRepository
	validationUtil *util.ValidationUtil
	cache          PolicySetInvalidator
	eventBus       *util.EventBus
}

var _ IPolicyService = &PolicyService{}

// NewPolicyService creates a new instance of PolicyService
func NewPolicyService(policyDAO PolicyRepository, validationUtil *util.ValidationUtil, cache PolicySetInvalidator, eventBus *util.EventBus) *PolicyService {
	return &PolicyService{
		policyDAO:      policyDAO,
		validationUtil: validationUtil,
		cache:          cache,
		eventBus:       eventBus,
	}
}

// CreatePolicy handles the creation of a new policy
func (s *PolicyService) CreatePolicy(ctx context.Context, policy model.Policy, userID model.ID) (*model.Policy, error) {
	if err := s.validationUtil.ValidatePolicy(&policy); err != nil {
		return nil, fmt.Errorf("%w: %v", taskhub_errors.ErrInvalidPolicyData, err)
	}
	return s.create(ctx, policy, userID)
}

func (s *PolicyService) create(ctx context.Context, policy model.Policy, userID model.ID) (*model.Policy, error) {
	created, err := s.policyDAO.CreatePolicy(ctx, policy)
	if err != nil {
		logger.Error("Error creating policy", zap.Error(err), zap.String("userID", string(userID)))
		return nil, fmt.Errorf("failed to create policy: %w", err)
	}

	invErr := s.invalidate(ctx, created.Resource, created.Action)
	s.publish(ctx, util.EventPolicyCreated, userID, created.ID, *created)
	if invErr != nil {
		return created, invErr
	}

	logger.Info("Policy created successfully",
		zap.String("policyID", string(created.ID)),
		zap.String("resource", created.Resource),
		zap.String("action", created.Action),
		zap.String("userID", string(userID)))
	return created, nil
}

// UpdatePolicy handles updates to an existing policy. Unchanged policies are
// returned as stored without a write.
func (s *PolicyService) UpdatePolicy(ctx context.Context, policy model.Policy, userID model.ID) (*model.Policy, error) {
	if err := s.validationUtil.ValidatePolicy(&policy); err != nil {
		return nil, fmt.Errorf("%w: %v", taskhub_errors.ErrInvalidPolicyData, err)
	}

	oldPolicy, err := s.policyDAO.GetPolicy(ctx, policy.ID)
	if err != nil {
		logger.Error("Error retrieving existing policy", zap.Error(err), zap.String("policyID", string(policy.ID)))
		return nil, err
	}

	if !hasPolicyChanged(oldPolicy, &policy) {
		logger.Info("No changes detected in the policy, skipping update", zap.String("policyID", string(policy.ID)))
		return oldPolicy, nil
	}

	updatedPolicy, err := s.policyDAO.UpdatePolicy(ctx, policy)
	if err != nil {
		logger.Error("Error updating policy",
			zap.Error(err),
			zap.String("policyID", string(policy.ID)),
			zap.String("userID", string(userID)))
		return nil, fmt.Errorf("failed to update policy: %w", err)
	}

	// both the pair it left and the pair it joined may be cached
	invErr := s.invalidate(ctx, oldPolicy.Resource, oldPolicy.Action)
	if oldPolicy.Resource != updatedPolicy.Resource || oldPolicy.Action != updatedPolicy.Action {
		if err := s.invalidate(ctx, updatedPolicy.Resource, updatedPolicy.Action); err != nil && invErr == nil {
			invErr = err
		}
	}
	s.publish(ctx, util.EventPolicyUpdated, userID, updatedPolicy.ID, PolicyUpdate{Old: *oldPolicy, New: *updatedPolicy})
	if invErr != nil {
		return updatedPolicy, invErr
	}

	logger.Info("Policy updated successfully",
		zap.String("policyID", string(policy.ID)),
		zap.Int("version", updatedPolicy.Version),
		zap.String("userID", string(userID)))
	return updatedPolicy, nil
}

// DeletePolicy handles the deletion of a policy
func (s *PolicyService) DeletePolicy(ctx context.Context, policyID model.ID, userID model.ID) error {
	existing, err := s.policyDAO.GetPolicy(ctx, policyID)
	if err != nil {
		return err
	}

	if err := s.policyDAO.DeletePolicy(ctx, policyID); err != nil {
		logger.Error("Error deleting policy",
			zap.Error(err),
			zap.String("policyID", string(policyID)),
			zap.String("userID", string(userID)))
		return fmt.Errorf("failed to delete policy: %w", err)
	}

	invErr := s.invalidate(ctx, existing.Resource, existing.Action)
	s.publish(ctx, util.EventPolicyDeleted, userID, policyID, *existing)
	if invErr != nil {
		return invErr
	}

	logger.Info("Policy deleted successfully", zap.String("policyID", string(policyID)), zap.String("userID", string(userID)))
	return nil
}

// GetPolicy retrieves a policy by its ID
func (s *PolicyService) GetPolicy(ctx context.Context, policyID model.ID) (*model.Policy, error) {
	policy, err := s.policyDAO.GetPolicy(ctx, policyID)
	if err != nil {
		if errors.Is(err, taskhub_errors.ErrPolicyNotFound) {
			return nil, taskhub_errors.ErrPolicyNotFound
		}
		logger.Error("Error retrieving policy", zap.Error(err), zap.String("policyID", string(policyID)))
		return nil, fmt.Errorf("%w: %v", taskhub_errors.ErrInternalServer, err)
	}
	return policy, nil
}

// ListPolicies retrieves policies with pagination
func (s *PolicyService) ListPolicies(ctx context.Context, limit int, offset int) ([]*model.Policy, error) {
	if limit <= 0 || offset < 0 {
		return nil, taskhub_errors.ErrInvalidPagination
	}
	policies, err := s.policyDAO.ListPolicies(ctx, limit, offset)
	if err != nil {
		logger.Error("Error listing policies", zap.Error(err), zap.Int("limit", limit), zap.Int("offset", offset))
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	return policies, nil
}

// SearchPolicies searches for policies based on given criteria
func (s *PolicyService) SearchPolicies(ctx context.Context, criteria model.PolicySearchCriteria) ([]*model.Policy, error) {
	if err := s.validationUtil.ValidateSearchCriteria(criteria); err != nil {
		return nil, fmt.Errorf("%w: %v", taskhub_errors.ErrInvalidSearchCriteria, err)
	}
	policies, err := s.policyDAO.SearchPolicies(ctx, criteria)
	if err != nil {
		logger.Error("Error searching policies", zap.Error(err), zap.Any("criteria", criteria))
		return nil, fmt.Errorf("failed to search policies: %w", err)
	}
	return policies, nil
}

// BulkCreatePolicies validates every policy up front, then creates them in
// parallel. Returned ids are in input order. Creation is not atomic: when a
// write fails, policies already created stay in place and their ids are
// returned alongside the error, with empty ids for the ones that were not.
func (s *PolicyService) BulkCreatePolicies(ctx context.Context, policies []model.Policy, userID model.ID) ([]model.ID, error) {
	for i := range policies {
		if err := s.validationUtil.ValidatePolicy(&policies[i]); err != nil {
			return nil, fmt.Errorf("%w: policy %d: %v", taskhub_errors.ErrInvalidPolicyData, i, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkCreateConcurrency)
	policyIDs := make([]model.ID, len(policies))

	for i, policy := range policies {
		i, policy := i, policy
		g.Go(func() error {
			created, err := s.create(gctx, policy, userID)
			if created != nil {
				policyIDs[i] = created.ID
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Error in bulk create policies",
			zap.Error(err),
			zap.Int("created", countCreated(policyIDs)),
			zap.String("userID", string(userID)))
		return policyIDs, fmt.Errorf("failed to bulk create policies: %w", err)
	}

	logger.Info("Bulk create policies completed", zap.Int("count", len(policyIDs)), zap.String("userID", string(userID)))
	return policyIDs, nil
}

func countCreated(ids []model.ID) int {
	n := 0
	for _, id := range ids {
		if id != "" {
			n++
		}
	}
	return n
}

// invalidate retires the cached set for a pair the write touched. A failure is
// returned to the caller: the store already holds the change, but cached
// decisions may still reflect the old set until the entry expires.
func (s *PolicyService) invalidate(ctx context.Context, resource, action string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.InvalidatePolicySet(ctx, resource, action); err != nil {
		logger.Error("Failed to invalidate cached policy set",
			zap.Error(err),
			zap.String("resource", resource),
			zap.String("action", action))
		return fmt.Errorf("%w: %v", taskhub_errors.ErrCacheInvalidation, err)
	}
	return nil
}

func (s *PolicyService) publish(ctx context.Context, eventType string, actor, subject model.ID, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, util.Event{
		Type:      eventType,
		ActorID:   string(actor),
		SubjectID: string(subject),
		Payload:   payload,
	})
}

func hasPolicyChanged(oldPolicy, newPolicy *model.Policy) bool {
	return oldPolicy.Name != newPolicy.Name ||
		oldPolicy.Description != newPolicy.Description ||
		oldPolicy.Resource != newPolicy.Resource ||
		oldPolicy.Action != newPolicy.Action ||
		!oldPolicy.Conditions.Equal(newPolicy.Conditions)
}
