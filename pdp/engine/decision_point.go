package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	taskhub_errors "github.com/dev-mohitbeniwal/taskhub/api/errors"
	logger "github.com/dev-mohitbeniwal/taskhub/api/logging"
	"github.com/dev-mohitbeniwal/taskhub/api/model"
	pdp_model "github.com/dev-mohitbeniwal/taskhub/api/pdp/model"
)

// PolicyStore finds every policy bound to exactly resource and action.
type PolicyStore interface {
	FindPolicies(ctx context.Context, resource, action string) ([]*model.Policy, error)
}

// DecisionPoint combines the policies of a resource/action pair: the request
// is granted when any single policy grants it.
type DecisionPoint struct {
	store     PolicyStore
	evaluator *PolicyEvaluator
}

func NewDecisionPoint(store PolicyStore, evaluator *PolicyEvaluator) *DecisionPoint {
	return &DecisionPoint{store: store, evaluator: evaluator}
}

// Decide returns an error only when the store fails; that error wraps
// ErrPolicyStore. Denials are reported in the Verdict.
func (dp *DecisionPoint) Decide(ctx context.Context, principal model.Principal, request pdp_model.AccessRequest) (*pdp_model.Verdict, error) {
	start := time.Now()

	policies, err := dp.store.FindPolicies(ctx, request.Resource, request.Action)
	if err != nil {
		logger.Error("Failed to load policies",
			zap.Error(err),
			zap.String("resource", request.Resource),
			zap.String("action", request.Action),
			zap.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("%w: %v", taskhub_errors.ErrPolicyStore, err)
	}

	if len(policies) == 0 {
		return &pdp_model.Verdict{
			Granted: false,
			Reasons: []pdp_model.DenialReason{{
				Reason: ReasonNoPolicy,
				Details: map[string]interface{}{
					"resource": request.Resource,
					"action":   request.Action,
				},
			}},
		}, nil
	}

	verdict := &pdp_model.Verdict{
		EvaluatedPolicies: make([]model.ID, 0, len(policies)),
	}
	for _, policy := range policies {
		verdict.EvaluatedPolicies = append(verdict.EvaluatedPolicies, policy.ID)

		decision := dp.evaluator.Evaluate(principal, request.Resource, request.Action, policy, request.RequestContext)
		if decision.Granted {
			if !verdict.Granted {
				verdict.Granted = true
				verdict.GrantedBy = policy.ID
			}
			continue
		}
		verdict.Reasons = append(verdict.Reasons, pdp_model.DenialReason{
			PolicyID: policy.ID,
			Reason:   decision.Reason,
			Details:  decision.Details,
		})
	}

	logger.Debug("Access decision computed",
		zap.String("principal", string(principal.ID)),
		zap.String("resource", request.Resource),
		zap.String("action", request.Action),
		zap.Bool("granted", verdict.Granted),
		zap.Int("policyCount", len(policies)),
		zap.Duration("duration", time.Since(start)))

	return verdict, nil
}
