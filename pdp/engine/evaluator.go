package engine

import (
	"time"

	"github.com/dev-mohitbeniwal/taskhub/api/model"
	pdp_model "github.com/dev-mohitbeniwal/taskhub/api/pdp/model"
)

// Working hours enforced by the time condition, inclusive on both ends.
const (
	WorkdayStartHour = 9
	WorkdayEndHour   = 17
)

const (
	ReasonResourceMismatch = "resource or action mismatch"
	ReasonRoleMismatch     = "role mismatch"
	ReasonDeptMismatch     = "department mismatch"
	ReasonOutsideHours     = "outside allowed hours"
	ReasonNotTeamMember    = "principal not member of requested team"
	ReasonNotAllowListed   = "principal not in allow-list"
	ReasonNoPolicy         = "no applicable policy"
)

// Clock supplies the wall-clock time used by the time condition.
type Clock func() time.Time

type EvaluatorOption func(*PolicyEvaluator)

// WithClock replaces time.Now, mostly for tests.
func WithClock(clock Clock) EvaluatorOption {
	return func(pe *PolicyEvaluator) {
		pe.now = clock
	}
}

// PolicyEvaluator decides whether one policy grants one request. It holds no
// mutable state and is safe for concurrent use.
type PolicyEvaluator struct {
	now Clock
}

func NewPolicyEvaluator(opts ...EvaluatorOption) *PolicyEvaluator {
	pe := &PolicyEvaluator{now: time.Now}
	for _, opt := range opts {
		opt(pe)
	}
	return pe
}

// Evaluate checks policy against the declared resource/action and then each
// enabled condition in a fixed order, stopping at the first failure.
func (pe *PolicyEvaluator) Evaluate(principal model.Principal, resource, action string, policy *model.Policy, rc pdp_model.RequestContext) pdp_model.AccessDecision {
	// Callers usually pre-filter by resource/action; this is re-checked anyway.
	if policy.Resource != resource || policy.Action != action {
		return deny(ReasonResourceMismatch, map[string]interface{}{
			"expectedResource": policy.Resource,
			"actualResource":   resource,
			"expectedAction":   policy.Action,
			"actualAction":     action,
		})
	}

	cond := policy.Conditions

	if cond.Role != "" && cond.Role != principal.Role {
		return deny(ReasonRoleMismatch, map[string]interface{}{
			"expectedRole": cond.Role,
			"actualRole":   principal.Role,
		})
	}

	if cond.Department != "" && cond.Department != principal.Department {
		return deny(ReasonDeptMismatch, map[string]interface{}{
			"expectedDepartment": cond.Department,
			"actualDepartment":   principal.Department,
		})
	}

	if cond.Time {
		hour := pe.now().Hour()
		if hour < WorkdayStartHour || hour > WorkdayEndHour {
			return deny(ReasonOutsideHours, map[string]interface{}{
				"currentHour":  hour,
				"allowedHours": "9-17",
			})
		}
	}

	if cond.TeamAccess && !principal.InTeam(model.ID(rc.TeamID)) {
		return deny(ReasonNotTeamMember, map[string]interface{}{
			"principalTeams":  teamsOrEmpty(principal.Teams),
			"requestedTeamId": rc.TeamID,
		})
	}

	if cond.AllowedUsers != nil && !containsID(cond.AllowedUsers, principal.ID) {
		return deny(ReasonNotAllowListed, map[string]interface{}{
			"allowedUsers": cond.AllowedUsers,
			"principalId":  principal.ID,
		})
	}

	return pdp_model.AccessDecision{Granted: true}
}

func deny(reason string, details map[string]interface{}) pdp_model.AccessDecision {
	return pdp_model.AccessDecision{Granted: false, Reason: reason, Details: details}
}

func containsID(ids []model.ID, id model.ID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func teamsOrEmpty(teams []model.ID) []model.ID {
	if teams == nil {
		return []model.ID{}
	}
	return teams
}
