package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	taskhub_errors "github.com/dev-mohitbeniwal/taskhub/api/errors"
	"github.com/dev-mohitbeniwal/taskhub/api/model"
	pdp_dao "github.com/dev-mohitbeniwal/taskhub/api/pdp/dao"
	"github.com/dev-mohitbeniwal/taskhub/api/pdp/engine"
	pdp_model "github.com/dev-mohitbeniwal/taskhub/api/pdp/model"
)

func decide(t *testing.T, store engine.PolicyStore, principal model.Principal, req pdp_model.AccessRequest) *pdp_model.Verdict {
	t.Helper()
	dp := engine.NewDecisionPoint(store, engine.NewPolicyEvaluator(engine.WithClock(atHour(11))))
	verdict, err := dp.Decide(context.Background(), principal, req)
	require.NoError(t, err)
	return verdict
}

func TestDecide_ScenarioA(t *testing.T) {
	store := pdp_dao.NewMemoryPolicyStore(model.Policy{
		ID: "p1", Resource: "/tasks", Action: "POST", Conditions: model.Conditions{Role: "pm"},
	})
	req := pdp_model.AccessRequest{Resource: "/tasks", Action: "POST"}

	assert.True(t, decide(t, store, model.Principal{ID: "u1", Role: "pm"}, req).Granted)

	v := decide(t, store, model.Principal{ID: "u2", Role: "worker"}, req)
	assert.False(t, v.Granted)
	require.Len(t, v.Reasons, 1)
	assert.Equal(t, engine.ReasonRoleMismatch, v.Reasons[0].Reason)
	assert.Equal(t, model.ID("p1"), v.Reasons[0].PolicyID)
}

func TestDecide_ScenarioB(t *testing.T) {
	store := pdp_dao.NewMemoryPolicyStore(model.Policy{ID: "p1", Resource: "/tasks", Action: "GET"})
	v := decide(t, store, model.Principal{ID: "anyone", Role: "intern"}, pdp_model.AccessRequest{Resource: "/tasks", Action: "GET"})
	assert.True(t, v.Granted)
	assert.Equal(t, model.ID("p1"), v.GrantedBy)
	assert.Empty(t, v.Reasons)
}

func TestDecide_ScenarioC_AnyPolicyGrants(t *testing.T) {
	store := pdp_dao.NewMemoryPolicyStore(
		model.Policy{ID: "admins", Resource: "/projects", Action: "DELETE", Conditions: model.Conditions{Role: "admin"}},
		model.Policy{ID: "owners", Resource: "/projects", Action: "DELETE", Conditions: model.Conditions{AllowedUsers: []model.ID{"u42"}}},
	)
	v := decide(t, store, model.Principal{ID: "u42", Role: "worker"}, pdp_model.AccessRequest{Resource: "/projects", Action: "DELETE"})

	assert.True(t, v.Granted)
	assert.Equal(t, model.ID("owners"), v.GrantedBy)
	assert.Equal(t, []model.ID{"admins", "owners"}, v.EvaluatedPolicies)
}

func TestDecide_NoPolicyDenies(t *testing.T) {
	store := pdp_dao.NewMemoryPolicyStore(model.Policy{ID: "p1", Resource: "/tasks", Action: "GET"})
	v := decide(t, store, model.Principal{ID: "u1", Role: "admin"}, pdp_model.AccessRequest{Resource: "/tasks", Action: "DELETE"})

	assert.False(t, v.Granted)
	require.Len(t, v.Reasons, 1)
	assert.Equal(t, engine.ReasonNoPolicy, v.Reasons[0].Reason)
	assert.Equal(t, "/tasks", v.Reasons[0].Details["resource"])
	assert.Equal(t, "DELETE", v.Reasons[0].Details["action"])
}

func TestDecide_CollectsEveryDenialReason(t *testing.T) {
	store := pdp_dao.NewMemoryPolicyStore(
		model.Policy{ID: "p1", Resource: "/issues", Action: "PUT", Conditions: model.Conditions{Role: "pm"}},
		model.Policy{ID: "p2", Resource: "/issues", Action: "PUT", Conditions: model.Conditions{Time: true}},
		model.Policy{ID: "p3", Resource: "/issues", Action: "PUT", Conditions: model.Conditions{Department: "QA"}},
	)
	dp := engine.NewDecisionPoint(store, engine.NewPolicyEvaluator(engine.WithClock(atHour(21))))
	v, err := dp.Decide(context.Background(), model.Principal{ID: "u1", Role: "worker", Department: "IT"}, pdp_model.AccessRequest{Resource: "/issues", Action: "PUT"})
	require.NoError(t, err)

	assert.False(t, v.Granted)
	require.Len(t, v.Reasons, 3)
	assert.Equal(t, engine.ReasonRoleMismatch, v.Reasons[0].Reason)
	assert.Equal(t, engine.ReasonOutsideHours, v.Reasons[1].Reason)
	assert.Equal(t, engine.ReasonDeptMismatch, v.Reasons[2].Reason)
}

func TestDecide_StoreFailureIsDistinct(t *testing.T) {
	store := pdp_dao.NewMemoryPolicyStore()
	store.Err = errors.New("connection refused")

	dp := engine.NewDecisionPoint(store, engine.NewPolicyEvaluator())
	v, err := dp.Decide(context.Background(), model.Principal{ID: "u1"}, pdp_model.AccessRequest{Resource: "/tasks", Action: "GET"})

	assert.Nil(t, v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, taskhub_errors.ErrPolicyStore))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestDecide_TeamFromRequestContext(t *testing.T) {
	store := pdp_dao.NewMemoryPolicyStore(model.Policy{
		ID: "p1", Resource: "/teams/:teamId/projects", Action: "GET", Conditions: model.Conditions{TeamAccess: true},
	})
	principal := model.Principal{ID: "u1", Teams: []model.ID{"T1", "T2"}}

	req := pdp_model.AccessRequest{Resource: "/teams/:teamId/projects", Action: "GET"}
	req.TeamID = "T1"
	assert.True(t, decide(t, store, principal, req).Granted)

	req.TeamID = "T3"
	assert.False(t, decide(t, store, principal, req).Granted)
}

func TestDecide_ConcurrentUse(t *testing.T) {
	store := pdp_dao.NewMemoryPolicyStore(
		model.Policy{ID: "p1", Resource: "/tasks", Action: "POST", Conditions: model.Conditions{Role: "pm"}},
	)
	dp := engine.NewDecisionPoint(store, engine.NewPolicyEvaluator())
	req := pdp_model.AccessRequest{Resource: "/tasks", Action: "POST"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			role := "pm"
			if i%2 == 1 {
				role = "worker"
			}
			v, err := dp.Decide(context.Background(), model.Principal{ID: "u", Role: role}, req)
			assert.NoError(t, err)
			assert.Equal(t, role == "pm", v.Granted)
		}(i)
	}
	wg.Wait()
}
