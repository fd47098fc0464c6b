package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dev-mohitbeniwal/taskhub/api/model"
	"github.com/dev-mohitbeniwal/taskhub/api/pdp/engine"
	pdp_model "github.com/dev-mohitbeniwal/taskhub/api/pdp/model"
)

func atHour(hour int) engine.Clock {
	return func() time.Time {
		return time.Date(2024, time.June, 3, hour, 30, 0, 0, time.Local)
	}
}

func noTeam() pdp_model.RequestContext { return pdp_model.RequestContext{} }

func TestEvaluate_ResourceOrActionMismatchAlwaysDenies(t *testing.T) {
	pe := engine.NewPolicyEvaluator()
	policy := &model.Policy{Resource: "/tasks", Action: "POST"}
	principal := model.Principal{ID: "u1", Role: "pm"}

	tests := []struct {
		name     string
		resource string
		action   string
	}{
		{"other resource", "/projects", "POST"},
		{"other action", "/tasks", "GET"},
		{"both differ", "/issues", "DELETE"},
		{"prefix is not a match", "/tasks/:id", "POST"},
		{"case matters", "/tasks", "post"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := pe.Evaluate(principal, tt.resource, tt.action, policy, noTeam())
			assert.False(t, d.Granted)
			assert.Equal(t, engine.ReasonResourceMismatch, d.Reason)
			assert.Equal(t, "/tasks", d.Details["expectedResource"])
			assert.Equal(t, tt.resource, d.Details["actualResource"])
			assert.Equal(t, "POST", d.Details["expectedAction"])
			assert.Equal(t, tt.action, d.Details["actualAction"])
		})
	}
}

func TestEvaluate_EmptyConditionsGrantAnyone(t *testing.T) {
	pe := engine.NewPolicyEvaluator()
	policy := &model.Policy{Resource: "/tasks", Action: "GET"}

	for _, p := range []model.Principal{
		{ID: "u1", Role: "pm"},
		{ID: "u2", Role: "worker", Department: "IT"},
		{},
	} {
		d := pe.Evaluate(p, "/tasks", "GET", policy, noTeam())
		assert.True(t, d.Granted)
		assert.Empty(t, d.Reason)
		assert.Nil(t, d.Details)
	}
}

func TestEvaluate_RoleCondition(t *testing.T) {
	pe := engine.NewPolicyEvaluator()
	policy := &model.Policy{Resource: "/tasks", Action: "POST", Conditions: model.Conditions{Role: "pm"}}

	assert.True(t, pe.Evaluate(model.Principal{ID: "u1", Role: "pm"}, "/tasks", "POST", policy, noTeam()).Granted)

	d := pe.Evaluate(model.Principal{ID: "u2", Role: "worker"}, "/tasks", "POST", policy, noTeam())
	assert.False(t, d.Granted)
	assert.Equal(t, engine.ReasonRoleMismatch, d.Reason)
	assert.Equal(t, "pm", d.Details["expectedRole"])
	assert.Equal(t, "worker", d.Details["actualRole"])
}

func TestEvaluate_DepartmentCondition(t *testing.T) {
	pe := engine.NewPolicyEvaluator()
	policy := &model.Policy{Resource: "/projects", Action: "GET", Conditions: model.Conditions{Department: "IT"}}

	assert.True(t, pe.Evaluate(model.Principal{Department: "IT"}, "/projects", "GET", policy, noTeam()).Granted)

	d := pe.Evaluate(model.Principal{Department: "HR"}, "/projects", "GET", policy, noTeam())
	assert.False(t, d.Granted)
	assert.Equal(t, engine.ReasonDeptMismatch, d.Reason)
	assert.Equal(t, "IT", d.Details["expectedDepartment"])
	assert.Equal(t, "HR", d.Details["actualDepartment"])

	// a principal without a department never matches a department condition
	d = pe.Evaluate(model.Principal{}, "/projects", "GET", policy, noTeam())
	assert.False(t, d.Granted)
}

func TestEvaluate_TimeWindowBoundaries(t *testing.T) {
	policy := &model.Policy{Resource: "/tasks", Action: "PUT", Conditions: model.Conditions{Time: true}}

	tests := []struct {
		hour    int
		granted bool
	}{
		{0, false},
		{8, false},
		{9, true},
		{12, true},
		{17, true},
		{18, false},
		{23, false},
	}
	for _, tt := range tests {
		pe := engine.NewPolicyEvaluator(engine.WithClock(atHour(tt.hour)))
		d := pe.Evaluate(model.Principal{ID: "u1"}, "/tasks", "PUT", policy, noTeam())
		assert.Equal(t, tt.granted, d.Granted, "hour %d", tt.hour)
		if !tt.granted {
			assert.Equal(t, engine.ReasonOutsideHours, d.Reason)
			assert.Equal(t, tt.hour, d.Details["currentHour"])
			assert.Equal(t, "9-17", d.Details["allowedHours"])
		}
	}
}

func TestEvaluate_TimeDisabledIgnoresClock(t *testing.T) {
	pe := engine.NewPolicyEvaluator(engine.WithClock(atHour(3)))
	policy := &model.Policy{Resource: "/tasks", Action: "PUT", Conditions: model.Conditions{Time: false}}
	assert.True(t, pe.Evaluate(model.Principal{}, "/tasks", "PUT", policy, noTeam()).Granted)
}

func TestEvaluate_TeamContainment(t *testing.T) {
	pe := engine.NewPolicyEvaluator()
	policy := &model.Policy{Resource: "/teams/:teamId/projects", Action: "GET", Conditions: model.Conditions{TeamAccess: true}}
	principal := model.Principal{ID: "u1", Teams: []model.ID{"T1", "T2"}}

	d := pe.Evaluate(principal, "/teams/:teamId/projects", "GET", policy, pdp_model.RequestContext{TeamID: "T1"})
	assert.True(t, d.Granted)

	d = pe.Evaluate(principal, "/teams/:teamId/projects", "GET", policy, pdp_model.RequestContext{TeamID: "T3"})
	assert.False(t, d.Granted)
	assert.Equal(t, engine.ReasonNotTeamMember, d.Reason)
	assert.Equal(t, []model.ID{"T1", "T2"}, d.Details["principalTeams"])
	assert.Equal(t, "T3", d.Details["requestedTeamId"])

	// absent team id fails the check
	d = pe.Evaluate(principal, "/teams/:teamId/projects", "GET", policy, noTeam())
	assert.False(t, d.Granted)
	assert.Equal(t, engine.ReasonNotTeamMember, d.Reason)
}

func TestEvaluate_EmptyTeamSetNeverContainsATeam(t *testing.T) {
	pe := engine.NewPolicyEvaluator()
	policy := &model.Policy{Resource: "/teams/:teamId/projects", Action: "GET", Conditions: model.Conditions{TeamAccess: true}}

	for _, principal := range []model.Principal{
		{ID: "u1", Teams: []model.ID{}},
		{ID: "u1"},
	} {
		d := pe.Evaluate(principal, "/teams/:teamId/projects", "GET", policy, pdp_model.RequestContext{TeamID: "T1"})
		assert.False(t, d.Granted)
		assert.Equal(t, []model.ID{}, d.Details["principalTeams"])
	}
}

func TestEvaluate_AllowList(t *testing.T) {
	pe := engine.NewPolicyEvaluator()
	policy := &model.Policy{Resource: "/projects", Action: "DELETE", Conditions: model.Conditions{AllowedUsers: []model.ID{"u1", "u2"}}}

	assert.True(t, pe.Evaluate(model.Principal{ID: "u1"}, "/projects", "DELETE", policy, noTeam()).Granted)

	d := pe.Evaluate(model.Principal{ID: "u3"}, "/projects", "DELETE", policy, noTeam())
	assert.False(t, d.Granted)
	assert.Equal(t, engine.ReasonNotAllowListed, d.Reason)
	assert.Equal(t, []model.ID{"u1", "u2"}, d.Details["allowedUsers"])
	assert.Equal(t, model.ID("u3"), d.Details["principalId"])
}

func TestEvaluate_PresentButEmptyAllowListDeniesEveryone(t *testing.T) {
	pe := engine.NewPolicyEvaluator()
	policy := &model.Policy{Resource: "/projects", Action: "DELETE", Conditions: model.Conditions{AllowedUsers: []model.ID{}}}
	assert.False(t, pe.Evaluate(model.Principal{ID: "u1"}, "/projects", "DELETE", policy, noTeam()).Granted)
}

func TestEvaluate_AllConditionsAreConjunctive(t *testing.T) {
	pe := engine.NewPolicyEvaluator(engine.WithClock(atHour(10)))
	policy := &model.Policy{
		Resource: "/teams/:teamId/tasks",
		Action:   "POST",
		Conditions: model.Conditions{
			Role:         "pm",
			Department:   "IT",
			Time:         true,
			TeamAccess:   true,
			AllowedUsers: []model.ID{"u1"},
		},
	}
	full := model.Principal{ID: "u1", Role: "pm", Department: "IT", Teams: []model.ID{"T1"}}
	rc := pdp_model.RequestContext{TeamID: "T1"}

	assert.True(t, pe.Evaluate(full, "/teams/:teamId/tasks", "POST", policy, rc).Granted)

	// failing exactly one of the five predicates denies, with that predicate's reason
	broken := []struct {
		reason    string
		principal model.Principal
		rc        pdp_model.RequestContext
		clock     engine.Clock
	}{
		{engine.ReasonRoleMismatch, model.Principal{ID: "u1", Role: "worker", Department: "IT", Teams: []model.ID{"T1"}}, rc, atHour(10)},
		{engine.ReasonDeptMismatch, model.Principal{ID: "u1", Role: "pm", Department: "HR", Teams: []model.ID{"T1"}}, rc, atHour(10)},
		{engine.ReasonOutsideHours, full, rc, atHour(20)},
		{engine.ReasonNotTeamMember, full, pdp_model.RequestContext{TeamID: "T9"}, atHour(10)},
		{engine.ReasonNotAllowListed, model.Principal{ID: "u7", Role: "pm", Department: "IT", Teams: []model.ID{"T1"}}, rc, atHour(10)},
	}
	for _, tt := range broken {
		t.Run(tt.reason, func(t *testing.T) {
			pe := engine.NewPolicyEvaluator(engine.WithClock(tt.clock))
			d := pe.Evaluate(tt.principal, "/teams/:teamId/tasks", "POST", policy, tt.rc)
			assert.False(t, d.Granted)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestEvaluate_ReportsFirstFailureInOrder(t *testing.T) {
	pe := engine.NewPolicyEvaluator(engine.WithClock(atHour(22)))
	policy := &model.Policy{
		Resource:   "/tasks",
		Action:     "POST",
		Conditions: model.Conditions{Role: "pm", Time: true, AllowedUsers: []model.ID{"u9"}},
	}
	d := pe.Evaluate(model.Principal{ID: "u1", Role: "worker"}, "/tasks", "POST", policy, noTeam())
	assert.Equal(t, engine.ReasonRoleMismatch, d.Reason)
}
