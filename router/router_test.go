package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dev-mohitbeniwal/taskhub/api/controller"
	"github.com/dev-mohitbeniwal/taskhub/api/db"
	taskhub_errors "github.com/dev-mohitbeniwal/taskhub/api/errors"
	"github.com/dev-mohitbeniwal/taskhub/api/middleware"
	"github.com/dev-mohitbeniwal/taskhub/api/model"
	pdp_dao "github.com/dev-mohitbeniwal/taskhub/api/pdp/dao"
	"github.com/dev-mohitbeniwal/taskhub/api/pdp/engine"
	"github.com/dev-mohitbeniwal/taskhub/api/router"
	"github.com/dev-mohitbeniwal/taskhub/api/service"
	"github.com/dev-mohitbeniwal/taskhub/api/test/mock"
	"github.com/dev-mohitbeniwal/taskhub/api/util"
)

var secret = []byte("router-test-secret")

type principals map[model.ID]model.Principal

func (p principals) GetPrincipal(_ context.Context, id model.ID) (*model.Principal, error) {
	principal, ok := p[id]
	if !ok {
		return nil, taskhub_errors.ErrUserNotFound
	}
	return &principal, nil
}

func newRouter(t *testing.T, rateLimit router.RateLimit) *gin.Engine {
	return newRouterWith(t, pdp_dao.NewMemoryPolicyStore(), rateLimit, model.User{ID: "u1", Role: "worker", Teams: []model.ID{}})
}

// newRouterWith serves the user directory from an in-memory repository, so
// the principal and the team listing come from the same records.
func newRouterWith(t *testing.T, store *pdp_dao.MemoryPolicyStore, rateLimit router.RateLimit, users ...model.User) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := new(mock.MockUserRepository)
	byTeam := map[model.ID][]*model.User{}
	loader := principals{}
	for i := range users {
		u := users[i]
		repo.On("GetUser", tmock.Anything, u.ID).Return(&u, nil).Maybe()
		loader[u.ID] = u.Principal()
		for _, team := range u.Teams {
			byTeam[team] = append(byTeam[team], &u)
		}
	}
	repo.On("ListTeamMembers", tmock.Anything, tmock.Anything).Return(func(_ context.Context, team model.ID) []*model.User {
		return byTeam[team]
	}, nil).Maybe()
	userService := service.NewUserService(repo, util.NewValidationUtil(), util.NewCacheService(nil))

	decider := engine.NewDecisionPoint(store, engine.NewPolicyEvaluator())
	controllers := &controller.Controllers{
		Policy: controller.NewPolicyController(nil),
		User:   controller.NewUserController(userService),
		Access: controller.NewAccessController(decider),
		Audit:  controller.NewAuditController(new(mock.MockAuditService)),
	}
	auth := middleware.NewAuthenticator(secret, "taskhub", loader)
	return router.SetupRouter(controllers, auth, middleware.NewABAC(decider, nil), rateLimit)
}

func get(t *testing.T, r *gin.Engine, path string, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := get(t, newRouter(t, router.RateLimit{}), "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	w := get(t, newRouter(t, router.RateLimit{}), "/api/v1/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPolicyRoutesDenyWithoutPolicy(t *testing.T) {
	token, err := middleware.SignToken(secret, "taskhub", "u1", time.Minute)
	require.NoError(t, err)

	w := get(t, newRouter(t, router.RateLimit{}), "/api/v1/policies", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "no applicable policy")
}

func TestTeamRouteGrantsOnlyMembers(t *testing.T) {
	store := pdp_dao.NewMemoryPolicyStore(model.Policy{
		ID:         "team-members",
		Resource:   "/teams/:teamId/members",
		Action:     http.MethodGet,
		Conditions: model.Conditions{TeamAccess: true},
	})
	r := newRouterWith(t, store, router.RateLimit{},
		model.User{ID: "u1", Name: "Ann", Role: "worker", Teams: []model.ID{"T1"}},
		model.User{ID: "u3", Name: "Cy", Role: "worker", Teams: []model.ID{"T3"}},
	)
	token, err := middleware.SignToken(secret, "taskhub", "u1", time.Minute)
	require.NoError(t, err)

	w := get(t, r, "/api/v1/teams/T1/members", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"u1"`)

	w = get(t, r, "/api/v1/teams/T3/members", token)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "principal not member of requested team")
	assert.NotContains(t, w.Body.String(), `"id":"u3"`)
}

func TestRateLimitPerPrincipal(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cache, err := db.NewRedisCache(client, []byte("0123456789abcdef0123456789abcdef"), time.Minute)
	require.NoError(t, err)

	r := newRouter(t, router.RateLimit{Store: cache, Requests: 2, Window: time.Minute})
	token, err := middleware.SignToken(secret, "taskhub", "u1", time.Minute)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(t, r, "/api/v1/me", token).Code)
	assert.Equal(t, http.StatusOK, get(t, r, "/api/v1/me", token).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, r, "/api/v1/me", token).Code)
}
