// api/router/router.go

package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dev-mohitbeniwal/taskhub/api/controller"
	"github.com/dev-mohitbeniwal/taskhub/api/middleware"
)

// RateLimit configures the per-caller limiter. A nil Store disables it.
type RateLimit struct {
	Store    middleware.RateLimitStore
	Requests int
	Window   time.Duration
}

func SetupRouter(
	controllers *controller.Controllers,
	authenticator *middleware.Authenticator,
	abac *middleware.ABAC,
	rateLimit RateLimit,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.Use(authenticator.Authenticate())
	if rateLimit.Store != nil {
		api.Use(middleware.RateLimiter(rateLimit.Store, rateLimit.Requests, rateLimit.Window))
	}

	controllers.Policy.RegisterRoutes(api, abac)
	controllers.User.RegisterRoutes(api, abac)
	controllers.Access.RegisterRoutes(api, abac)
	controllers.Audit.RegisterRoutes(api, abac)

	return router
}
