package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dev-mohitbeniwal/taskhub/api/middleware"
	pdp_model "github.com/dev-mohitbeniwal/taskhub/api/pdp/model"
	"github.com/dev-mohitbeniwal/taskhub/api/util"
)

// AccessCheckResponse is the dry-run result for the calling principal.
type AccessCheckResponse struct {
	Granted bool                     `json:"granted"`
	Reasons []pdp_model.DenialReason `json:"reasons"`
}

// AccessController lets an authenticated principal inspect its own access.
type AccessController struct {
	decider middleware.Decider
}

func NewAccessController(decider middleware.Decider) *AccessController {
	return &AccessController{decider: decider}
}

// RegisterRoutes registers the access routes. The dry-run check reports
// denial details, so it is itself gated by policy.
func (ac *AccessController) RegisterRoutes(r *gin.RouterGroup, abac *middleware.ABAC) {
	r.POST("/access/check", abac.Authorize("/access/check", http.MethodPost), ac.CheckAccess)
	r.GET("/me", ac.Me)
}

// CheckAccess evaluates {resource, action, teamId} for the caller without
// performing it. Actions are matched in upper case, as route methods are.
func (ac *AccessController) CheckAccess(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var request pdp_model.AccessRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid access request", err)
		return
	}
	request.Action = strings.ToUpper(strings.TrimSpace(request.Action))

	verdict, err := ac.decider.Decide(c.Request.Context(), principal, request)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Authorization service unavailable", err)
		return
	}

	reasons := verdict.Reasons
	if reasons == nil {
		reasons = []pdp_model.DenialReason{}
	}
	c.JSON(http.StatusOK, AccessCheckResponse{Granted: verdict.Granted, Reasons: reasons})
}

// Me returns the resolved principal.
func (ac *AccessController) Me(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, principal)
}
